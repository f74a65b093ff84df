/*
 * Copyright 2025 The Scadaflow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package wshub

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"

	"github.com/scadaflow/scadaflow/utils/json"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	router := httprouter.New()
	router.GET("/ws/:room", hub.Handler())
	server := httptest.NewServer(router)
	defer server.Close()

	wsUrl := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsUrl+"/ws/thing:well-1", nil)
	assert.NoError(t, err)
	defer conn.Close()

	// wait for the subscription to land
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize("thing:well-1") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, hub.RoomSize("thing:well-1"))

	err = hub.Broadcast("thing:well-1", "features", map[string]interface{}{"pressure": 120.5})
	assert.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	assert.NoError(t, err)

	var got map[string]interface{}
	assert.NoError(t, json.Unmarshal(frame, &got))
	assert.Equal(t, "features", got["event"])
	payload, ok := got["payload"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, 120.5, payload["pressure"])

	// a room without subscribers is not an error
	assert.NoError(t, hub.Broadcast("thing:ghost", "features", nil))
}
