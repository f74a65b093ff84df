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

// Package wshub implements types.Broadcaster as a websocket room hub.
// Subscribers join a room over `GET /ws/:room`; broadcast nodes push
// events into the room.
package wshub

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/json"
)

const (
	writeTimeout   = 10 * time.Second
	sendBufferSize = 16
)

// event is the wire frame pushed to subscribers.
type event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub tracks room subscriptions and fans broadcast events out to them.
// A slow subscriber is disconnected instead of blocking the room.
type Hub struct {
	logger   types.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger types.Logger) *Hub {
	return &Hub{
		logger: types.NewLogger(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rooms: make(map[string]map[*client]struct{}),
	}
}

// Handler upgrades `GET /ws/:room` requests and subscribes the connection
// to the room.
func (h *Hub) Handler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		room := params.ByName("room")
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Printf("E! websocket upgrade failed, room=%s: %v", room, err)
			return
		}
		c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
		h.join(room, c)
		go c.writePump()
		go h.readPump(room, c)
	}
}

// Broadcast pushes one event to every subscriber of the room.
func (h *Hub) Broadcast(room, eventName string, payload interface{}) error {
	frame, err := json.Marshal(event{Event: eventName, Payload: payload})
	if err != nil {
		return err
	}
	var slow []*client
	h.mu.RLock()
	for c := range h.rooms[room] {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	// a slow subscriber is dropped instead of blocking the room
	for _, c := range slow {
		h.disconnect(room, c)
	}
	return nil
}

// RoomSize returns the number of subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]map[*client]struct{})
	h.mu.Unlock()
	for _, subscribers := range rooms {
		for c := range subscribers {
			close(c.send)
			_ = c.conn.Close()
		}
	}
}

func (h *Hub) join(room string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subscribers := h.rooms[room]
	if subscribers == nil {
		subscribers = make(map[*client]struct{})
		h.rooms[room] = subscribers
	}
	subscribers[c] = struct{}{}
}

// disconnect unsubscribes the client and closes its send channel. The
// channel is only closed while the client is still subscribed, so
// Broadcast can never race a send against the close.
func (h *Hub) disconnect(room string, c *client) {
	h.mu.Lock()
	subscribers := h.rooms[room]
	if _, ok := subscribers[c]; ok {
		delete(subscribers, c)
		if len(subscribers) == 0 {
			delete(h.rooms, room)
		}
		close(c.send)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// readPump drains inbound frames so pings and closes are processed; the
// hub is push-only.
func (h *Hub) readPump(room string, c *client) {
	defer h.disconnect(room, c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	for frame := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}
