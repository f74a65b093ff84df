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

package twin

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scadaflow/scadaflow/api/types"
)

func TestClient(t *testing.T) {
	var gotAuth, gotMethod, gotPath string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/api/2/things/well-1/attributes":
			_, _ = w.Write([]byte(`{"name":"Well 1","assetType":"well"}`))
		case "/api/2/things/well-1/features/telemetry/properties":
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte(`{"pressure":120.5}`))
			} else {
				w.WriteHeader(http.StatusNoContent)
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseUrl: server.URL + "/", Username: "ditto", Password: "ditto"})

	t.Run("GetAttributes", func(t *testing.T) {
		attributes, err := client.GetAttributes(context.Background(), "well-1")
		assert.NoError(t, err)
		assert.Equal(t, "Well 1", attributes["name"])
		assert.NotEmpty(t, gotAuth)
	})

	t.Run("GetFeatureProperties", func(t *testing.T) {
		props, err := client.GetFeatureProperties(context.Background(), "well-1", "telemetry")
		assert.NoError(t, err)
		assert.Equal(t, 120.5, props["pressure"])
		assert.Equal(t, "/api/2/things/well-1/features/telemetry/properties", gotPath)
	})

	t.Run("UpdateFeatureProperties", func(t *testing.T) {
		err := client.UpdateFeatureProperties(context.Background(), "well-1", "telemetry", map[string]interface{}{"pressure": 130.0})
		assert.NoError(t, err)
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.JSONEq(t, `{"pressure":130}`, string(gotBody))
	})

	t.Run("PatchFeatureProperties", func(t *testing.T) {
		err := client.PatchFeatureProperties(context.Background(), "well-1", "telemetry", map[string]interface{}{"status": "open"})
		assert.NoError(t, err)
		assert.Equal(t, http.MethodPatch, gotMethod)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := client.GetThing(context.Background(), "ghost")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
