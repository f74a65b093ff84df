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

// Package state provides the keyed state store backing stateful nodes:
// sliding windows, last-value deltas and interval counters.
//
// State is process-local and lost on restart. Windows re-fill from live
// traffic, so operators must treat stateful node output as best-effort
// rather than durable. Horizontally-scaled deployments can substitute a
// shared implementation of types.StateStore.
package state

import (
	"sync"
	"time"
)

// Key builds the composite state key for a stateful node:
// entity id + node id + configured input key.
func Key(entityId, nodeId, inputKey string) string {
	return entityId + ":" + nodeId + ":" + inputKey
}

type entry struct {
	mu       sync.Mutex
	value    interface{}
	lastUsed int64
}

// MemoryStore is the in-memory types.StateStore implementation.
// Access to a single key is serialized through a per-entry mutex, so two
// near-simultaneous events for the same asset cannot corrupt window state.
// Different keys proceed concurrently.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a MemoryStore. If idleTTL is positive, a janitor
// goroutine evicts keys untouched for longer than idleTTL every sweep
// interval (idleTTL itself), so long-idle assets do not pin memory.
func NewMemoryStore(idleTTL time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
	}
	if idleTTL > 0 {
		go s.janitor(idleTTL)
	}
	return s
}

// Get returns the state stored under key.
func (s *MemoryStore) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, e.value != nil
}

// Update applies fn to the current state under key while holding the key's
// lock and stores the result. The stored value is returned.
func (s *MemoryStore) Update(key string, fn func(current interface{}, exists bool) interface{}) interface{} {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = fn(e.value, e.value != nil)
	e.lastUsed = time.Now().UnixNano()
	return e.value
}

// Delete removes the state stored under key.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor(idleTTL time.Duration) {
	ticker := time.NewTicker(idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-idleTTL).UnixNano()
			s.mu.Lock()
			for k, e := range s.entries {
				if e.lastUsed > 0 && e.lastUsed < cutoff {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}
