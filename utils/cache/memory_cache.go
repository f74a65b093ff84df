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

package cache

import (
	"sync"
	"time"
)

// MemoryCache is the in-memory types.Cache implementation used for
// single-instance deployments; the Redis adapter serves shared ones.
type MemoryCache struct {
	items      map[string]item
	mu         sync.RWMutex
	stopGc     chan struct{}
	ticker     *time.Ticker
	gcInterval time.Duration
}

// item holds a value and its expiration as a unix nano timestamp.
// Expiration 0 means the item never expires.
type item struct {
	value      interface{}
	expiration int64
}

// NewMemoryCache creates a MemoryCache. Garbage collection starts lazily
// once the first expirable item is stored.
func NewMemoryCache(gcInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		items:      make(map[string]item),
		stopGc:     make(chan struct{}),
		gcInterval: time.Minute * 5,
	}
	if gcInterval > 0 {
		c.gcInterval = gcInterval
	}
	return c
}

// Set stores a value with a ttl such as "10m". An empty ttl means no
// expiration. Returns an error if the ttl does not parse.
func (c *MemoryCache) Set(key string, value interface{}, ttl string) error {
	var expiration int64
	var dur time.Duration
	var err error

	if ttl != "" {
		dur, err = time.ParseDuration(ttl)
		if err != nil {
			return err
		}
	}
	if dur > 0 {
		expiration = time.Now().Add(dur).UnixNano()
	}

	c.mu.Lock()
	c.items[key] = item{value: value, expiration: expiration}
	shouldStartGC := expiration > 0 && c.ticker == nil
	c.mu.Unlock()

	if shouldStartGC {
		c.startGC()
	}
	return nil
}

// Get returns the value stored under key, or nil when absent or expired.
func (c *MemoryCache) Get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found {
		return nil
	}
	if it.expiration > 0 && time.Now().UnixNano() > it.expiration {
		// Expired; the GC loop will collect it.
		return nil
	}
	return it.value
}

// Has reports whether key exists and has not expired.
func (c *MemoryCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found {
		return false
	}
	return it.expiration == 0 || time.Now().UnixNano() <= it.expiration
}

// Delete removes the value stored under key.
func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *MemoryCache) startGC() {
	c.mu.Lock()
	if c.ticker != nil {
		c.mu.Unlock()
		return
	}
	c.ticker = time.NewTicker(c.gcInterval)
	c.stopGc = make(chan struct{})
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-c.ticker.C:
				c.deleteExpired()
			case <-c.stopGc:
				c.mu.Lock()
				c.ticker.Stop()
				c.ticker = nil
				c.mu.Unlock()
				return
			}
		}
	}()
}

func (c *MemoryCache) deleteExpired() {
	now := time.Now().UnixNano()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.items {
		if v.expiration > 0 && now > v.expiration {
			delete(c.items, k)
		}
	}
}

// StopGC stops the garbage collection goroutine.
func (c *MemoryCache) StopGC() {
	c.mu.Lock()
	running := c.ticker != nil
	c.mu.Unlock()
	if running {
		close(c.stopGc)
	}
}
