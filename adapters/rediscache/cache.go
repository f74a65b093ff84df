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

// Package rediscache implements types.Cache on Redis, for deployments
// where enrichment lookups must be shared across worker instances.
package rediscache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scadaflow/scadaflow/utils/json"
)

// Config configures the Redis connection.
type Config struct {
	// Addr is the Redis address, host:port
	Addr string
	// Password is optional
	Password string
	// Db is the database number
	Db int
	// Timeout per command, defaults to 3s
	Timeout time.Duration
}

// Cache is a types.Cache backed by Redis. Values are stored as JSON, so
// Get returns maps and float64 numbers regardless of what was stored.
type Cache struct {
	client  *redis.Client
	timeout time.Duration
}

// NewCache connects the Redis client.
func NewCache(config Config) *Cache {
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       config.Db,
		}),
		timeout: config.Timeout,
	}
}

// Ping verifies the connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Set stores a value with a ttl such as "10m" or "1h". Empty or "0" means
// no expiration.
func (c *Cache) Set(key string, value interface{}, ttl string) error {
	var expiration time.Duration
	if ttl != "" && ttl != "0" {
		dur, err := time.ParseDuration(ttl)
		if err != nil {
			return err
		}
		expiration = dur
	}
	doc, err := json.Marshal(value)
	if err != nil {
		return err
	}
	ctx, cancel := c.commandContext()
	defer cancel()
	return c.client.Set(ctx, key, doc, expiration).Err()
}

// Get returns the value stored under key, or nil when absent or expired.
func (c *Cache) Get(key string) interface{} {
	ctx, cancel := c.commandContext()
	defer cancel()
	doc, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var value interface{}
	if err = json.Unmarshal(doc, &value); err != nil {
		return nil
	}
	return value
}

// Has reports whether key exists and has not expired.
func (c *Cache) Has(key string) bool {
	ctx, cancel := c.commandContext()
	defer cancel()
	n, err := c.client.Exists(ctx, key).Result()
	return err == nil && n > 0
}

// Delete removes the value stored under key.
func (c *Cache) Delete(key string) error {
	ctx, cancel := c.commandContext()
	defer cancel()
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}
