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

package types

import "time"

// Option mutates a Config during NewConfig.
type Option func(*Config)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithComponentsRegistry sets the component registry.
func WithComponentsRegistry(registry ComponentRegistry) Option {
	return func(c *Config) {
		c.ComponentsRegistry = registry
	}
}

// WithParser sets the chain document parser.
func WithParser(parser Parser) Option {
	return func(c *Config) {
		c.Parser = parser
	}
}

// WithProperties sets the global properties.
func WithProperties(properties Metadata) Option {
	return func(c *Config) {
		c.Properties = properties
	}
}

// WithAdapters sets the external gateway bundle.
func WithAdapters(adapters Adapters) Option {
	return func(c *Config) {
		c.Adapters = adapters
	}
}

// WithStateStore sets the stateful-node state store.
func WithStateStore(store StateStore) Option {
	return func(c *Config) {
		c.StateStore = store
	}
}

// WithNodeTimeout bounds single node executions.
func WithNodeTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.NodeTimeout = d
	}
}

// WithShutdownTimeout bounds the in-flight drain on shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ShutdownTimeout = d
	}
}

// WithOnDebug sets the node debug callback.
func WithOnDebug(onDebug func(chainId string, flowType string, nodeId string, msg RuleMsg, relationType string, err error)) Option {
	return func(c *Config) {
		c.OnDebug = onDebug
	}
}
