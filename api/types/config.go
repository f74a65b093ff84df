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

import (
	"time"
)

// Config is the engine configuration shared by all chains.
type Config struct {
	// Logger is the logging interface, defaulting to DefaultLogger().
	Logger Logger
	// ComponentsRegistry resolves node types into component instances.
	ComponentsRegistry ComponentRegistry
	// Parser decodes persisted chain documents, defaulting to JSON.
	Parser Parser
	// Properties are global key-value properties. Node configuration string
	// values may reference them with ${global.propertyKey}; replacement
	// happens once at node initialization.
	Properties Metadata
	// Adapters is the external gateway bundle threaded through every node
	// call.
	Adapters Adapters
	// StateStore backs stateful nodes (windows, deltas, counters).
	StateStore StateStore
	// NodeTimeout bounds a single node execution including its adapter
	// calls. A timed-out call is a node failure, not a chain failure.
	// Defaults to 10s.
	NodeTimeout time.Duration
	// ShutdownTimeout bounds the drain of in-flight executions on shutdown.
	// Defaults to 30s.
	ShutdownTimeout time.Duration
	// OnDebug is called when a node with debugMode processes a message.
	// flowType is IN or OUT; relationType is the port the message arrived
	// on (IN) or left on (OUT).
	OnDebug func(chainId string, flowType string, nodeId string, msg RuleMsg, relationType string, err error)
}

// Flow direction values passed to OnDebug.
const (
	In  = "IN"
	Out = "OUT"
)

// NewConfig creates a Config with defaults and applies the given options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		Logger:          DefaultLogger(),
		Properties:      NewMetadata(),
		NodeTimeout:     10 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return *c
}
