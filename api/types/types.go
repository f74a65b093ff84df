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
	"context"
)

// Relation types. A relation label is the "port" a message leaves a node on;
// connections in the chain DSL are keyed by these labels. Components may
// define additional labels (e.g. switch case routes).
const (
	Success = "Success"
	Failure = "Failure"
	True    = "True"
	False   = "False"
)

// Component categories. Purely registry/UI metadata; the executor does not
// change behavior based on category.
const (
	CategoryInput      = "input"
	CategoryFilter     = "filter"
	CategoryEnrichment = "enrichment"
	CategoryTransform  = "transform"
	CategoryStateful   = "stateful"
	CategoryAction     = "action"
	CategoryExternal   = "external"
	CategoryFlow       = "flow"
)

// Configuration is the duck-typed parameter bag of a node instance as it
// appears in the persisted chain document. Components decode it into their
// typed config struct during Init.
type Configuration map[string]interface{}

// OnEndFunc is called once per terminating branch when a chain invocation
// finishes a branch: a node told nothing, or a relation had no outgoing
// connection.
type OnEndFunc = func(msg RuleMsg, err error, relationType string)

// Node is the contract every processing node implements.
// Components are registered as prototypes; the registry calls New to create
// a per-chain instance, Init decodes and validates the instance
// configuration, and OnMsg handles each message flowing into the node.
//
// A node reports its outcome by calling ctx.TellSuccess/ctx.TellNext zero,
// one or many times: telling nothing consumes the message, telling once
// passes it along, telling multiple times fans it out. ctx.TellFailure
// reports a node-level failure without aborting sibling branches.
type Node interface {
	// New creates a new instance of the component. Each rule node in a chain
	// gets its own instance with independent state.
	New() Node
	// Type is the registry key, unique across all components.
	Type() string
	// Init configures the instance. Called once per chain load.
	Init(ruleConfig Config, configuration Configuration) error
	// OnMsg processes one message. Implementations must not mutate msg in
	// place; they operate on copies and tell the context the outcome.
	OnMsg(ctx RuleContext, msg RuleMsg)
	// Destroy releases any resources held by the instance.
	Destroy()
}

// ComponentRegistry maps node-type identifiers to component prototypes so
// chains can be built from declarative definitions.
type ComponentRegistry interface {
	// Register adds a component under its Type. Returns an error if the type
	// already exists.
	Register(node Node) error
	// RegisterWithCategory adds a component and records its category.
	RegisterWithCategory(node Node, category string) error
	// Unregister removes a component by type.
	Unregister(nodeType string) error
	// NewNode creates a fresh instance of the component registered under
	// nodeType.
	NewNode(nodeType string) (Node, error)
	// GetComponents returns all registered component prototypes.
	GetComponents() map[string]Node
	// Category returns the category recorded for nodeType, or "".
	Category(nodeType string) string
}

// RuleContext is handed to a node for each message it processes. It routes
// outcomes to downstream nodes and exposes the injected collaborators:
// logger, tenant/chain identity and the external gateway adapters. Nodes
// must reach external systems through the context, never through globals.
type RuleContext interface {
	// TellSuccess sends msg to the nodes connected via the Success relation.
	TellSuccess(msg RuleMsg)
	// TellFailure records a node failure on the chain and, if a Failure
	// relation is wired, sends msg there. Sibling branches keep running.
	TellFailure(msg RuleMsg, err error)
	// TellNext sends msg to the nodes connected via the given relations.
	TellNext(msg RuleMsg, relationTypes ...string)
	// NewMsg creates a new message with a generated id.
	NewMsg(msgType string, metadata Metadata, data map[string]interface{}) RuleMsg
	// GetSelfId returns the id of the node being executed.
	GetSelfId() string
	// ChainId returns the id of the chain the node belongs to.
	ChainId() string
	// TenantId returns the tenant that owns the chain.
	TenantId() string
	// Config returns the engine configuration.
	Config() Config
	// Adapters returns the external gateway adapter bundle.
	Adapters() Adapters
	// GetContext returns the execution context; it carries the per-node
	// deadline and must be passed to every adapter call.
	GetContext() context.Context
}

// Parser decodes and encodes the persisted rule chain document. The default
// implementation is JSON; alternative formats can be plugged in through
// Config.Parser.
type Parser interface {
	DecodeRuleChain(def []byte) (RuleChain, error)
	EncodeRuleChain(def interface{}) ([]byte, error)
}

// StateStore is the keyed state backing stateful nodes (windows, deltas,
// counters). Keys are composite (entity id + node id + input key).
// Implementations must serialize Update calls per key; state is best-effort
// and may be lost on restart; windows re-fill from live traffic.
type StateStore interface {
	// Get returns the state stored under key.
	Get(key string) (interface{}, bool)
	// Update applies fn to the current state under key and stores the
	// returned value. fn runs with the key locked; the new value is returned.
	Update(key string, fn func(current interface{}, exists bool) interface{}) interface{}
	// Delete removes the state stored under key.
	Delete(key string)
}
