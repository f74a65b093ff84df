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

// Package components holds the shared plumbing for the built-in node
// library: the per-category registries that node files register into from
// their init functions, the expression environment builder and a shared
// configuration validator.
package components

import (
	"github.com/go-playground/validator/v10"

	"github.com/scadaflow/scadaflow/api/types"
)

// PackageRegistry collects the component prototypes of one node category.
// Each category package declares a package-level Registry and every node
// file adds itself in init, so importing the package is enough to make its
// nodes available.
type PackageRegistry struct {
	category   string
	components []types.Node
}

// NewRegistry creates a registry for the given category.
func NewRegistry(category string) *PackageRegistry {
	return &PackageRegistry{category: category}
}

// Add registers a component prototype.
func (r *PackageRegistry) Add(node types.Node) {
	r.components = append(r.components, node)
}

// Components returns the registered prototypes.
func (r *PackageRegistry) Components() []types.Node {
	return r.components
}

// PackageCategory returns the category all prototypes in this registry
// belong to.
func (r *PackageRegistry) PackageCategory() string {
	return r.category
}

// Validate checks node configuration structs against their validate tags.
var Validate = validator.New()

var NodeUtils = &nodeUtils{}

type nodeUtils struct {
}

// GetEvn builds the expression environment for a message.
// Expressions can access the following variables:
// `id` the message id
// `ts` the message timestamp in milliseconds
// `type` the message type
// `msg` the message payload, fields via `msg.xx`
// `data` alias of `msg`
// `metadata` the message metadata, values via `metadata.xx`
func (n *nodeUtils) GetEvn(_ types.RuleContext, msg types.RuleMsg) map[string]interface{} {
	var evn = make(map[string]interface{})
	evn[types.IdKey] = msg.Id
	evn[types.TsKey] = msg.Ts
	evn[types.TypeKey] = msg.Type
	evn[types.MsgKey] = msg.Data
	evn[types.DataKey] = msg.Data
	evn[types.MetadataKey] = msg.Metadata.Values()
	return evn
}

// EntityId resolves the entity a message belongs to, preferring the
// assetId metadata entry and falling back to an assetId payload field.
func (n *nodeUtils) EntityId(msg types.RuleMsg) string {
	if id := msg.Metadata.GetValue(types.MetaKeyAssetId); id != "" {
		return id
	}
	if v, ok := msg.Data["assetId"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
