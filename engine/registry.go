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

package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components/action"
	"github.com/scadaflow/scadaflow/components/enrichment"
	"github.com/scadaflow/scadaflow/components/external"
	"github.com/scadaflow/scadaflow/components/filter"
	"github.com/scadaflow/scadaflow/components/flow"
	"github.com/scadaflow/scadaflow/components/stateful"
	"github.com/scadaflow/scadaflow/components/transform"
)

// Registry is the default component registry. All built-in node kinds are
// registered here at package load; chains resolve their node types against
// it unless Config.ComponentsRegistry overrides it.
var Registry = new(RuleComponentRegistry)

func init() {
	for _, pkg := range []interface {
		Components() []types.Node
		PackageCategory() string
	}{
		filter.Registry,
		enrichment.Registry,
		transform.Registry,
		stateful.Registry,
		action.Registry,
		external.Registry,
		flow.Registry,
	} {
		for _, node := range pkg.Components() {
			_ = Registry.RegisterWithCategory(node, pkg.PackageCategory())
		}
	}
}

// RuleComponentRegistry is a thread-safe types.ComponentRegistry backed by
// a map of component prototypes.
type RuleComponentRegistry struct {
	components map[string]types.Node
	categories map[string]string
	sync.RWMutex
}

// Register adds a component prototype under its Type.
func (r *RuleComponentRegistry) Register(node types.Node) error {
	return r.RegisterWithCategory(node, "")
}

// RegisterWithCategory adds a component prototype and records its category.
func (r *RuleComponentRegistry) RegisterWithCategory(node types.Node, category string) error {
	r.Lock()
	defer r.Unlock()
	if r.components == nil {
		r.components = make(map[string]types.Node)
		r.categories = make(map[string]string)
	}
	if _, ok := r.components[node.Type()]; ok {
		return errors.New("the component already exists. componentType=" + node.Type())
	}
	r.components[node.Type()] = node
	if category != "" {
		r.categories[node.Type()] = category
	}
	return nil
}

// Unregister removes a component prototype by type.
func (r *RuleComponentRegistry) Unregister(nodeType string) error {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.components[nodeType]; !ok {
		return fmt.Errorf("component not found. componentType=%s", nodeType)
	}
	delete(r.components, nodeType)
	delete(r.categories, nodeType)
	return nil
}

// NewNode creates a fresh instance of the component registered under
// nodeType.
func (r *RuleComponentRegistry) NewNode(nodeType string) (types.Node, error) {
	r.RLock()
	defer r.RUnlock()
	node, ok := r.components[nodeType]
	if !ok {
		return nil, fmt.Errorf("component not found. componentType=%s", nodeType)
	}
	return node.New(), nil
}

// GetComponents returns a copy of the registered prototype map.
func (r *RuleComponentRegistry) GetComponents() map[string]types.Node {
	r.RLock()
	defer r.RUnlock()
	components := make(map[string]types.Node, len(r.components))
	for k, v := range r.components {
		components[k] = v
	}
	return components
}

// Category returns the category recorded for nodeType.
func (r *RuleComponentRegistry) Category(nodeType string) string {
	r.RLock()
	defer r.RUnlock()
	return r.categories[nodeType]
}
