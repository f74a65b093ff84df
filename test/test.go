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

package test

import (
	"fmt"

	"github.com/scadaflow/scadaflow/api/types"
)

// componentSource is what a category package registry exposes.
type componentSource interface {
	Components() []types.Node
}

// CreateAndInitNode creates a fresh instance of nodeType from the given
// registry and initializes it with configuration.
func CreateAndInitNode(nodeType string, configuration types.Configuration, registry componentSource) (types.Node, error) {
	return CreateAndInitNodeWithConfig(nodeType, configuration, registry, types.NewConfig())
}

// CreateAndInitNodeWithConfig is CreateAndInitNode with an explicit engine
// configuration, for nodes that read adapters or the state store from it.
func CreateAndInitNodeWithConfig(nodeType string, configuration types.Configuration, registry componentSource, config types.Config) (types.Node, error) {
	for _, prototype := range registry.Components() {
		if prototype.Type() == nodeType {
			node := prototype.New()
			if err := node.Init(config, configuration); err != nil {
				return nil, err
			}
			return node, nil
		}
	}
	return nil, fmt.Errorf("component not found. componentType=%s", nodeType)
}

// TellCapture records every Tell call a node makes, in order.
type TellCapture struct {
	Msgs      []types.RuleMsg
	Relations []string
	Errs      []error
}

// Callback returns the function to hand to NewRuleContext.
func (c *TellCapture) Callback() func(msg types.RuleMsg, relationType string, err error) {
	return func(msg types.RuleMsg, relationType string, err error) {
		c.Msgs = append(c.Msgs, msg)
		c.Relations = append(c.Relations, relationType)
		c.Errs = append(c.Errs, err)
	}
}
