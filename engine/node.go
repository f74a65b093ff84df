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
	"fmt"
	"strings"

	"github.com/scadaflow/scadaflow/api/types"
)

const globalPlaceholderPrefix = "${global."

// RuleNodeCtx is one initialized node instance inside a loaded chain. It
// pairs the component instance with its definition.
type RuleNodeCtx struct {
	// Node is the component instance.
	Node types.Node
	// SelfDefinition is the node definition the instance was built from.
	SelfDefinition *types.RuleNode

	config types.Config
}

// InitRuleNodeCtx resolves the node type against the component registry,
// substitutes ${global.key} placeholders from Config.Properties and
// initializes the component instance.
func InitRuleNodeCtx(config types.Config, selfDefinition *types.RuleNode) (*RuleNodeCtx, error) {
	registry := config.ComponentsRegistry
	if registry == nil {
		registry = Registry
	}
	node, err := registry.NewNode(selfDefinition.Type)
	if err != nil {
		return nil, err
	}
	configuration := processVariables(config, selfDefinition.Configuration)
	if err = node.Init(config, configuration); err != nil {
		return nil, fmt.Errorf("init node id=%s type=%s: %w", selfDefinition.Id, selfDefinition.Type, err)
	}
	return &RuleNodeCtx{
		Node:           node,
		SelfDefinition: selfDefinition,
		config:         config,
	}, nil
}

// Destroy releases the component instance.
func (rn *RuleNodeCtx) Destroy() {
	rn.Node.Destroy()
}

// processVariables replaces ${global.key} placeholders in string
// configuration values with Config.Properties values. Substitution is done
// once, at node initialization.
func processVariables(config types.Config, configuration types.Configuration) types.Configuration {
	if len(config.Properties) == 0 {
		return configuration
	}
	result := make(types.Configuration, len(configuration))
	for key, value := range configuration {
		result[key] = substituteGlobals(value, config.Properties)
	}
	return result
}

func substituteGlobals(value interface{}, properties types.Metadata) interface{} {
	switch v := value.(type) {
	case string:
		if !strings.Contains(v, globalPlaceholderPrefix) {
			return v
		}
		for key, propertyValue := range properties {
			v = strings.ReplaceAll(v, globalPlaceholderPrefix+key+"}", propertyValue)
		}
		return v
	case map[string]interface{}:
		nested := make(map[string]interface{}, len(v))
		for key, item := range v {
			nested[key] = substituteGlobals(item, properties)
		}
		return nested
	case []interface{}:
		nested := make([]interface{}, len(v))
		for i, item := range v {
			nested[i] = substituteGlobals(item, properties)
		}
		return nested
	default:
		return value
	}
}
