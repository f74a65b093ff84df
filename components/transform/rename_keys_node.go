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

package transform

//Node configuration example:
//{
//        "id": "s1",
//        "type": "renameKeys",
//        "name": "normalize field names",
//        "debugMode": false,
//        "configuration": {
//          "mapping": {
//            "whp": "wellheadPressure",
//            "readings.temp": "readings.temperature"
//          }
//        }
//      }
import (
	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&RenameKeysNode{})
}

// RenameKeysNodeConfiguration node configuration
type RenameKeysNodeConfiguration struct {
	// Mapping maps old payload field paths to new ones. Nested fields use
	// dot notation
	Mapping map[string]string
}

// RenameKeysNode moves payload fields to new keys. Source fields that do
// not exist are skipped; the message always goes to the `Success` chain.
type RenameKeysNode struct {
	//node configuration
	Config RenameKeysNodeConfiguration
}

// Type component type
func (x *RenameKeysNode) Type() string {
	return "renameKeys"
}
func (x *RenameKeysNode) New() types.Node {
	return &RenameKeysNode{}
}

// Init initializes the component
func (x *RenameKeysNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	return maps.Map2Struct(configuration, &x.Config)
}

// OnMsg processes the message
func (x *RenameKeysNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	newMsg := msg.Copy()
	for oldKey, newKey := range x.Config.Mapping {
		if value, ok := maps.GetByPath(newMsg.Data, oldKey); ok {
			maps.DeleteByPath(newMsg.Data, oldKey)
			maps.SetByPath(newMsg.Data, newKey, value)
		}
	}
	ctx.TellSuccess(newMsg)
}

// Destroy releases resources
func (x *RenameKeysNode) Destroy() {
}
