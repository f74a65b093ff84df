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

package filter

//Node configuration example:
//{
//        "id": "s1",
//        "type": "msgTypeSwitch",
//        "name": "route by trigger type",
//        "debugMode": false,
//        "configuration": {}
//      }
import (
	"github.com/scadaflow/scadaflow/api/types"
)

func init() {
	Registry.Add(&MsgTypeSwitchNode{})
}

// MsgTypeSwitchNode routes messages to the relation named after their
// message type, e.g. a `telemetry_change` message goes to the
// `telemetry_change` chain. Types without a wired relation end the branch.
type MsgTypeSwitchNode struct {
}

// Type component type
func (x *MsgTypeSwitchNode) Type() string {
	return "msgTypeSwitch"
}
func (x *MsgTypeSwitchNode) New() types.Node {
	return &MsgTypeSwitchNode{}
}

// Init initializes the component
func (x *MsgTypeSwitchNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	return nil
}

// OnMsg processes the message
func (x *MsgTypeSwitchNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	ctx.TellNext(msg, msg.Type)
}

// Destroy releases resources
func (x *MsgTypeSwitchNode) Destroy() {
}
