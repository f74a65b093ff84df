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

package action

//Node configuration example:
//{
//        "id": "s1",
//        "type": "broadcast",
//        "name": "push to dashboard",
//        "debugMode": false,
//        "configuration": {
//          "room": "asset:${assetId}",
//          "event": "telemetry"
//        }
//      }
import (
	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/utils/maps"
	"github.com/scadaflow/scadaflow/utils/str"
)

func init() {
	Registry.Add(&BroadcastNode{})
}

// BroadcastNodeConfiguration node configuration
type BroadcastNodeConfiguration struct {
	// Room is the subscriber room pushed to. `${key}` placeholders
	// resolve against the message metadata
	Room string `validate:"required"`
	// Event names the pushed event
	Event string
}

// BroadcastNode pushes the message payload to a live subscriber room.
type BroadcastNode struct {
	//node configuration
	Config BroadcastNodeConfiguration
}

// Type component type
func (x *BroadcastNode) Type() string {
	return "broadcast"
}
func (x *BroadcastNode) New() types.Node {
	return &BroadcastNode{Config: BroadcastNodeConfiguration{
		Event: "message",
	}}
}

// Init initializes the component
func (x *BroadcastNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if ruleConfig.Adapters.Broadcaster == nil {
		return errNoBroadcaster
	}
	return components.Validate.Struct(&x.Config)
}

// OnMsg processes the message
func (x *BroadcastNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	room := str.SprintfDict(x.Config.Room, msg.Metadata.Values())
	if err := ctx.Adapters().Broadcaster.Broadcast(room, x.Config.Event, msg.Data); err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	ctx.TellSuccess(msg)
}

// Destroy releases resources
func (x *BroadcastNode) Destroy() {
}
