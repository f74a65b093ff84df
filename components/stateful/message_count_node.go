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

package stateful

//Node configuration example:
//{
//        "id": "s1",
//        "type": "messageCount",
//        "name": "pump-7 flood guard",
//        "debugMode": false,
//        "configuration": {
//          "counterKey": "pump-7-telemetry",
//          "interval": 60
//        }
//      }
import (
	"fmt"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&MessageCountNode{})
}

// MessageCountNodeConfiguration node configuration
type MessageCountNodeConfiguration struct {
	// CounterKey names the counter; chains counting per asset typically
	// template the asset id into it
	CounterKey string `validate:"required"`
	// Interval is the bucket span in seconds
	Interval int64 `validate:"gte=1"`
	// OutputKey is where the running count is stored
	OutputKey string
	// ResetOnOutput clears the counter after emitting the count
	ResetOnOutput bool
}

// MessageCountNode counts messages per fixed time bucket. The bucket is
// floor(now / interval); a new bucket starts a new count, so the emitted
// value is the count within the current window, useful for flood and
// anomaly detection.
type MessageCountNode struct {
	//node configuration
	Config MessageCountNodeConfiguration
}

// Type component type
func (x *MessageCountNode) Type() string {
	return "messageCount"
}
func (x *MessageCountNode) New() types.Node {
	return &MessageCountNode{Config: MessageCountNodeConfiguration{
		Interval:  60,
		OutputKey: "messageCount",
	}}
}

// Init initializes the component
func (x *MessageCountNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if ruleConfig.StateStore == nil {
		return errNoStateStore
	}
	return components.Validate.Struct(&x.Config)
}

// OnMsg processes the message
func (x *MessageCountNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	bucket := msg.Ts / (x.Config.Interval * 1000)
	key := fmt.Sprintf("counter:%s:%d", x.Config.CounterKey, bucket)

	updated := ctx.Config().StateStore.Update(key, func(current interface{}, exists bool) interface{} {
		if exists {
			return current.(int64) + 1
		}
		return int64(1)
	})
	count := updated.(int64)

	if x.Config.ResetOnOutput {
		ctx.Config().StateStore.Delete(key)
	}

	newMsg := msg.Copy()
	maps.SetByPath(newMsg.Data, x.Config.OutputKey, count)
	newMsg.Data["counterKey"] = x.Config.CounterKey
	newMsg.Data["bucket"] = bucket
	ctx.TellSuccess(newMsg)
}

// Destroy releases resources
func (x *MessageCountNode) Destroy() {
}
