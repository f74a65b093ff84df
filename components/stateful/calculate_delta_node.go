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
//        "type": "calculateDelta",
//        "name": "tank level change",
//        "debugMode": false,
//        "configuration": {
//          "inputKey": "level",
//          "deltaType": "both",
//          "storeHistory": true
//        }
//      }
import (
	"math"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/state"
	"github.com/scadaflow/scadaflow/utils/maps"
	"github.com/scadaflow/scadaflow/utils/str"
)

func init() {
	Registry.Add(&CalculateDeltaNode{})
}

// CalculateDeltaNodeConfiguration node configuration
type CalculateDeltaNodeConfiguration struct {
	// InputKey is the payload field the delta is computed over. Nested
	// fields use dot notation
	InputKey string `validate:"required"`
	// OutputKey is where the delta result is stored
	OutputKey string
	// DeltaType is one of: absolute, percentage, both
	DeltaType string `validate:"oneof=absolute percentage both"`
	// StoreHistory includes the previous value in the output
	StoreHistory bool
}

// CalculateDeltaNode computes the change of a numeric payload field
// against the previous message of the same entity. The first message of
// an entity has nothing to compare against and passes through unchanged,
// priming the state.
//
// Percentage deltas from a previous value of zero yield 0 when the value
// did not change and +Inf otherwise.
//
// The result is stored under OutputKey as an object:
//
//	{"current": 12.5, "delta": 2.5}
type CalculateDeltaNode struct {
	//node configuration
	Config CalculateDeltaNodeConfiguration
}

// Type component type
func (x *CalculateDeltaNode) Type() string {
	return "calculateDelta"
}
func (x *CalculateDeltaNode) New() types.Node {
	return &CalculateDeltaNode{Config: CalculateDeltaNodeConfiguration{
		OutputKey: "delta",
		DeltaType: "absolute",
	}}
}

// Init initializes the component
func (x *CalculateDeltaNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if ruleConfig.StateStore == nil {
		return errNoStateStore
	}
	return components.Validate.Struct(&x.Config)
}

// OnMsg processes the message
func (x *CalculateDeltaNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	raw, ok := maps.GetByPath(msg.Data, x.Config.InputKey)
	if !ok {
		ctx.Config().Logger.Printf("calculateDelta: field not found, skipping. node=%s field=%s", ctx.GetSelfId(), x.Config.InputKey)
		return
	}
	current, ok := str.ToFloat64(raw)
	if !ok {
		ctx.Config().Logger.Printf("calculateDelta: field is not numeric, skipping. node=%s field=%s", ctx.GetSelfId(), x.Config.InputKey)
		return
	}

	key := state.Key(components.NodeUtils.EntityId(msg), ctx.GetSelfId(), x.Config.InputKey)
	var previous float64
	var hasPrevious bool
	ctx.Config().StateStore.Update(key, func(stored interface{}, exists bool) interface{} {
		if exists {
			previous = stored.(float64)
			hasPrevious = true
		}
		return current
	})

	if !hasPrevious {
		//first sample, nothing to compare against
		ctx.TellSuccess(msg)
		return
	}

	absolute := current - previous
	var delta interface{}
	switch x.Config.DeltaType {
	case "percentage":
		delta = percentageDelta(previous, current, absolute)
	case "both":
		delta = map[string]interface{}{
			"absolute":   absolute,
			"percentage": percentageDelta(previous, current, absolute),
		}
	default:
		delta = absolute
	}

	output := map[string]interface{}{
		"current": current,
		"delta":   delta,
	}
	if x.Config.StoreHistory {
		output["previous"] = previous
	}

	newMsg := msg.Copy()
	maps.SetByPath(newMsg.Data, x.Config.OutputKey, output)
	ctx.TellSuccess(newMsg)
}

func percentageDelta(previous, current, absolute float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return absolute / previous * 100
}

// Destroy releases resources
func (x *CalculateDeltaNode) Destroy() {
}
