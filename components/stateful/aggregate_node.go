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
//        "type": "aggregate",
//        "name": "avg intake pressure",
//        "debugMode": false,
//        "configuration": {
//          "inputKey": "pressure",
//          "operation": "avg",
//          "windowType": "count",
//          "windowSize": 10
//        }
//      }
import (
	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/state"
	"github.com/scadaflow/scadaflow/utils/maps"
	"github.com/scadaflow/scadaflow/utils/str"
)

func init() {
	Registry.Add(&AggregateNode{})
}

// AggregateNodeConfiguration node configuration
type AggregateNodeConfiguration struct {
	// InputKey is the payload field sampled into the window. Nested
	// fields use dot notation
	InputKey string `validate:"required"`
	// OutputKey is where the aggregate result is stored
	OutputKey string
	// Operation is one of: sum, avg, min, max, count, first, last
	Operation string `validate:"oneof=sum avg min max count first last"`
	// WindowType is `count` or `time`
	WindowType string `validate:"oneof=count time"`
	// WindowSize is the number of samples kept when WindowType is count
	WindowSize int `validate:"gte=1"`
	// TimeWindowMs is the window span when WindowType is time
	TimeWindowMs int64
}

type sample struct {
	value float64
	ts    int64
}

// AggregateNode keeps a sliding window of a numeric payload field per
// entity and emits the aggregate with every message. The window lives in
// the state store under the entity/node/field key, so one node instance
// serves all assets of a chain independently.
//
// The result is stored under OutputKey as an object:
//
//	{"value": 2, "operation": "avg", "windowSize": 3, "currentValue": 3}
//
// Messages with a missing or non-numeric input field are consumed without
// output.
type AggregateNode struct {
	//node configuration
	Config AggregateNodeConfiguration
}

// Type component type
func (x *AggregateNode) Type() string {
	return "aggregate"
}
func (x *AggregateNode) New() types.Node {
	return &AggregateNode{Config: AggregateNodeConfiguration{
		OutputKey:  "aggregateResult",
		Operation:  "avg",
		WindowType: "count",
		WindowSize: 10,
	}}
}

// Init initializes the component
func (x *AggregateNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if ruleConfig.StateStore == nil {
		return errNoStateStore
	}
	return components.Validate.Struct(&x.Config)
}

// OnMsg processes the message
func (x *AggregateNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	raw, ok := maps.GetByPath(msg.Data, x.Config.InputKey)
	if !ok {
		ctx.Config().Logger.Printf("aggregate: field not found, skipping. node=%s field=%s", ctx.GetSelfId(), x.Config.InputKey)
		return
	}
	value, ok := str.ToFloat64(raw)
	if !ok {
		ctx.Config().Logger.Printf("aggregate: field is not numeric, skipping. node=%s field=%s", ctx.GetSelfId(), x.Config.InputKey)
		return
	}

	key := state.Key(components.NodeUtils.EntityId(msg), ctx.GetSelfId(), x.Config.InputKey)
	updated := ctx.Config().StateStore.Update(key, func(current interface{}, exists bool) interface{} {
		var window []sample
		if exists {
			window = current.([]sample)
		}
		window = append(window, sample{value: value, ts: msg.Ts})
		if x.Config.WindowType == "count" {
			if len(window) > x.Config.WindowSize {
				window = window[len(window)-x.Config.WindowSize:]
			}
		} else if x.Config.TimeWindowMs > 0 {
			cutoff := msg.Ts - x.Config.TimeWindowMs
			trim := 0
			for trim < len(window) && window[trim].ts < cutoff {
				trim++
			}
			window = window[trim:]
		}
		return window
	})
	window := updated.([]sample)

	newMsg := msg.Copy()
	maps.SetByPath(newMsg.Data, x.Config.OutputKey, map[string]interface{}{
		"value":        x.aggregate(window),
		"operation":    x.Config.Operation,
		"windowSize":   len(window),
		"currentValue": value,
	})
	ctx.TellSuccess(newMsg)
}

func (x *AggregateNode) aggregate(window []sample) float64 {
	if len(window) == 0 {
		return 0
	}
	switch x.Config.Operation {
	case "sum", "avg":
		var sum float64
		for _, s := range window {
			sum += s.value
		}
		if x.Config.Operation == "avg" {
			return sum / float64(len(window))
		}
		return sum
	case "min":
		min := window[0].value
		for _, s := range window[1:] {
			if s.value < min {
				min = s.value
			}
		}
		return min
	case "max":
		max := window[0].value
		for _, s := range window[1:] {
			if s.value > max {
				max = s.value
			}
		}
		return max
	case "count":
		return float64(len(window))
	case "first":
		return window[0].value
	default:
		return window[len(window)-1].value
	}
}

// Destroy releases resources
func (x *AggregateNode) Destroy() {
}
