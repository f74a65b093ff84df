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
//        "type": "thresholdFilter",
//        "name": "high pressure",
//        "debugMode": false,
//        "configuration": {
//          "field": "pressure",
//          "operator": "gt",
//          "threshold": 120
//        }
//      }
import (
	"fmt"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/maps"
	"github.com/scadaflow/scadaflow/utils/str"
)

func init() {
	Registry.Add(&ThresholdFilterNode{})
}

// ThresholdFilterNodeConfiguration node configuration
type ThresholdFilterNodeConfiguration struct {
	// Field is the payload field to compare. Nested fields use dot
	// notation, e.g. `readings.pressure`
	Field string
	// Operator is one of: gt, gte, lt, lte, eq, neq
	Operator string
	// Threshold is the value the field is compared against
	Threshold float64
}

// ThresholdFilterNode compares a numeric payload field against a fixed
// threshold. Messages whose field satisfies the comparison go to the
// `True` chain, all others to the `False` chain.
// A missing or non-numeric field counts as not satisfied and goes to the
// `False` chain.
type ThresholdFilterNode struct {
	//node configuration
	Config ThresholdFilterNodeConfiguration
}

// Type component type
func (x *ThresholdFilterNode) Type() string {
	return "thresholdFilter"
}
func (x *ThresholdFilterNode) New() types.Node {
	return &ThresholdFilterNode{Config: ThresholdFilterNodeConfiguration{
		Field:    "value",
		Operator: "gt",
		Threshold: 0,
	}}
}

// Init initializes the component
func (x *ThresholdFilterNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err == nil {
		switch x.Config.Operator {
		case "gt", "gte", "lt", "lte", "eq", "neq":
		default:
			err = fmt.Errorf("unsupported operator: %s", x.Config.Operator)
		}
	}
	return err
}

// OnMsg processes the message
func (x *ThresholdFilterNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	raw, ok := maps.GetByPath(msg.Data, x.Config.Field)
	if !ok {
		ctx.TellNext(msg, types.False)
		return
	}
	value, ok := str.ToFloat64(raw)
	if !ok {
		ctx.TellNext(msg, types.False)
		return
	}
	if x.compare(value) {
		ctx.TellNext(msg, types.True)
	} else {
		ctx.TellNext(msg, types.False)
	}
}

func (x *ThresholdFilterNode) compare(value float64) bool {
	threshold := x.Config.Threshold
	switch x.Config.Operator {
	case "gt":
		return value > threshold
	case "gte":
		return value >= threshold
	case "lt":
		return value < threshold
	case "lte":
		return value <= threshold
	case "eq":
		return value == threshold
	case "neq":
		return value != threshold
	default:
		return false
	}
}

// Destroy releases resources
func (x *ThresholdFilterNode) Destroy() {
}
