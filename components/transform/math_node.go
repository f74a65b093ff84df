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
//        "type": "math",
//        "name": "to percent",
//        "debugMode": false,
//        "configuration": {
//          "field": "ratio",
//          "operation": "multiply",
//          "operand": 100,
//          "outputField": "percent"
//        }
//      }
import (
	"fmt"
	"math"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/maps"
	"github.com/scadaflow/scadaflow/utils/str"
)

func init() {
	Registry.Add(&MathNode{})
}

// MathNodeConfiguration node configuration
type MathNodeConfiguration struct {
	// Field is the numeric payload field the operation is applied to
	Field string
	// Operation is one of: add, subtract, multiply, divide, mod, pow,
	// abs, sqrt, round, floor, ceil
	Operation string
	// Operand is the second argument for the binary operations
	Operand float64
	// OutputField is where the result is stored; defaults to Field
	OutputField string
}

// MathNode applies a single arithmetic operation to a numeric payload
// field. A missing or non-numeric field and division by zero go to the
// `Failure` chain.
type MathNode struct {
	//node configuration
	Config MathNodeConfiguration
}

// Type component type
func (x *MathNode) Type() string {
	return "math"
}
func (x *MathNode) New() types.Node {
	return &MathNode{Config: MathNodeConfiguration{
		Field:     "value",
		Operation: "multiply",
		Operand:   1,
	}}
}

// Init initializes the component
func (x *MathNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err == nil {
		switch x.Config.Operation {
		case "add", "subtract", "multiply", "divide", "mod", "pow",
			"abs", "sqrt", "round", "floor", "ceil":
		default:
			err = fmt.Errorf("unsupported operation: %s", x.Config.Operation)
		}
		if x.Config.OutputField == "" {
			x.Config.OutputField = x.Config.Field
		}
	}
	return err
}

// OnMsg processes the message
func (x *MathNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	raw, ok := maps.GetByPath(msg.Data, x.Config.Field)
	if !ok {
		ctx.TellFailure(msg, fmt.Errorf("field not found: %s", x.Config.Field))
		return
	}
	value, ok := str.ToFloat64(raw)
	if !ok {
		ctx.TellFailure(msg, fmt.Errorf("field is not numeric: %s", x.Config.Field))
		return
	}
	result, err := x.apply(value)
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	newMsg := msg.Copy()
	maps.SetByPath(newMsg.Data, x.Config.OutputField, result)
	ctx.TellSuccess(newMsg)
}

func (x *MathNode) apply(value float64) (float64, error) {
	operand := x.Config.Operand
	switch x.Config.Operation {
	case "add":
		return value + operand, nil
	case "subtract":
		return value - operand, nil
	case "multiply":
		return value * operand, nil
	case "divide":
		if operand == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return value / operand, nil
	case "mod":
		if operand == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return math.Mod(value, operand), nil
	case "pow":
		return math.Pow(value, operand), nil
	case "abs":
		return math.Abs(value), nil
	case "sqrt":
		if value < 0 {
			return 0, fmt.Errorf("sqrt of negative value")
		}
		return math.Sqrt(value), nil
	case "round":
		return math.Round(value), nil
	case "floor":
		return math.Floor(value), nil
	case "ceil":
		return math.Ceil(value), nil
	default:
		return 0, fmt.Errorf("unsupported operation: %s", x.Config.Operation)
	}
}

// Destroy releases resources
func (x *MathNode) Destroy() {
}
