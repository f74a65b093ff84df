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
//        "type": "exprFilter",
//        "name": "expression filter",
//        "debugMode": false,
//        "configuration": {
//          "expr": "msg.temperature > 50"
//        }
//      }
import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&ExprFilterNode{})
}

// ExprFilterNodeConfiguration node configuration
type ExprFilterNodeConfiguration struct {
	// Expr is the boolean expression to evaluate
	Expr string
}

// ExprFilterNode filters messages with an expr expression.
// If the expression yields `true` the message goes to the `True` chain,
// otherwise to the `False` chain. Evaluation errors go to the `Failure`
// chain.
// Access the message id via the `id` variable
// Access the message timestamp via the `ts` variable
// Access the payload via the `msg` variable, fields via `msg.temperature`
// Access metadata via the `metadata` variable, e.g. `metadata.assetId`
// Access the message type via the `type` variable
type ExprFilterNode struct {
	//node configuration
	Config  ExprFilterNodeConfiguration
	program *vm.Program
}

// Type component type
func (x *ExprFilterNode) Type() string {
	return "exprFilter"
}
func (x *ExprFilterNode) New() types.Node {
	return &ExprFilterNode{Config: ExprFilterNodeConfiguration{
		Expr: "",
	}}
}

// Init initializes the component
func (x *ExprFilterNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err == nil {
		program, compileErr := expr.Compile(x.Config.Expr, expr.AllowUndefinedVariables(), expr.AsBool())
		if compileErr != nil {
			return compileErr
		}
		x.program = program
	}
	return err
}

// OnMsg processes the message
func (x *ExprFilterNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	evn := components.NodeUtils.GetEvn(ctx, msg)

	if out, err := vm.Run(x.program, evn); err != nil {
		ctx.TellFailure(msg, err)
	} else {
		if result, ok := out.(bool); ok && result {
			ctx.TellNext(msg, types.True)
		} else {
			ctx.TellNext(msg, types.False)
		}
	}
}

// Destroy releases resources
func (x *ExprFilterNode) Destroy() {
}
