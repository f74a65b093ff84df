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
//        "type": "formula",
//        "name": "liquid rate",
//        "debugMode": false,
//        "configuration": {
//          "expr": "msg.oilRate + msg.waterRate",
//          "outputKey": "liquidRate"
//        }
//      }
import (
	"errors"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&FormulaNode{})
}

var errNotAMap = errors.New("expression result is not a map")

// FormulaNodeConfiguration node configuration
type FormulaNodeConfiguration struct {
	// Expr is the expression computing the derived value. The same
	// variables as ExprFilter are available: `id`, `ts`, `msg`,
	// `metadata`, `type`
	Expr string
	// OutputKey is the payload field the result is stored in. Nested
	// fields use dot notation. If empty the whole payload is replaced by
	// the result, which must then yield a map
	OutputKey string
}

// FormulaNode evaluates an expr expression against the message and stores
// the result in the payload. The modified copy goes to the `Success`
// chain; evaluation errors go to the `Failure` chain.
type FormulaNode struct {
	//node configuration
	Config  FormulaNodeConfiguration
	program *vm.Program
}

// Type component type
func (x *FormulaNode) Type() string {
	return "formula"
}
func (x *FormulaNode) New() types.Node {
	return &FormulaNode{Config: FormulaNodeConfiguration{}}
}

// Init initializes the component
func (x *FormulaNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err == nil {
		program, compileErr := expr.Compile(strings.TrimSpace(x.Config.Expr), expr.AllowUndefinedVariables())
		if compileErr != nil {
			return compileErr
		}
		x.program = program
	}
	return err
}

// OnMsg processes the message
func (x *FormulaNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	evn := components.NodeUtils.GetEvn(ctx, msg)
	out, err := vm.Run(x.program, evn)
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	newMsg := msg.Copy()
	if x.Config.OutputKey == "" {
		result, ok := out.(map[string]interface{})
		if !ok {
			ctx.TellFailure(msg, errNotAMap)
			return
		}
		newMsg.Data = result
	} else {
		maps.SetByPath(newMsg.Data, x.Config.OutputKey, out)
	}
	ctx.TellSuccess(newMsg)
}

// Destroy releases resources
func (x *FormulaNode) Destroy() {
}
