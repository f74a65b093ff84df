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
//        "type": "switch",
//        "name": "switch",
//        "debugMode": false,
//        "configuration": {
//         "cases": [
//           {"case": "msg.temperature > 50", "then": "case1"}
//         ]
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
	Registry.Add(&SwitchNode{})
}

// SwitchNodeConfiguration node configuration
type SwitchNodeConfiguration struct {
	// Cases are tried in order. The first case whose expression yields
	// true forwards the message to its `then` relation; if none match the
	// message goes to the `Default` chain
	Cases []Case
}

type Case struct {
	// Case is the condition expression. The same variables as ExprFilter
	// are available: `id`, `ts`, `msg`, `metadata`, `type`
	Case string `json:"case"`
	// Then is the relation the message is forwarded to when Case matches
	Then string `json:"then"`
}

// SwitchNode matches case expressions in order and forwards the message to
// the relation of the first match, or to the `Default` chain when none
// match. Evaluation errors go to the `Failure` chain.
type SwitchNode struct {
	//node configuration
	Config SwitchNodeConfiguration
	Cases  []*caseProgram
}

type caseProgram struct {
	relationType string
	program      *vm.Program
}

// Type component type
func (x *SwitchNode) Type() string {
	return "switch"
}
func (x *SwitchNode) New() types.Node {
	return &SwitchNode{Config: SwitchNodeConfiguration{
		Cases: []Case{
			{Case: "msg.temperature>=20 && msg.temperature<=50", Then: "Case1"},
			{Case: "msg.temperature>50", Then: "Case2"},
		},
	}}
}

// Init initializes the component
func (x *SwitchNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err == nil {
		x.Cases = nil
		for _, item := range x.Config.Cases {
			program, compileErr := expr.Compile(item.Case, expr.AllowUndefinedVariables(), expr.AsBool())
			if compileErr != nil {
				return compileErr
			}
			x.Cases = append(x.Cases, &caseProgram{
				relationType: item.Then,
				program:      program,
			})
		}
	}
	return err
}

// OnMsg processes the message
func (x *SwitchNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	evn := components.NodeUtils.GetEvn(ctx, msg)

	for _, p := range x.Cases {
		if out, err := vm.Run(p.program, evn); err != nil {
			ctx.TellFailure(msg, err)
			return
		} else {
			if result, ok := out.(bool); ok && result {
				ctx.TellNext(msg, p.relationType)
				return
			}
		}
	}
	//no case matched, forward to the Default chain
	ctx.TellNext(msg, KeyDefaultRelationType)
}

// Destroy releases resources
func (x *SwitchNode) Destroy() {
}
