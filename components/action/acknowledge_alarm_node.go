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
//        "type": "ackAlarm",
//        "name": "auto acknowledge",
//        "debugMode": false,
//        "configuration": {
//          "alarmIdKey": "alarmId"
//        }
//      }
import (
	"fmt"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&AcknowledgeAlarmNode{})
	Registry.Add(&ClearAlarmNode{})
}

// AcknowledgeAlarmNodeConfiguration node configuration
type AcknowledgeAlarmNodeConfiguration struct {
	// AlarmIdKey is the payload field holding the alarm id
	AlarmIdKey string
}

// AcknowledgeAlarmNode acknowledges the alarm referenced by the payload.
// A missing alarm id goes to the `Failure` chain.
type AcknowledgeAlarmNode struct {
	//node configuration
	Config AcknowledgeAlarmNodeConfiguration
}

// Type component type
func (x *AcknowledgeAlarmNode) Type() string {
	return "ackAlarm"
}
func (x *AcknowledgeAlarmNode) New() types.Node {
	return &AcknowledgeAlarmNode{Config: AcknowledgeAlarmNodeConfiguration{
		AlarmIdKey: "alarmId",
	}}
}

// Init initializes the component
func (x *AcknowledgeAlarmNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if ruleConfig.Adapters.Alarms == nil {
		return errNoAlarmService
	}
	return nil
}

// OnMsg processes the message
func (x *AcknowledgeAlarmNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	alarmId, ok := alarmIdFrom(msg, x.Config.AlarmIdKey)
	if !ok {
		ctx.TellFailure(msg, fmt.Errorf("alarm id not found: %s", x.Config.AlarmIdKey))
		return
	}
	if err := ctx.Adapters().Alarms.AcknowledgeAlarm(ctx.GetContext(), alarmId); err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	ctx.TellSuccess(msg)
}

// Destroy releases resources
func (x *AcknowledgeAlarmNode) Destroy() {
}

// ClearAlarmNodeConfiguration node configuration
type ClearAlarmNodeConfiguration struct {
	// AlarmIdKey is the payload field holding the alarm id
	AlarmIdKey string
}

// ClearAlarmNode clears the alarm referenced by the payload.
type ClearAlarmNode struct {
	//node configuration
	Config ClearAlarmNodeConfiguration
}

// Type component type
func (x *ClearAlarmNode) Type() string {
	return "clearAlarm"
}
func (x *ClearAlarmNode) New() types.Node {
	return &ClearAlarmNode{Config: ClearAlarmNodeConfiguration{
		AlarmIdKey: "alarmId",
	}}
}

// Init initializes the component
func (x *ClearAlarmNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if ruleConfig.Adapters.Alarms == nil {
		return errNoAlarmService
	}
	return nil
}

// OnMsg processes the message
func (x *ClearAlarmNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	alarmId, ok := alarmIdFrom(msg, x.Config.AlarmIdKey)
	if !ok {
		ctx.TellFailure(msg, fmt.Errorf("alarm id not found: %s", x.Config.AlarmIdKey))
		return
	}
	if err := ctx.Adapters().Alarms.ClearAlarm(ctx.GetContext(), alarmId); err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	ctx.TellSuccess(msg)
}

// Destroy releases resources
func (x *ClearAlarmNode) Destroy() {
}

func alarmIdFrom(msg types.RuleMsg, key string) (string, bool) {
	raw, ok := maps.GetByPath(msg.Data, key)
	if !ok {
		return "", false
	}
	alarmId, ok := raw.(string)
	return alarmId, ok && alarmId != ""
}
