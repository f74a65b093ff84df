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
//        "type": "createAlarm",
//        "name": "high pressure alarm",
//        "debugMode": false,
//        "configuration": {
//          "alarmType": "HighPressure",
//          "severity": "critical",
//          "message": "Pressure {{pressure}} psi exceeds limit on {{metadata.assetId}}"
//        }
//      }
import (
	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/utils/maps"
	"github.com/scadaflow/scadaflow/utils/str"
)

func init() {
	Registry.Add(&CreateAlarmNode{})
}

// CreateAlarmNodeConfiguration node configuration
type CreateAlarmNodeConfiguration struct {
	// AlarmType classifies the alarm
	AlarmType string `validate:"required"`
	// Severity is one of: critical, major, minor, warning, indeterminate
	Severity string `validate:"oneof=critical major minor warning indeterminate"`
	// Message is the human-readable alarm text. `{{field}}` placeholders
	// resolve against the payload, `{{metadata.key}}` against metadata
	Message string
	// IncludeData attaches the payload as alarm details
	IncludeData bool
}

// CreateAlarmNode raises an alarm for the originating asset through the
// alarm service. The created alarm id is stored in the payload under
// `alarmId` so downstream nodes can acknowledge or clear it.
type CreateAlarmNode struct {
	//node configuration
	Config CreateAlarmNodeConfiguration
}

// Type component type
func (x *CreateAlarmNode) Type() string {
	return "createAlarm"
}
func (x *CreateAlarmNode) New() types.Node {
	return &CreateAlarmNode{Config: CreateAlarmNodeConfiguration{
		Severity: "warning",
	}}
}

// Init initializes the component
func (x *CreateAlarmNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if ruleConfig.Adapters.Alarms == nil {
		return errNoAlarmService
	}
	return components.Validate.Struct(&x.Config)
}

// OnMsg processes the message
func (x *CreateAlarmNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	alarm := types.Alarm{
		TenantId:  ctx.TenantId(),
		AssetId:   components.NodeUtils.EntityId(msg),
		AlarmType: x.Config.AlarmType,
		Severity:  x.Config.Severity,
		Message:   resolveMessage(x.Config.Message, msg),
		Ts:        msg.Ts,
	}
	if x.Config.IncludeData {
		alarm.Details = types.CopyData(msg.Data)
	}

	alarmId, err := ctx.Adapters().Alarms.CreateAlarm(ctx.GetContext(), alarm)
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}

	newMsg := msg.Copy()
	newMsg.Data["alarmId"] = alarmId
	ctx.TellSuccess(newMsg)
}

// resolveMessage renders {{path}} placeholders against the payload, with
// metadata exposed under the metadata key.
func resolveMessage(template string, msg types.RuleMsg) string {
	if !str.HasTemplate(template) {
		return template
	}
	env := make(map[string]interface{}, len(msg.Data)+1)
	for k, v := range msg.Data {
		env[k] = v
	}
	metadata := make(map[string]interface{}, len(msg.Metadata))
	for k, v := range msg.Metadata {
		metadata[k] = v
	}
	env[types.MetadataKey] = metadata
	return str.ResolveTemplate(template, env)
}

// Destroy releases resources
func (x *CreateAlarmNode) Destroy() {
}
