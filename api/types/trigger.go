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

package types

import "time"

// Trigger types carried by the event bus.
const (
	TriggerTelemetryChange = "telemetry_change"
	TriggerAttributeChange = "attribute_change"
	TriggerStatusChange    = "status_change"
	TriggerManual          = "manual"
	TriggerSchedule        = "schedule"
)

// Trigger is the normalized event record fed into the matcher. One trigger
// may start several independent chain executions.
type Trigger struct {
	// TriggerType is one of the Trigger* constants.
	TriggerType string `json:"triggerType"`
	// AssetId identifies the originating entity.
	AssetId string `json:"assetId"`
	// AssetType is optional; when present the matcher can match chains by
	// asset type in addition to asset id.
	AssetType string `json:"assetType,omitempty"`
	// TenantId identifies the owning tenant.
	TenantId string `json:"tenantId"`
	// Timestamp is the ISO-8601 event time.
	Timestamp string `json:"timestamp"`
	// Data is the event payload.
	Data map[string]interface{} `json:"data"`
}

// Ts parses the envelope timestamp into unix milliseconds. Zero if the
// timestamp does not parse; the message constructor then falls back to now.
func (t Trigger) Ts() int64 {
	if parsed, err := time.Parse(time.RFC3339, t.Timestamp); err == nil {
		return parsed.UnixMilli()
	}
	return 0
}

// ToMsg builds the initial rule message for a chain execution.
func (t Trigger) ToMsg() RuleMsg {
	metadata := NewMetadata()
	metadata.PutValue(MetaKeyAssetId, t.AssetId)
	metadata.PutValue(MetaKeyAssetType, t.AssetType)
	metadata.PutValue(MetaKeyTenantId, t.TenantId)
	metadata.PutValue(MetaKeyTriggerType, t.TriggerType)
	metadata.PutValue(MetaKeyTimestamp, t.Timestamp)
	return NewMsg(t.Ts(), t.TriggerType, metadata, CopyData(t.Data))
}
