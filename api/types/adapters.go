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

import (
	"context"
	"errors"
)

// ErrNotFound is returned by adapters when the requested entity does not
// exist. Enrichment nodes treat it as non-fatal and pass the message
// through unmodified.
var ErrNotFound = errors.New("entity not found")

// DigitalTwinClient is the gateway to the digital-twin document store.
// Implementations must honor the context deadline.
type DigitalTwinClient interface {
	// GetThing returns the full twin document for an entity.
	GetThing(ctx context.Context, thingId string) (map[string]interface{}, error)
	// GetAttributes returns the attributes section of a twin.
	GetAttributes(ctx context.Context, thingId string) (map[string]interface{}, error)
	// GetFeatureProperties returns the properties of one feature.
	GetFeatureProperties(ctx context.Context, thingId, feature string) (map[string]interface{}, error)
	// UpdateFeatureProperties replaces the properties of one feature.
	UpdateFeatureProperties(ctx context.Context, thingId, feature string, props map[string]interface{}) error
	// PatchFeatureProperties merges props into the feature properties.
	PatchFeatureProperties(ctx context.Context, thingId, feature string, props map[string]interface{}) error
}

// ExecutionLog is one row of the per-invocation audit trail.
type ExecutionLog struct {
	Id          string
	ChainId     string
	TenantId    string
	AssetId     string
	TriggerType string
	Status      string
	Error       string
	DurationMs  int64
	StartedAt   int64
}

// Store is the relational gateway: chain definitions in, computed
// telemetry and execution logs out.
type Store interface {
	// LoadActiveChains returns every active chain definition.
	LoadActiveChains(ctx context.Context) ([]RuleChain, error)
	// SaveTimeseries persists computed telemetry values for an asset.
	SaveTimeseries(ctx context.Context, tenantId, assetId string, ts int64, values map[string]interface{}) error
	// SaveExecutionLog persists one chain invocation record.
	SaveExecutionLog(ctx context.Context, entry ExecutionLog) error
}

// Cache is a TTL key-value store used for resolved-binding caching and
// lightweight keyed lookups by enrichment nodes. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Set stores a value with a ttl such as "10m" or "1h". Empty or "0"
	// means no expiration. Returns an error for an invalid ttl.
	Set(key string, value interface{}, ttl string) error
	// Get returns the value stored under key, or nil when absent/expired.
	Get(key string) interface{}
	// Has reports whether key exists and has not expired.
	Has(key string) bool
	// Delete removes the value stored under key.
	Delete(key string) error
}

// Broadcaster pushes results to live subscribers (rooms).
type Broadcaster interface {
	Broadcast(room, event string, payload interface{}) error
}

// Alarm is the alarm record produced by alarm action nodes.
type Alarm struct {
	Id        string                 `json:"id,omitempty"`
	TenantId  string                 `json:"tenantId"`
	AssetId   string                 `json:"assetId"`
	AlarmType string                 `json:"alarmType"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message"`
	Ts        int64                  `json:"ts"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// AlarmService is the gateway to the alarm subsystem.
type AlarmService interface {
	// CreateAlarm creates an alarm and returns its id.
	CreateAlarm(ctx context.Context, alarm Alarm) (string, error)
	// AcknowledgeAlarm marks an alarm acknowledged.
	AcknowledgeAlarm(ctx context.Context, alarmId string) error
	// ClearAlarm clears an alarm.
	ClearAlarm(ctx context.Context, alarmId string) error
}

// Adapters bundles the external gateway handles the executor threads
// through every node call. All members are optional; nodes fail their
// execution (not the chain) when a needed adapter is absent.
type Adapters struct {
	Twin        DigitalTwinClient
	Store       Store
	Cache       Cache
	Broadcaster Broadcaster
	Alarms      AlarmService
}
