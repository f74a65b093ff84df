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

package consumer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/engine"
)

func TestDecodeEnvelope(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		trigger, err := DecodeEnvelope([]byte(`{
			"triggerType": "telemetry_change",
			"assetId": "well-1",
			"assetType": "well",
			"tenantId": "t1",
			"timestamp": "2025-06-01T10:00:00Z",
			"data": {"pressure": 120.5}
		}`))
		assert.NoError(t, err)
		assert.Equal(t, types.TriggerTelemetryChange, trigger.TriggerType)
		assert.Equal(t, "well-1", trigger.AssetId)
		assert.Equal(t, 120.5, trigger.Data["pressure"])
		assert.Equal(t, int64(1748772000000), trigger.Ts())
	})

	t.Run("UnknownTriggerType", func(t *testing.T) {
		_, err := DecodeEnvelope([]byte(`{
			"triggerType": "disk_full",
			"assetId": "well-1",
			"tenantId": "t1",
			"timestamp": "2025-06-01T10:00:00Z"
		}`))
		assert.Error(t, err)
	})

	t.Run("MissingTenant", func(t *testing.T) {
		_, err := DecodeEnvelope([]byte(`{
			"triggerType": "telemetry_change",
			"assetId": "well-1",
			"timestamp": "2025-06-01T10:00:00Z"
		}`))
		assert.Error(t, err)
	})

	t.Run("BadTimestamp", func(t *testing.T) {
		_, err := DecodeEnvelope([]byte(`{
			"triggerType": "telemetry_change",
			"assetId": "well-1",
			"tenantId": "t1",
			"timestamp": "yesterday"
		}`))
		assert.Error(t, err)
	})

	t.Run("UnknownFieldRejected", func(t *testing.T) {
		_, err := DecodeEnvelope([]byte(`{
			"triggerType": "telemetry_change",
			"assetId": "well-1",
			"tenantId": "t1",
			"timestamp": "2025-06-01T10:00:00Z",
			"payload": {}
		}`))
		assert.Error(t, err)
	})

	t.Run("NotJson", func(t *testing.T) {
		_, err := DecodeEnvelope([]byte(`pressure=120`))
		assert.Error(t, err)
	})
}

func TestServiceHandleRaw(t *testing.T) {
	ruleEngine := engine.New(types.NewConfig())
	defer ruleEngine.Shutdown()

	_, err := ruleEngine.AddChain(types.RuleChain{
		RuleChain: types.RuleChainBaseInfo{ID: "c1", TenantID: "t1", Active: true},
		Metadata: types.RuleMetadata{
			Nodes: []*types.RuleNode{
				{Id: "n1", Type: "math", Configuration: types.Configuration{
					"field": "pressure", "operation": "add", "operand": 1,
				}},
			},
		},
	})
	assert.NoError(t, err)

	service := NewService(ruleEngine, nil)

	service.HandleRaw([]byte(`not an envelope`))
	chainCtx, _ := ruleEngine.GetChain("c1")
	assert.Equal(t, int64(0), chainCtx.Stats().ExecutionCount)

	service.HandleRaw([]byte(`{
		"triggerType": "telemetry_change",
		"assetId": "well-1",
		"tenantId": "t1",
		"timestamp": "2025-06-01T10:00:00Z",
		"data": {"pressure": 120.5}
	}`))
	assert.Equal(t, int64(1), chainCtx.Stats().ExecutionCount)
}

func TestScheduleSourceValidation(t *testing.T) {
	source := NewScheduleSource([]ScheduleSpec{
		{Cron: "not a cron", TenantId: "t1", AssetId: "well-1"},
	}, nil, func(trigger types.Trigger) {})
	assert.Error(t, source.Start(context.Background()))

	source = NewScheduleSource([]ScheduleSpec{
		{Cron: "@every 1h", TenantId: "t1", AssetId: "well-1"},
	}, nil, func(trigger types.Trigger) {})
	assert.NoError(t, source.Start(context.Background()))
	source.Stop()
}
