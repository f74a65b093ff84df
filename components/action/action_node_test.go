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

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/test"
)

type fakeAlarms struct {
	created []types.Alarm
	acked   []string
	cleared []string
}

func (f *fakeAlarms) CreateAlarm(_ context.Context, alarm types.Alarm) (string, error) {
	f.created = append(f.created, alarm)
	return "alarm-1", nil
}

func (f *fakeAlarms) AcknowledgeAlarm(_ context.Context, alarmId string) error {
	f.acked = append(f.acked, alarmId)
	return nil
}

func (f *fakeAlarms) ClearAlarm(_ context.Context, alarmId string) error {
	f.cleared = append(f.cleared, alarmId)
	return nil
}

type fakeStore struct {
	saved map[string]map[string]interface{}
}

func (f *fakeStore) LoadActiveChains(_ context.Context) ([]types.RuleChain, error) {
	return nil, nil
}

func (f *fakeStore) SaveTimeseries(_ context.Context, tenantId, assetId string, ts int64, values map[string]interface{}) error {
	if f.saved == nil {
		f.saved = make(map[string]map[string]interface{})
	}
	f.saved[assetId] = values
	return nil
}

func (f *fakeStore) SaveExecutionLog(_ context.Context, entry types.ExecutionLog) error {
	return nil
}

type fakeBroadcaster struct {
	rooms  []string
	events []string
}

func (f *fakeBroadcaster) Broadcast(room, event string, payload interface{}) error {
	f.rooms = append(f.rooms, room)
	f.events = append(f.events, event)
	return nil
}

func wellMsg(data map[string]interface{}) types.RuleMsg {
	metadata := types.NewMetadata()
	metadata.PutValue(types.MetaKeyAssetId, "well-1")
	return types.NewMsg(1_700_000_000_000, "telemetry_change", metadata, data)
}

func TestCreateAlarmNode(t *testing.T) {
	alarms := &fakeAlarms{}
	config := types.NewConfig(types.WithAdapters(types.Adapters{Alarms: alarms}))

	node, err := test.CreateAndInitNodeWithConfig("createAlarm", types.Configuration{
		"alarmType": "HighPressure",
		"severity":  "critical",
		"message":   "Pressure {{pressure}} psi on {{metadata.assetId}}",
	}, Registry, config)
	require.NoError(t, err)

	capture := &test.TellCapture{}
	ctx := test.NewRuleContextFull(config, "node1", "chain1", "tenant1", capture.Callback())
	node.OnMsg(ctx, wellMsg(map[string]interface{}{"pressure": 1450.0}))

	require.Len(t, capture.Relations, 1)
	assert.Equal(t, types.Success, capture.Relations[0])
	assert.Equal(t, "alarm-1", capture.Msgs[0].Data["alarmId"])
	require.Len(t, alarms.created, 1)
	assert.Equal(t, "Pressure 1450 psi on well-1", alarms.created[0].Message)
	assert.Equal(t, "tenant1", alarms.created[0].TenantId)
	assert.Equal(t, "well-1", alarms.created[0].AssetId)

	t.Run("BadSeverity", func(t *testing.T) {
		_, err := test.CreateAndInitNodeWithConfig("createAlarm", types.Configuration{
			"alarmType": "X",
			"severity":  "catastrophic",
		}, Registry, config)
		assert.Error(t, err)
	})
}

func TestAcknowledgeAndClearAlarmNodes(t *testing.T) {
	alarms := &fakeAlarms{}
	config := types.NewConfig(types.WithAdapters(types.Adapters{Alarms: alarms}))

	ack, err := test.CreateAndInitNodeWithConfig("ackAlarm", types.Configuration{}, Registry, config)
	require.NoError(t, err)
	clear, err := test.CreateAndInitNodeWithConfig("clearAlarm", types.Configuration{}, Registry, config)
	require.NoError(t, err)

	capture := &test.TellCapture{}
	ctx := test.NewRuleContext(config, capture.Callback())
	msg := wellMsg(map[string]interface{}{"alarmId": "alarm-7"})
	ack.OnMsg(ctx, msg)
	clear.OnMsg(ctx, msg)

	assert.Equal(t, []string{"alarm-7"}, alarms.acked)
	assert.Equal(t, []string{"alarm-7"}, alarms.cleared)

	// missing alarm id fails the node
	ack.OnMsg(ctx, wellMsg(map[string]interface{}{}))
	assert.Equal(t, types.Failure, capture.Relations[len(capture.Relations)-1])
}

func TestSaveTimeseriesNode(t *testing.T) {
	store := &fakeStore{}
	config := types.NewConfig(types.WithAdapters(types.Adapters{Store: store}))

	node, err := test.CreateAndInitNodeWithConfig("saveTimeseries", types.Configuration{
		"keys": []string{"liquidRate"},
	}, Registry, config)
	require.NoError(t, err)

	capture := &test.TellCapture{}
	ctx := test.NewRuleContextFull(config, "node1", "chain1", "tenant1", capture.Callback())
	node.OnMsg(ctx, wellMsg(map[string]interface{}{"liquidRate": 200.0, "noise": 1.0}))

	require.Len(t, capture.Relations, 1)
	assert.Equal(t, types.Success, capture.Relations[0])
	assert.Equal(t, map[string]interface{}{"liquidRate": 200.0}, store.saved["well-1"])
}

func TestSaveToDigitalTwinNode(t *testing.T) {
	store := &fakeStore{}
	broadcaster := &fakeBroadcaster{}
	config := types.NewConfig(types.WithAdapters(types.Adapters{
		Store:       store,
		Broadcaster: broadcaster,
	}))

	node, err := test.CreateAndInitNodeWithConfig("saveToDigitalTwin", types.Configuration{
		"updateTwin":     false,
		"saveTimeseries": true,
		"broadcast":      true,
	}, Registry, config)
	require.NoError(t, err)

	capture := &test.TellCapture{}
	ctx := test.NewRuleContextFull(config, "node1", "chain1", "tenant1", capture.Callback())
	node.OnMsg(ctx, wellMsg(map[string]interface{}{
		"features": map[string]interface{}{
			"production": map[string]interface{}{"liquidRate": 200.0},
		},
	}))

	require.Len(t, capture.Relations, 1)
	assert.Equal(t, types.Success, capture.Relations[0])
	results := capture.Msgs[0].Data["saveResults"].(map[string]interface{})
	assert.Equal(t, true, results["timeseries"])
	assert.Equal(t, true, results["broadcast"])
	assert.Equal(t, false, results["twin"])
	assert.Equal(t, map[string]interface{}{"production.liquidRate": 200.0}, store.saved["well-1"])
	assert.Equal(t, []string{"thing:well-1"}, broadcaster.rooms)

	t.Run("MissingFeatures", func(t *testing.T) {
		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(config, capture.Callback())
		node.OnMsg(ctx, wellMsg(map[string]interface{}{}))
		require.Len(t, capture.Relations, 1)
		assert.Equal(t, types.Failure, capture.Relations[0])
	})
}

func TestBroadcastNode(t *testing.T) {
	broadcaster := &fakeBroadcaster{}
	config := types.NewConfig(types.WithAdapters(types.Adapters{Broadcaster: broadcaster}))

	node, err := test.CreateAndInitNodeWithConfig("broadcast", types.Configuration{
		"room":  "asset:${assetId}",
		"event": "telemetry",
	}, Registry, config)
	require.NoError(t, err)

	capture := &test.TellCapture{}
	ctx := test.NewRuleContext(config, capture.Callback())
	node.OnMsg(ctx, wellMsg(map[string]interface{}{"pressure": 120.0}))

	require.Len(t, capture.Relations, 1)
	assert.Equal(t, types.Success, capture.Relations[0])
	assert.Equal(t, []string{"asset:well-1"}, broadcaster.rooms)
	assert.Equal(t, []string{"telemetry"}, broadcaster.events)
}
