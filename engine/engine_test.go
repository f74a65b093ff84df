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

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scadaflow/scadaflow/api/types"
)

func nodeDef(id, nodeType string, configuration types.Configuration) *types.RuleNode {
	return &types.RuleNode{Id: id, Type: nodeType, Configuration: configuration}
}

func chainDef(id, tenantId string, nodes []*types.RuleNode, connections []types.NodeConnection) types.RuleChain {
	return types.RuleChain{
		RuleChain: types.RuleChainBaseInfo{
			ID:       id,
			TenantID: tenantId,
			Active:   true,
		},
		Metadata: types.RuleMetadata{
			Nodes:       nodes,
			Connections: connections,
		},
	}
}

func telemetryMsg(data map[string]interface{}) types.RuleMsg {
	metadata := types.NewMetadata()
	metadata.PutValue(types.MetaKeyAssetId, "well-1")
	return types.NewMsg(1700000000000, types.TriggerTelemetryChange, metadata, data)
}

// endCapture records every terminated branch of an invocation.
type endCapture struct {
	msgs      []types.RuleMsg
	relations []string
	errs      []error
}

func (c *endCapture) onEnd(msg types.RuleMsg, err error, relationType string) {
	c.msgs = append(c.msgs, msg)
	c.relations = append(c.relations, relationType)
	c.errs = append(c.errs, err)
}

func TestChainValidation(t *testing.T) {
	e := New(types.NewConfig())
	defer e.Shutdown()

	t.Run("EmptyChainRejected", func(t *testing.T) {
		_, err := e.AddChain(chainDef("c-empty", "t1", nil, nil))
		assert.ErrorIs(t, err, ErrEmptyChain)
	})

	t.Run("CycleRejected", func(t *testing.T) {
		_, err := e.AddChain(chainDef("c-cycle", "t1",
			[]*types.RuleNode{
				nodeDef("n1", "math", types.Configuration{"field": "v", "operation": "add", "operand": 1}),
				nodeDef("n2", "math", types.Configuration{"field": "v", "operation": "add", "operand": 1}),
			},
			[]types.NodeConnection{
				{FromId: "n1", ToId: "n2", Type: types.Success},
				{FromId: "n2", ToId: "n1", Type: types.Success},
			}))
		assert.ErrorIs(t, err, ErrCycleDetected)
	})

	t.Run("UnknownConnectionTargetRejected", func(t *testing.T) {
		_, err := e.AddChain(chainDef("c-dangling", "t1",
			[]*types.RuleNode{
				nodeDef("n1", "math", types.Configuration{"field": "v", "operation": "add", "operand": 1}),
			},
			[]types.NodeConnection{
				{FromId: "n1", ToId: "ghost", Type: types.Success},
			}))
		assert.Error(t, err)
	})

	t.Run("DuplicateNodeIdRejected", func(t *testing.T) {
		_, err := e.AddChain(chainDef("c-dup", "t1",
			[]*types.RuleNode{
				nodeDef("n1", "math", types.Configuration{"field": "v", "operation": "add", "operand": 1}),
				nodeDef("n1", "math", types.Configuration{"field": "v", "operation": "add", "operand": 2}),
			}, nil))
		assert.Error(t, err)
	})

	t.Run("UnreachableNodeRejected", func(t *testing.T) {
		_, err := e.AddChain(chainDef("c-orphan", "t1",
			[]*types.RuleNode{
				nodeDef("n1", "math", types.Configuration{"field": "v", "operation": "add", "operand": 1}),
				nodeDef("n2", "math", types.Configuration{"field": "v", "operation": "add", "operand": 1}),
			}, nil))
		assert.Error(t, err)
	})

	t.Run("UnknownComponentTypeRejected", func(t *testing.T) {
		_, err := e.AddChain(chainDef("c-unknown", "t1",
			[]*types.RuleNode{nodeDef("n1", "noSuchNode", nil)}, nil))
		assert.Error(t, err)
	})

	t.Run("InvalidChainNeverLoaded", func(t *testing.T) {
		_, ok := e.GetChain("c-cycle")
		assert.False(t, ok)
	})
}

func TestLoadChainFromJson(t *testing.T) {
	e := New(types.NewConfig())
	defer e.Shutdown()

	def := []byte(`{
		"ruleChain": {"id": "well-pressure", "tenantId": "t1", "isActive": true},
		"metadata": {
			"firstNodeIndex": 0,
			"nodes": [
				{"id": "s1", "type": "thresholdFilter", "configuration": {"field": "pressure", "operator": "gt", "threshold": 100}},
				{"id": "s2", "type": "math", "configuration": {"field": "pressure", "operation": "multiply", "operand": 2}}
			],
			"connections": [
				{"fromId": "s1", "toId": "s2", "type": "True"}
			]
		}
	}`)
	chainCtx, err := e.LoadChain(def)
	assert.NoError(t, err)
	assert.Equal(t, "well-pressure", chainCtx.Id)
	assert.Equal(t, "s1", chainCtx.RootId())

	var capture endCapture
	err = e.ExecuteChain("well-pressure", telemetryMsg(map[string]interface{}{"pressure": 150.0}), capture.onEnd)
	assert.NoError(t, err)
	assert.Equal(t, []string{types.Success}, capture.relations)
	assert.Equal(t, 300.0, capture.msgs[0].Data["pressure"])
}

func TestThresholdRouting(t *testing.T) {
	e := New(types.NewConfig())
	defer e.Shutdown()

	_, err := e.AddChain(chainDef("c-route", "t1",
		[]*types.RuleNode{
			nodeDef("filter", "thresholdFilter", types.Configuration{"field": "pressure", "operator": "gt", "threshold": 100}),
			nodeDef("high", "math", types.Configuration{"field": "pressure", "operation": "add", "operand": 1000}),
			nodeDef("low", "math", types.Configuration{"field": "pressure", "operation": "subtract", "operand": 1000}),
		},
		[]types.NodeConnection{
			{FromId: "filter", ToId: "high", Type: types.True},
			{FromId: "filter", ToId: "low", Type: types.False},
		}))
	assert.NoError(t, err)

	var capture endCapture
	assert.NoError(t, e.ExecuteChain("c-route", telemetryMsg(map[string]interface{}{"pressure": 150.0}), capture.onEnd))
	assert.Equal(t, []string{types.Success}, capture.relations)
	assert.Equal(t, 1150.0, capture.msgs[0].Data["pressure"])

	capture = endCapture{}
	assert.NoError(t, e.ExecuteChain("c-route", telemetryMsg(map[string]interface{}{"pressure": 50.0}), capture.onEnd))
	assert.Equal(t, []string{types.Success}, capture.relations)
	assert.Equal(t, -950.0, capture.msgs[0].Data["pressure"])

	chainCtx, _ := e.GetChain("c-route")
	assert.Equal(t, int64(2), chainCtx.Stats().ExecutionCount)
}

func TestBranchFailureIsolation(t *testing.T) {
	e := New(types.NewConfig())
	defer e.Shutdown()

	// pass fans out to a failing branch and a healthy one
	_, err := e.AddChain(chainDef("c-iso", "t1",
		[]*types.RuleNode{
			nodeDef("pass", "math", types.Configuration{"field": "v", "operation": "add", "operand": 0}),
			nodeDef("boom", "math", types.Configuration{"field": "v", "operation": "divide", "operand": 0}),
			nodeDef("fine", "math", types.Configuration{"field": "v", "operation": "add", "operand": 1}),
		},
		[]types.NodeConnection{
			{FromId: "pass", ToId: "boom", Type: types.Success},
			{FromId: "pass", ToId: "fine", Type: types.Success},
		}))
	assert.NoError(t, err)

	var capture endCapture
	assert.NoError(t, e.ExecuteChain("c-iso", telemetryMsg(map[string]interface{}{"v": 10.0}), capture.onEnd))
	assert.Len(t, capture.relations, 2)
	assert.Contains(t, capture.relations, types.Failure)
	assert.Contains(t, capture.relations, types.Success)
	for i, relation := range capture.relations {
		if relation == types.Success {
			assert.Equal(t, 11.0, capture.msgs[i].Data["v"])
		}
	}

	chainCtx, _ := e.GetChain("c-iso")
	stats := chainCtx.Stats()
	assert.Equal(t, int64(1), stats.ErrorCount)
	assert.NotEmpty(t, stats.LastError)
}

func TestBranchOrderIsDeterministic(t *testing.T) {
	e := New(types.NewConfig())
	defer e.Shutdown()

	_, err := e.AddChain(chainDef("c-order", "t1",
		[]*types.RuleNode{
			nodeDef("pass", "math", types.Configuration{"field": "v", "operation": "add", "operand": 0}),
			nodeDef("b1", "math", types.Configuration{"field": "v", "operation": "add", "operand": 1}),
			nodeDef("b2", "math", types.Configuration{"field": "v", "operation": "add", "operand": 2}),
			nodeDef("b3", "math", types.Configuration{"field": "v", "operation": "add", "operand": 3}),
		},
		[]types.NodeConnection{
			{FromId: "pass", ToId: "b1", Type: types.Success},
			{FromId: "pass", ToId: "b2", Type: types.Success},
			{FromId: "pass", ToId: "b3", Type: types.Success},
		}))
	assert.NoError(t, err)

	for run := 0; run < 5; run++ {
		var capture endCapture
		assert.NoError(t, e.ExecuteChain("c-order", telemetryMsg(map[string]interface{}{"v": 0.0}), capture.onEnd))
		assert.Len(t, capture.msgs, 3)
		assert.Equal(t, 1.0, capture.msgs[0].Data["v"])
		assert.Equal(t, 2.0, capture.msgs[1].Data["v"])
		assert.Equal(t, 3.0, capture.msgs[2].Data["v"])
	}
}

func TestSplitMergeRoundTrip(t *testing.T) {
	e := New(types.NewConfig())
	defer e.Shutdown()

	_, err := e.AddChain(chainDef("c-splitmerge", "t1",
		[]*types.RuleNode{
			nodeDef("split", "split", types.Configuration{"splitBy": "array", "arrayKey": "readings"}),
			nodeDef("merge", "merge", types.Configuration{"expectedInputs": 3, "mergeStrategy": "all"}),
		},
		[]types.NodeConnection{
			{FromId: "split", ToId: "merge", Type: types.Success},
		}))
	assert.NoError(t, err)

	var capture endCapture
	assert.NoError(t, e.ExecuteChain("c-splitmerge", telemetryMsg(map[string]interface{}{
		"readings": []interface{}{10.0, 20.0, 30.0},
	}), capture.onEnd))

	assert.Equal(t, []string{types.Success}, capture.relations)
	messages, ok := capture.msgs[0].Data["messages"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, messages, 3)
}

func TestGlobalPropertySubstitution(t *testing.T) {
	properties := types.NewMetadata()
	properties.PutValue("pressureField", "pressure")
	e := New(types.NewConfig(types.WithProperties(properties)))
	defer e.Shutdown()

	_, err := e.AddChain(chainDef("c-global", "t1",
		[]*types.RuleNode{
			nodeDef("filter", "thresholdFilter", types.Configuration{
				"field":     "${global.pressureField}",
				"operator":  "gt",
				"threshold": 100,
			}),
		}, nil))
	assert.NoError(t, err)

	var capture endCapture
	assert.NoError(t, e.ExecuteChain("c-global", telemetryMsg(map[string]interface{}{"pressure": 150.0}), capture.onEnd))
	assert.Equal(t, []string{types.True}, capture.relations)
}

func TestOnTriggerMatching(t *testing.T) {
	var executed []string
	config := types.NewConfig(types.WithOnDebug(func(chainId string, flowType string, nodeId string, msg types.RuleMsg, relationType string, err error) {
		if flowType == types.In {
			executed = append(executed, chainId)
		}
	}))
	e := New(config)
	defer e.Shutdown()

	addChain := func(id, tenantId string, priority int, active bool, triggerTypes []string, appliesTo types.AppliesTo) {
		def := chainDef(id, tenantId,
			[]*types.RuleNode{
				nodeDef("n1", "math", types.Configuration{"field": "v", "operation": "add", "operand": 1}),
			}, nil)
		def.RuleChain.Priority = priority
		def.RuleChain.Active = active
		def.RuleChain.TriggerTypes = triggerTypes
		def.RuleChain.AppliesTo = appliesTo
		def.RuleChain.DebugMode = true
		_, err := e.AddChain(def)
		assert.NoError(t, err)
	}

	addChain("low-priority", "t1", 1, true, nil, types.AppliesTo{})
	addChain("high-priority", "t1", 10, true, nil, types.AppliesTo{})
	addChain("inactive", "t1", 100, false, nil, types.AppliesTo{})
	addChain("other-tenant", "t2", 100, true, nil, types.AppliesTo{})
	addChain("other-trigger", "t1", 100, true, []string{types.TriggerAttributeChange}, types.AppliesTo{})
	addChain("other-asset", "t1", 100, true, nil, types.AppliesTo{AssetIds: []string{"well-9"}})
	addChain("by-type", "t1", 5, true, nil, types.AppliesTo{AssetTypes: []string{"well"}})

	err := e.OnTrigger(types.Trigger{
		TriggerType: types.TriggerTelemetryChange,
		AssetId:     "well-1",
		AssetType:   "well",
		TenantId:    "t1",
		Timestamp:   "2025-06-01T10:00:00Z",
		Data:        map[string]interface{}{"v": 1.0},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"high-priority", "by-type", "low-priority"}, executed)
}

func TestReloadChainReplacesDefinition(t *testing.T) {
	e := New(types.NewConfig())
	defer e.Shutdown()

	def := chainDef("c-reload", "t1",
		[]*types.RuleNode{
			nodeDef("filter", "thresholdFilter", types.Configuration{"field": "v", "operator": "gt", "threshold": 100}),
		}, nil)
	_, err := e.AddChain(def)
	assert.NoError(t, err)

	var capture endCapture
	assert.NoError(t, e.ExecuteChain("c-reload", telemetryMsg(map[string]interface{}{"v": 150.0}), capture.onEnd))
	assert.Equal(t, []string{types.True}, capture.relations)

	def.Metadata.Nodes[0].Configuration["threshold"] = 200
	_, err = e.AddChain(def)
	assert.NoError(t, err)

	capture = endCapture{}
	assert.NoError(t, e.ExecuteChain("c-reload", telemetryMsg(map[string]interface{}{"v": 150.0}), capture.onEnd))
	assert.Equal(t, []string{types.False}, capture.relations)
}

func TestShutdownStopsIntake(t *testing.T) {
	e := New(types.NewConfig())
	e.Shutdown()
	assert.ErrorIs(t, e.OnTrigger(types.Trigger{TenantId: "t1"}), ErrEngineStopped)
	assert.ErrorIs(t, e.ExecuteChain("any", telemetryMsg(nil), nil), ErrEngineStopped)
}
