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

package flow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/test"
)

func TestSplitNode(t *testing.T) {
	t.Run("Array", func(t *testing.T) {
		node, err := test.CreateAndInitNode("split", types.Configuration{
			"splitBy":  "array",
			"arrayKey": "sensors",
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		msg := ctx.NewMsg("telemetry_change", types.NewMetadata(), map[string]interface{}{
			"sensors": []interface{}{
				map[string]interface{}{"id": "s1"},
				map[string]interface{}{"id": "s2"},
			},
		})
		node.OnMsg(ctx, msg)

		require.Len(t, capture.Msgs, 2)
		for i, child := range capture.Msgs {
			assert.Equal(t, types.Success, capture.Relations[i])
			assert.Equal(t, fmt.Sprintf("%s-split-%d", msg.Id, i), child.Id)
			assert.Equal(t, msg.Id, child.Metadata.GetValue(types.MetaKeySplitFrom))
			assert.Equal(t, fmt.Sprintf("%d", i), child.Metadata.GetValue(types.MetaKeySplitIndex))
			assert.Equal(t, "2", child.Metadata.GetValue(types.MetaKeySplitTotal))
			item := child.Data["splitItem"].(map[string]interface{})
			assert.Equal(t, fmt.Sprintf("s%d", i+1), item["id"])
		}
	})

	t.Run("Keys", func(t *testing.T) {
		node, err := test.CreateAndInitNode("split", types.Configuration{
			"splitBy": "keys",
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		msg := ctx.NewMsg("telemetry_change", types.NewMetadata(), map[string]interface{}{
			"pressure": 120.0, "temperature": 88.0,
		})
		node.OnMsg(ctx, msg)

		require.Len(t, capture.Msgs, 2)
		// keys are emitted sorted
		assert.Equal(t, "pressure", capture.Msgs[0].Data["splitKey"])
		assert.Equal(t, 120.0, capture.Msgs[0].Data["splitValue"])
		assert.Equal(t, "temperature", capture.Msgs[1].Data["splitKey"])
	})

	t.Run("Count", func(t *testing.T) {
		node, err := test.CreateAndInitNode("split", types.Configuration{
			"splitBy": "count",
			"count":   3,
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		msg := ctx.NewMsg("telemetry_change", types.NewMetadata(), map[string]interface{}{"v": 1.0})
		node.OnMsg(ctx, msg)

		require.Len(t, capture.Msgs, 3)
		for _, child := range capture.Msgs {
			assert.Equal(t, 1.0, child.Data["v"])
		}
	})

	t.Run("NotAnArray", func(t *testing.T) {
		node, err := test.CreateAndInitNode("split", types.Configuration{
			"splitBy":  "array",
			"arrayKey": "sensors",
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		node.OnMsg(ctx, ctx.NewMsg("telemetry_change", types.NewMetadata(), map[string]interface{}{
			"sensors": "offline",
		}))
		assert.Empty(t, capture.Msgs)
	})

	t.Run("BadCount", func(t *testing.T) {
		_, err := test.CreateAndInitNode("split", types.Configuration{
			"splitBy": "count",
			"count":   0,
		}, Registry)
		assert.Error(t, err)
	})
}

func TestMergeNode(t *testing.T) {
	newCorrMsg := func(ctx *test.NodeTestRuleContext, corr string, data map[string]interface{}) types.RuleMsg {
		data[types.CorrelationIdKey] = corr
		return ctx.NewMsg("telemetry_change", types.NewMetadata(), data)
	}

	t.Run("DeepMerge", func(t *testing.T) {
		node, err := test.CreateAndInitNode("merge", types.Configuration{
			"expectedInputs": 2,
			"mergeStrategy":  "merge",
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())

		node.OnMsg(ctx, newCorrMsg(ctx, "c1", map[string]interface{}{
			"readings": map[string]interface{}{"pressure": 120.0},
		}))
		assert.Empty(t, capture.Msgs, "first message must wait")

		node.OnMsg(ctx, newCorrMsg(ctx, "c1", map[string]interface{}{
			"readings": map[string]interface{}{"temperature": 88.0},
		}))
		require.Len(t, capture.Msgs, 1)
		readings := capture.Msgs[0].Data["readings"].(map[string]interface{})
		assert.Equal(t, 120.0, readings["pressure"])
		assert.Equal(t, 88.0, readings["temperature"])
		assert.Equal(t, "2", capture.Msgs[0].Metadata.GetValue("mergedFrom"))
	})

	t.Run("All", func(t *testing.T) {
		node, err := test.CreateAndInitNode("merge", types.Configuration{
			"expectedInputs": 3,
			"mergeStrategy":  "all",
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		for i := 0; i < 3; i++ {
			node.OnMsg(ctx, newCorrMsg(ctx, "c2", map[string]interface{}{"i": float64(i)}))
		}
		require.Len(t, capture.Msgs, 1)
		messages := capture.Msgs[0].Data["messages"].([]interface{})
		assert.Len(t, messages, 3)
	})

	t.Run("GroupsAreIndependent", func(t *testing.T) {
		node, err := test.CreateAndInitNode("merge", types.Configuration{
			"expectedInputs": 2,
			"mergeStrategy":  "first",
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		node.OnMsg(ctx, newCorrMsg(ctx, "a", map[string]interface{}{"v": 1.0}))
		node.OnMsg(ctx, newCorrMsg(ctx, "b", map[string]interface{}{"v": 2.0}))
		assert.Empty(t, capture.Msgs)

		node.OnMsg(ctx, newCorrMsg(ctx, "a", map[string]interface{}{"v": 3.0}))
		require.Len(t, capture.Msgs, 1)
		assert.Equal(t, 1.0, capture.Msgs[0].Data["v"])
	})

	t.Run("TimeoutDiscards", func(t *testing.T) {
		node, err := test.CreateAndInitNode("merge", types.Configuration{
			"expectedInputs": 2,
			"timeoutMs":      20,
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		node.OnMsg(ctx, newCorrMsg(ctx, "late", map[string]interface{}{"v": 1.0}))

		time.Sleep(60 * time.Millisecond)
		assert.Empty(t, capture.Msgs, "discarded group must not emit")

		// after the discard a new group starts fresh
		node.OnMsg(ctx, newCorrMsg(ctx, "late", map[string]interface{}{"v": 2.0}))
		assert.Empty(t, capture.Msgs)
	})
}
