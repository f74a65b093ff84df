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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/test"
)

func TestExprFilterNode(t *testing.T) {
	var targetNodeType = "exprFilter"

	t.Run("InitBadExpr", func(t *testing.T) {
		_, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"expr": "msg.temperature >",
		}, Registry)
		assert.Error(t, err)
	})

	t.Run("OnMsgTrue", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"expr": "msg.temperature > 50 && msg.humidity > 20",
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		msg := ctx.NewMsg("telemetry_change", types.NewMetadata(), map[string]interface{}{
			"temperature": 60, "humidity": 30,
		})
		node.OnMsg(ctx, msg)

		require.Len(t, capture.Relations, 1)
		assert.Equal(t, types.True, capture.Relations[0])
	})

	t.Run("OnMsgFalse", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"expr": "msg.temperature > 50",
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		msg := ctx.NewMsg("telemetry_change", types.NewMetadata(), map[string]interface{}{
			"temperature": 40,
		})
		node.OnMsg(ctx, msg)

		require.Len(t, capture.Relations, 1)
		assert.Equal(t, types.False, capture.Relations[0])
	})

	t.Run("Metadata", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"expr": `metadata.assetType == "pump"`,
		}, Registry)
		require.NoError(t, err)

		metadata := types.NewMetadata()
		metadata.PutValue(types.MetaKeyAssetType, "pump")
		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		msg := ctx.NewMsg("telemetry_change", metadata, map[string]interface{}{})
		node.OnMsg(ctx, msg)

		require.Len(t, capture.Relations, 1)
		assert.Equal(t, types.True, capture.Relations[0])
	})
}
