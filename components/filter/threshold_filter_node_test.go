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

func TestThresholdFilterNode(t *testing.T) {
	var targetNodeType = "thresholdFilter"

	t.Run("InitBadOperator", func(t *testing.T) {
		_, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"field":    "temperature",
			"operator": "between",
		}, Registry)
		assert.Error(t, err)
	})

	t.Run("OnMsg", func(t *testing.T) {
		cases := []struct {
			operator  string
			threshold float64
			value     interface{}
			want      string
		}{
			{"gt", 50, 51.0, types.True},
			{"gt", 50, 50.0, types.False},
			{"gte", 50, 50.0, types.True},
			{"lt", 10, 9.5, types.True},
			{"lte", 10, 10.0, types.True},
			{"eq", 1, 1.0, types.True},
			{"neq", 1, 2.0, types.True},
			{"gt", 50, "60", types.True},
			{"gt", 50, "hot", types.False},
		}
		for _, c := range cases {
			node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
				"field":     "temperature",
				"operator":  c.operator,
				"threshold": c.threshold,
			}, Registry)
			require.NoError(t, err)

			capture := &test.TellCapture{}
			ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
			msg := ctx.NewMsg("telemetry_change", types.NewMetadata(), map[string]interface{}{
				"temperature": c.value,
			})
			node.OnMsg(ctx, msg)

			require.Len(t, capture.Relations, 1)
			assert.Equal(t, c.want, capture.Relations[0], "operator=%s value=%v", c.operator, c.value)
		}
	})

	t.Run("NestedField", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"field":     "readings.pressure",
			"operator":  "gte",
			"threshold": 120,
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		msg := ctx.NewMsg("telemetry_change", types.NewMetadata(), map[string]interface{}{
			"readings": map[string]interface{}{"pressure": 130.5},
		})
		node.OnMsg(ctx, msg)

		require.Len(t, capture.Relations, 1)
		assert.Equal(t, types.True, capture.Relations[0])
	})

	t.Run("MissingField", func(t *testing.T) {
		node, err := test.CreateAndInitNode(targetNodeType, types.Configuration{
			"field":     "humidity",
			"operator":  "gt",
			"threshold": 1,
		}, Registry)
		require.NoError(t, err)

		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		msg := ctx.NewMsg("telemetry_change", types.NewMetadata(), map[string]interface{}{
			"temperature": 55,
		})
		node.OnMsg(ctx, msg)

		require.Len(t, capture.Relations, 1)
		assert.Equal(t, types.False, capture.Relations[0])
	})
}
