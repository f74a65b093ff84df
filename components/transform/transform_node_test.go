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

package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/test"
)

func runNode(t *testing.T, node types.Node, data map[string]interface{}) (types.RuleMsg, string) {
	t.Helper()
	capture := &test.TellCapture{}
	ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
	msg := ctx.NewMsg("telemetry_change", types.NewMetadata(), data)
	node.OnMsg(ctx, msg)
	require.Len(t, capture.Relations, 1)
	return capture.Msgs[0], capture.Relations[0]
}

func TestFormulaNode(t *testing.T) {
	t.Run("DerivedField", func(t *testing.T) {
		node, err := test.CreateAndInitNode("formula", types.Configuration{
			"expr":      "msg.oilRate + msg.waterRate",
			"outputKey": "liquidRate",
		}, Registry)
		require.NoError(t, err)

		out, relation := runNode(t, node, map[string]interface{}{
			"oilRate": 120.0, "waterRate": 80.0,
		})
		assert.Equal(t, types.Success, relation)
		assert.Equal(t, 200.0, out.Data["liquidRate"])
		// the input fields stay untouched
		assert.Equal(t, 120.0, out.Data["oilRate"])
	})

	t.Run("ReplacePayload", func(t *testing.T) {
		node, err := test.CreateAndInitNode("formula", types.Configuration{
			"expr": `{"watercut": msg.waterRate / (msg.oilRate + msg.waterRate)}`,
		}, Registry)
		require.NoError(t, err)

		out, relation := runNode(t, node, map[string]interface{}{
			"oilRate": 75.0, "waterRate": 25.0,
		})
		assert.Equal(t, types.Success, relation)
		assert.Equal(t, 0.25, out.Data["watercut"])
		assert.NotContains(t, out.Data, "oilRate")
	})

	t.Run("EvalError", func(t *testing.T) {
		node, err := test.CreateAndInitNode("formula", types.Configuration{
			"expr":      "msg.a / msg.missing.b",
			"outputKey": "r",
		}, Registry)
		require.NoError(t, err)

		_, relation := runNode(t, node, map[string]interface{}{"a": 1.0})
		assert.Equal(t, types.Failure, relation)
	})
}

func TestMathNode(t *testing.T) {
	node, err := test.CreateAndInitNode("math", types.Configuration{
		"field":       "ratio",
		"operation":   "multiply",
		"operand":     100,
		"outputField": "percent",
	}, Registry)
	require.NoError(t, err)

	out, relation := runNode(t, node, map[string]interface{}{"ratio": 0.42})
	assert.Equal(t, types.Success, relation)
	assert.InDelta(t, 42.0, out.Data["percent"].(float64), 1e-9)

	t.Run("DivideByZero", func(t *testing.T) {
		node, err := test.CreateAndInitNode("math", types.Configuration{
			"field":     "value",
			"operation": "divide",
			"operand":   0,
		}, Registry)
		require.NoError(t, err)

		_, relation := runNode(t, node, map[string]interface{}{"value": 10.0})
		assert.Equal(t, types.Failure, relation)
	})
}

func TestUnitConversionNode(t *testing.T) {
	t.Run("PressurePsiToBar", func(t *testing.T) {
		node, err := test.CreateAndInitNode("unitConversion", types.Configuration{
			"inputKey": "pressure",
			"category": "pressure",
			"fromUnit": "psi",
			"toUnit":   "bar",
		}, Registry)
		require.NoError(t, err)

		out, relation := runNode(t, node, map[string]interface{}{"pressure": 145.038})
		assert.Equal(t, types.Success, relation)
		assert.InDelta(t, 10.0, out.Data["pressure"].(float64), 1e-3)
	})

	t.Run("TemperatureFToC", func(t *testing.T) {
		node, err := test.CreateAndInitNode("unitConversion", types.Configuration{
			"inputKey":  "temp",
			"outputKey": "tempC",
			"category":  "temperature",
			"fromUnit":  "F",
			"toUnit":    "C",
		}, Registry)
		require.NoError(t, err)

		out, relation := runNode(t, node, map[string]interface{}{"temp": 212.0})
		assert.Equal(t, types.Success, relation)
		assert.InDelta(t, 100.0, out.Data["tempC"].(float64), 1e-9)
	})

	t.Run("UnknownUnit", func(t *testing.T) {
		_, err := test.CreateAndInitNode("unitConversion", types.Configuration{
			"inputKey": "v",
			"category": "pressure",
			"fromUnit": "psi",
			"toUnit":   "furlong",
		}, Registry)
		assert.Error(t, err)
	})
}

func TestRenameKeysNode(t *testing.T) {
	node, err := test.CreateAndInitNode("renameKeys", types.Configuration{
		"mapping": map[string]string{
			"whp":           "wellheadPressure",
			"readings.temp": "readings.temperature",
		},
	}, Registry)
	require.NoError(t, err)

	out, relation := runNode(t, node, map[string]interface{}{
		"whp": 1450.0,
		"readings": map[string]interface{}{
			"temp": 88.0,
		},
	})
	assert.Equal(t, types.Success, relation)
	assert.Equal(t, 1450.0, out.Data["wellheadPressure"])
	assert.NotContains(t, out.Data, "whp")
	readings := out.Data["readings"].(map[string]interface{})
	assert.Equal(t, 88.0, readings["temperature"])
}
