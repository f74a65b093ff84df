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

func TestSwitchNode(t *testing.T) {
	node, err := test.CreateAndInitNode("switch", types.Configuration{
		"cases": []map[string]interface{}{
			{"case": "msg.level > 90", "then": "Critical"},
			{"case": "msg.level > 70", "then": "Warning"},
		},
	}, Registry)
	require.NoError(t, err)

	run := func(level float64) string {
		capture := &test.TellCapture{}
		ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
		msg := ctx.NewMsg("telemetry_change", types.NewMetadata(), map[string]interface{}{
			"level": level,
		})
		node.OnMsg(ctx, msg)
		require.Len(t, capture.Relations, 1)
		return capture.Relations[0]
	}

	assert.Equal(t, "Critical", run(95))
	assert.Equal(t, "Warning", run(80))
	assert.Equal(t, KeyDefaultRelationType, run(10))
}

func TestMsgTypeSwitchNode(t *testing.T) {
	node, err := test.CreateAndInitNode("msgTypeSwitch", types.Configuration{}, Registry)
	require.NoError(t, err)

	capture := &test.TellCapture{}
	ctx := test.NewRuleContext(types.NewConfig(), capture.Callback())
	msg := ctx.NewMsg(types.TriggerAttributeChange, types.NewMetadata(), map[string]interface{}{})
	node.OnMsg(ctx, msg)

	require.Len(t, capture.Relations, 1)
	assert.Equal(t, types.TriggerAttributeChange, capture.Relations[0])
}
