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

package sqlstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scadaflow/scadaflow/api/types"
)

func TestBuildChain(t *testing.T) {
	nodes := []byte(`[{"id":"s1","type":"thresholdFilter","configuration":{"field":"pressure","operator":"gt","threshold":100}}]`)
	connections := []byte(`[{"fromId":"s1","toId":"s2","type":"True"}]`)
	config := []byte(`{"triggerTypes":["telemetry_change"],"appliesTo":{"assetTypes":["well"]},"debugMode":true}`)

	chain, err := buildChain("c1", "t1", "high pressure", 5, nodes, connections, config)
	assert.NoError(t, err)
	assert.Equal(t, "c1", chain.RuleChain.ID)
	assert.Equal(t, "t1", chain.RuleChain.TenantID)
	assert.Equal(t, 5, chain.RuleChain.Priority)
	assert.True(t, chain.RuleChain.Active)
	assert.True(t, chain.RuleChain.DebugMode)
	assert.Equal(t, []string{types.TriggerTelemetryChange}, chain.RuleChain.TriggerTypes)
	assert.Equal(t, []string{"well"}, chain.RuleChain.AppliesTo.AssetTypes)
	assert.Len(t, chain.Metadata.Nodes, 1)
	assert.Equal(t, "thresholdFilter", chain.Metadata.Nodes[0].Type)
	assert.Len(t, chain.Metadata.Connections, 1)

	_, err = buildChain("c2", "t1", "bad", 0, []byte(`{broken`), nil, nil)
	assert.Error(t, err)
}

func TestPostgresPlaceholderRewrite(t *testing.T) {
	store := &Store{config: Config{DriverName: "postgres"}}
	got := store.sql("INSERT INTO t (a, b) VALUES (?, ?)")
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", got)

	store = &Store{config: Config{DriverName: "mysql"}}
	assert.True(t, strings.Contains(store.sql(insertTelemetrySql), "?"))
}
