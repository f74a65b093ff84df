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

// Package sqlstore implements types.Store on database/sql: rule chain
// definitions in, computed telemetry and execution logs out.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/json"
)

const (
	loadChainsSql = `SELECT id, tenant_id, name, nodes, connections, priority, config
FROM rules WHERE status = 'ACTIVE'`

	insertTelemetrySql = `INSERT INTO asset_telemetry
(asset_id, tenant_id, timestamp, tag_name, value_numeric, value_string, value_boolean)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertExecutionLogSql = `INSERT INTO rule_executions
(id, chain_id, tenant_id, asset_id, trigger_type, status, error, duration_ms, started_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// Config configures the database connection.
type Config struct {
	// DriverName mysql or postgres
	DriverName string
	// Dsn is the connection string, see sql.Open
	Dsn string
	// PoolSize is the connection pool size
	PoolSize int
}

// chainConfig is the jsonb config column of the rules table: the matcher
// fields that are not part of the graph itself.
type chainConfig struct {
	TriggerTypes   []string        `json:"triggerTypes,omitempty"`
	AppliesTo      types.AppliesTo `json:"appliesTo,omitempty"`
	DebugMode      bool            `json:"debugMode,omitempty"`
	FirstNodeIndex int             `json:"firstNodeIndex,omitempty"`
}

// Store is a types.Store backed by a relational database. Chains live in
// the `rules` table, computed telemetry in `asset_telemetry` and the audit
// trail in `rule_executions`.
type Store struct {
	config Config
	db     *sql.DB
}

// NewStore opens the database connection pool.
func NewStore(config Config) (*Store, error) {
	if config.DriverName == "" {
		config.DriverName = "postgres"
	}
	db, err := sql.Open(config.DriverName, config.Dsn)
	if err != nil {
		return nil, err
	}
	if config.PoolSize > 0 {
		db.SetMaxOpenConns(config.PoolSize)
	}
	return &Store{config: config, db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadActiveChains returns every active chain definition. A row whose
// node or connection documents do not parse fails the whole load with the
// chain id in the error.
func (s *Store) LoadActiveChains(ctx context.Context) ([]types.RuleChain, error) {
	rows, err := s.db.QueryContext(ctx, s.sql(loadChainsSql))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chains []types.RuleChain
	for rows.Next() {
		var id, tenantId, name string
		var nodesDoc, connectionsDoc, configDoc []byte
		var priority sql.NullInt64
		if err = rows.Scan(&id, &tenantId, &name, &nodesDoc, &connectionsDoc, &priority, &configDoc); err != nil {
			return nil, err
		}
		chain, err := buildChain(id, tenantId, name, int(priority.Int64), nodesDoc, connectionsDoc, configDoc)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", id, err)
		}
		chains = append(chains, chain)
	}
	return chains, rows.Err()
}

func buildChain(id, tenantId, name string, priority int, nodesDoc, connectionsDoc, configDoc []byte) (types.RuleChain, error) {
	var chain types.RuleChain
	var nodes []*types.RuleNode
	if len(nodesDoc) > 0 {
		if err := json.Unmarshal(nodesDoc, &nodes); err != nil {
			return chain, fmt.Errorf("nodes column: %w", err)
		}
	}
	var connections []types.NodeConnection
	if len(connectionsDoc) > 0 {
		if err := json.Unmarshal(connectionsDoc, &connections); err != nil {
			return chain, fmt.Errorf("connections column: %w", err)
		}
	}
	var config chainConfig
	if len(configDoc) > 0 {
		if err := json.Unmarshal(configDoc, &config); err != nil {
			return chain, fmt.Errorf("config column: %w", err)
		}
	}
	chain.RuleChain = types.RuleChainBaseInfo{
		ID:           id,
		TenantID:     tenantId,
		Name:         name,
		Priority:     priority,
		Active:       true,
		TriggerTypes: config.TriggerTypes,
		AppliesTo:    config.AppliesTo,
		DebugMode:    config.DebugMode,
	}
	chain.Metadata = types.RuleMetadata{
		FirstNodeIndex: config.FirstNodeIndex,
		Nodes:          nodes,
		Connections:    connections,
	}
	return chain, nil
}

// SaveTimeseries persists computed telemetry values, one row per tag.
func (s *Store) SaveTimeseries(ctx context.Context, tenantId, assetId string, ts int64, values map[string]interface{}) error {
	timestamp := time.UnixMilli(ts).UTC()
	for tagName, value := range values {
		var numeric sql.NullFloat64
		var str sql.NullString
		var boolean sql.NullBool
		switch v := value.(type) {
		case float64:
			numeric = sql.NullFloat64{Float64: v, Valid: true}
		case int:
			numeric = sql.NullFloat64{Float64: float64(v), Valid: true}
		case int64:
			numeric = sql.NullFloat64{Float64: float64(v), Valid: true}
		case bool:
			boolean = sql.NullBool{Bool: v, Valid: true}
		case string:
			str = sql.NullString{String: v, Valid: true}
		default:
			doc, err := json.Marshal(v)
			if err != nil {
				continue
			}
			str = sql.NullString{String: string(doc), Valid: true}
		}
		_, err := s.db.ExecContext(ctx, s.sql(insertTelemetrySql),
			assetId, tenantId, timestamp, tagName, numeric, str, boolean)
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveExecutionLog persists one chain invocation record.
func (s *Store) SaveExecutionLog(ctx context.Context, entry types.ExecutionLog) error {
	_, err := s.db.ExecContext(ctx, s.sql(insertExecutionLogSql),
		entry.Id, entry.ChainId, entry.TenantId, entry.AssetId, entry.TriggerType,
		entry.Status, entry.Error, entry.DurationMs, time.UnixMilli(entry.StartedAt).UTC())
	return err
}

// sql rewrites `?` placeholders to the `$n` style postgres expects.
func (s *Store) sql(statement string) string {
	if s.config.DriverName != "postgres" {
		return statement
	}
	var b strings.Builder
	n := 0
	for _, r := range statement {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
