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
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/metrics"
	"github.com/scadaflow/scadaflow/state"
)

// Execution status values written to the execution log.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrEngineStopped the engine is shutting down and accepts no new work
var ErrEngineStopped = errors.New("rule engine stopped")

// RuleEngine holds the working set of loaded chains, matches incoming
// triggers against them and runs the matched chains. Safe for concurrent
// use.
type RuleEngine struct {
	config types.Config

	mu     sync.RWMutex
	chains map[string]*RuleChainCtx

	inFlight sync.WaitGroup
	stopped  atomic.Bool

	// ownedStore is set when the engine created its own in-memory state
	// store and is responsible for closing it.
	ownedStore *state.MemoryStore
}

// New creates a rule engine. Missing Config collaborators get defaults:
// the JSON parser, the built-in component registry and an in-memory state
// store.
func New(config types.Config) *RuleEngine {
	if config.Logger == nil {
		config.Logger = types.DefaultLogger()
	}
	if config.Parser == nil {
		config.Parser = &JsonParser{}
	}
	if config.ComponentsRegistry == nil {
		config.ComponentsRegistry = Registry
	}
	if config.NodeTimeout <= 0 {
		config.NodeTimeout = 10 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}
	engine := &RuleEngine{
		chains: make(map[string]*RuleChainCtx),
	}
	if config.StateStore == nil {
		engine.ownedStore = state.NewMemoryStore(time.Hour)
		config.StateStore = engine.ownedStore
	}
	engine.config = config
	return engine
}

// Config returns the engine configuration.
func (e *RuleEngine) Config() types.Config {
	return e.config
}

// AddChain validates and loads a chain definition, replacing any loaded
// chain with the same id. An invalid definition is rejected and the
// previously loaded version, if any, stays active.
func (e *RuleEngine) AddChain(def types.RuleChain) (*RuleChainCtx, error) {
	if def.RuleChain.ID == "" {
		return nil, errors.New("rule chain id can not be empty")
	}
	chainCtx, err := InitRuleChainCtx(e.config, def)
	if err != nil {
		return nil, fmt.Errorf("load chain %s: %w", def.RuleChain.ID, err)
	}
	e.mu.Lock()
	old := e.chains[def.RuleChain.ID]
	e.chains[def.RuleChain.ID] = chainCtx
	e.mu.Unlock()
	if old != nil {
		old.Destroy()
	}
	return chainCtx, nil
}

// LoadChain decodes a persisted chain document and loads it.
func (e *RuleEngine) LoadChain(def []byte) (*RuleChainCtx, error) {
	chain, err := e.config.Parser.DecodeRuleChain(def)
	if err != nil {
		return nil, err
	}
	return e.AddChain(chain)
}

// RemoveChain unloads a chain and releases its node instances.
func (e *RuleEngine) RemoveChain(chainId string) {
	e.mu.Lock()
	chainCtx := e.chains[chainId]
	delete(e.chains, chainId)
	e.mu.Unlock()
	if chainCtx != nil {
		chainCtx.Destroy()
	}
}

// GetChain returns the loaded chain registered under chainId.
func (e *RuleEngine) GetChain(chainId string) (*RuleChainCtx, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	chainCtx, ok := e.chains[chainId]
	return chainCtx, ok
}

// Chains returns the loaded chains in no particular order.
func (e *RuleEngine) Chains() []*RuleChainCtx {
	e.mu.RLock()
	defer e.mu.RUnlock()
	chains := make([]*RuleChainCtx, 0, len(e.chains))
	for _, chainCtx := range e.chains {
		chains = append(chains, chainCtx)
	}
	return chains
}

// OnTrigger matches the trigger against the working set and executes every
// matched chain independently, ordered by descending priority. One chain's
// failure does not affect another; per-chain outcomes land in the chain
// stats and the execution log.
func (e *RuleEngine) OnTrigger(trigger types.Trigger) error {
	if e.stopped.Load() {
		return ErrEngineStopped
	}
	matched := e.matchChains(trigger)
	for _, chainCtx := range matched {
		metrics.MatchedChains.WithLabelValues(trigger.TriggerType).Inc()
		e.executeChain(chainCtx, trigger, trigger.ToMsg(), nil)
	}
	return nil
}

// ExecuteChain runs one loaded chain with the given message, bypassing the
// matcher. onEnd, when set, is called once per terminated branch.
func (e *RuleEngine) ExecuteChain(chainId string, msg types.RuleMsg, onEnd types.OnEndFunc) error {
	if e.stopped.Load() {
		return ErrEngineStopped
	}
	chainCtx, ok := e.GetChain(chainId)
	if !ok {
		return fmt.Errorf("chain not found: %s", chainId)
	}
	e.executeChain(chainCtx, types.Trigger{
		TriggerType: msg.Type,
		AssetId:     msg.Metadata.GetValue(types.MetaKeyAssetId),
		TenantId:    chainCtx.TenantId(),
	}, msg, onEnd)
	return nil
}

// matchChains selects the active chains that react to the trigger, ordered
// by descending priority. Ties break on chain id so the order is stable.
func (e *RuleEngine) matchChains(trigger types.Trigger) []*RuleChainCtx {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var matched []*RuleChainCtx
	for _, chainCtx := range e.chains {
		info := chainCtx.SelfDefinition.RuleChain
		if !info.Active || info.TenantID != trigger.TenantId {
			continue
		}
		if !matchesTriggerType(info.TriggerTypes, trigger.TriggerType) {
			continue
		}
		if !info.AppliesTo.Matches(trigger.AssetId, trigger.AssetType) {
			continue
		}
		matched = append(matched, chainCtx)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i].SelfDefinition.RuleChain, matched[j].SelfDefinition.RuleChain
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.ID < b.ID
	})
	return matched
}

func matchesTriggerType(triggerTypes []string, triggerType string) bool {
	if len(triggerTypes) == 0 {
		return true
	}
	for _, t := range triggerTypes {
		if t == triggerType {
			return true
		}
	}
	return false
}

// executeChain runs one invocation to completion in the caller goroutine
// and records stats, metrics and the execution log entry.
func (e *RuleEngine) executeChain(chainCtx *RuleChainCtx, trigger types.Trigger, msg types.RuleMsg, onEnd types.OnEndFunc) {
	e.inFlight.Add(1)
	defer e.inFlight.Done()

	chainCtx.recordRun()
	start := time.Now()
	exec := newChainExecution(context.Background(), chainCtx, onEnd)
	exec.start(msg)

	status := StatusCompleted
	var errText string
	if err := exec.failure(); err != nil {
		status = StatusFailed
		errText = err.Error()
	}
	metrics.ChainExecutions.WithLabelValues(chainCtx.Id, status).Inc()
	e.saveExecutionLog(chainCtx, trigger, status, errText, start)
}

func (e *RuleEngine) saveExecutionLog(chainCtx *RuleChainCtx, trigger types.Trigger, status, errText string, start time.Time) {
	store := e.config.Adapters.Store
	if store == nil {
		return
	}
	id, _ := uuid.NewV4()
	ctx, cancel := context.WithTimeout(context.Background(), e.config.NodeTimeout)
	defer cancel()
	err := store.SaveExecutionLog(ctx, types.ExecutionLog{
		Id:          id.String(),
		ChainId:     chainCtx.Id,
		TenantId:    chainCtx.TenantId(),
		AssetId:     trigger.AssetId,
		TriggerType: trigger.TriggerType,
		Status:      status,
		Error:       errText,
		DurationMs:  time.Since(start).Milliseconds(),
		StartedAt:   start.UnixMilli(),
	})
	if err != nil {
		e.config.Logger.Printf("W! save execution log failed, chainId=%s: %v", chainCtx.Id, err)
	}
}

// Shutdown stops intake and drains in-flight executions, bounded by
// Config.ShutdownTimeout. Loaded chains and the owned state store are
// released afterwards.
func (e *RuleEngine) Shutdown() {
	if !e.stopped.CompareAndSwap(false, true) {
		return
	}
	done := make(chan struct{})
	go func() {
		e.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(e.config.ShutdownTimeout):
		e.config.Logger.Printf("W! shutdown timeout reached, abandoning in-flight executions")
	}
	e.mu.Lock()
	chains := e.chains
	e.chains = make(map[string]*RuleChainCtx)
	e.mu.Unlock()
	for _, chainCtx := range chains {
		chainCtx.Destroy()
	}
	if e.ownedStore != nil {
		e.ownedStore.Close()
	}
}
