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
	"fmt"
	"sync"
	"time"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/metrics"
)

// workItem is one queued node activation: msg arrived at nodeId via
// relationType.
type workItem struct {
	nodeId       string
	msg          types.RuleMsg
	relationType string
}

// chainExecution is one chain invocation. Tell* calls enqueue work items
// instead of recursing; a single drain loop pops them in FIFO order, which
// keeps per-branch ordering deterministic. A node that tells from outside
// its own activation (e.g. a merge group completing on a later message)
// re-enters the drain through the same queue.
type chainExecution struct {
	chainCtx *RuleChainCtx
	config   types.Config
	rootCtx  context.Context
	onEnd    types.OnEndFunc

	mu       sync.Mutex
	queue    []workItem
	draining bool

	errMu   sync.Mutex
	lastErr error
}

func newChainExecution(rootCtx context.Context, chainCtx *RuleChainCtx, onEnd types.OnEndFunc) *chainExecution {
	return &chainExecution{
		chainCtx: chainCtx,
		config:   chainCtx.config,
		rootCtx:  rootCtx,
		onEnd:    onEnd,
	}
}

// start enqueues msg at the chain entry node and drains the queue.
func (e *chainExecution) start(msg types.RuleMsg) {
	e.enqueue(e.chainCtx.RootId(), msg, "")
}

// enqueue adds a work item. The caller becomes the drainer when no drain
// loop is running.
func (e *chainExecution) enqueue(nodeId string, msg types.RuleMsg, relationType string) {
	e.mu.Lock()
	e.queue = append(e.queue, workItem{nodeId: nodeId, msg: msg, relationType: relationType})
	if e.draining {
		e.mu.Unlock()
		return
	}
	e.draining = true
	e.mu.Unlock()
	e.drain()
}

func (e *chainExecution) drain() {
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.draining = false
			e.mu.Unlock()
			return
		}
		item := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()
		e.runNode(item)
	}
}

// runNode executes one node activation with a bounded context and panic
// recovery. A panicking node is a node failure, not a chain failure.
func (e *chainExecution) runNode(item workItem) {
	nodeCtx, ok := e.chainCtx.GetNode(item.nodeId)
	if !ok {
		e.config.Logger.Printf("E! node not found, chainId=%s nodeId=%s", e.chainCtx.Id, item.nodeId)
		return
	}
	goCtx, cancel := context.WithTimeout(e.rootCtx, e.config.NodeTimeout)
	defer cancel()

	ctx := &DefaultRuleContext{
		exec:    e,
		nodeCtx: nodeCtx,
		goCtx:   goCtx,
		debug:   nodeCtx.SelfDefinition.DebugMode || e.chainCtx.SelfDefinition.RuleChain.DebugMode,
	}
	ctx.onDebug(types.In, item.msg, item.relationType, nil)

	start := time.Now()
	defer func() {
		metrics.NodeDuration.WithLabelValues(nodeCtx.SelfDefinition.Type).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			ctx.TellFailure(item.msg, fmt.Errorf("node panic: %v", r))
		}
	}()
	nodeCtx.Node.OnMsg(ctx, item.msg)
}

func (e *chainExecution) recordError(nodeType string, err error) {
	e.errMu.Lock()
	e.lastErr = err
	e.errMu.Unlock()
	e.chainCtx.recordError(err)
	metrics.NodeErrors.WithLabelValues(e.chainCtx.Id, nodeType).Inc()
}

// failure returns the last node failure of the invocation, nil when every
// node succeeded.
func (e *chainExecution) failure() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.lastErr
}

func (e *chainExecution) end(msg types.RuleMsg, err error, relationType string) {
	if e.onEnd != nil {
		e.onEnd(msg, err, relationType)
	}
}

// DefaultRuleContext is the types.RuleContext handed to a node for one
// activation. Tell* routes through the chain connection table and enqueues
// follow-up work on the owning execution.
type DefaultRuleContext struct {
	exec    *chainExecution
	nodeCtx *RuleNodeCtx
	goCtx   context.Context
	debug   bool
}

// TellSuccess sends msg to the nodes connected via the Success relation.
func (ctx *DefaultRuleContext) TellSuccess(msg types.RuleMsg) {
	ctx.TellNext(msg, types.Success)
}

// TellFailure records the node failure and follows `Failure` edges when
// wired; otherwise the branch ends here.
func (ctx *DefaultRuleContext) TellFailure(msg types.RuleMsg, err error) {
	ctx.exec.recordError(ctx.nodeCtx.SelfDefinition.Type, err)
	ctx.exec.config.Logger.Printf("E! node failure, chainId=%s nodeId=%s type=%s: %v",
		ctx.ChainId(), ctx.GetSelfId(), ctx.nodeCtx.SelfDefinition.Type, err)
	ctx.onDebug(types.Out, msg, types.Failure, err)
	targets := ctx.exec.chainCtx.Targets(ctx.GetSelfId(), types.Failure)
	if len(targets) == 0 {
		ctx.exec.end(msg, err, types.Failure)
		return
	}
	ctx.tellTargets(msg, types.Failure, targets)
}

// TellNext sends msg to the nodes connected via the given relations. A
// relation with no outgoing connection ends that branch.
func (ctx *DefaultRuleContext) TellNext(msg types.RuleMsg, relationTypes ...string) {
	for _, relationType := range relationTypes {
		ctx.onDebug(types.Out, msg, relationType, nil)
		targets := ctx.exec.chainCtx.Targets(ctx.GetSelfId(), relationType)
		if len(targets) == 0 {
			ctx.exec.end(msg, nil, relationType)
			continue
		}
		ctx.tellTargets(msg, relationType, targets)
	}
}

// tellTargets fans msg out to targets. Every target past the first gets an
// independent copy so sibling branches cannot observe each other's writes.
func (ctx *DefaultRuleContext) tellTargets(msg types.RuleMsg, relationType string, targets []string) {
	for i, target := range targets {
		next := msg
		if i > 0 {
			next = msg.Copy()
		}
		ctx.exec.enqueue(target, next, relationType)
	}
}

// NewMsg creates a new message with a generated id.
func (ctx *DefaultRuleContext) NewMsg(msgType string, metadata types.Metadata, data map[string]interface{}) types.RuleMsg {
	return types.NewMsg(time.Now().UnixMilli(), msgType, metadata, data)
}

// GetSelfId returns the id of the node being executed.
func (ctx *DefaultRuleContext) GetSelfId() string {
	return ctx.nodeCtx.SelfDefinition.Id
}

// ChainId returns the id of the chain the node belongs to.
func (ctx *DefaultRuleContext) ChainId() string {
	return ctx.exec.chainCtx.Id
}

// TenantId returns the tenant that owns the chain.
func (ctx *DefaultRuleContext) TenantId() string {
	return ctx.exec.chainCtx.TenantId()
}

// Config returns the engine configuration.
func (ctx *DefaultRuleContext) Config() types.Config {
	return ctx.exec.config
}

// Adapters returns the external gateway adapter bundle.
func (ctx *DefaultRuleContext) Adapters() types.Adapters {
	return ctx.exec.config.Adapters
}

// GetContext returns the bounded execution context of this activation.
func (ctx *DefaultRuleContext) GetContext() context.Context {
	return ctx.goCtx
}

func (ctx *DefaultRuleContext) onDebug(flowType string, msg types.RuleMsg, relationType string, err error) {
	if ctx.debug && ctx.exec.config.OnDebug != nil {
		ctx.exec.config.OnDebug(ctx.ChainId(), flowType, ctx.GetSelfId(), msg, relationType, err)
	}
}
