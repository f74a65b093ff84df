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

// Package test provides helpers for testing single nodes outside a chain.
package test

import (
	"context"

	"github.com/scadaflow/scadaflow/api/types"
)

var _ types.RuleContext = (*NodeTestRuleContext)(nil)

// NodeTestRuleContext is a throwaway context for exercising one node in
// isolation. It cannot link nodes into a chain; every Tell call is handed
// to the callback instead.
type NodeTestRuleContext struct {
	context  context.Context
	config   types.Config
	callback func(msg types.RuleMsg, relationType string, err error)
	selfId   string
	chainId  string
	tenantId string
}

func NewRuleContext(config types.Config, callback func(msg types.RuleMsg, relationType string, err error)) *NodeTestRuleContext {
	return &NodeTestRuleContext{
		context:  context.TODO(),
		config:   config,
		callback: callback,
	}
}

// NewRuleContextFull also fixes the node, chain and tenant identity the
// node under test observes.
func NewRuleContextFull(config types.Config, selfId, chainId, tenantId string, callback func(msg types.RuleMsg, relationType string, err error)) *NodeTestRuleContext {
	return &NodeTestRuleContext{
		context:  context.TODO(),
		config:   config,
		callback: callback,
		selfId:   selfId,
		chainId:  chainId,
		tenantId: tenantId,
	}
}

func (ctx *NodeTestRuleContext) TellSuccess(msg types.RuleMsg) {
	ctx.callback(msg, types.Success, nil)
}

func (ctx *NodeTestRuleContext) TellFailure(msg types.RuleMsg, err error) {
	ctx.callback(msg, types.Failure, err)
}

func (ctx *NodeTestRuleContext) TellNext(msg types.RuleMsg, relationTypes ...string) {
	for _, relationType := range relationTypes {
		ctx.callback(msg, relationType, nil)
	}
}

func (ctx *NodeTestRuleContext) NewMsg(msgType string, metadata types.Metadata, data map[string]interface{}) types.RuleMsg {
	return types.NewMsg(0, msgType, metadata, data)
}

func (ctx *NodeTestRuleContext) GetSelfId() string {
	return ctx.selfId
}

func (ctx *NodeTestRuleContext) ChainId() string {
	return ctx.chainId
}

func (ctx *NodeTestRuleContext) TenantId() string {
	return ctx.tenantId
}

func (ctx *NodeTestRuleContext) Config() types.Config {
	return ctx.config
}

func (ctx *NodeTestRuleContext) Adapters() types.Adapters {
	return ctx.config.Adapters
}

func (ctx *NodeTestRuleContext) SetContext(c context.Context) *NodeTestRuleContext {
	ctx.context = c
	return ctx
}

func (ctx *NodeTestRuleContext) GetContext() context.Context {
	return ctx.context
}
