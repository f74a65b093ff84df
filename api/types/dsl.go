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

package types

// RuleChain is the persisted rule chain document: base info plus the node
// and connection metadata. It is authored by the external configuration API
// and consumed read-only by the engine.
type RuleChain struct {
	RuleChain RuleChainBaseInfo `json:"ruleChain"`
	Metadata  RuleMetadata      `json:"metadata"`
}

// RuleChainBaseInfo is the tenant-facing part of a chain definition.
type RuleChainBaseInfo struct {
	// ID is the chain identifier.
	ID string `json:"id"`
	// TenantID is the owning tenant.
	TenantID string `json:"tenantId"`
	// Name is the display name.
	Name string `json:"name"`
	// Priority orders chains matched for the same trigger, descending.
	Priority int `json:"priority"`
	// Active gates whether the matcher considers this chain. Lifecycle is
	// draft -> active -> inactive, toggled by the user.
	Active bool `json:"isActive"`
	// TriggerTypes lists the trigger types the chain reacts to. Empty means
	// all types.
	TriggerTypes []string `json:"triggerTypes,omitempty"`
	// AppliesTo restricts the chain to certain assets.
	AppliesTo AppliesTo `json:"appliesTo,omitempty"`
	// DebugMode enables the OnDebug callback for every node of the chain.
	DebugMode bool `json:"debugMode,omitempty"`
	// AdditionalInfo carries extension fields.
	AdditionalInfo map[string]string `json:"additionalInfo,omitempty"`
}

// AppliesTo is the asset predicate of a chain. A chain applies to an asset
// when either list contains it; empty lists match every asset.
type AppliesTo struct {
	AssetTypes []string `json:"assetTypes,omitempty"`
	AssetIds   []string `json:"assetIds,omitempty"`
}

// Matches reports whether the predicate includes the given asset.
func (a AppliesTo) Matches(assetId, assetType string) bool {
	if len(a.AssetIds) == 0 && len(a.AssetTypes) == 0 {
		return true
	}
	for _, id := range a.AssetIds {
		if id == assetId {
			return true
		}
	}
	for _, t := range a.AssetTypes {
		if t != "" && t == assetType {
			return true
		}
	}
	return false
}

// RuleMetadata holds the nodes and connections of a chain.
type RuleMetadata struct {
	// FirstNodeIndex is the entry node for chains whose graph does not make
	// the entry obvious. Default 0.
	FirstNodeIndex int `json:"firstNodeIndex"`
	// Nodes are the node instances of the chain.
	Nodes []*RuleNode `json:"nodes"`
	// Connections are the labeled edges between nodes.
	Connections []NodeConnection `json:"connections"`
}

// RuleNode is one node instance inside a chain definition. It is exclusively
// owned by its chain and never shared.
type RuleNode struct {
	// Id is unique within the chain.
	Id string `json:"id"`
	// Type is the component registry key.
	Type string `json:"type"`
	// Name is the display name.
	Name string `json:"name"`
	// DebugMode enables the OnDebug callback for this node.
	DebugMode bool `json:"debugMode,omitempty"`
	// Configuration holds the node-type-specific parameters.
	Configuration Configuration `json:"configuration"`
	// AdditionalInfo carries layout hints for the visual editor.
	AdditionalInfo NodeAdditionalInfo `json:"additionalInfo,omitempty"`
}

// NodeAdditionalInfo carries visual editor positions. Not used at runtime.
type NodeAdditionalInfo struct {
	Description string `json:"description,omitempty"`
	LayoutX     int    `json:"layoutX,omitempty"`
	LayoutY     int    `json:"layoutY,omitempty"`
}

// NodeConnection is a directed, labeled edge. Type is the relation label
// (port) on the source node, e.g. Success, True, or a switch case route.
type NodeConnection struct {
	FromId string `json:"fromId"`
	ToId   string `json:"toId"`
	Type   string `json:"type"`
}

// RuleChainStats is the per-chain execution bookkeeping surfaced to the
// admin UI. Counters are mutated after every run.
type RuleChainStats struct {
	// ExecutionCount is the number of chain invocations.
	ExecutionCount int64 `json:"executionCount"`
	// ErrorCount is the number of node-level failures across invocations.
	ErrorCount int64 `json:"errorCount"`
	// LastError is the most recent node failure message.
	LastError string `json:"lastError,omitempty"`
	// LastErrorTs is when LastError happened, unix ms.
	LastErrorTs int64 `json:"lastErrorTs,omitempty"`
	// LastRunTs is when the chain last executed, unix ms.
	LastRunTs int64 `json:"lastRunTs,omitempty"`
}
