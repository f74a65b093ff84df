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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/scadaflow/scadaflow/api/types"
)

var (
	// ErrEmptyChain the chain definition has no nodes
	ErrEmptyChain = errors.New("rule chain has no nodes")
	// ErrCycleDetected the chain graph contains a cycle
	ErrCycleDetected = errors.New("rule chain contains a cycle")
)

// RuleChainCtx is a loaded, validated chain: initialized node instances and
// the routing table built from the connection list. Loading fails when the
// definition does not validate; an invalid chain is never matched.
type RuleChainCtx struct {
	// Id is the chain identifier.
	Id string
	// SelfDefinition is the validated chain definition.
	SelfDefinition types.RuleChain

	config types.Config
	// nodes by node id
	nodes map[string]*RuleNodeCtx
	// routes[fromId][relationType] lists target node ids
	routes map[string]map[string][]string
	// rootId is the entry node
	rootId string

	statsMu sync.Mutex
	stats   types.RuleChainStats
}

// InitRuleChainCtx builds and validates a chain context from its
// definition. Every node is instantiated and initialized; the graph must be
// a DAG with every node reachable from the entry node.
func InitRuleChainCtx(config types.Config, def types.RuleChain) (*RuleChainCtx, error) {
	if len(def.Metadata.Nodes) == 0 {
		return nil, ErrEmptyChain
	}
	firstIndex := def.Metadata.FirstNodeIndex
	if firstIndex < 0 || firstIndex >= len(def.Metadata.Nodes) {
		return nil, fmt.Errorf("firstNodeIndex %d out of range", firstIndex)
	}

	chainCtx := &RuleChainCtx{
		Id:             def.RuleChain.ID,
		SelfDefinition: def,
		config:         config,
		nodes:          make(map[string]*RuleNodeCtx, len(def.Metadata.Nodes)),
		routes:         make(map[string]map[string][]string),
		rootId:         def.Metadata.Nodes[firstIndex].Id,
	}
	for _, nodeDef := range def.Metadata.Nodes {
		if nodeDef.Id == "" {
			chainCtx.Destroy()
			return nil, errors.New("node id can not be empty")
		}
		if _, ok := chainCtx.nodes[nodeDef.Id]; ok {
			chainCtx.Destroy()
			return nil, fmt.Errorf("duplicate node id: %s", nodeDef.Id)
		}
		nodeCtx, err := InitRuleNodeCtx(config, nodeDef)
		if err != nil {
			chainCtx.Destroy()
			return nil, err
		}
		chainCtx.nodes[nodeDef.Id] = nodeCtx
	}
	for _, connection := range def.Metadata.Connections {
		if _, ok := chainCtx.nodes[connection.FromId]; !ok {
			chainCtx.Destroy()
			return nil, fmt.Errorf("connection references unknown node: %s", connection.FromId)
		}
		if _, ok := chainCtx.nodes[connection.ToId]; !ok {
			chainCtx.Destroy()
			return nil, fmt.Errorf("connection references unknown node: %s", connection.ToId)
		}
		relations := chainCtx.routes[connection.FromId]
		if relations == nil {
			relations = make(map[string][]string)
			chainCtx.routes[connection.FromId] = relations
		}
		relations[connection.Type] = append(relations[connection.Type], connection.ToId)
	}
	if err := chainCtx.validateGraph(); err != nil {
		chainCtx.Destroy()
		return nil, err
	}
	return chainCtx, nil
}

// validateGraph rejects cyclic graphs (Kahn's algorithm) and, for chains
// with more than one node, nodes unreachable from the entry node.
func (rc *RuleChainCtx) validateGraph() error {
	inDegree := make(map[string]int, len(rc.nodes))
	for id := range rc.nodes {
		inDegree[id] = 0
	}
	for _, relations := range rc.routes {
		for _, targets := range relations {
			for _, target := range targets {
				inDegree[target]++
			}
		}
	}
	var queue []string
	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, targets := range rc.routes[id] {
			for _, target := range targets {
				inDegree[target]--
				if inDegree[target] == 0 {
					queue = append(queue, target)
				}
			}
		}
	}
	if visited != len(rc.nodes) {
		return ErrCycleDetected
	}

	if len(rc.nodes) > 1 {
		reachable := map[string]bool{rc.rootId: true}
		stack := []string{rc.rootId}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, targets := range rc.routes[id] {
				for _, target := range targets {
					if !reachable[target] {
						reachable[target] = true
						stack = append(stack, target)
					}
				}
			}
		}
		for id := range rc.nodes {
			if !reachable[id] {
				return fmt.Errorf("node %s is not reachable from the entry node", id)
			}
		}
	}
	return nil
}

// GetNode returns the node context registered under id.
func (rc *RuleChainCtx) GetNode(id string) (*RuleNodeCtx, bool) {
	node, ok := rc.nodes[id]
	return node, ok
}

// RootId returns the id of the entry node.
func (rc *RuleChainCtx) RootId() string {
	return rc.rootId
}

// Targets returns the node ids wired to the given node via relationType.
func (rc *RuleChainCtx) Targets(fromId, relationType string) []string {
	relations, ok := rc.routes[fromId]
	if !ok {
		return nil
	}
	return relations[relationType]
}

// TenantId returns the owning tenant of the chain.
func (rc *RuleChainCtx) TenantId() string {
	return rc.SelfDefinition.RuleChain.TenantID
}

// Stats returns a snapshot of the chain execution counters.
func (rc *RuleChainCtx) Stats() types.RuleChainStats {
	rc.statsMu.Lock()
	defer rc.statsMu.Unlock()
	return rc.stats
}

func (rc *RuleChainCtx) recordRun() {
	rc.statsMu.Lock()
	defer rc.statsMu.Unlock()
	rc.stats.ExecutionCount++
	rc.stats.LastRunTs = time.Now().UnixMilli()
}

func (rc *RuleChainCtx) recordError(err error) {
	rc.statsMu.Lock()
	defer rc.statsMu.Unlock()
	rc.stats.ErrorCount++
	if err != nil {
		rc.stats.LastError = err.Error()
		rc.stats.LastErrorTs = time.Now().UnixMilli()
	}
}

// Destroy releases every node instance of the chain.
func (rc *RuleChainCtx) Destroy() {
	for _, node := range rc.nodes {
		node.Destroy()
	}
}
