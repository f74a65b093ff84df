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

// Package metrics registers the engine's Prometheus collectors. All
// collectors live on the default registry; expose them with
// promhttp.Handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChainExecutions counts chain invocations by chain and final status.
	ChainExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scadaflow_chain_executions_total",
		Help: "Chain invocations by chain id and status.",
	}, []string{"chain_id", "status"})

	// NodeErrors counts node-level failures by chain and node type.
	NodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scadaflow_node_errors_total",
		Help: "Node failures by chain id and node type.",
	}, []string{"chain_id", "node_type"})

	// NodeDuration observes node execution time by node type.
	NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scadaflow_node_duration_seconds",
		Help:    "Node execution duration by node type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"node_type"})

	// MergeDiscards counts merge groups dropped because the remaining
	// branches never arrived within the merge timeout.
	MergeDiscards = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scadaflow_merge_discards_total",
		Help: "Merge groups discarded on timeout by chain id.",
	}, []string{"chain_id"})

	// DroppedTriggers counts trigger envelopes rejected before matching.
	DroppedTriggers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scadaflow_dropped_triggers_total",
		Help: "Trigger envelopes dropped by reason.",
	}, []string{"reason"})

	// MatchedChains counts chains started per trigger type.
	MatchedChains = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scadaflow_matched_chains_total",
		Help: "Chain executions started by trigger type.",
	}, []string{"trigger_type"})
)
