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

package consumer

import (
	"context"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/engine"
	"github.com/scadaflow/scadaflow/metrics"
)

// Drop reasons reported on the dropped-triggers counter.
const (
	dropReasonInvalidEnvelope = "invalid_envelope"
	dropReasonEngineStopped   = "engine_stopped"
)

// Source is a running producer of trigger envelopes.
type Source interface {
	Start(ctx context.Context) error
	Stop()
}

// Service wires trigger sources to the rule engine. Sources deliver either
// raw envelopes (event bus records, via HandleRaw) or decoded triggers
// (schedules, via Handle).
type Service struct {
	ruleEngine *engine.RuleEngine
	logger     types.Logger
	sources    []Source
}

// NewService creates a trigger ingestion service on top of the engine.
func NewService(ruleEngine *engine.RuleEngine, logger types.Logger, sources ...Source) *Service {
	return &Service{
		ruleEngine: ruleEngine,
		logger:     types.NewLogger(logger),
		sources:    sources,
	}
}

// AddSource registers an additional source before Start.
func (s *Service) AddSource(source Source) {
	s.sources = append(s.sources, source)
}

// Start starts every source. A source that fails to start stops the ones
// already running and fails the call.
func (s *Service) Start(ctx context.Context) error {
	for i, source := range s.sources {
		if err := source.Start(ctx); err != nil {
			for _, started := range s.sources[:i] {
				started.Stop()
			}
			return err
		}
	}
	return nil
}

// Stop stops every source. The engine keeps draining in-flight executions;
// shut it down separately.
func (s *Service) Stop() {
	for _, source := range s.sources {
		source.Stop()
	}
}

// HandleRaw validates and decodes one raw envelope and submits it to the
// matcher. Invalid envelopes are dropped with a log entry; they are never
// retried.
func (s *Service) HandleRaw(raw []byte) {
	trigger, err := DecodeEnvelope(raw)
	if err != nil {
		metrics.DroppedTriggers.WithLabelValues(dropReasonInvalidEnvelope).Inc()
		s.logger.Printf("W! trigger dropped: %v", err)
		return
	}
	s.Handle(trigger)
}

// Handle submits one decoded trigger to the matcher.
func (s *Service) Handle(trigger types.Trigger) {
	if err := s.ruleEngine.OnTrigger(trigger); err != nil {
		metrics.DroppedTriggers.WithLabelValues(dropReasonEngineStopped).Inc()
		s.logger.Printf("W! trigger dropped, tenantId=%s assetId=%s: %v", trigger.TenantId, trigger.AssetId, err)
	}
}
