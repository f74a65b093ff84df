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
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/scadaflow/scadaflow/api/types"
)

// ScheduleSpec declares one cron-driven trigger.
type ScheduleSpec struct {
	// Cron is a standard 5-field cron expression.
	Cron string
	// TenantId owns the emitted trigger.
	TenantId string
	// AssetId is the originating entity of the emitted trigger.
	AssetId string
	// AssetType is optional.
	AssetType string
	// Data is copied into the trigger payload on every firing.
	Data map[string]interface{}
}

// ScheduleSource emits `schedule` triggers from cron expressions. Specs
// are validated up front; an invalid expression fails Start rather than
// silently never firing.
type ScheduleSource struct {
	specs   []ScheduleSpec
	logger  types.Logger
	handler func(trigger types.Trigger)
	cron    *cron.Cron
}

// NewScheduleSource creates a cron trigger source. handler is called once
// per firing.
func NewScheduleSource(specs []ScheduleSpec, logger types.Logger, handler func(trigger types.Trigger)) *ScheduleSource {
	return &ScheduleSource{
		specs:   specs,
		logger:  types.NewLogger(logger),
		handler: handler,
	}
}

// Start validates every spec and starts the cron scheduler.
func (s *ScheduleSource) Start(ctx context.Context) error {
	s.cron = cron.New()
	for _, spec := range s.specs {
		spec := spec
		if spec.Cron == "" {
			return fmt.Errorf("cron expression can not be empty, assetId=%s", spec.AssetId)
		}
		_, err := s.cron.AddFunc(spec.Cron, func() {
			s.handler(types.Trigger{
				TriggerType: types.TriggerSchedule,
				AssetId:     spec.AssetId,
				AssetType:   spec.AssetType,
				TenantId:    spec.TenantId,
				Timestamp:   time.Now().UTC().Format(time.RFC3339),
				Data:        types.CopyData(spec.Data),
			})
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", spec.Cron, err)
		}
	}
	s.cron.Start()
	s.logger.Printf("schedule source started, specs=%d", len(s.specs))
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *ScheduleSource) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
