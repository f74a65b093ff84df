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
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/json"
)

// Alarm lifecycle states.
const (
	alarmStatusActive       = "ACTIVE"
	alarmStatusAcknowledged = "ACKNOWLEDGED"
	alarmStatusCleared      = "CLEARED"
)

const (
	insertAlarmSql = `INSERT INTO alarms
(id, tenant_id, asset_id, alarm_type, severity, message, status, details, raised_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	ackAlarmSql = `UPDATE alarms SET status = ?, acknowledged_at = ?
WHERE id = ? AND status = ?`

	clearAlarmSql = `UPDATE alarms SET status = ?, cleared_at = ? WHERE id = ?`
)

// CreateAlarm inserts an active alarm row and returns its id.
func (s *Store) CreateAlarm(ctx context.Context, alarm types.Alarm) (string, error) {
	id := alarm.Id
	if id == "" {
		generated, err := uuid.NewV4()
		if err != nil {
			return "", err
		}
		id = generated.String()
	}
	var details []byte
	if len(alarm.Details) > 0 {
		var err error
		if details, err = json.Marshal(alarm.Details); err != nil {
			return "", err
		}
	}
	_, err := s.db.ExecContext(ctx, s.sql(insertAlarmSql),
		id, alarm.TenantId, alarm.AssetId, alarm.AlarmType, alarm.Severity,
		alarm.Message, alarmStatusActive, details, time.UnixMilli(alarm.Ts).UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// AcknowledgeAlarm marks an active alarm acknowledged.
func (s *Store) AcknowledgeAlarm(ctx context.Context, alarmId string) error {
	_, err := s.db.ExecContext(ctx, s.sql(ackAlarmSql),
		alarmStatusAcknowledged, time.Now().UTC(), alarmId, alarmStatusActive)
	return err
}

// ClearAlarm clears an alarm regardless of its acknowledge state.
func (s *Store) ClearAlarm(ctx context.Context, alarmId string) error {
	_, err := s.db.ExecContext(ctx, s.sql(clearAlarmSql),
		alarmStatusCleared, time.Now().UTC(), alarmId)
	return err
}
