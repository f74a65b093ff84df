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

// Package action provides components with side effects on the platform's
// own gateways: alarms, telemetry persistence, twin updates and live
// broadcasts.
//
// - CreateAlarm: Raises an alarm through the alarm service
// - AcknowledgeAlarm: Acknowledges an active alarm
// - ClearAlarm: Clears an active alarm
// - SaveTimeseries: Persists payload values to the telemetry store
// - SaveToDigitalTwin: Fans computed features out to twin, timeseries,
//   cache and live subscribers
// - Broadcast: Pushes the message to a live subscriber room
//
// Action nodes pass the message to the `Success` chain after the side
// effect; gateway errors go to the `Failure` chain.
package action

import (
	"errors"

	"github.com/scadaflow/scadaflow/components"
)

// Registry collects the action components.
var Registry = components.NewRegistry("Action")

var (
	errNoAlarmService = errors.New("alarm service is not configured")
	errNoStore        = errors.New("store is not configured")
	errNoBroadcaster  = errors.New("broadcaster is not configured")
)
