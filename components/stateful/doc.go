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

// Package stateful provides components that keep running state across
// messages: sliding windows, previous-value deltas and rate counters.
//
// State lives in Config.StateStore, keyed per entity, node and input
// field, so the same chain serves any number of assets without their
// windows mixing. The store is best-effort; after a restart windows
// re-fill from live traffic.
//
// - Aggregate: sum/avg/min/max/count/first/last over a sliding window
// - CalculateDelta: difference between current and previous value
// - MessageCount: messages per fixed time bucket
package stateful

import (
	"errors"

	"github.com/scadaflow/scadaflow/components"
)

// Registry collects the stateful components.
var Registry = components.NewRegistry("Stateful")

var errNoStateStore = errors.New("state store is not configured")
