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

// Package filter provides message filtering and routing components.
//
// These components decide which branch of a chain a message continues on:
//
// - ThresholdFilter: Compares a numeric payload field against a threshold
// - ExprFilter: Filters messages using expr conditions
// - Switch: Routes messages by the first matching case expression
// - MsgTypeSwitch: Routes messages by their message type
//
// Filter components route to the `True` and `False` relations (or to named
// case relations for switches); evaluation errors route to `Failure`.
//
// You can use these components in your rule chain definition by referencing
// their Type. For example:
//
//	{
//	  "id": "node1",
//	  "type": "thresholdFilter",
//	  "name": "high temperature",
//	  "configuration": {
//	    "field": "temperature",
//	    "operator": "gt",
//	    "threshold": 50
//	  }
//	}
package filter

import (
	"github.com/scadaflow/scadaflow/components"
)

// Registry collects the filter components. The engine registry imports it
// at startup.
var Registry = components.NewRegistry("Filter")

// KeyDefaultRelationType is the relation a switch falls through to when no
// case matches.
const KeyDefaultRelationType = "Default"
