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

// Package flow provides the fan-out and fan-in components.
//
// - Split: Turns one message into many (array items, object keys or
//   plain duplication)
// - Merge: Collects messages of one correlation group back into a single
//   message
//
// Split children carry their lineage in metadata (splitFrom, splitIndex,
// splitTotal); Merge groups by the payload correlation id, falling back
// to the originating asset id.
package flow

import (
	"github.com/scadaflow/scadaflow/components"
)

// Registry collects the flow components.
var Registry = components.NewRegistry("Flow")
