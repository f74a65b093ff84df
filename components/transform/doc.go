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

// Package transform provides components that reshape the message payload.
//
// These components compute new payloads or payload fields without touching
// external systems:
//
// - Formula: Evaluates an expr expression and stores the result in a field
// - Math: Applies a single arithmetic operation to a numeric field
// - UnitConversion: Converts a numeric field between engineering units
// - RenameKeys: Moves payload fields to new keys
//
// Transform components send the modified message copy to the `Success`
// chain; evaluation errors go to the `Failure` chain.
package transform

import (
	"github.com/scadaflow/scadaflow/components"
)

// Registry collects the transform components.
var Registry = components.NewRegistry("Transform")
