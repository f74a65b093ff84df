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

// Package enrichment provides components that pull context from the
// digital twin into the message.
//
// - FetchAssetAttributes: Copies twin attributes into the payload
// - OriginatorTelemetry: Copies a twin feature's properties into the
//   payload, with a cache in front of the twin store
//
// A missing twin entity is not an error: the message passes through
// unmodified so chains keep working for assets that are not twinned yet.
// Adapter failures go to the `Failure` chain.
package enrichment

import (
	"errors"

	"github.com/scadaflow/scadaflow/components"
)

// Registry collects the enrichment components.
var Registry = components.NewRegistry("Enrichment")

var errNoTwinClient = errors.New("digital twin client is not configured")
