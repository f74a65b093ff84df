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

// Package external provides components that call systems outside the
// rule engine: HTTP endpoints, SMTP servers, MQTT brokers and SQL
// databases. A failed call routes the message to the Failure relation
// so chains can wire retries or fallbacks.
package external

import "github.com/scadaflow/scadaflow/components"

// Registry the components of the package
var Registry = components.NewRegistry("External")
