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

// Package consumer feeds the rule engine from trigger sources: an event
// bus (Kafka) and cron schedules. Malformed envelopes are logged and
// dropped, never retried.
package consumer

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/json"
)

// envelopeSchema is the strict trigger envelope contract. Unknown fields,
// unknown trigger types and malformed timestamps fail validation; such
// records will never become valid, so they are dropped instead of retried.
const envelopeSchema = `{
	"type": "object",
	"required": ["triggerType", "assetId", "tenantId", "timestamp"],
	"additionalProperties": false,
	"properties": {
		"triggerType": {
			"type": "string",
			"enum": ["telemetry_change", "attribute_change", "status_change", "manual", "schedule"]
		},
		"assetId": {"type": "string", "minLength": 1},
		"assetType": {"type": "string"},
		"tenantId": {"type": "string", "minLength": 1},
		"timestamp": {"type": "string", "format": "date-time"},
		"data": {"type": "object"}
	}
}`

var compiledEnvelopeSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	if err != nil {
		panic(err)
	}
	return schema
}

// DecodeEnvelope validates raw against the envelope schema and decodes it
// into a trigger.
func DecodeEnvelope(raw []byte) (types.Trigger, error) {
	var trigger types.Trigger
	result, err := compiledEnvelopeSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return trigger, fmt.Errorf("invalid envelope: %w", err)
	}
	if !result.Valid() {
		return trigger, fmt.Errorf("invalid envelope: %s", firstValidationError(result))
	}
	if err = json.Unmarshal(raw, &trigger); err != nil {
		return trigger, fmt.Errorf("invalid envelope: %w", err)
	}
	return trigger, nil
}

func firstValidationError(result *gojsonschema.Result) string {
	for _, desc := range result.Errors() {
		return desc.String()
	}
	return "schema validation failed"
}
