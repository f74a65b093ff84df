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

package maps

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Map2Struct Decode takes an input structure and uses reflection to translate it to
// the output structure. output must be a pointer to a map or struct.
func Map2Struct(input interface{}, output interface{}) error {
	return mapstructure.Decode(input, output)
}

// GetByPath resolves a dot-notation path into a nested map, e.g.
// "sensor.pressure" in {"sensor":{"pressure":42}}. Returns false when any
// segment is missing or not a map.
func GetByPath(data map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var current interface{} = data
	for _, segment := range segments {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetByPath writes value at a dot-notation path, creating intermediate maps
// as needed. Existing non-map intermediates are replaced.
func SetByPath(data map[string]interface{}, path string, value interface{}) {
	if path == "" {
		return
	}
	segments := strings.Split(path, ".")
	current := data
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// DeleteByPath removes the value at a dot-notation path. Missing segments
// are a no-op.
func DeleteByPath(data map[string]interface{}, path string) {
	if path == "" {
		return
	}
	segments := strings.Split(path, ".")
	current := data
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]interface{})
		if !ok {
			return
		}
		current = next
	}
	delete(current, segments[len(segments)-1])
}

// DeepMerge merges source into target recursively and returns the result.
// Scalar and slice fields from source overwrite target; nested maps are
// merged key by key. Neither input is mutated.
func DeepMerge(target, source map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(target)+len(source))
	for k, v := range target {
		out[k] = v
	}
	for k, v := range source {
		if srcMap, ok := v.(map[string]interface{}); ok {
			if dstMap, ok := out[k].(map[string]interface{}); ok {
				out[k] = DeepMerge(dstMap, srcMap)
				continue
			}
		}
		out[k] = v
	}
	return out
}
