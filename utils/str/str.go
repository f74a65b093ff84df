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

package str

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/scadaflow/scadaflow/utils/json"
	"github.com/scadaflow/scadaflow/utils/maps"
)

// ${key} placeholders, flat keys only. Used for metadata dictionaries.
var dictVarRegex = regexp.MustCompile(`\$\{(\w+)}`)

// {{path.to.field}} placeholders, dot-notation into the message payload.
var tplVarRegex = regexp.MustCompile(`\{\{\s*([\w.\-]+)\s*}}`)

// SprintfDict replaces ${key} placeholders in original with values from
// dict. Unmatched placeholders are kept as-is.
// Example: SprintfDict("Hello,${name}", map[string]string{"name": "Alice"})
// returns "Hello,Alice".
func SprintfDict(original string, dict map[string]string) string {
	return dictVarRegex.ReplaceAllStringFunc(original, func(s string) string {
		matches := dictVarRegex.FindStringSubmatch(s)
		if len(matches) < 2 {
			return s
		}
		if result, ok := dict[strings.TrimSpace(matches[1])]; ok {
			return result
		}
		return s
	})
}

// ResolveTemplate substitutes {{path.to.field}} placeholders with the
// stringified value found at the dot-notation path in data. Unresolved
// placeholders keep their literal text, so a single malformed field never
// aborts a chain execution.
// Example: ResolveTemplate("Alert on {{assetName}}", data) with
// data["assetName"]="Well-12" returns "Alert on Well-12".
func ResolveTemplate(original string, data map[string]interface{}) string {
	return tplVarRegex.ReplaceAllStringFunc(original, func(s string) string {
		matches := tplVarRegex.FindStringSubmatch(s)
		if len(matches) < 2 {
			return s
		}
		if v, ok := maps.GetByPath(data, matches[1]); ok {
			return ToString(v)
		}
		return s
	})
}

// HasTemplate reports whether original contains a {{path}} placeholder.
func HasTemplate(original string) bool {
	return tplVarRegex.MatchString(original)
}

// ToString converts input to a string, ignoring errors.
func ToString(input interface{}) string {
	if input == nil {
		return ""
	}
	switch v := input.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.Itoa(int(v))
	case int16:
		return strconv.Itoa(int(v))
	case int32:
		return strconv.Itoa(int(v))
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	default:
		if b, err := json.Marshal(input); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", input)
	}
}

// ToFloat64 coerces numeric payload values, including numeric strings, to
// float64. The second return value reports whether coercion succeeded.
func ToFloat64(input interface{}) (float64, bool) {
	switch v := input.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
