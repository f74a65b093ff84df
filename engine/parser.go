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

package engine

import (
	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/json"
)

// JsonParser decodes chain documents from their persisted JSON form.
type JsonParser struct {
}

// DecodeRuleChain parses a rule chain definition from JSON.
func (p *JsonParser) DecodeRuleChain(def []byte) (types.RuleChain, error) {
	var chain types.RuleChain
	err := json.Unmarshal(def, &chain)
	return chain, err
}

// EncodeRuleChain renders a rule chain definition as formatted JSON.
func (p *JsonParser) EncodeRuleChain(def interface{}) ([]byte, error) {
	v, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}
	return json.Format(v)
}
