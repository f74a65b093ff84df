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

package types

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Well-known metadata keys.
const (
	MetaKeyAssetId     = "assetId"
	MetaKeyAssetType   = "assetType"
	MetaKeyTenantId    = "tenantId"
	MetaKeyTriggerType = "triggerType"
	MetaKeyTimestamp   = "timestamp"
	MetaKeySplitFrom   = "splitFrom"
	MetaKeySplitIndex  = "splitIndex"
	MetaKeySplitTotal  = "splitTotal"
)

// CorrelationIdKey is the payload field merge groups are keyed by before
// falling back to the originating asset id.
const CorrelationIdKey = "correlationId"

// Variable names exposed to node expressions.
const (
	IdKey       = "id"
	TsKey       = "ts"
	TypeKey     = "type"
	MsgKey      = "msg"
	DataKey     = "data"
	MetadataKey = "metadata"
)

// Metadata is the enrichment side channel carried next to the payload. It
// is never implicitly persisted by action nodes.
type Metadata map[string]string

// NewMetadata creates an empty Metadata instance.
func NewMetadata() Metadata {
	return make(Metadata)
}

// BuildMetadata creates a Metadata instance from an existing map.
func BuildMetadata(data map[string]string) Metadata {
	metadata := make(Metadata, len(data))
	for k, v := range data {
		metadata[k] = v
	}
	return metadata
}

// Copy returns an independent copy.
func (md Metadata) Copy() Metadata {
	return BuildMetadata(md)
}

// Has reports whether key is present.
func (md Metadata) Has(key string) bool {
	_, ok := md[key]
	return ok
}

// GetValue returns the value stored under key, or "".
func (md Metadata) GetValue(key string) string {
	return md[key]
}

// PutValue stores value under key. Empty keys are ignored.
func (md Metadata) PutValue(key, value string) {
	if key != "" {
		md[key] = value
	}
}

// Values returns the underlying map.
func (md Metadata) Values() map[string]string {
	return md
}

// RuleMsg is the envelope carried between nodes. A message is immutable
// from the caller's perspective: nodes receive a copy and tell the context
// new messages; the executor never mutates one in place.
type RuleMsg struct {
	// Ts is the event timestamp in unix milliseconds, parsed from the
	// trigger envelope. It is the logical clock for window eviction.
	Ts int64 `json:"ts"`
	// Id uniquely identifies the message. Split-derived messages get a
	// suffixed id.
	Id string `json:"id"`
	// Type is the trigger type that produced the message, e.g.
	// telemetry_change or attribute_change.
	Type string `json:"type"`
	// Data is the open payload. Nodes read and write named fields here,
	// including nested dot-notation paths.
	Data map[string]interface{} `json:"data"`
	// Metadata carries correlation and enrichment side-channel values.
	Metadata Metadata `json:"metadata"`
}

// NewMsg creates a message with a generated uuid id.
func NewMsg(ts int64, msgType string, metadata Metadata, data map[string]interface{}) RuleMsg {
	id, _ := uuid.NewV4()
	return newMsg(id.String(), ts, msgType, metadata, data)
}

func newMsg(id string, ts int64, msgType string, metadata Metadata, data map[string]interface{}) RuleMsg {
	if ts <= 0 {
		ts = time.Now().UnixMilli()
	}
	if id == "" {
		uuId, _ := uuid.NewV4()
		id = uuId.String()
	}
	if data == nil {
		data = make(map[string]interface{})
	}
	if metadata == nil {
		metadata = NewMetadata()
	}
	return RuleMsg{
		Ts:       ts,
		Id:       id,
		Type:     msgType,
		Data:     data,
		Metadata: metadata,
	}
}

// Copy returns a message with deep-copied payload and metadata.
func (m *RuleMsg) Copy() RuleMsg {
	return newMsg(m.Id, m.Ts, m.Type, m.Metadata.Copy(), CopyData(m.Data))
}

// SplitMsg derives the index-th of total messages from parent: the id is
// suffixed and split provenance is recorded in metadata. The payload is the
// given data, deep-copied.
func SplitMsg(parent RuleMsg, index, total int, data map[string]interface{}) RuleMsg {
	metadata := parent.Metadata.Copy()
	metadata.PutValue(MetaKeySplitFrom, parent.Id)
	metadata.PutValue(MetaKeySplitIndex, fmt.Sprintf("%d", index))
	metadata.PutValue(MetaKeySplitTotal, fmt.Sprintf("%d", total))
	return newMsg(fmt.Sprintf("%s-split-%d", parent.Id, index), parent.Ts, parent.Type, metadata, CopyData(data))
}

// CopyData deep-copies a payload map. Nested maps and slices are copied;
// scalars are shared (they are immutable values).
func CopyData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		return CopyData(tv)
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, item := range tv {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}

// WrapperMsg couples a terminal message with the node and error it ended on.
type WrapperMsg struct {
	Msg    RuleMsg `json:"msg"`
	Err    string  `json:"err"`
	NodeId string  `json:"nodeId"`
}
