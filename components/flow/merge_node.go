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

package flow

//Node configuration example:
//{
//        "id": "s1",
//        "type": "merge",
//        "name": "join sensor branches",
//        "debugMode": false,
//        "configuration": {
//          "expectedInputs": 3,
//          "mergeStrategy": "merge",
//          "timeoutMs": 5000
//        }
//      }
import (
	"strconv"
	"sync"
	"time"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/metrics"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&MergeNode{})
}

// MergeNodeConfiguration node configuration
type MergeNodeConfiguration struct {
	// ExpectedInputs is the number of messages a group waits for
	ExpectedInputs int
	// MergeStrategy is one of: first, last, all, merge
	MergeStrategy string
	// TimeoutMs discards an incomplete group after this many
	// milliseconds. The partial messages are dropped, never emitted
	TimeoutMs int64
}

type mergeGroup struct {
	msgs  []types.RuleMsg
	timer *time.Timer
}

// MergeNode collects messages belonging to one correlation group and
// emits a single result once ExpectedInputs have arrived. The group key
// is the payload `correlationId`, falling back to the originating asset
// id and finally the chain id.
//
// Strategies:
// first: emit the first message of the group
// last: emit the last message of the group
// all: emit one message whose payload is {messages: [..payloads..]}
// merge: deep-merge all payloads in arrival order
//
// Messages arriving before the group completes are consumed. A group
// that never completes is discarded after TimeoutMs; the discard is
// logged and counted, nothing is emitted.
type MergeNode struct {
	//node configuration
	Config MergeNodeConfiguration

	mu      sync.Mutex
	pending map[string]*mergeGroup
}

// Type component type
func (x *MergeNode) Type() string {
	return "merge"
}
func (x *MergeNode) New() types.Node {
	return &MergeNode{
		Config: MergeNodeConfiguration{
			ExpectedInputs: 2,
			MergeStrategy:  "merge",
			TimeoutMs:      5000,
		},
		pending: make(map[string]*mergeGroup),
	}
}

// Init initializes the component
func (x *MergeNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.ExpectedInputs < 1 {
		x.Config.ExpectedInputs = 2
	}
	switch x.Config.MergeStrategy {
	case "first", "last", "all", "merge":
	default:
		x.Config.MergeStrategy = "merge"
	}
	if x.pending == nil {
		x.pending = make(map[string]*mergeGroup)
	}
	return nil
}

// OnMsg processes the message
func (x *MergeNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	key := x.groupKey(ctx, msg)

	x.mu.Lock()
	group, ok := x.pending[key]
	if !ok {
		group = &mergeGroup{}
		x.pending[key] = group
		if x.Config.TimeoutMs > 0 {
			group.timer = time.AfterFunc(time.Duration(x.Config.TimeoutMs)*time.Millisecond, func() {
				x.discard(ctx, key, group)
			})
		}
	}
	group.msgs = append(group.msgs, msg)
	if len(group.msgs) < x.Config.ExpectedInputs {
		x.mu.Unlock()
		return
	}
	delete(x.pending, key)
	if group.timer != nil {
		group.timer.Stop()
	}
	msgs := group.msgs
	x.mu.Unlock()

	ctx.TellSuccess(x.merge(msgs))
}

// discard drops an incomplete group. Runs on the timer goroutine; it
// only logs and counts, nothing is fed back into the chain.
func (x *MergeNode) discard(ctx types.RuleContext, key string, group *mergeGroup) {
	x.mu.Lock()
	current, ok := x.pending[key]
	if !ok || current != group {
		x.mu.Unlock()
		return
	}
	delete(x.pending, key)
	count := len(group.msgs)
	x.mu.Unlock()

	ctx.Config().Logger.Printf("merge: group timed out, discarding. node=%s key=%s collected=%d expected=%d",
		ctx.GetSelfId(), key, count, x.Config.ExpectedInputs)
	metrics.MergeDiscards.WithLabelValues(ctx.ChainId()).Inc()
}

func (x *MergeNode) merge(msgs []types.RuleMsg) types.RuleMsg {
	switch x.Config.MergeStrategy {
	case "first":
		return msgs[0]
	case "last":
		return msgs[len(msgs)-1]
	case "all":
		payloads := make([]interface{}, 0, len(msgs))
		for _, m := range msgs {
			payloads = append(payloads, m.Data)
		}
		out := msgs[0].Copy()
		out.Data = map[string]interface{}{"messages": payloads}
		out.Metadata.PutValue("mergedFrom", strconv.Itoa(len(msgs)))
		return out
	default:
		merged := make(map[string]interface{})
		for _, m := range msgs {
			merged = maps.DeepMerge(merged, m.Data)
		}
		out := msgs[0].Copy()
		out.Data = merged
		out.Metadata.PutValue("mergedFrom", strconv.Itoa(len(msgs)))
		return out
	}
}

func (x *MergeNode) groupKey(ctx types.RuleContext, msg types.RuleMsg) string {
	if v, ok := msg.Data[types.CorrelationIdKey].(string); ok && v != "" {
		return v + ":" + ctx.GetSelfId()
	}
	if assetId := msg.Metadata.GetValue(types.MetaKeyAssetId); assetId != "" {
		return assetId + ":" + ctx.GetSelfId()
	}
	return ctx.ChainId() + ":" + ctx.GetSelfId()
}

// Destroy releases resources
func (x *MergeNode) Destroy() {
	x.mu.Lock()
	defer x.mu.Unlock()
	for key, group := range x.pending {
		if group.timer != nil {
			group.timer.Stop()
		}
		delete(x.pending, key)
	}
}
