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
//        "type": "split",
//        "name": "per-sensor fan-out",
//        "debugMode": false,
//        "configuration": {
//          "splitBy": "array",
//          "arrayKey": "sensors"
//        }
//      }
import (
	"fmt"
	"sort"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&SplitNode{})
}

// SplitNodeConfiguration node configuration
type SplitNodeConfiguration struct {
	// SplitBy is the strategy: `array`, `keys` or `count`
	SplitBy string
	// ArrayKey is the payload field holding the array for the array
	// strategy. Nested fields use dot notation
	ArrayKey string
	// Count is the number of duplicates for the count strategy, 1 to 100
	Count int
	// PreserveOriginal keeps the parent payload in each child next to the
	// split fields
	PreserveOriginal bool
}

// SplitNode turns one message into many. Children are told to the
// `Success` chain in order; each carries splitFrom/splitIndex/splitTotal
// metadata and the id `<parent>-split-<index>`.
//
// Strategies:
// array: one child per element of the ArrayKey array, payload
// {splitItem, splitIndex, originalId}
// keys: one child per payload key (sorted), payload
// {splitKey, splitValue, originalId}
// count: Count children with the parent payload duplicated
//
// A missing or non-array ArrayKey consumes the message with a warning.
type SplitNode struct {
	//node configuration
	Config SplitNodeConfiguration
}

// Type component type
func (x *SplitNode) Type() string {
	return "split"
}
func (x *SplitNode) New() types.Node {
	return &SplitNode{Config: SplitNodeConfiguration{
		SplitBy: "array",
		Count:   2,
	}}
}

// Init initializes the component
func (x *SplitNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	switch x.Config.SplitBy {
	case "array":
		if x.Config.ArrayKey == "" {
			return fmt.Errorf("arrayKey is required for the array strategy")
		}
	case "keys":
	case "count":
		if x.Config.Count < 1 || x.Config.Count > 100 {
			return fmt.Errorf("count must be 1-100, got %d", x.Config.Count)
		}
	default:
		return fmt.Errorf("unsupported split strategy: %s", x.Config.SplitBy)
	}
	return nil
}

// OnMsg processes the message
func (x *SplitNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	var children []types.RuleMsg
	switch x.Config.SplitBy {
	case "array":
		raw, ok := maps.GetByPath(msg.Data, x.Config.ArrayKey)
		if !ok {
			ctx.Config().Logger.Printf("split: field not found, skipping. node=%s field=%s", ctx.GetSelfId(), x.Config.ArrayKey)
			return
		}
		array, ok := raw.([]interface{})
		if !ok {
			ctx.Config().Logger.Printf("split: field is not an array, skipping. node=%s field=%s", ctx.GetSelfId(), x.Config.ArrayKey)
			return
		}
		children = x.splitByArray(msg, array)
	case "keys":
		children = x.splitByKeys(msg)
	default:
		children = x.splitByCount(msg)
	}

	for _, child := range children {
		ctx.TellSuccess(child)
	}
}

func (x *SplitNode) splitByArray(msg types.RuleMsg, array []interface{}) []types.RuleMsg {
	children := make([]types.RuleMsg, 0, len(array))
	for index, item := range array {
		data := x.childData(msg)
		data["splitItem"] = item
		data["splitIndex"] = index
		children = append(children, types.SplitMsg(msg, index, len(array), data))
	}
	return children
}

func (x *SplitNode) splitByKeys(msg types.RuleMsg) []types.RuleMsg {
	keys := make([]string, 0, len(msg.Data))
	for key := range msg.Data {
		keys = append(keys, key)
	}
	//stable child order regardless of map iteration
	sort.Strings(keys)

	children := make([]types.RuleMsg, 0, len(keys))
	for index, key := range keys {
		data := x.childData(msg)
		data["splitKey"] = key
		data["splitValue"] = msg.Data[key]
		children = append(children, types.SplitMsg(msg, index, len(keys), data))
	}
	return children
}

func (x *SplitNode) splitByCount(msg types.RuleMsg) []types.RuleMsg {
	children := make([]types.RuleMsg, 0, x.Config.Count)
	for index := 0; index < x.Config.Count; index++ {
		children = append(children, types.SplitMsg(msg, index, x.Config.Count, types.CopyData(msg.Data)))
	}
	return children
}

func (x *SplitNode) childData(msg types.RuleMsg) map[string]interface{} {
	if x.Config.PreserveOriginal {
		return types.CopyData(msg.Data)
	}
	return map[string]interface{}{"originalId": msg.Id}
}

// Destroy releases resources
func (x *SplitNode) Destroy() {
}
