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

package enrichment

//Node configuration example:
//{
//        "id": "s1",
//        "type": "fetchAssetAttributes",
//        "name": "well metadata",
//        "debugMode": false,
//        "configuration": {
//          "outputField": "assetAttributes",
//          "attributeKeys": ["field", "operator", "apiNumber"]
//        }
//      }
import (
	"errors"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&FetchAssetAttributesNode{})
}

// FetchAssetAttributesNodeConfiguration node configuration
type FetchAssetAttributesNodeConfiguration struct {
	// ThingIdField is the payload field holding the twin id; when empty
	// the originating asset id from the metadata is used
	ThingIdField string
	// OutputField is where the attributes are stored
	OutputField string
	// AttributeKeys filters the attributes copied; empty copies all
	AttributeKeys []string
}

// FetchAssetAttributesNode copies the twin attributes of the originating
// asset into the payload. Unknown twins pass through unmodified; adapter
// failures go to the `Failure` chain.
type FetchAssetAttributesNode struct {
	//node configuration
	Config FetchAssetAttributesNodeConfiguration
}

// Type component type
func (x *FetchAssetAttributesNode) Type() string {
	return "fetchAssetAttributes"
}
func (x *FetchAssetAttributesNode) New() types.Node {
	return &FetchAssetAttributesNode{Config: FetchAssetAttributesNodeConfiguration{
		OutputField: "assetAttributes",
	}}
}

// Init initializes the component
func (x *FetchAssetAttributesNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if ruleConfig.Adapters.Twin == nil {
		return errNoTwinClient
	}
	return nil
}

// OnMsg processes the message
func (x *FetchAssetAttributesNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	thingId := x.thingId(msg)
	if thingId == "" {
		ctx.Config().Logger.Printf("fetchAssetAttributes: thing id not found. node=%s", ctx.GetSelfId())
		ctx.TellSuccess(msg)
		return
	}

	attributes, err := ctx.Adapters().Twin.GetAttributes(ctx.GetContext(), thingId)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			ctx.Config().Logger.Printf("fetchAssetAttributes: twin not found. thingId=%s", thingId)
			ctx.TellSuccess(msg)
			return
		}
		ctx.TellFailure(msg, err)
		return
	}

	if len(x.Config.AttributeKeys) > 0 {
		filtered := make(map[string]interface{}, len(x.Config.AttributeKeys))
		for _, key := range x.Config.AttributeKeys {
			if value, ok := attributes[key]; ok {
				filtered[key] = value
			}
		}
		attributes = filtered
	}

	newMsg := msg.Copy()
	maps.SetByPath(newMsg.Data, x.Config.OutputField, attributes)
	ctx.TellSuccess(newMsg)
}

func (x *FetchAssetAttributesNode) thingId(msg types.RuleMsg) string {
	if x.Config.ThingIdField != "" {
		if v, ok := maps.GetByPath(msg.Data, x.Config.ThingIdField); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	return components.NodeUtils.EntityId(msg)
}

// Destroy releases resources
func (x *FetchAssetAttributesNode) Destroy() {
}
