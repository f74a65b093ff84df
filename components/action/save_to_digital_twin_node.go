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

package action

//Node configuration example:
//{
//        "id": "s1",
//        "type": "saveToDigitalTwin",
//        "name": "publish computed features",
//        "debugMode": false,
//        "configuration": {
//          "updateTwin": true,
//          "patch": true,
//          "saveTimeseries": true,
//          "cacheLatest": true,
//          "broadcast": true
//        }
//      }
import (
	"fmt"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&SaveToDigitalTwinNode{})
}

// SaveToDigitalTwinNodeConfiguration node configuration
type SaveToDigitalTwinNodeConfiguration struct {
	// UpdateTwin writes the features to the digital twin
	UpdateTwin bool
	// Patch merges feature properties instead of replacing them
	Patch bool
	// SaveTimeseries persists the feature properties as telemetry
	SaveTimeseries bool
	// CacheLatest stores the features as the asset's current snapshot
	CacheLatest bool
	// CacheTtl is the snapshot lifetime, e.g. "5m"
	CacheTtl string
	// Broadcast pushes the features to the asset's live subscribers
	Broadcast bool
}

// SaveToDigitalTwinNode fans the computed features of a message out to
// the platform sinks in one step. The payload must carry a `features`
// object mapping feature names to their properties:
//
//	{"features": {"production": {"liquidRate": 200, "watercut": 0.25}}}
//
// Each enabled sink is attempted independently; per-sink failures are
// logged and reported in the `saveResults` payload field without failing
// the others. A payload without features goes to the `Failure` chain.
type SaveToDigitalTwinNode struct {
	//node configuration
	Config SaveToDigitalTwinNodeConfiguration
}

// Type component type
func (x *SaveToDigitalTwinNode) Type() string {
	return "saveToDigitalTwin"
}
func (x *SaveToDigitalTwinNode) New() types.Node {
	return &SaveToDigitalTwinNode{Config: SaveToDigitalTwinNodeConfiguration{
		UpdateTwin: true,
		CacheTtl:   "5m",
	}}
}

// Init initializes the component
func (x *SaveToDigitalTwinNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	return maps.Map2Struct(configuration, &x.Config)
}

// OnMsg processes the message
func (x *SaveToDigitalTwinNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	thingId := components.NodeUtils.EntityId(msg)
	rawFeatures, ok := msg.Data["features"].(map[string]interface{})
	if thingId == "" || !ok || len(rawFeatures) == 0 {
		ctx.TellFailure(msg, fmt.Errorf("missing thing id or features in message"))
		return
	}

	features := make(map[string]map[string]interface{}, len(rawFeatures))
	for name, raw := range rawFeatures {
		props, ok := raw.(map[string]interface{})
		if !ok {
			ctx.TellFailure(msg, fmt.Errorf("feature %s is not an object", name))
			return
		}
		features[name] = props
	}

	adapters := ctx.Adapters()
	logger := ctx.Config().Logger
	results := map[string]interface{}{
		"twin":       false,
		"timeseries": false,
		"cache":      false,
		"broadcast":  false,
	}

	if x.Config.UpdateTwin && adapters.Twin != nil {
		err := x.updateTwin(ctx, thingId, features)
		if err != nil {
			logger.Printf("saveToDigitalTwin: twin update failed. thingId=%s error=%v", thingId, err)
		}
		results["twin"] = err == nil
	}

	if x.Config.SaveTimeseries && adapters.Store != nil {
		values := make(map[string]interface{})
		for name, props := range features {
			for prop, value := range props {
				values[name+"."+prop] = value
			}
		}
		err := adapters.Store.SaveTimeseries(ctx.GetContext(), ctx.TenantId(), thingId, msg.Ts, values)
		if err != nil {
			logger.Printf("saveToDigitalTwin: timeseries save failed. thingId=%s error=%v", thingId, err)
		}
		results["timeseries"] = err == nil
	}

	if x.Config.CacheLatest && adapters.Cache != nil {
		err := adapters.Cache.Set(fmt.Sprintf("thing:%s:current", thingId), rawFeatures, x.Config.CacheTtl)
		if err != nil {
			logger.Printf("saveToDigitalTwin: cache failed. thingId=%s error=%v", thingId, err)
		}
		results["cache"] = err == nil
	}

	if x.Config.Broadcast && adapters.Broadcaster != nil {
		err := adapters.Broadcaster.Broadcast(fmt.Sprintf("thing:%s", thingId), "features", rawFeatures)
		if err != nil {
			logger.Printf("saveToDigitalTwin: broadcast failed. thingId=%s error=%v", thingId, err)
		}
		results["broadcast"] = err == nil
	}

	newMsg := msg.Copy()
	newMsg.Data["saveResults"] = results
	ctx.TellSuccess(newMsg)
}

func (x *SaveToDigitalTwinNode) updateTwin(ctx types.RuleContext, thingId string, features map[string]map[string]interface{}) error {
	for name, props := range features {
		var err error
		if x.Config.Patch {
			err = ctx.Adapters().Twin.PatchFeatureProperties(ctx.GetContext(), thingId, name, props)
		} else {
			err = ctx.Adapters().Twin.UpdateFeatureProperties(ctx.GetContext(), thingId, name, props)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Destroy releases resources
func (x *SaveToDigitalTwinNode) Destroy() {
}
