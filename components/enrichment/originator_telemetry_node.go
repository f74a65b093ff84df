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
//        "type": "originatorTelemetry",
//        "name": "latest well telemetry",
//        "debugMode": false,
//        "configuration": {
//          "featureName": "telemetry",
//          "telemetryKeys": ["oilRate", "waterRate"],
//          "cacheTtl": "30s"
//        }
//      }
import (
	"errors"
	"fmt"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&OriginatorTelemetryNode{})
}

// OriginatorTelemetryNodeConfiguration node configuration
type OriginatorTelemetryNodeConfiguration struct {
	// FeatureName is the twin feature read
	FeatureName string
	// TelemetryKeys filters the properties copied; empty copies all
	TelemetryKeys []string
	// OutputKey is where the telemetry is stored
	OutputKey string
	// CacheTtl caches the feature read when a cache adapter is
	// configured, e.g. "30s". Empty disables caching
	CacheTtl string
}

// OriginatorTelemetryNode copies the latest telemetry feature of the
// originating asset into the payload. Reads go through the cache adapter
// when one is configured; a miss falls through to the twin store and
// primes the cache.
// Messages without an originator are consumed; an unknown twin passes
// through unmodified.
type OriginatorTelemetryNode struct {
	//node configuration
	Config OriginatorTelemetryNodeConfiguration
}

// Type component type
func (x *OriginatorTelemetryNode) Type() string {
	return "originatorTelemetry"
}
func (x *OriginatorTelemetryNode) New() types.Node {
	return &OriginatorTelemetryNode{Config: OriginatorTelemetryNodeConfiguration{
		FeatureName: "telemetry",
		OutputKey:   "originatorTelemetry",
	}}
}

// Init initializes the component
func (x *OriginatorTelemetryNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if ruleConfig.Adapters.Twin == nil {
		return errNoTwinClient
	}
	return nil
}

// OnMsg processes the message
func (x *OriginatorTelemetryNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	originatorId := components.NodeUtils.EntityId(msg)
	if originatorId == "" {
		ctx.Config().Logger.Printf("originatorTelemetry: originator not found. node=%s", ctx.GetSelfId())
		return
	}

	properties, err := x.featureProperties(ctx, originatorId)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			ctx.Config().Logger.Printf("originatorTelemetry: feature not found. thingId=%s feature=%s", originatorId, x.Config.FeatureName)
			ctx.TellSuccess(msg)
			return
		}
		ctx.TellFailure(msg, err)
		return
	}

	if len(x.Config.TelemetryKeys) > 0 {
		filtered := make(map[string]interface{}, len(x.Config.TelemetryKeys))
		for _, key := range x.Config.TelemetryKeys {
			if value, ok := properties[key]; ok {
				filtered[key] = value
			}
		}
		properties = filtered
	}

	newMsg := msg.Copy()
	maps.SetByPath(newMsg.Data, x.Config.OutputKey, properties)
	ctx.TellSuccess(newMsg)
}

func (x *OriginatorTelemetryNode) featureProperties(ctx types.RuleContext, originatorId string) (map[string]interface{}, error) {
	cache := ctx.Adapters().Cache
	cacheKey := fmt.Sprintf("telemetry:%s:%s", originatorId, x.Config.FeatureName)
	if cache != nil && x.Config.CacheTtl != "" {
		if cached, ok := cache.Get(cacheKey).(map[string]interface{}); ok {
			return cached, nil
		}
	}
	properties, err := ctx.Adapters().Twin.GetFeatureProperties(ctx.GetContext(), originatorId, x.Config.FeatureName)
	if err != nil {
		return nil, err
	}
	if cache != nil && x.Config.CacheTtl != "" {
		_ = cache.Set(cacheKey, properties, x.Config.CacheTtl)
	}
	return properties, nil
}

// Destroy releases resources
func (x *OriginatorTelemetryNode) Destroy() {
}
