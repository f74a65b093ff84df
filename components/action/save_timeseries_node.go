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
//        "type": "saveTimeseries",
//        "name": "persist computed rates",
//        "debugMode": false,
//        "configuration": {
//          "keys": ["liquidRate", "watercut"]
//        }
//      }
import (
	"fmt"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/components"
	"github.com/scadaflow/scadaflow/utils/maps"
)

func init() {
	Registry.Add(&SaveTimeseriesNode{})
}

// SaveTimeseriesNodeConfiguration node configuration
type SaveTimeseriesNodeConfiguration struct {
	// Keys selects the payload fields to persist; empty persists the
	// whole payload
	Keys []string
}

// SaveTimeseriesNode persists payload values as telemetry of the
// originating asset. Only metadata identifies the asset; the payload is
// stored as-is.
type SaveTimeseriesNode struct {
	//node configuration
	Config SaveTimeseriesNodeConfiguration
}

// Type component type
func (x *SaveTimeseriesNode) Type() string {
	return "saveTimeseries"
}
func (x *SaveTimeseriesNode) New() types.Node {
	return &SaveTimeseriesNode{}
}

// Init initializes the component
func (x *SaveTimeseriesNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if ruleConfig.Adapters.Store == nil {
		return errNoStore
	}
	return nil
}

// OnMsg processes the message
func (x *SaveTimeseriesNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	assetId := components.NodeUtils.EntityId(msg)
	if assetId == "" {
		ctx.TellFailure(msg, fmt.Errorf("asset id not found in message"))
		return
	}

	values := msg.Data
	if len(x.Config.Keys) > 0 {
		values = make(map[string]interface{}, len(x.Config.Keys))
		for _, key := range x.Config.Keys {
			if value, ok := maps.GetByPath(msg.Data, key); ok {
				values[key] = value
			}
		}
	}
	if len(values) == 0 {
		ctx.Config().Logger.Printf("saveTimeseries: nothing to persist. node=%s", ctx.GetSelfId())
		ctx.TellSuccess(msg)
		return
	}

	if err := ctx.Adapters().Store.SaveTimeseries(ctx.GetContext(), ctx.TenantId(), assetId, msg.Ts, values); err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	ctx.TellSuccess(msg)
}

// Destroy releases resources
func (x *SaveTimeseriesNode) Destroy() {
}
