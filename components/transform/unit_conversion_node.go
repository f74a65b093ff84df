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

package transform

//Node configuration example:
//{
//        "id": "s1",
//        "type": "unitConversion",
//        "name": "wellhead pressure to bar",
//        "debugMode": false,
//        "configuration": {
//          "inputKey": "pressure",
//          "outputKey": "pressureBar",
//          "category": "pressure",
//          "fromUnit": "psi",
//          "toUnit": "bar"
//        }
//      }
import (
	"fmt"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/maps"
	"github.com/scadaflow/scadaflow/utils/str"
)

func init() {
	Registry.Add(&UnitConversionNode{})
}

// Conversion factors to each category's base unit. Conversions go through
// the base: value * fromFactor / toFactor.
var conversionFactors = map[string]map[string]float64{
	//to psi
	"pressure": {
		"psi": 1,
		"bar": 14.5038,
		"kPa": 0.145038,
		"MPa": 145.038,
		"atm": 14.6959,
	},
	//to meters
	"length": {
		"m":  1,
		"ft": 0.3048,
		"in": 0.0254,
		"cm": 0.01,
		"mm": 0.001,
	},
	//to barrels
	"volume": {
		"bbl": 1,
		"m3":  6.28981,
		"gal": 0.0238095,
		"L":   0.00628981,
		"ft3": 0.178108,
	},
	//to barrels of oil per day
	"flow": {
		"bopd": 1,
		"m3/d": 6.28981,
		"gpm":  34.2857,
		"L/s":  1371.43,
	},
	//to kg
	"mass": {
		"kg":    1,
		"lb":    0.453592,
		"ton":   907.185,
		"tonne": 1000,
	},
	//to kg/m3
	"density": {
		"kg/m3":  1,
		"lb/ft3": 16.0185,
	},
}

// UnitConversionNodeConfiguration node configuration
type UnitConversionNodeConfiguration struct {
	// InputKey is the payload field holding the value to convert. Nested
	// fields use dot notation
	InputKey string
	// OutputKey is where the converted value is stored; defaults to
	// InputKey
	OutputKey string
	// Category is one of: pressure, temperature, length, volume, flow,
	// mass, density
	Category string
	// FromUnit is the source unit symbol
	FromUnit string
	// ToUnit is the target unit symbol
	ToUnit string
}

// UnitConversionNode converts a numeric payload field between engineering
// units of one category. Temperature converts through Celsius since its
// scales are offset, everything else through the category base unit.
// A missing or non-numeric input field goes to the `Failure` chain.
//
// Supported units per category:
// pressure: psi, bar, kPa, MPa, atm
// temperature: C, F, K, R
// length: m, ft, in, cm, mm
// volume: bbl, m3, gal, L, ft3
// flow: bopd, m3/d, gpm, L/s
// mass: kg, lb, ton, tonne
// density: kg/m3, lb/ft3
type UnitConversionNode struct {
	//node configuration
	Config UnitConversionNodeConfiguration
}

// Type component type
func (x *UnitConversionNode) Type() string {
	return "unitConversion"
}
func (x *UnitConversionNode) New() types.Node {
	return &UnitConversionNode{Config: UnitConversionNodeConfiguration{
		InputKey: "value",
		Category: "pressure",
		FromUnit: "psi",
		ToUnit:   "kPa",
	}}
}

// Init initializes the component
func (x *UnitConversionNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.OutputKey == "" {
		x.Config.OutputKey = x.Config.InputKey
	}
	if x.Config.Category == "temperature" {
		if !validTemperatureUnit(x.Config.FromUnit) || !validTemperatureUnit(x.Config.ToUnit) {
			return fmt.Errorf("unknown temperature unit: %s or %s", x.Config.FromUnit, x.Config.ToUnit)
		}
		return nil
	}
	factors, ok := conversionFactors[x.Config.Category]
	if !ok {
		return fmt.Errorf("unknown category: %s", x.Config.Category)
	}
	if _, ok := factors[x.Config.FromUnit]; !ok {
		return fmt.Errorf("unknown unit: %s", x.Config.FromUnit)
	}
	if _, ok := factors[x.Config.ToUnit]; !ok {
		return fmt.Errorf("unknown unit: %s", x.Config.ToUnit)
	}
	return nil
}

// OnMsg processes the message
func (x *UnitConversionNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	raw, ok := maps.GetByPath(msg.Data, x.Config.InputKey)
	if !ok {
		ctx.TellFailure(msg, fmt.Errorf("field not found: %s", x.Config.InputKey))
		return
	}
	value, ok := str.ToFloat64(raw)
	if !ok {
		ctx.TellFailure(msg, fmt.Errorf("field is not numeric: %s", x.Config.InputKey))
		return
	}

	var converted float64
	if x.Config.Category == "temperature" {
		converted = convertTemperature(value, x.Config.FromUnit, x.Config.ToUnit)
	} else {
		factors := conversionFactors[x.Config.Category]
		converted = value * factors[x.Config.FromUnit] / factors[x.Config.ToUnit]
	}

	newMsg := msg.Copy()
	maps.SetByPath(newMsg.Data, x.Config.OutputKey, converted)
	ctx.TellSuccess(newMsg)
}

func validTemperatureUnit(unit string) bool {
	switch unit {
	case "C", "F", "K", "R":
		return true
	}
	return false
}

func convertTemperature(value float64, from, to string) float64 {
	var celsius float64
	switch from {
	case "C":
		celsius = value
	case "F":
		celsius = (value - 32) * 5 / 9
	case "K":
		celsius = value - 273.15
	case "R":
		celsius = (value - 491.67) * 5 / 9
	}
	switch to {
	case "F":
		return celsius*9/5 + 32
	case "K":
		return celsius + 273.15
	case "R":
		return celsius*9/5 + 491.67
	default:
		return celsius
	}
}

// Destroy releases resources
func (x *UnitConversionNode) Destroy() {
}
