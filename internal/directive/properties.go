package directive

import (
	"maps"
	"math"
	"slices"
	"strings"
)

// ContextProperty is one reported property in a response context.
type ContextProperty struct {
	Namespace                 string `json:"namespace"`
	Name                      string `json:"name"`
	Value                     any    `json:"value"`
	TimeOfSample              string `json:"timeOfSample"`
	UncertaintyInMilliseconds int    `json:"uncertaintyInMilliseconds"`
}

// Temperature is the value of setpoint and temperature properties.
type Temperature struct {
	Value float64 `json:"value"`
	Scale string  `json:"scale"`
}

// Temperature scales.
const (
	ScaleCelsius    = "CELSIUS"
	ScaleFahrenheit = "FAHRENHEIT"
	ScaleKelvin     = "KELVIN"
)

// propertyValue converts a capability's attached state to its protocol value.
// It returns nil when the state is missing or cannot be represented.
func propertyValue(c *Capability) any {
	if c.State == nil || c.State.IsNull() {
		return nil
	}
	v := c.State.Value
	typ := c.State.BaseType()

	switch c.Property {
	case "powerState", "toggleState":
		return onOffValue(v)
	case "brightness", "percentage", "powerLevel":
		return percentValue(c, typ, v)
	case "targetSetpoint", "lowerSetpoint", "upperSetpoint", "temperature":
		f, ok := parseNumber(v)
		if !ok {
			return nil
		}
		return Temperature{Value: f, Scale: strings.ToUpper(c.Parameter("scale", ScaleCelsius))}
	case "lockState":
		return lockValue(typ, v)
	case "detectionState":
		return detectionValue(v)
	case "thermostatMode", "mode":
		return modeValue(c, v)
	case "rangeValue":
		f, ok := parseNumber(v)
		if !ok {
			return nil
		}
		return f
	default:
		return v
	}
}

func onOffValue(v string) any {
	switch v {
	case "ON", "OFF":
		return v
	}
	if f, ok := parseNumber(v); ok {
		if f > 0 {
			return "ON"
		}
		return "OFF"
	}
	return nil
}

func percentValue(c *Capability, typ, v string) any {
	switch v {
	case "ON":
		return 100
	case "OFF":
		return 0
	}
	f, ok := parseNumber(v)
	if !ok || f < 0 || f > 100 {
		return nil
	}
	n := int(math.Round(f))
	if typ == "Rollershutter" && c.Parameter("inverted", "false") == "true" {
		n = 100 - n
	}
	return n
}

func lockValue(typ, v string) any {
	switch v {
	case "LOCKED", "UNLOCKED", "JAMMED":
		return v
	}
	switch typ {
	case "Contact":
		switch v {
		case "CLOSED":
			return "LOCKED"
		case "OPEN":
			return "UNLOCKED"
		}
	default:
		switch v {
		case "ON":
			return "LOCKED"
		case "OFF":
			return "UNLOCKED"
		}
	}
	return nil
}

func detectionValue(v string) any {
	switch v {
	case "OPEN", "ON":
		return "DETECTED"
	case "CLOSED", "OFF":
		return "NOT_DETECTED"
	}
	return nil
}

// modeValue maps a backend state back to a mode name using the capability's
// mode bindings ("HEAT": "1"), falling back to the state itself. When several
// modes share a state the alphabetically first one wins.
//
// An empty state is a legitimate value and is reported as is.
func modeValue(c *Capability, v string) any {
	if v == "" {
		return v
	}
	for _, mode := range slices.Sorted(maps.Keys(c.Parameters)) {
		if c.Parameters[mode] == v && mode == strings.ToUpper(mode) {
			return mode
		}
	}
	return v
}
