package directive

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// payloadTemperature is a {value, scale} pair in a directive payload.
type payloadTemperature struct {
	Value *float64 `json:"value"`
	Scale string   `json:"scale"`
}

// payloadNumber returns a required numeric payload field.
func payloadNumber(dir *Directive, field string) (float64, error) {
	var fields map[string]json.RawMessage
	if err := dir.DecodePayload(&fields); err != nil {
		return 0, err
	}
	raw, ok := fields[field]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidPayload, field)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: %s is not a number", ErrInvalidPayload, field)
	}
	return v, nil
}

// payloadTemperatures returns the temperature fields present in the payload.
func payloadTemperatures(dir *Directive, fields ...string) (map[string]Temperature, error) {
	var all map[string]json.RawMessage
	if err := dir.DecodePayload(&all); err != nil {
		return nil, err
	}
	out := make(map[string]Temperature)
	for _, field := range fields {
		raw, ok := all[field]
		if !ok {
			continue
		}
		var t payloadTemperature
		if err := json.Unmarshal(raw, &t); err != nil || t.Value == nil {
			return nil, fmt.Errorf("%w: %s is not a temperature", ErrInvalidPayload, field)
		}
		scale := strings.ToUpper(t.Scale)
		if scale == "" {
			scale = ScaleCelsius
		}
		if !validScale(scale) {
			return nil, fmt.Errorf("%w: unknown scale %q", ErrInvalidPayload, t.Scale)
		}
		out[field] = Temperature{Value: *t.Value, Scale: scale}
	}
	return out, nil
}

func validScale(scale string) bool {
	switch scale {
	case ScaleCelsius, ScaleFahrenheit, ScaleKelvin:
		return true
	}
	return false
}

// convertTemperature converts an absolute temperature between scales.
func convertTemperature(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	c := v
	switch from {
	case ScaleFahrenheit:
		c = (v - 32) * 5 / 9
	case ScaleKelvin:
		c = v - 273.15
	}
	switch to {
	case ScaleFahrenheit:
		c = c*9/5 + 32
	case ScaleKelvin:
		c += 273.15
	}
	return roundTo(c, 2)
}

// convertTemperatureDelta converts a temperature difference between scales.
func convertTemperatureDelta(v float64, from, to string) float64 {
	fahrenheit := func(s string) bool { return s == ScaleFahrenheit }
	switch {
	case fahrenheit(from) && !fahrenheit(to):
		return roundTo(v*5/9, 2)
	case !fahrenheit(from) && fahrenheit(to):
		return roundTo(v*9/5, 2)
	}
	return v
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
