package directive

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// setpointProperties are the setpoints accepted by SetTargetTemperature, in
// command order.
var setpointProperties = []string{"targetSetpoint", "lowerSetpoint", "upperSetpoint"}

type thermostatController struct {
	x *Exchange
}

func newThermostatController(x *Exchange) Handler { return &thermostatController{x: x} }

func (h *thermostatController) Interface() string { return NamespaceThermostatController }

func (h *thermostatController) Methods() map[string]Method {
	return map[string]Method{
		"setTargetTemperature":    h.setTargetTemperature,
		"adjustTargetTemperature": h.adjustTargetTemperature,
		"setThermostatMode":       h.setThermostatMode,
	}
}

func (h *thermostatController) setTargetTemperature(ctx context.Context) {
	temps, err := payloadTemperatures(h.x.dir, setpointProperties...)
	if err != nil {
		h.x.respondPayloadError(err)
		return
	}
	if len(temps) == 0 {
		h.x.respondPayloadError(fmt.Errorf("%w: no setpoint given", ErrInvalidPayload))
		return
	}

	var items []ItemCommand
	for _, prop := range setpointProperties {
		t, ok := temps[prop]
		if !ok {
			continue
		}
		c, ok := h.x.props.Get(NamespaceThermostatController, prop)
		if !ok {
			h.x.respondMissingCapability(NamespaceThermostatController, prop)
			return
		}
		scale := strings.ToUpper(c.Parameter("scale", ScaleCelsius))
		items = append(items, ItemCommand{
			Name:  c.Item.Name,
			Value: formatTemperature(convertTemperature(t.Value, t.Scale, scale)),
		})
	}
	h.x.PostItemsAndReturn(ctx, items, Partial{})
}

func (h *thermostatController) adjustTargetTemperature(ctx context.Context) {
	c, ok := h.x.props.Get(NamespaceThermostatController, "targetSetpoint")
	if !ok {
		h.x.respondMissingCapability(NamespaceThermostatController, "targetSetpoint")
		return
	}
	temps, err := payloadTemperatures(h.x.dir, "targetSetpointDelta")
	if err != nil {
		h.x.respondPayloadError(err)
		return
	}
	delta, ok := temps["targetSetpointDelta"]
	if !ok {
		h.x.respondPayloadError(fmt.Errorf("%w: missing targetSetpointDelta", ErrInvalidPayload))
		return
	}

	state, err := h.x.GetItemState(ctx, c.Item)
	if err != nil {
		h.x.RespondBackendError(err)
		return
	}
	h.x.props.Annotate(state)
	if state.IsNull() {
		h.x.respondIntegrityError(fmt.Errorf("%w: %s", ErrInvalidItemState, state.Name))
		return
	}
	current, ok := parseNumber(state.Value)
	if !ok {
		h.x.respondIntegrityError(fmt.Errorf("%w: %s.targetSetpoint", ErrUndefinedProperty, NamespaceThermostatController))
		return
	}

	scale := strings.ToUpper(c.Parameter("scale", ScaleCelsius))
	target := roundTo(current+convertTemperatureDelta(delta.Value, delta.Scale, scale), 2)
	h.x.PostItemsAndReturn(ctx, []ItemCommand{{Name: c.Item.Name, Value: formatTemperature(target)}}, Partial{})
}

// setThermostatMode sends the mode, translated through the capability's mode
// bindings when present ("HEAT": "1").
func (h *thermostatController) setThermostatMode(ctx context.Context) {
	c, ok := h.x.props.Get(NamespaceThermostatController, "thermostatMode")
	if !ok {
		h.x.respondMissingCapability(NamespaceThermostatController, "thermostatMode")
		return
	}

	var payload struct {
		ThermostatMode struct {
			Value string `json:"value"`
		} `json:"thermostatMode"`
	}
	if err := h.x.dir.DecodePayload(&payload); err != nil {
		h.x.respondPayloadError(err)
		return
	}
	mode := strings.ToUpper(payload.ThermostatMode.Value)
	if mode == "" {
		h.x.respondPayloadError(fmt.Errorf("%w: missing thermostatMode", ErrInvalidPayload))
		return
	}

	value := c.Parameter(mode, mode)
	h.x.PostItemsAndReturn(ctx, []ItemCommand{{Name: c.Item.Name, Value: value}}, Partial{})
}

func formatTemperature(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
