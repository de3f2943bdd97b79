package directive

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// levelController sets and adjusts 0-100 levels. Brightness, percentage and
// power level share it and differ only in property and payload field names.
type levelController struct {
	x          *Exchange
	iface      string
	property   string
	valueField string
	deltaField string
	aliases    map[string]string
}

func newBrightnessController(x *Exchange) Handler {
	return &levelController{
		x:          x,
		iface:      NamespaceBrightnessController,
		property:   "brightness",
		valueField: "brightness",
		deltaField: "brightnessDelta",
		aliases: map[string]string{
			"setBrightness":    "setPercentage",
			"adjustBrightness": "adjustPercentage",
		},
	}
}

func newPercentageController(x *Exchange) Handler {
	return &levelController{
		x:          x,
		iface:      NamespacePercentageController,
		property:   "percentage",
		valueField: "percentage",
		deltaField: "percentageDelta",
	}
}

func newPowerLevelController(x *Exchange) Handler {
	return &levelController{
		x:          x,
		iface:      NamespacePowerLevelController,
		property:   "powerLevel",
		valueField: "powerLevel",
		deltaField: "powerLevelDelta",
		aliases: map[string]string{
			"setPowerLevel":    "setPercentage",
			"adjustPowerLevel": "adjustPercentage",
		},
	}
}

func (h *levelController) Interface() string { return h.iface }

func (h *levelController) Aliases() map[string]string { return h.aliases }

func (h *levelController) Methods() map[string]Method {
	return map[string]Method{
		"setPercentage":    h.setLevel,
		"adjustPercentage": h.adjustLevel,
	}
}

func (h *levelController) setLevel(ctx context.Context) {
	c, ok := h.x.props.Get(h.iface, h.property)
	if !ok {
		h.x.respondMissingCapability(h.iface, h.property)
		return
	}
	v, err := payloadNumber(h.x.dir, h.valueField)
	if err != nil {
		h.x.respondPayloadError(err)
		return
	}
	if v < 0 || v > 100 {
		h.x.respondPayloadError(fmt.Errorf("%w: %s %v not in 0-100", errOutOfRange, h.valueField, v))
		return
	}
	h.x.PostItemsAndReturn(ctx, []ItemCommand{{Name: c.Item.Name, Value: levelCommand(c, int(math.Round(v)))}}, Partial{})
}

// adjustLevel reads the current level, applies the delta and clamps to 0-100.
func (h *levelController) adjustLevel(ctx context.Context) {
	c, ok := h.x.props.Get(h.iface, h.property)
	if !ok {
		h.x.respondMissingCapability(h.iface, h.property)
		return
	}
	delta, err := payloadNumber(h.x.dir, h.deltaField)
	if err != nil {
		h.x.respondPayloadError(err)
		return
	}
	if delta < -100 || delta > 100 {
		h.x.respondPayloadError(fmt.Errorf("%w: %s %v not in -100-100", errOutOfRange, h.deltaField, delta))
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
	current, ok := propertyValue(c).(int)
	if !ok {
		h.x.respondIntegrityError(fmt.Errorf("%w: %s.%s", ErrUndefinedProperty, h.iface, h.property))
		return
	}

	target := min(max(current+int(math.Round(delta)), 0), 100)
	h.x.PostItemsAndReturn(ctx, []ItemCommand{{Name: c.Item.Name, Value: levelCommand(c, target)}}, Partial{})
}

// levelCommand renders a level for the item, inverting inverted rollershutters.
func levelCommand(c *Capability, level int) string {
	if baseType(c.Item.Type) == "Rollershutter" && c.Parameter("inverted", "false") == "true" {
		level = 100 - level
	}
	return strconv.Itoa(level)
}
