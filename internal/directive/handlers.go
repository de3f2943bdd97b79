package directive

import (
	"context"
	"time"
)

// Directive namespaces served by the default handlers.
const (
	NamespaceAlexa                = "Alexa"
	NamespacePowerController      = "Alexa.PowerController"
	NamespaceBrightnessController = "Alexa.BrightnessController"
	NamespacePercentageController = "Alexa.PercentageController"
	NamespacePowerLevelController = "Alexa.PowerLevelController"
	NamespaceThermostatController = "Alexa.ThermostatController"
	NamespaceLockController       = "Alexa.LockController"
	NamespaceSceneController      = "Alexa.SceneController"
)

// Report-only interfaces. They have no directives of their own and are
// reported through Alexa.ReportState.
const (
	NamespaceTemperatureSensor = "Alexa.TemperatureSensor"
	NamespaceContactSensor     = "Alexa.ContactSensor"
	NamespaceMotionSensor      = "Alexa.MotionSensor"
)

// DefaultHandlers returns the handler registry for the supported namespaces.
func DefaultHandlers() map[string]HandlerFactory {
	return map[string]HandlerFactory{
		NamespaceAlexa:                newAlexaHandler,
		NamespacePowerController:      newPowerController,
		NamespaceBrightnessController: newBrightnessController,
		NamespacePercentageController: newPercentageController,
		NamespacePowerLevelController: newPowerLevelController,
		NamespaceThermostatController: newThermostatController,
		NamespaceLockController:       newLockController,
		NamespaceSceneController:      newSceneController,
	}
}

// alexaHandler answers state report requests for the whole endpoint.
type alexaHandler struct {
	x *Exchange
}

func newAlexaHandler(x *Exchange) Handler { return &alexaHandler{x: x} }

func (h *alexaHandler) Interface() string { return "" }

func (h *alexaHandler) Methods() map[string]Method {
	return map[string]Method{"reportState": h.reportState}
}

func (h *alexaHandler) reportState(ctx context.Context) {
	h.x.GetPropertiesResponseAndReturn(ctx, Partial{Name: "StateReport"})
}

// powerController switches items on and off.
type powerController struct {
	x *Exchange
}

func newPowerController(x *Exchange) Handler { return &powerController{x: x} }

func (h *powerController) Interface() string { return NamespacePowerController }

func (h *powerController) Aliases() map[string]string {
	return map[string]string{
		"turnOn":  "setPowerState",
		"turnOff": "setPowerState",
	}
}

func (h *powerController) Methods() map[string]Method {
	return map[string]Method{"setPowerState": h.setPowerState}
}

func (h *powerController) setPowerState(ctx context.Context) {
	c, ok := h.x.props.Get(NamespacePowerController, "powerState")
	if !ok {
		h.x.respondMissingCapability(NamespacePowerController, "powerState")
		return
	}
	value := "OFF"
	if h.x.dir.Header.Name == "TurnOn" {
		value = "ON"
	}
	h.x.PostItemsAndReturn(ctx, []ItemCommand{{Name: c.Item.Name, Value: value}}, Partial{})
}

// lockController locks and unlocks. The reported state is usually read from
// a separate sensor item.
type lockController struct {
	x *Exchange
}

func newLockController(x *Exchange) Handler { return &lockController{x: x} }

func (h *lockController) Interface() string { return NamespaceLockController }

func (h *lockController) Aliases() map[string]string {
	return map[string]string{
		"lock":   "setLockState",
		"unlock": "setLockState",
	}
}

func (h *lockController) Methods() map[string]Method {
	return map[string]Method{"setLockState": h.setLockState}
}

func (h *lockController) setLockState(ctx context.Context) {
	c, ok := h.x.props.Get(NamespaceLockController, "lockState")
	if !ok {
		h.x.respondMissingCapability(NamespaceLockController, "lockState")
		return
	}
	lock := h.x.dir.Header.Name == "Lock"

	var value string
	switch {
	case baseType(c.Item.Type) == "String" && lock:
		value = "LOCKED"
	case baseType(c.Item.Type) == "String":
		value = "UNLOCKED"
	case lock:
		value = "ON"
	default:
		value = "OFF"
	}
	h.x.PostItemsAndReturn(ctx, []ItemCommand{{Name: c.Item.Name, Value: value}}, Partial{})
}

// sceneController activates scenes. Scene activation is acknowledged without
// reading state back.
type sceneController struct {
	x *Exchange
}

type sceneCause struct {
	Type string `json:"type"`
}

type scenePayload struct {
	Cause     sceneCause `json:"cause"`
	Timestamp string     `json:"timestamp"`
}

func newSceneController(x *Exchange) Handler { return &sceneController{x: x} }

func (h *sceneController) Interface() string { return NamespaceSceneController }

func (h *sceneController) Aliases() map[string]string {
	return map[string]string{
		"activate":   "setSceneState",
		"deactivate": "setSceneState",
	}
}

func (h *sceneController) Methods() map[string]Method {
	return map[string]Method{"setSceneState": h.setSceneState}
}

func (h *sceneController) setSceneState(ctx context.Context) {
	c, ok := h.x.props.First(NamespaceSceneController)
	if !ok {
		h.x.respondMissingCapability(NamespaceSceneController, "scene")
		return
	}

	value, name := "OFF", "DeactivationStarted"
	if h.x.dir.Header.Name == "Activate" {
		value, name = "ON", "ActivationStarted"
	}

	resp := h.x.builder.Generate(h.x.dir, Partial{
		Namespace: NamespaceSceneController,
		Name:      name,
		Payload: scenePayload{
			Cause:     sceneCause{Type: "VOICE_INTERACTION"},
			Timestamp: h.x.now().UTC().Format(time.RFC3339),
		},
	}, nil)

	h.x.PostItemsAndReturn(ctx, []ItemCommand{{Name: c.Item.Name, Value: value}}, Partial{Response: resp})
}
