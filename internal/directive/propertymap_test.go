package directive

import (
	"errors"
	"reflect"
	"testing"
)

const lightCookie = `{
	"PowerController": {"powerState": {"parameters": {}, "item": {"name": "Light", "type": "Dimmer"}}},
	"BrightnessController": {"brightness": {"parameters": {}, "item": {"name": "Light", "type": "Dimmer"}}},
	"TemperatureSensor": {"temperature": {"parameters": {"scale": "Fahrenheit"}, "item": {"name": "Temp", "type": "Number:Temperature"}}}
}`

func TestParsePropertyMap(t *testing.T) {
	pm, err := ParsePropertyMap(lightCookie)
	if err != nil {
		t.Fatalf("ParsePropertyMap() error = %v", err)
	}

	want := []string{NamespacePowerController, NamespaceBrightnessController, NamespaceTemperatureSensor}
	if got := pm.Interfaces(); !reflect.DeepEqual(got, want) {
		t.Errorf("Interfaces() = %v, want %v", got, want)
	}
	if pm.Len() != 3 {
		t.Errorf("Len() = %d, want 3", pm.Len())
	}

	c, ok := pm.Get(NamespaceTemperatureSensor, "temperature")
	if !ok {
		t.Fatal("temperature capability missing")
	}
	if c.Item.Name != "Temp" || c.Parameter("scale", "") != "Fahrenheit" {
		t.Errorf("capability = %+v", c)
	}
	if c.Parameter("missing", "dflt") != "dflt" {
		t.Error("Parameter() should fall back to default")
	}
}

func TestParsePropertyMap_Empty(t *testing.T) {
	for _, cookie := range []string{"", "   "} {
		pm, err := ParsePropertyMap(cookie)
		if err != nil {
			t.Fatalf("ParsePropertyMap(%q) error = %v", cookie, err)
		}
		if pm.Len() != 0 || len(pm.Interfaces()) != 0 {
			t.Errorf("ParsePropertyMap(%q) not empty", cookie)
		}
	}
}

func TestParsePropertyMap_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":          `{"PowerController":`,
		"array":             `[1,2]`,
		"property not obj":  `{"PowerController": {"powerState": 5}}`,
		"missing item name": `{"PowerController": {"powerState": {"item": {"type": "Switch"}}}}`,
		"interface not obj": `{"PowerController": "x"}`,
	}
	for name, cookie := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePropertyMap(cookie)
			if !errors.Is(err, ErrInvalidPropertyMap) {
				t.Errorf("error = %v, want ErrInvalidPropertyMap", err)
			}
		})
	}
}

func TestParsePropertyMap_ParameterTypes(t *testing.T) {
	pm, err := ParsePropertyMap(`{"Alexa.PercentageController": {"percentage": {"parameters": {"inverted": true, "step": 5}, "item": {"name": "Blind", "type": "Rollershutter"}}}}`)
	if err != nil {
		t.Fatalf("ParsePropertyMap() error = %v", err)
	}
	c, _ := pm.Get(NamespacePercentageController, "percentage")
	if c.Parameters["inverted"] != "true" || c.Parameters["step"] != "5" {
		t.Errorf("Parameters = %v", c.Parameters)
	}
}

func TestPropertyMap_ItemsByInterfaces(t *testing.T) {
	pm, err := ParsePropertyMap(lightCookie)
	if err != nil {
		t.Fatalf("ParsePropertyMap() error = %v", err)
	}

	items := pm.ItemsByInterfaces(pm.Interfaces())
	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	if want := []string{"Light", "Temp"}; !reflect.DeepEqual(names, want) {
		t.Errorf("items = %v, want %v", names, want)
	}

	// Selection order does not change declaration order.
	items = pm.ItemsByInterfaces([]string{NamespaceTemperatureSensor, NamespaceBrightnessController})
	if len(items) != 2 || items[0].Name != "Light" || items[1].Name != "Temp" {
		t.Errorf("items = %+v", items)
	}
}

func TestPropertyMap_SensorReadSeparately(t *testing.T) {
	pm, err := ParsePropertyMap(`{
		"PowerController": {"powerState": {"item": {"name": "Door", "type": "Switch"}}},
		"LockController": {"lockState": {"item": {"name": "Door", "type": "Switch", "sensor": "DoorContact"}}}
	}`)
	if err != nil {
		t.Fatalf("ParsePropertyMap() error = %v", err)
	}

	items := pm.ItemsByInterfaces(pm.Interfaces())
	if len(items) != 2 || items[0].ReadName() != "Door" || items[1].ReadName() != "DoorContact" {
		t.Fatalf("items = %+v, want Door then DoorContact", items)
	}

	door := &ItemState{Name: "Door", Type: "Switch", Raw: "ON", Value: "ON"}
	contact := &ItemState{Name: "DoorContact", Type: "Contact", Raw: "OPEN", Value: "OPEN"}
	pm.Annotate(door)
	pm.Annotate(contact)

	power, _ := pm.Get(NamespacePowerController, "powerState")
	lock, _ := pm.Get(NamespaceLockController, "lockState")
	if power.State != door || lock.State != contact {
		t.Errorf("power.State = %+v, lock.State = %+v", power.State, lock.State)
	}
}

func TestPropertyMap_AnnotateAndContextProperties(t *testing.T) {
	pm, err := ParsePropertyMap(lightCookie)
	if err != nil {
		t.Fatalf("ParsePropertyMap() error = %v", err)
	}

	light := &ItemState{Name: "Light", Type: "Dimmer", Raw: "40", Value: "40"}
	pm.Annotate(light)
	pm.Annotate(&ItemState{Name: "Temp", Type: "Number:Temperature", Raw: "70.2", Value: "70.2"})

	power, _ := pm.Get(NamespacePowerController, "powerState")
	brightness, _ := pm.Get(NamespaceBrightnessController, "brightness")
	if power.State != light || brightness.State != light {
		t.Error("Annotate() should attach the same state to every capability of the item")
	}

	props, err := pm.ContextProperties(pm.Interfaces(), testNow)
	if err != nil {
		t.Fatalf("ContextProperties() error = %v", err)
	}
	want := []ContextProperty{
		{Namespace: NamespacePowerController, Name: "powerState", Value: "ON", TimeOfSample: "2026-03-14T09:26:53Z"},
		{Namespace: NamespaceBrightnessController, Name: "brightness", Value: 40, TimeOfSample: "2026-03-14T09:26:53Z"},
		{Namespace: NamespaceTemperatureSensor, Name: "temperature", Value: Temperature{Value: 70.2, Scale: ScaleFahrenheit}, TimeOfSample: "2026-03-14T09:26:53Z"},
	}
	if !reflect.DeepEqual(props, want) {
		t.Errorf("ContextProperties() = %+v\nwant %+v", props, want)
	}
}

func TestPropertyMap_ContextProperties_Undefined(t *testing.T) {
	pm, err := ParsePropertyMap(lightCookie)
	if err != nil {
		t.Fatalf("ParsePropertyMap() error = %v", err)
	}
	pm.Annotate(&ItemState{Name: "Light", Type: "Dimmer", Raw: "40", Value: "40"})

	_, err = pm.ContextProperties(pm.Interfaces(), testNow)
	if !errors.Is(err, ErrUndefinedProperty) {
		t.Fatalf("error = %v, want ErrUndefinedProperty", err)
	}

	// Restricting to annotated interfaces succeeds.
	props, err := pm.ContextProperties([]string{NamespacePowerController}, testNow)
	if err != nil || len(props) != 1 {
		t.Errorf("ContextProperties(power) = %v, %v", props, err)
	}
}

func TestPropertyMap_SceneNotReported(t *testing.T) {
	pm, err := ParsePropertyMap(`{"SceneController": {"scene": {"item": {"name": "Movie", "type": "Switch"}}}}`)
	if err != nil {
		t.Fatalf("ParsePropertyMap() error = %v", err)
	}
	if items := pm.ItemsByInterfaces(pm.Interfaces()); len(items) != 0 {
		t.Errorf("scene items should not be read for reports, got %v", items)
	}
	if _, ok := pm.First(NamespaceSceneController); !ok {
		t.Error("First() should still find the scene capability")
	}
}
