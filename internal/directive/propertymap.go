package directive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// namespacePrefix is prepended to short interface names found in cookies
// ("PowerController" -> "Alexa.PowerController").
const namespacePrefix = "Alexa."

// ItemRef identifies the backend items behind a capability.
type ItemRef struct {
	// Name is the item commanded by directives.
	Name string `json:"name"`

	// Type is the declared item type.
	Type string `json:"type,omitempty"`

	// Sensor, when set, is read instead of Name for state reports.
	Sensor string `json:"sensor,omitempty"`
}

// ReadName returns the item to read state from.
func (r ItemRef) ReadName() string {
	if r.Sensor != "" {
		return r.Sensor
	}
	return r.Name
}

// Capability binds one protocol property to backend items.
type Capability struct {
	Interface  string
	Property   string
	Item       ItemRef
	Parameters map[string]string

	// State is attached during aggregation. Nil until the item is read.
	State *ItemState
}

// Parameter returns a capability parameter or def when unset.
func (c *Capability) Parameter(key, def string) string {
	if v, ok := c.Parameters[key]; ok && v != "" {
		return v
	}
	return def
}

// PropertyMap maps interface -> property -> capability for one request.
//
// It keeps the order in which interfaces and properties were declared so
// reports list properties deterministically.
//
// Thread Safety: not safe for concurrent use. A PropertyMap belongs to a
// single Exchange.
type PropertyMap struct {
	interfaces []string
	properties map[string][]string
	caps       map[string]map[string]*Capability
}

// NewPropertyMap returns an empty property map.
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{
		properties: make(map[string][]string),
		caps:       make(map[string]map[string]*Capability),
	}
}

type capabilityJSON struct {
	Parameters map[string]json.RawMessage `json:"parameters"`
	Item       ItemRef                    `json:"item"`
}

// ParsePropertyMap decodes the serialised property map from an endpoint
// cookie. An empty cookie yields an empty map.
//
// Expected shape:
//
//	{"PowerController": {"powerState": {"parameters": {}, "item": {"name": "Light", "type": "Switch"}}}}
func ParsePropertyMap(cookie string) (*PropertyMap, error) {
	pm := NewPropertyMap()
	if strings.TrimSpace(cookie) == "" {
		return pm, nil
	}

	err := eachMember([]byte(cookie), func(iface string, raw json.RawMessage) error {
		iface = qualifyInterface(iface)
		return eachMember(raw, func(prop string, raw json.RawMessage) error {
			var cj capabilityJSON
			if err := json.Unmarshal(raw, &cj); err != nil {
				return fmt.Errorf("%s.%s: %w", iface, prop, err)
			}
			if cj.Item.Name == "" {
				return fmt.Errorf("%s.%s: missing item name", iface, prop)
			}
			pm.Set(&Capability{
				Interface:  iface,
				Property:   prop,
				Item:       cj.Item,
				Parameters: decodeParameters(cj.Parameters),
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPropertyMap, err)
	}
	return pm, nil
}

// Set adds or replaces a capability, keeping the first declaration position.
func (pm *PropertyMap) Set(c *Capability) {
	props, ok := pm.caps[c.Interface]
	if !ok {
		props = make(map[string]*Capability)
		pm.caps[c.Interface] = props
		pm.interfaces = append(pm.interfaces, c.Interface)
	}
	if _, exists := props[c.Property]; !exists {
		pm.properties[c.Interface] = append(pm.properties[c.Interface], c.Property)
	}
	props[c.Property] = c
}

// Interfaces returns the declared interfaces in order.
func (pm *PropertyMap) Interfaces() []string {
	out := make([]string, len(pm.interfaces))
	copy(out, pm.interfaces)
	return out
}

// Has reports whether the interface is declared.
func (pm *PropertyMap) Has(iface string) bool {
	_, ok := pm.caps[iface]
	return ok
}

// Get returns the capability for an interface property.
func (pm *PropertyMap) Get(iface, prop string) (*Capability, bool) {
	c, ok := pm.caps[iface][prop]
	return c, ok
}

// First returns the first declared capability of an interface.
func (pm *PropertyMap) First(iface string) (*Capability, bool) {
	props := pm.properties[iface]
	if len(props) == 0 {
		return nil, false
	}
	return pm.caps[iface][props[0]], true
}

// Len returns the number of capabilities.
func (pm *PropertyMap) Len() int {
	n := 0
	for _, props := range pm.caps {
		n += len(props)
	}
	return n
}

// capabilities calls fn for every capability of the selected interfaces in
// declaration order. Interfaces that never carry reportable state are skipped.
func (pm *PropertyMap) capabilities(ifaces []string, fn func(*Capability)) {
	selected := make(map[string]bool, len(ifaces))
	for _, iface := range ifaces {
		selected[iface] = true
	}
	for _, iface := range pm.interfaces {
		if !selected[iface] || !reportable(iface) {
			continue
		}
		for _, prop := range pm.properties[iface] {
			fn(pm.caps[iface][prop])
		}
	}
}

// ItemsByInterfaces returns the items behind the selected interfaces, once per
// read item, in declaration order. Capabilities sharing a command item but
// reading different sensors yield one entry each.
func (pm *PropertyMap) ItemsByInterfaces(ifaces []string) []ItemRef {
	seen := make(map[string]bool)
	var items []ItemRef
	pm.capabilities(ifaces, func(c *Capability) {
		name := c.Item.ReadName()
		if seen[name] {
			return
		}
		seen[name] = true
		items = append(items, c.Item)
	})
	return items
}

// Annotate attaches state to every capability that reads from state.Name.
func (pm *PropertyMap) Annotate(state *ItemState) {
	for _, props := range pm.caps {
		for _, c := range props {
			if c.Item.ReadName() == state.Name {
				c.State = state
			}
		}
	}
}

// ContextProperties builds the ordered context properties of the selected
// interfaces from the attached item states.
//
// Returns ErrUndefinedProperty naming every property whose value could not be
// determined.
func (pm *PropertyMap) ContextProperties(ifaces []string, now time.Time) ([]ContextProperty, error) {
	sample := now.UTC().Format(time.RFC3339)
	var (
		props     []ContextProperty
		undefined []string
	)
	pm.capabilities(ifaces, func(c *Capability) {
		value := propertyValue(c)
		if value == nil {
			undefined = append(undefined, c.Interface+"."+c.Property)
			return
		}
		props = append(props, ContextProperty{
			Namespace:                 c.Interface,
			Name:                      c.Property,
			Value:                     value,
			TimeOfSample:              sample,
			UncertaintyInMilliseconds: 0,
		})
	})
	if len(undefined) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedProperty, strings.Join(undefined, ", "))
	}
	return props, nil
}

// reportable reports whether an interface contributes context properties.
func reportable(iface string) bool {
	return iface != NamespaceSceneController
}

func qualifyInterface(name string) string {
	if name == NamespaceAlexa || strings.Contains(name, ".") {
		return name
	}
	return namespacePrefix + name
}

func decodeParameters(raw map[string]json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	params := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			params[k] = s
			continue
		}
		params[k] = string(bytes.TrimSpace(v))
	}
	return params
}

// eachMember walks the members of a JSON object in document order.
func eachMember(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
