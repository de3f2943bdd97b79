package directive

import (
	"encoding/json"
	"fmt"
)

// Request is the wire envelope of an inbound directive.
type Request struct {
	Directive Directive `json:"directive"`
}

// Directive is one voice-assistant command or query. It is not modified while
// being processed.
type Directive struct {
	Header   Header          `json:"header"`
	Endpoint Endpoint        `json:"endpoint"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Header identifies the action requested.
type Header struct {
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	MessageID        string `json:"messageId,omitempty"`
	CorrelationToken string `json:"correlationToken,omitempty"`
	PayloadVersion   string `json:"payloadVersion,omitempty"`
}

// Endpoint is the directive target.
type Endpoint struct {
	Scope      Scope             `json:"scope"`
	EndpointID string            `json:"endpointId"`
	Cookie     map[string]string `json:"cookie,omitempty"`
}

// Scope carries the caller's bearer token, forwarded to the backend.
type Scope struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// cookiePropertyMap is the endpoint cookie key holding the serialised property map.
const cookiePropertyMap = "propertyMap"

// PropertyMapCookie returns the serialised property map, or "" if none.
func (d *Directive) PropertyMapCookie() string {
	if d.Endpoint.Cookie == nil {
		return ""
	}
	return d.Endpoint.Cookie[cookiePropertyMap]
}

// DecodePayload unmarshals the directive payload into v.
func (d *Directive) DecodePayload(v any) error {
	if len(d.Payload) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidPayload)
	}
	if err := json.Unmarshal(d.Payload, v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}

// String returns "Namespace.Name" for logging.
func (d *Directive) String() string {
	return d.Header.Namespace + "." + d.Header.Name
}
