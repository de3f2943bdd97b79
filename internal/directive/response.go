package directive

import (
	"sync"

	"github.com/google/uuid"
)

// PayloadVersion is the protocol payload version of every event produced.
const PayloadVersion = "3"

// ErrorType is a protocol error classification.
type ErrorType string

// Protocol error types.
const (
	ErrorEndpointUnreachable ErrorType = "ENDPOINT_UNREACHABLE"
	ErrorNoSuchEndpoint      ErrorType = "NO_SUCH_ENDPOINT"
	ErrorInvalidDirective    ErrorType = "INVALID_DIRECTIVE"
	ErrorInvalidValue        ErrorType = "INVALID_VALUE"
	ErrorValueOutOfRange     ErrorType = "VALUE_OUT_OF_RANGE"
)

// Messages for the fixed error responses.
const (
	msgGenericError = "Unable to reach device"
	msgNoSuchItem   = "Endpoint not found"
)

// Response is an outbound event, optionally with a context block.
type Response struct {
	Context *Context `json:"context,omitempty"`
	Event   Event    `json:"event"`
}

// Context holds the reported properties.
type Context struct {
	Properties []ContextProperty `json:"properties"`
}

// Event is the body of a response.
type Event struct {
	Header   EventHeader    `json:"header"`
	Endpoint *EventEndpoint `json:"endpoint,omitempty"`
	Payload  any            `json:"payload"`
}

// EventHeader identifies a response.
type EventHeader struct {
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	MessageID        string `json:"messageId"`
	CorrelationToken string `json:"correlationToken,omitempty"`
	PayloadVersion   string `json:"payloadVersion"`
}

// EventEndpoint echoes the directive endpoint.
type EventEndpoint struct {
	Scope      *Scope `json:"scope,omitempty"`
	EndpointID string `json:"endpointId"`
}

// ErrorPayload is the payload of an Alexa.ErrorResponse.
type ErrorPayload struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// ErrorType returns the error classification, or "" for a success response.
func (r *Response) ErrorType() ErrorType {
	if p, ok := r.Event.Payload.(ErrorPayload); ok {
		return p.Type
	}
	return ""
}

// Partial describes the response a handler wants. Zero fields take defaults
// (Alexa / Response / empty payload).
type Partial struct {
	Namespace string
	Name      string
	Payload   any

	// Response, when set on a command, is emitted as-is after the commands
	// succeed and no state is aggregated.
	Response *Response
}

// Builder shapes responses around a directive.
type Builder struct {
	newID func() string
}

// NewBuilder creates a response builder that issues random message IDs.
func NewBuilder() *Builder {
	return &Builder{newID: uuid.NewString}
}

// Generate builds a response for dir from p, attaching props as the context
// when non-nil.
func (b *Builder) Generate(dir *Directive, p Partial, props []ContextProperty) *Response {
	ns, name := p.Namespace, p.Name
	if ns == "" {
		ns = NamespaceAlexa
	}
	if name == "" {
		name = "Response"
	}
	payload := p.Payload
	if payload == nil {
		payload = struct{}{}
	}

	resp := &Response{
		Event: Event{
			Header: EventHeader{
				Namespace:        ns,
				Name:             name,
				MessageID:        b.newID(),
				CorrelationToken: dir.Header.CorrelationToken,
				PayloadVersion:   PayloadVersion,
			},
			Payload: payload,
		},
	}
	if dir.Endpoint.EndpointID != "" {
		scope := dir.Endpoint.Scope
		resp.Event.Endpoint = &EventEndpoint{Scope: &scope, EndpointID: dir.Endpoint.EndpointID}
	}
	if props != nil {
		resp.Context = &Context{Properties: props}
	}
	return resp
}

// Error builds an Alexa.ErrorResponse.
func (b *Builder) Error(dir *Directive, typ ErrorType, message string) *Response {
	return b.Generate(dir, Partial{
		Namespace: NamespaceAlexa,
		Name:      "ErrorResponse",
		Payload:   ErrorPayload{Type: typ, Message: message},
	}, nil)
}

// GenericError builds the error response used for every unclassified fault.
func (b *Builder) GenericError(dir *Directive) *Response {
	return b.Error(dir, ErrorEndpointUnreachable, msgGenericError)
}

// ResponseSink receives the outcome of a directive.
type ResponseSink interface {
	EmitSuccess(resp *Response)
	EmitError(resp *Response)
}

// Recorder is a ResponseSink that keeps what was emitted.
//
// Thread Safety: All methods are safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	resp      *Response
	failed    bool
	emissions int
}

// EmitSuccess implements ResponseSink.
func (r *Recorder) EmitSuccess(resp *Response) { r.record(resp, false) }

// EmitError implements ResponseSink.
func (r *Recorder) EmitError(resp *Response) { r.record(resp, true) }

func (r *Recorder) record(resp *Response, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resp = resp
	r.failed = failed
	r.emissions++
}

// Response returns the last emitted response, or nil.
func (r *Recorder) Response() *Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resp
}

// Failed reports whether the last emission was an error.
func (r *Recorder) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Emissions returns how many responses were emitted.
func (r *Recorder) Emissions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emissions
}

// onceSink forwards the first emission and drops the rest.
type onceSink struct {
	mu      sync.Mutex
	next    ResponseSink
	emitted bool
	logger  Logger
}

func (s *onceSink) EmitSuccess(resp *Response) {
	if s.claim(resp) {
		s.next.EmitSuccess(resp)
	}
}

func (s *onceSink) EmitError(resp *Response) {
	if s.claim(resp) {
		s.next.EmitError(resp)
	}
}

func (s *onceSink) claim(resp *Response) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emitted {
		s.logger.Warn("dropping duplicate response",
			"namespace", resp.Event.Header.Namespace,
			"name", resp.Event.Header.Name,
		)
		return false
	}
	s.emitted = true
	return true
}

func (s *onceSink) done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitted
}
