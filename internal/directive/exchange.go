package directive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/backend"
)

// ItemCommand is one desired item state.
type ItemCommand struct {
	Name  string
	Value string
}

// Exchange is the per-directive context handed to handlers. It owns the
// property map and the single response of the directive.
//
// Thread Safety: methods must be called from the handler goroutine. Backend
// fan-out happens internally.
type Exchange struct {
	dir      *Directive
	props    *PropertyMap
	backend  backend.Backend
	builder  *Builder
	sink     *onceSink
	logger   Logger
	now      func() time.Time
	limit    int
	iface    string
	commands int
	reads    int
}

// Directive returns the directive being processed.
func (x *Exchange) Directive() *Directive { return x.dir }

// Properties returns the request's property map.
func (x *Exchange) Properties() *PropertyMap { return x.props }

// Builder returns the response builder.
func (x *Exchange) Builder() *Builder { return x.builder }

// Now returns the exchange clock.
func (x *Exchange) Now() time.Time { return x.now() }

// token is the caller's bearer token forwarded to the backend.
func (x *Exchange) token() string { return x.dir.Endpoint.Scope.Token }

// GetItemState reads the current state of ref, from its sensor item when one
// is declared, and formats it. The state is named after the item read.
//
// Returns backend errors unchanged so callers can classify them.
func (x *Exchange) GetItemState(ctx context.Context, ref ItemRef) (*ItemState, error) {
	item, err := x.backend.GetItem(ctx, x.token(), ref.ReadName())
	if err != nil {
		return nil, err
	}

	typ := item.Type
	if typ == "" && ref.Sensor == "" {
		typ = ref.Type
	}
	state := &ItemState{
		Name:    ref.ReadName(),
		Type:    typ,
		Raw:     item.State,
		Pattern: item.Pattern(),
	}
	state.Value = FormatItemState(*state)
	return state, nil
}

// PostItemsAndReturn sends every command concurrently and then responds.
//
// When all commands succeed, p.Response is emitted if set; otherwise the
// state of the handler's interface is aggregated into a response built from p.
// When any command fails the whole directive fails: NO_SUCH_ENDPOINT for a
// missing item, the generic error otherwise. Commands that did succeed are not
// rolled back.
func (x *Exchange) PostItemsAndReturn(ctx context.Context, items []ItemCommand, p Partial) {
	x.commands += len(items)
	err := runAll(len(items), x.limit, func(i int) error {
		return x.backend.SendCommand(ctx, x.token(), items[i].Name, items[i].Value)
	})
	if err != nil {
		x.RespondBackendError(err)
		return
	}

	if p.Response != nil {
		x.sink.EmitSuccess(p.Response)
		return
	}
	x.GetPropertiesResponseAndReturn(ctx, p)
}

// GetPropertiesResponseAndReturn reads the items behind the reported
// interfaces and emits a response built from p with their context properties.
//
// The reported interfaces are the handler's own interface, or every interface
// of the property map when the handler has none. Each item is read once even
// when several capabilities reference it.
func (x *Exchange) GetPropertiesResponseAndReturn(ctx context.Context, p Partial) {
	ifaces := x.reportedInterfaces()
	refs := x.props.ItemsByInterfaces(ifaces)
	x.reads += len(refs)

	states := make([]*ItemState, len(refs))
	err := runAll(len(refs), x.limit, func(i int) error {
		s, err := x.GetItemState(ctx, refs[i])
		if err != nil {
			return err
		}
		states[i] = s
		return nil
	})
	if err != nil {
		x.RespondBackendError(err)
		return
	}

	var invalid []string
	for _, s := range states {
		x.props.Annotate(s)
		if s.IsNull() {
			invalid = append(invalid, s.Name)
		}
	}
	if len(invalid) > 0 {
		x.respondIntegrityError(fmt.Errorf("%w: %s", ErrInvalidItemState, strings.Join(invalid, ", ")))
		return
	}

	props, err := x.props.ContextProperties(ifaces, x.now())
	if err != nil {
		x.respondIntegrityError(err)
		return
	}
	if props == nil {
		props = []ContextProperty{}
	}

	x.sink.EmitSuccess(x.builder.Generate(x.dir, p, props))
}

// Respond emits a ready-made success response.
func (x *Exchange) Respond(resp *Response) {
	x.sink.EmitSuccess(resp)
}

// RespondError emits an Alexa.ErrorResponse of the given type.
func (x *Exchange) RespondError(typ ErrorType, message string) {
	x.sink.EmitError(x.builder.Error(x.dir, typ, message))
}

// RespondGenericError emits the generic error response.
func (x *Exchange) RespondGenericError() {
	x.sink.EmitError(x.builder.GenericError(x.dir))
}

// RespondBackendError classifies a backend failure and emits the error.
func (x *Exchange) RespondBackendError(err error) {
	if backend.IsNotFound(err) {
		x.logger.Warn("backend item not found",
			"directive", x.dir.String(),
			"endpoint_id", x.dir.Endpoint.EndpointID,
			"error", err,
		)
		x.RespondError(ErrorNoSuchEndpoint, msgNoSuchItem)
		return
	}
	x.logger.Error("backend request failed",
		"directive", x.dir.String(),
		"endpoint_id", x.dir.Endpoint.EndpointID,
		"error", err,
	)
	x.RespondGenericError()
}

// respondIntegrityError logs a data fault and emits the generic error.
func (x *Exchange) respondIntegrityError(err error) {
	x.logger.Error("inconsistent endpoint state",
		"directive", x.dir.String(),
		"endpoint_id", x.dir.Endpoint.EndpointID,
		"error", err,
	)
	x.RespondGenericError()
}

// respondPayloadError maps a payload decoding or validation failure.
func (x *Exchange) respondPayloadError(err error) {
	x.logger.Debug("invalid directive payload", "directive", x.dir.String(), "error", err)
	if errors.Is(err, errOutOfRange) {
		x.RespondError(ErrorValueOutOfRange, err.Error())
		return
	}
	x.RespondError(ErrorInvalidValue, err.Error())
}

// respondMissingCapability reports a directive the endpoint cannot serve.
func (x *Exchange) respondMissingCapability(iface, prop string) {
	x.RespondError(ErrorInvalidDirective,
		fmt.Sprintf("Endpoint %s has no %s.%s capability", x.dir.Endpoint.EndpointID, iface, prop))
}

func (x *Exchange) reportedInterfaces() []string {
	if x.iface != "" {
		return []string{x.iface}
	}
	return x.props.Interfaces()
}
