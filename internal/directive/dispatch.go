package directive

import (
	"context"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/nerrad567/gray-logic-voice/internal/backend"
)

// Logger is the logging interface used by the directive package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Method is one directive action. It must emit exactly one response through
// the Exchange it was created with.
type Method func(ctx context.Context)

// Handler serves the directives of one namespace.
type Handler interface {
	// Interface is the interface reported after a command, or "" to report
	// every interface of the endpoint.
	Interface() string

	// Methods maps canonical method names (lower camel case) to actions.
	Methods() map[string]Method
}

// Aliaser is implemented by handlers that route several wire names to one
// method, or rename a method.
type Aliaser interface {
	// Aliases maps canonical names to method names.
	Aliases() map[string]string
}

// HandlerFactory creates the handler for one directive.
type HandlerFactory func(x *Exchange) Handler

// Options configures a Dispatcher.
type Options struct {
	// Backend executes item reads and commands. Required.
	Backend backend.Backend

	// Handlers maps directive namespaces to handlers. Defaults to DefaultHandlers().
	Handlers map[string]HandlerFactory

	// MaxConcurrency caps concurrent backend calls per fan-out. 0 = unlimited.
	MaxConcurrency int

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger Logger

	// Builder shapes responses. Defaults to NewBuilder().
	Builder *Builder

	// Now is the clock used for property samples. Defaults to time.Now.
	Now func() time.Time
}

// Dispatcher resolves directives to handler methods and runs them.
//
// Thread Safety: Execute is safe for concurrent use. Each call owns its own
// Exchange and property map.
type Dispatcher struct {
	backend  backend.Backend
	handlers map[string]HandlerFactory
	limit    int
	logger   Logger
	builder  *Builder
	now      func() time.Time
}

// NewDispatcher creates a dispatcher.
//
// Parameters:
//   - opts: Backend is required; other fields take defaults when zero
//
// Returns:
//   - *Dispatcher: Ready to execute directives
//   - error: if no backend is configured or MaxConcurrency is negative
func NewDispatcher(opts Options) (*Dispatcher, error) {
	if opts.Backend == nil {
		return nil, ErrNoBackend
	}
	if opts.MaxConcurrency < 0 {
		return nil, ErrInvalidConcurrency
	}

	d := &Dispatcher{
		backend:  opts.Backend,
		handlers: opts.Handlers,
		limit:    opts.MaxConcurrency,
		logger:   opts.Logger,
		builder:  opts.Builder,
		now:      opts.Now,
	}
	if d.handlers == nil {
		d.handlers = DefaultHandlers()
	}
	if d.logger == nil {
		d.logger = noopLogger{}
	}
	if d.builder == nil {
		d.builder = NewBuilder()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// Execute processes one directive and emits exactly one response on sink.
//
// The action name is converted from its wire form (TurnOn) to a method name
// (turnOn) and passed through the handler's alias table. Unknown namespaces
// and actions produce INVALID_DIRECTIVE without touching the backend, whatever
// the cookie holds. For supported directives an unreadable property map, or a
// handler that returns without responding, produces the generic error.
func (d *Dispatcher) Execute(ctx context.Context, dir *Directive, sink ResponseSink) {
	start := time.Now()
	once := &onceSink{next: sink, logger: d.logger}

	x := &Exchange{
		dir:     dir,
		props:   NewPropertyMap(),
		backend: d.backend,
		builder: d.builder,
		sink:    once,
		logger:  d.logger,
		now:     d.now,
		limit:   d.limit,
	}

	method, ok := d.resolve(x)
	if !ok {
		d.logger.Warn("unsupported directive",
			"namespace", dir.Header.Namespace,
			"name", dir.Header.Name,
		)
		x.RespondError(ErrorInvalidDirective,
			fmt.Sprintf("%s.%s is not supported", dir.Header.Namespace, dir.Header.Name))
		return
	}

	props, err := ParsePropertyMap(dir.PropertyMapCookie())
	if err != nil {
		d.logger.Error("failed to load property map",
			"directive", dir.String(),
			"endpoint_id", dir.Endpoint.EndpointID,
			"error", err,
		)
		x.RespondGenericError()
		return
	}
	x.props = props

	method(ctx)

	if !once.done() {
		d.logger.Error("handler returned without a response", "directive", dir.String())
		x.RespondGenericError()
	}

	d.logger.Debug("directive executed",
		"directive", dir.String(),
		"endpoint_id", dir.Endpoint.EndpointID,
		"commands", x.commands,
		"reads", x.reads,
		"duration", time.Since(start),
	)
}

// resolve finds the handler method for the directive and binds the handler's
// interface to the exchange.
func (d *Dispatcher) resolve(x *Exchange) (Method, bool) {
	factory, ok := d.handlers[x.dir.Header.Namespace]
	if !ok {
		return nil, false
	}
	h := factory(x)

	name := methodName(x.dir.Header.Name)
	if a, ok := h.(Aliaser); ok {
		if alias, ok := a.Aliases()[name]; ok {
			name = alias
		}
	}

	method, ok := h.Methods()[name]
	if !ok || method == nil {
		return nil, false
	}
	x.iface = h.Interface()
	return method, true
}

// methodName converts a wire action name to lower camel case.
func methodName(wire string) string {
	r, size := utf8.DecodeRuneInString(wire)
	if r == utf8.RuneError {
		return wire
	}
	return string(unicode.ToLower(r)) + wire[size:]
}
