package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-voice/internal/audit"
	"github.com/nerrad567/gray-logic-voice/internal/auth"
	"github.com/nerrad567/gray-logic-voice/internal/directive"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Executor runs one directive and emits its response on sink.
type Executor interface {
	Execute(ctx context.Context, dir *directive.Directive, sink directive.ResponseSink)
}

// AuditSink queues directive audit entries.
type AuditSink interface {
	Enqueue(e *audit.Entry) bool
}

// DirectiveMetrics records one time-series point per directive.
type DirectiveMetrics interface {
	WriteDirective(namespace, name, outcome, errorType string, duration time.Duration)
}

// EventPublisher publishes directive outcomes on the message bus.
type EventPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// HealthChecker is implemented by every component reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger

	// Dispatcher executes directives. Required.
	Dispatcher Executor

	// Optional collaborators. Nil disables the feature.
	AuditSink    AuditSink
	AuditRepo    audit.Repository
	Metrics      DirectiveMetrics
	Events       EventPublisher
	EventsTopic  string
	EventsQoS    byte
	HealthChecks map[string]HealthChecker

	Version string
}

// Server is the HTTP API server for Gray Logic Voice.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	verifier   *auth.Verifier
	dispatcher Executor
	auditSink  AuditSink
	auditRepo  audit.Repository
	metrics    DirectiveMetrics
	events     EventPublisher
	eventTopic string
	eventQoS   byte
	checks     map[string]HealthChecker
	version    string
	startTime  time.Time
	stats      *directiveStats
	tickets    *ticketStore
	hub        *Hub
	server     *http.Server
	cancel     context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Logger, Dispatcher and a JWT secret are required
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Security.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger,
		verifier:   auth.NewVerifier(deps.Security.JWT.Secret, deps.Security.JWT.Issuer),
		dispatcher: deps.Dispatcher,
		auditSink:  deps.AuditSink,
		auditRepo:  deps.AuditRepo,
		metrics:    deps.Metrics,
		events:     deps.Events,
		eventTopic: deps.EventsTopic,
		eventQoS:   deps.EventsQoS,
		checks:     deps.HealthChecks,
		version:    deps.Version,
		startTime:  time.Now(),
		stats:      newDirectiveStats(),
		tickets:    newTicketStore(),
		hub:        NewHub(deps.Logger),
	}, nil
}

// Handler returns the fully wired router. Start uses it; tests can mount it
// on httptest.Server directly.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and ticket cleanup, then launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for background goroutines
//
// Returns:
//   - error: If the server was already started
func (s *Server) Start(ctx context.Context) error {
	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.tickets.cleanLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
