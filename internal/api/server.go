package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/farmnode/internal/actuator"
	"github.com/nerrad567/farmnode/internal/audit"
	"github.com/nerrad567/farmnode/internal/control"
	"github.com/nerrad567/farmnode/internal/infrastructure/config"
	"github.com/nerrad567/farmnode/internal/infrastructure/logging"
	"github.com/nerrad567/farmnode/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// SessionStatus reports the broker session.
type SessionStatus interface {
	State() mqtt.SessionState
	HealthCheck(ctx context.Context) error
}

// ActuatorSource lists the actuator states.
type ActuatorSource interface {
	Snapshot() []actuator.State
}

// TelemetrySource returns the most recent telemetry cycle.
type TelemetrySource interface {
	Last() (control.Snapshot, bool)
}

// EventLister reads the audit trail.
type EventLister interface {
	List(ctx context.Context, filter audit.Filter) ([]audit.Event, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	Node      config.NodeConfig
	Logger    *logging.Logger
	Session   SessionStatus
	Actuators ActuatorSource
	Telemetry TelemetrySource
	Events    EventLister  // optional; defaults to an empty trail
	Metrics   http.Handler // optional; /metrics returns 404 without it
	Version   string
}

// Server is the status HTTP server.
type Server struct {
	cfg       config.APIConfig
	node      config.NodeConfig
	logger    *logging.Logger
	session   SessionStatus
	actuators ActuatorSource
	telemetry TelemetrySource
	events    EventLister
	metrics   http.Handler
	version   string
	server    *http.Server
	listener  net.Listener
}

// New creates a server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	if deps.Actuators == nil || deps.Telemetry == nil {
		return nil, fmt.Errorf("actuator and telemetry sources are required")
	}

	s := &Server{
		cfg:       deps.Config,
		node:      deps.Node,
		logger:    deps.Logger,
		session:   deps.Session,
		actuators: deps.Actuators,
		telemetry: deps.Telemetry,
		events:    deps.Events,
		metrics:   deps.Metrics,
		version:   deps.Version,
	}
	if s.events == nil {
		s.events = audit.NopRepository{}
	}
	if s.metrics == nil {
		s.metrics = http.NotFoundHandler()
	}
	return s, nil
}

// Start binds the listener and serves in a background goroutine. Binding
// errors, such as the port being in use, are returned.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("status API listening", "address", listener.Addr().String())
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
