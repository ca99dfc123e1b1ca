package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/desksim/internal/core/events/bus"
	"github.com/zeusync/desksim/internal/core/observability/log"
)

// Server is the desksim IPC server. Renderer clients connect over a
// websocket on /ipc, send Requests and receive Responses plus pushed events.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	registry   *Registry
	auth       *TokenAuth
	events     bus.EventBus
	eventSub   bus.Subscription

	// Client management
	clients     sync.Map // map[string]*clientSession
	clientCount int64    // atomic

	requests   uint64 // atomic
	eventsSent uint64 // atomic
	dropped    uint64 // atomic

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	config Config
	logger log.Log

	// Background workers
	workerGroup sync.WaitGroup
	stopChan    chan struct{}
	serveErr    chan error
}

// Config holds server configuration
type Config struct {
	// Network settings
	ListenAddr string
	AuthToken  string
	MaxClients int

	// Message settings
	MaxMessageSize int64
	SendBuffer     int
	WriteTimeout   time.Duration

	// Health monitoring
	HealthCheckInterval time.Duration
	ClientTimeout       time.Duration

	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:          "127.0.0.1:8765",
		MaxClients:          16,
		MaxMessageSize:      64 << 20, // audio arrives base64 encoded
		SendBuffer:          256,
		WriteTimeout:        10 * time.Second,
		HealthCheckInterval: 30 * time.Second,
		ClientTimeout:       5 * time.Minute,
		ShutdownTimeout:     5 * time.Second,
	}
}

func (c Config) validate() error {
	switch {
	case c.ListenAddr == "":
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	case c.MaxClients <= 0:
		return fmt.Errorf("%w: max clients %d", ErrInvalidConfig, c.MaxClients)
	case c.MaxMessageSize <= 0:
		return fmt.Errorf("%w: max message size %d", ErrInvalidConfig, c.MaxMessageSize)
	case c.SendBuffer <= 0:
		return fmt.Errorf("%w: send buffer %d", ErrInvalidConfig, c.SendBuffer)
	case c.HealthCheckInterval <= 0 || c.ClientTimeout <= 0:
		return fmt.Errorf("%w: health check timings must be positive", ErrInvalidConfig)
	}
	return nil
}

// Stats contains server statistics
type Stats struct {
	ClientCount int64  `json:"clients"`
	Requests    uint64 `json:"requests"`
	EventsSent  uint64 `json:"eventsSent"`
	Dropped     uint64 `json:"dropped"`
	Channels    int    `json:"channels"`
	Running     bool   `json:"running"`
}

// NewServer creates a server serving every channel backed by svc. Events
// published on events are pushed to all connected clients; events may be nil.
func NewServer(config Config, svc Services, events bus.EventBus, logger log.Log) *Server {
	registry := NewRegistry()
	RegisterChannels(registry, svc)

	s := &Server{
		registry: registry,
		auth:     NewTokenAuth(config.AuthToken).WithLogger(logger.With(log.String("component", "auth"))),
		events:   events,
		config:   config,
		logger:   logger.With(log.String("component", "server")),
	}

	s.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("max_clients", config.MaxClients),
		log.Bool("auth", s.auth.Enabled()),
		log.Int("channels", len(registry.Channels())))

	return s
}

// Registry exposes the channel table so callers can add channels.
func (s *Server) Registry() *Registry { return s.registry }

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start starts the server
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if err := s.config.validate(); err != nil {
		return err
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = listener
	s.stopChan = make(chan struct{})
	s.serveErr = make(chan error, 1)

	if s.events != nil {
		sub, err := s.events.Subscribe(bus.WildcardType, s.broadcastEvent)
		if err != nil {
			atomic.StoreInt32(&s.running, 0)
			_ = listener.Close()
			return err
		}
		s.eventSub = sub
	}

	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Error(err))
			s.serveErr <- err
		}
	}()

	s.startWorkers()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Run starts the server and blocks until ctx is done or serving fails, then
// stops it within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-s.serveErr:
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil && !errors.Is(err, ErrServerNotRunning) {
		return errors.Join(serveErr, err)
	}
	return serveErr
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")

	// Signal stop
	close(s.stopChan)

	if s.eventSub != nil {
		_ = s.eventSub.Cancel()
		s.eventSub = nil
	}

	err := s.httpServer.Shutdown(ctx)

	// Shutdown does not track hijacked connections
	s.clients.Range(func(_, value any) bool {
		value.(*clientSession).close()
		return true
	})

	// Wait for workers to stop
	s.stopWorkers()

	s.logger.Info("Server stopped")
	return err
}

// Close closes the server and releases all resources
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}

	s.logger.Info("Closing server")

	if atomic.LoadInt32(&s.running) == 1 {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		_ = s.Stop(ctx)
	}

	s.logger.Info("Server closed")
	return nil
}

// GetStats returns server statistics
func (s *Server) GetStats() Stats {
	return Stats{
		ClientCount: atomic.LoadInt64(&s.clientCount),
		Requests:    atomic.LoadUint64(&s.requests),
		EventsSent:  atomic.LoadUint64(&s.eventsSent),
		Dropped:     atomic.LoadUint64(&s.dropped),
		Channels:    len(s.registry.Channels()),
		Running:     atomic.LoadInt32(&s.running) == 1,
	}
}

type eventPayload struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// broadcastEvent pushes a bus event to every connected client. Clients whose
// send queue is full are disconnected.
func (s *Server) broadcastEvent(event bus.Event) error {
	data, err := json.Marshal(EventMessage{
		Channel: EventChannel,
		Data: eventPayload{
			Type:      event.Type(),
			Source:    event.Source(),
			Timestamp: event.Timestamp(),
			Data:      event.Data(),
		},
	})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type(), err)
	}

	s.clients.Range(func(_, value any) bool {
		session := value.(*clientSession)
		if session.trySend(data) {
			atomic.AddUint64(&s.eventsSent, 1)
			return true
		}
		atomic.AddUint64(&s.dropped, 1)
		session.logger.Warn("Send queue full, disconnecting client", log.String("event", event.Type()))
		session.close()
		return true
	})
	return nil
}

// startWorkers starts background worker goroutines
func (s *Server) startWorkers() {
	s.workerGroup.Add(1)

	// Health monitor
	go func() {
		defer s.workerGroup.Done()
		s.healthMonitor()
	}()
}

// stopWorkers stops background worker goroutines
func (s *Server) stopWorkers() {
	s.workerGroup.Wait()
}

// healthMonitor monitors client health
func (s *Server) healthMonitor() {
	s.logger.Debug("Health monitor started")

	ticker := time.NewTicker(s.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthChecks()
		case <-s.stopChan:
			s.logger.Debug("Health monitor stopped")
			return
		}
	}
}

// performHealthChecks closes idle clients and pings the rest. A pong counts
// as activity.
func (s *Server) performHealthChecks() {
	now := time.Now()
	var disconnected int

	s.clients.Range(func(_, value any) bool {
		session := value.(*clientSession)

		if now.Sub(session.LastSeen()) > s.config.ClientTimeout {
			session.logger.Info("Disconnecting inactive client")
			session.close()
			disconnected++
			return true
		}

		deadline := now.Add(s.writeTimeout())
		if err := session.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			session.logger.Debug("Ping failed", log.Error(err))
			session.close()
			disconnected++
		}
		return true
	})

	if disconnected > 0 {
		s.logger.Info("Health check completed",
			log.Int("disconnected_clients", disconnected),
			log.Int64("active_clients", atomic.LoadInt64(&s.clientCount)))
	}
}

func (s *Server) writeTimeout() time.Duration {
	if s.config.WriteTimeout <= 0 {
		return 10 * time.Second
	}
	return s.config.WriteTimeout
}
