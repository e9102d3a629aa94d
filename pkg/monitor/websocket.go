package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"digital.vasic.minitest/pkg/logging"
	"digital.vasic.minitest/pkg/metrics"
)

// Message kinds sent to WebSocket clients.
const (
	MessageSnapshot = "snapshot"
	MessageEvent    = "event"
)

const (
	writeWait      = 5 * time.Second
	clientQueueLen = 64
)

// Message is the envelope written to /events clients. The first
// message of every connection is a snapshot of the dashboard.
type Message struct {
	Kind     string             `json:"kind"`
	Snapshot *DashboardSnapshot `json:"snapshot,omitempty"`
	Event    *TestEvent         `json:"event,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server exposes a run over HTTP: /events streams every event over
// a WebSocket, /stats returns the collector statistics, /dashboard
// the per-test view, /metrics the Prometheus counters when enabled,
// and /health a liveness probe.
type Server struct {
	mu        sync.Mutex
	addr      string
	collector *EventCollector
	dashboard *Dashboard
	metrics   *metrics.PrometheusMetrics
	logger    logging.Logger
	upgrader  websocket.Upgrader
	clients   map[*client]struct{}
	server    *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetrics serves m on /metrics.
func WithMetrics(m *metrics.PrometheusMetrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a monitor server for collector and subscribes
// to its events. A nil logger discards log output.
func NewServer(
	addr string,
	collector *EventCollector,
	logger logging.Logger,
	opts ...ServerOption,
) *Server {
	if logger == nil {
		logger = logging.NullLogger{}
	}
	s := &Server{
		addr:      addr,
		collector: collector,
		dashboard: BuildDashboard("live", collector),
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	collector.OnEvent(s.publish)
	return s
}

// Dashboard returns the live dashboard fed by the collector.
func (s *Server) Dashboard() *Dashboard {
	return s.dashboard
}

// Handler returns the HTTP handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/dashboard", s.handleDashboard)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves on the configured address until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = s.Stop(context.Background())
	}()

	s.logger.Info("monitor_started",
		logging.StringField("addr", s.addr),
	)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("monitor server: %w", err)
	}
	return nil
}

// Stop shuts the HTTP server down and disconnects every client.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	for c := range s.clients {
		_ = c.conn.Close()
	}
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// publish updates the dashboard and broadcasts event. Both happen
// under s.mu so a new client never sees an event twice.
func (s *Server) publish(event TestEvent) {
	data, err := json.Marshal(Message{Kind: MessageEvent, Event: &event})
	if err != nil {
		s.logger.Warn("monitor_encode_failed", logging.ErrorField(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dashboard.Update(event)
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.logger.Debug("monitor_client_slow",
				logging.StringField(
					"remote", c.conn.RemoteAddr().String(),
				),
			)
		}
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("monitor_upgrade_failed", logging.ErrorField(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueueLen)}

	s.mu.Lock()
	snap := s.dashboard.Snapshot()
	data, err := json.Marshal(Message{Kind: MessageSnapshot, Snapshot: &snap})
	if err == nil {
		c.send <- data
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) writeLoop(c *client) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = c.conn.Close()
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
	_ = c.conn.Close()
}

// readLoop discards client frames until the connection ends, then
// unregisters the client.
func (s *Server) readLoop(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		close(c.send)
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.collector.Stats())
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.dashboard.Snapshot())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
