// Package metrics exposes Prometheus metrics and a health endpoint for the
// feed server.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the feed server.
type Metrics struct {
	TicksTotal     prometheus.Counter
	PublishDur     prometheus.Histogram
	WSClients      prometheus.Gauge
	BroadcastDrops prometheus.Counter
	SessionStatus  prometheus.Gauge // 0=disconnected, 1=connecting, 2=connected
	WindowSize     prometheus.Gauge
}

// New registers and returns all feed server metrics.
func New() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartfeed_ticks_total",
			Help: "Total simulated ticks emitted",
		}),
		PublishDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartfeed_tick_publish_duration_seconds",
			Help:    "Tick fan-out latency (marshal + broadcast)",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartfeed_ws_clients",
			Help: "Currently connected WebSocket clients",
		}),
		BroadcastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartfeed_broadcast_drops_total",
			Help: "Messages dropped on slow WebSocket clients",
		}),
		SessionStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartfeed_session_status",
			Help: "Feed session status (0=disconnected, 1=connecting, 2=connected)",
		}),
		WindowSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartfeed_window_size",
			Help: "Current sliding window length",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.PublishDur,
		m.WSClients,
		m.BroadcastDrops,
		m.SessionStatus,
		m.WindowSize,
	)
	return m
}

// Health reports the live session state for the /health endpoint.
type Health struct {
	mu sync.RWMutex

	Symbol     string    `json:"symbol"`
	Status     string    `json:"status"`
	Ticks      int64     `json:"ticks"`
	LastTickAt time.Time `json:"last_tick_at"`
	StartedAt  time.Time `json:"started_at"`
}

// NewHealth returns a default health status.
func NewHealth(symbol string) *Health {
	return &Health{
		Symbol:    symbol,
		Status:    "Disconnected",
		StartedAt: time.Now().UTC(),
	}
}

// SetStatus records the current session status name.
func (h *Health) SetStatus(status string) {
	h.mu.Lock()
	h.Status = status
	h.mu.Unlock()
}

// Tick records an emitted tick.
func (h *Health) Tick(count int64) {
	h.mu.Lock()
	h.Ticks = count
	h.LastTickAt = time.Now().UTC()
	h.mu.Unlock()
}

// ServeHTTP renders the health status as JSON.
func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h)
}

// Server serves /metrics and /health on its own listener.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *Health) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/health", health)
	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
