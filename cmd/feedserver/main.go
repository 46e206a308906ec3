// cmd/feedserver — live chart feed server.
//
// Runs a simulated live feed session for one symbol (plus optional overlay
// symbols), re-enriches the sliding window with SMA(20)/RSI(14) on every
// tick, and broadcasts the enriched window to WebSocket chart clients.
//
// Optional sidecars: Redis (latest window snapshot + tick PubSub) and SQLite
// (tick archive), enabled when REDIS_ADDR / SQLITE_PATH are set.
//
// Routes:
//
//	GET /ws      — WebSocket stream of window/status envelopes
//	GET /health  — session status JSON (also on METRICS_ADDR)
//
// Config is env-driven (see config package); a .env file is honored.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chartfeed/config"
	"chartfeed/internal/feed"
	"chartfeed/internal/hub"
	"chartfeed/internal/logger"
	"chartfeed/internal/metrics"
	"chartfeed/internal/model"
	redisstore "chartfeed/internal/store/redis"
	sqlitestore "chartfeed/internal/store/sqlite"
)

// envelope is the WS message wrapper sent to chart clients.
type envelope struct {
	Type   string                `json:"type"` // "window" | "status"
	Symbol string                `json:"symbol"`
	Status model.Status          `json:"status"`
	Ticks  int64                 `json:"ticks"`
	Points []model.EnrichedPoint `json:"points,omitempty"`
}

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("[feedserver] loaded .env")
	}

	cfg := config.Load()
	lg := logger.Init("feedserver", logger.ParseLevel(cfg.LogLevel))
	lg.Info("starting feed server",
		slog.String("symbol", cfg.Symbol),
		slog.Any("compare", cfg.Compare),
		slog.Duration("tick_interval", cfg.TickInterval),
		slog.Int("window_cap", cfg.WindowCap),
	)

	// ---- Metrics & health ----
	prom := metrics.New()
	health := metrics.NewHealth(cfg.Symbol)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Shutdown context ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Optional Redis sidecar ----
	var redisWriter *redisstore.Writer
	if cfg.RedisAddr != "" {
		var err error
		redisWriter, err = redisstore.New(redisstore.WriterConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			lg.Warn("redis init failed, continuing without snapshots", slog.Any("err", err))
			redisWriter = nil
		} else {
			defer redisWriter.Close()
		}
	}

	// ---- Optional SQLite archive ----
	var recorder *sqlitestore.Recorder
	var recordCh chan sqlitestore.Record
	if cfg.SQLitePath != "" {
		os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
		var err error
		recorder, err = sqlitestore.New(sqlitestore.RecorderConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			lg.Warn("sqlite init failed, continuing without archive", slog.Any("err", err))
			recorder = nil
		} else {
			defer recorder.Close()
			recordCh = make(chan sqlitestore.Record, 1000)
			go recorder.Run(ctx, recordCh)
		}
	}

	// ---- Seed history & session ----
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	history := restoreHistory(ctx, lg, redisWriter, cfg.Symbol)
	if len(history) == 0 {
		compareStart := make(map[string]float64, len(cfg.Compare))
		for _, sym := range cfg.Compare {
			compareStart[sym] = 50 + rng.Float64()*450
		}
		history = feed.SeedHistory(cfg.HistoryPoints, 250, compareStart, cfg.TickInterval, rng)
	}

	sim := feed.New(feed.Config{
		History:      history,
		Capacity:     cfg.WindowCap,
		TickInterval: cfg.TickInterval,
		ConnectDelay: cfg.ConnectDelay,
		Rand:         rng,
	})

	// ---- WebSocket hub ----
	h := hub.New()
	h.OnDrop = func() { prom.BroadcastDrops.Inc() }
	h.Snapshot = func() []byte {
		return marshalEnvelope(envelope{
			Type:   "window",
			Symbol: cfg.Symbol,
			Status: sim.Status(),
			Ticks:  sim.TickCount(),
			Points: sim.Snapshot(),
		})
	}

	sim.OnStatus = func(st model.Status) {
		lg.Info("session status", slog.String("status", st.String()))
		health.SetStatus(st.String())
		prom.SessionStatus.Set(float64(st))
		h.Broadcast(marshalEnvelope(envelope{
			Type:   "status",
			Symbol: cfg.Symbol,
			Status: st,
			Ticks:  sim.TickCount(),
		}))
	}

	sim.OnTick = func(points []model.EnrichedPoint) {
		start := time.Now()
		ticks := sim.TickCount()
		prom.TicksTotal.Inc()
		prom.WindowSize.Set(float64(len(points)))
		health.Tick(ticks)

		h.Broadcast(marshalEnvelope(envelope{
			Type:   "window",
			Symbol: cfg.Symbol,
			Status: model.StatusConnected,
			Ticks:  ticks,
			Points: points,
		}))
		prom.PublishDur.Observe(time.Since(start).Seconds())

		latest := points[len(points)-1]
		if redisWriter != nil {
			wctx, wcancel := context.WithTimeout(ctx, 2*time.Second)
			if err := redisWriter.SnapshotWindow(wctx, cfg.Symbol, points); err != nil {
				lg.Warn("redis snapshot failed", slog.Any("err", err))
			}
			if err := redisWriter.PublishTick(wctx, cfg.Symbol, latest); err != nil {
				lg.Warn("redis publish failed", slog.Any("err", err))
			}
			wcancel()
		}
		if recordCh != nil {
			select {
			case recordCh <- sqlitestore.Record{Symbol: cfg.Symbol, Point: latest}:
			default:
				lg.Warn("sqlite archive channel full, dropping tick")
			}
		}
	}

	// ---- HTTP surface ----
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.Handler())
	mux.Handle("/health", health)
	if recorder != nil {
		mux.HandleFunc("/api/history", historyHandler(recorder, cfg.Symbol))
	}
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		lg.Info("listening", slog.String("addr", cfg.Addr),
			slog.String("ws", fmt.Sprintf("ws://localhost%s/ws", cfg.Addr)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Error("server error", slog.Any("err", err))
			cancel()
		}
	}()

	// ---- Client-count gauge ----
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				prom.WSClients.Set(float64(h.ClientCount()))
			}
		}
	}()

	sim.Start()

	select {
	case sig := <-sigCh:
		lg.Info("shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	sim.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	lg.Info("stopped", slog.Int64("ticks", sim.TickCount()))
}

func marshalEnvelope(env envelope) []byte {
	b, err := json.Marshal(env)
	if err != nil {
		log.Printf("[feedserver] envelope marshal error: %v", err)
		return nil
	}
	return b
}

// restoreHistory resumes a session from the last Redis window snapshot, so a
// restarted server continues from its previous prices instead of reseeding.
func restoreHistory(ctx context.Context, lg *slog.Logger, w *redisstore.Writer, symbol string) []model.PricePoint {
	if w == nil {
		return nil
	}
	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	snap, err := w.LoadWindow(rctx, symbol)
	if err != nil {
		lg.Warn("window restore failed", slog.Any("err", err))
		return nil
	}
	if len(snap) == 0 {
		return nil
	}
	lg.Info("restored window from redis", slog.Int("points", len(snap)))
	points := make([]model.PricePoint, len(snap))
	for i, p := range snap {
		points[i] = p.PricePoint
	}
	return points
}

// historyHandler serves the SQLite tick archive as a JSON series.
func historyHandler(recorder *sqlitestore.Recorder, symbol string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 500
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 10000 {
				limit = n
			}
		}
		points, err := recorder.History(r.Context(), symbol, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(points)
	}
}
