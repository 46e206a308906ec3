// Package redis persists live feed state to Redis: the latest enriched
// window snapshot per symbol, plus a PubSub tick stream for other consumers.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"chartfeed/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const defaultSnapshotTTL = 30 * time.Minute

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	// SnapshotTTL bounds how long a stale window snapshot survives.
	// Defaults to 30 minutes.
	SnapshotTTL time.Duration
}

// Writer writes window snapshots and tick events to Redis.
type Writer struct {
	client *goredis.Client
	ttl    time.Duration
}

// New creates a Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.SnapshotTTL
	if ttl == 0 {
		ttl = defaultSnapshotTTL
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client, ttl: ttl}, nil
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// SnapshotWindow stores the full enriched window for a symbol under
// "chartfeed:window:<symbol>" with the configured TTL.
func (w *Writer) SnapshotWindow(ctx context.Context, symbol string, points []model.EnrichedPoint) error {
	data, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("marshal window: %w", err)
	}
	key := "chartfeed:window:" + symbol
	if err := w.client.Set(ctx, key, data, w.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// PublishTick publishes the newest enriched point on "pub:tick:<symbol>".
func (w *Writer) PublishTick(ctx context.Context, symbol string, point model.EnrichedPoint) error {
	data, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("marshal tick: %w", err)
	}
	return w.client.Publish(ctx, "pub:tick:"+symbol, data).Err()
}

// LoadWindow retrieves a previously stored window snapshot. Returns nil with
// no error when the key is absent.
func (w *Writer) LoadWindow(ctx context.Context, symbol string) ([]model.EnrichedPoint, error) {
	data, err := w.client.Get(ctx, "chartfeed:window:"+symbol).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var points []model.EnrichedPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("unmarshal window: %w", err)
	}
	return points, nil
}

// Close releases the Redis connection.
func (w *Writer) Close() error {
	return w.client.Close()
}
