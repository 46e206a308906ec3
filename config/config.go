package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all feed server configuration loaded from environment variables.
type Config struct {
	// Feed session
	Symbol        string        // primary symbol name
	Compare       []string      // comparison symbols overlaid on the chart
	TickInterval  time.Duration // simulated tick cadence
	ConnectDelay  time.Duration // simulated handshake latency
	WindowCap     int           // sliding window capacity
	HistoryPoints int           // synthetic seed history length

	// Surfaces
	Addr        string // WebSocket listen address
	MetricsAddr string

	// Optional stores (empty = disabled)
	RedisAddr     string
	RedisPassword string
	SQLitePath    string

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Symbol:        getEnv("FEED_SYMBOL", "TSLA"),
		Compare:       splitList(getEnv("FEED_COMPARE", "")),
		TickInterval:  time.Duration(getEnvInt("FEED_TICK_MS", 1000)) * time.Millisecond,
		ConnectDelay:  time.Duration(getEnvInt("FEED_CONNECT_DELAY_MS", 1500)) * time.Millisecond,
		WindowCap:     getEnvInt("FEED_WINDOW_CAP", 100),
		HistoryPoints: getEnvInt("FEED_HISTORY_POINTS", 60),

		Addr:        getEnv("FEED_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] ignoring invalid %s=%q", key, v)
		return fallback
	}
	return n
}
