package server

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvLogLevel      = "PIXEL_CLEANUP_LOG_LEVEL"
	EnvWorkers       = "PIXEL_CLEANUP_WORKERS"
	EnvOffloadPixels = "PIXEL_CLEANUP_OFFLOAD_PIXELS"
)

// DefaultOffloadPixels is the smallest image, in pixels, sent to the worker
// pool. Smaller images are cheaper to process in the calling goroutine.
const DefaultOffloadPixels = 64 * 64

// Config holds server settings.
type Config struct {
	// LogLevel is "info" or "debug".
	LogLevel string

	// Workers is the pool size. 0 means GOMAXPROCS; a negative value
	// disables the pool so every operation runs in the calling goroutine.
	Workers int

	// OffloadPixels is the pool threshold; see DefaultOffloadPixels.
	OffloadPixels int
}

// DefaultConfig returns the settings used when no environment is set.
func DefaultConfig() Config {
	return Config{
		LogLevel:      "info",
		OffloadPixels: DefaultOffloadPixels,
	}
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return c.LogLevel == "debug"
}

// ConfigFromEnv overlays the PIXEL_CLEANUP_* environment variables on
// DefaultConfig.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv(EnvOffloadPixels); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s %q: %w", EnvOffloadPixels, v, err)
		}
		if n < 0 {
			return cfg, fmt.Errorf("invalid %s %d: must not be negative", EnvOffloadPixels, n)
		}
		cfg.OffloadPixels = n
	}
	return cfg, nil
}
