// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// Environment variable names.
const (
	EnvLogLevel      = "IMAGE_COMPOSE_LOG_LEVEL"
	EnvWorker        = "IMAGE_COMPOSE_WORKER"
	EnvWorkerTimeout = "IMAGE_COMPOSE_WORKER_TIMEOUT"
	EnvMaxPixels     = "IMAGE_COMPOSE_MAX_PIXELS"
	EnvResample      = "IMAGE_COMPOSE_RESAMPLE"
	EnvFetchTimeout  = "IMAGE_COMPOSE_FETCH_TIMEOUT"
	EnvHTTPAddr      = "IMAGE_COMPOSE_HTTP_ADDR"
)

// WorkerMode selects how offloaded compositions are run.
type WorkerMode string

const (
	// WorkerProcess runs each worker as a child process of this binary.
	WorkerProcess WorkerMode = "process"

	// WorkerLocal runs each worker on a goroutine behind in-memory pipes.
	WorkerLocal WorkerMode = "local"

	// WorkerOff disables offloading; every composition runs inline.
	WorkerOff WorkerMode = "off"
)

// Config holds the settings read at start-up.
type Config struct {
	Debug         bool
	Worker        WorkerMode
	WorkerTimeout time.Duration
	MaxPixels     int64
	Resample      string
	Filter        imaging.ResampleFilter
	FetchTimeout  time.Duration
	HTTPAddr      string
}

// Default returns the configuration used when no variables are set.
func Default() *Config {
	return &Config{
		Worker:        WorkerProcess,
		WorkerTimeout: 30 * time.Second,
		MaxPixels:     64 * 1024 * 1024,
		Resample:      "lanczos",
		Filter:        imaging.Lanczos,
		FetchTimeout:  10 * time.Second,
		HTTPAddr:      ":8080",
	}
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	cfg.Debug = strings.EqualFold(getenv(EnvLogLevel), "debug")

	if v := getenv(EnvWorker); v != "" {
		switch mode := WorkerMode(strings.ToLower(v)); mode {
		case WorkerProcess, WorkerLocal, WorkerOff:
			cfg.Worker = mode
		default:
			return nil, fmt.Errorf("invalid %s %q: want process, local or off", EnvWorker, v)
		}
	}

	var err error
	if cfg.WorkerTimeout, err = duration(getenv, EnvWorkerTimeout, cfg.WorkerTimeout); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = duration(getenv, EnvFetchTimeout, cfg.FetchTimeout); err != nil {
		return nil, err
	}

	if v := getenv(EnvMaxPixels); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid %s %q: want a positive integer", EnvMaxPixels, v)
		}
		cfg.MaxPixels = n
	}

	if v := getenv(EnvResample); v != "" {
		filter, err := ParseFilter(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvResample, err)
		}
		cfg.Resample = strings.ToLower(v)
		cfg.Filter = filter
	}

	if v := getenv(EnvHTTPAddr); v != "" {
		cfg.HTTPAddr = v
	}

	return cfg, nil
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive duration such as 30s", key, v)
	}
	return d, nil
}

// ParseFilter maps a filter name to its resampling filter.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(name) {
	case "lanczos":
		return imaging.Lanczos, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "linear":
		return imaging.Linear, nil
	case "box":
		return imaging.Box, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
	}
}
