package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/codecanvas/codecanvas/internal/engine"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	BindAddr       string `envconfig:"BIND_ADDR" default:"127.0.0.1"`
	DatabasePath   string `envconfig:"DATABASE_PATH" default:"./data/canvas.db"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	// Cron schedule for WAL checkpoints. Empty disables it.
	MaintenanceSchedule string `envconfig:"MAINTENANCE_SCHEDULE" default:"@every 30m"`

	HistoryCapacity   int           `envconfig:"HISTORY_CAPACITY" default:"50"`
	MinScale          float64       `envconfig:"MIN_SCALE" default:"0.1"`
	MaxScale          float64       `envconfig:"MAX_SCALE" default:"5"`
	GroupMinSize      float64       `envconfig:"GROUP_MIN_SIZE" default:"10"`
	SingleMinSize     float64       `envconfig:"SINGLE_MIN_SIZE" default:"50"`
	ViewportSyncDelay time.Duration `envconfig:"VIEWPORT_SYNC_DELAY" default:"150ms"`
	SaveDelay         time.Duration `envconfig:"SAVE_DELAY" default:"2s"`
	TickInterval      time.Duration `envconfig:"TICK_INTERVAL" default:"16ms"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into host patterns for the WebSocket accept
// options.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimPrefix(o, "https://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// EngineOptions maps the engine limits onto engine.Options.
func (c *Config) EngineOptions(logger *slog.Logger) engine.Options {
	return engine.Options{
		HistoryCapacity:   c.HistoryCapacity,
		MinScale:          c.MinScale,
		MaxScale:          c.MaxScale,
		GroupMinSize:      c.GroupMinSize,
		SingleMinSize:     c.SingleMinSize,
		ViewportSyncDelay: c.ViewportSyncDelay,
		Logger:            logger,
	}
}
