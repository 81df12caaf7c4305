package http

import (
	"time"

	"github.com/kochabonline/liveserver/core/reflect"
	"github.com/kochabonline/liveserver/log"
)

type Options struct {
	Metrics MetricsOption
	Health  HealthOption
	Logger  LoggerOption
}

type MetricsOption struct {
	Enabled                   bool   `json:"enabled" mapstructure:"enabled"`
	Path                      string `json:"path" mapstructure:"path" default:"/metrics"`
	EnabledGoCollector        bool   `json:"enabled_go_collector" mapstructure:"enabled_go_collector"`
	EnabledBuildInfoCollector bool   `json:"enabled_build_info_collector" mapstructure:"enabled_build_info_collector"`
}

func (m *MetricsOption) init() error {
	return reflect.SetDefaultTag(m)
}

type HealthOption struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path" default:"/health"`
}

func (h *HealthOption) init() error {
	return reflect.SetDefaultTag(h)
}

type LoggerOption struct {
	Enabled bool `json:"enabled" mapstructure:"enabled" default:"true"`
	Headers bool `json:"headers" mapstructure:"headers"`
}

type Option func(*Backend)

func WithLogger(l *log.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.log = l
		}
	}
}

func WithMetricsOptions(metrics MetricsOption) Option {
	return func(b *Backend) {
		if err := metrics.init(); err != nil {
			b.log.Error().Err(err).Send()
			return
		}
		b.options.Metrics = metrics
	}
}

func WithHealthOptions(health HealthOption) Option {
	return func(b *Backend) {
		if err := health.init(); err != nil {
			b.log.Error().Err(err).Send()
			return
		}
		b.options.Health = health
	}
}

func WithLoggerOptions(logger LoggerOption) Option {
	return func(b *Backend) {
		b.options.Logger = logger
	}
}

// WithRoutes registers extra gin routes served ahead of the application.
func WithRoutes(registers ...GinRegister) Option {
	return func(b *Backend) {
		b.routes.Add(registers...)
	}
}

// WithShutdownTimeout bounds Terminate when the caller's context has no
// deadline. Zero, the default, waits for in-flight requests indefinitely.
func WithShutdownTimeout(d time.Duration) Option {
	return func(b *Backend) {
		b.shutdownTimeout = d
	}
}
