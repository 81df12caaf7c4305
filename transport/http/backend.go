package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabonline/liveserver/errors"
	"github.com/kochabonline/liveserver/log"
	"github.com/kochabonline/liveserver/transport"
	"github.com/kochabonline/liveserver/transport/http/metrics/prometheus"
	"github.com/kochabonline/liveserver/transport/http/middleware"
	"github.com/kochabonline/liveserver/transport/http/response"
)

var _ transport.Backend = (*Backend)(nil)

// Backend builds gin-served threads around an application handler.
type Backend struct {
	handler         http.Handler
	log             *log.Logger
	options         Options
	routes          *GinHandler
	shutdownTimeout time.Duration
}

// NewBackend returns a backend serving handler. Requests not matched by the
// static route, the health check, metrics or extra routes reach handler.
func NewBackend(handler http.Handler, opts ...Option) *Backend {
	b := &Backend{
		handler: handler,
		log:     log.DefaultLogger,
		routes:  NewHandler(),
		options: Options{Logger: LoggerOption{Enabled: true}},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Backend) Capabilities() transport.Capability {
	return transport.CapabilityServe | transport.CapabilityStatic | transport.CapabilityTerminate
}

func (b *Backend) NewThread(cfg transport.ThreadConfig) (transport.Thread, error) {
	if len(cfg.Ports) == 0 {
		return nil, errors.BadRequest("no candidate ports for %q", cfg.Host)
	}
	if cfg.Static != nil {
		if err := cfg.Static.Validate(); err != nil {
			return nil, err
		}
	}

	engine, err := b.engine(cfg)
	if err != nil {
		return nil, err
	}
	return newThread(cfg, engine, b.log, b.shutdownTimeout), nil
}

// engine assembles the router. gin panics on conflicting routes, e.g. a
// health path under a static catch-all; that is returned as an error.
func (b *Backend) engine(cfg transport.ThreadConfig) (engine *gin.Engine, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			engine = nil
			err = errors.Internal("conflicting routes").WithCause(fmt.Errorf("%v", rec))
		}
	}()

	r := gin.New()
	r.Use(middleware.GinRecoveryWithConfig(middleware.RecoveryConfig{Stack: true, Logger: b.log}), middleware.RequestID())

	if b.options.Logger.Enabled {
		var skip []string
		if b.options.Health.Enabled {
			skip = append(skip, b.options.Health.Path)
		}
		r.Use(middleware.GinLoggerWithConfig(middleware.LoggerConfig{
			HeaderEnabled: b.options.Logger.Headers,
			SkipPaths:     skip,
			Logger:        b.log,
		}))
	}

	if b.options.Metrics.Enabled {
		prom := prometheus.NewPrometheus(prometheus.Config{
			Path:                      b.options.Metrics.Path,
			EnabledGoCollector:        b.options.Metrics.EnabledGoCollector,
			EnabledBuildInfoCollector: b.options.Metrics.EnabledBuildInfoCollector,
		})
		r.Use(prom.Middleware())
		prom.Register(r)
	}

	r.Use(middleware.Database(cfg.Overrides))

	if b.options.Health.Enabled {
		r.GET(b.options.Health.Path, func(c *gin.Context) {
			response.GinJSON(c, gin.H{"status": "ok"})
		})
	}

	if cfg.Static != nil && cfg.Static.Root != "" {
		r.Static(cfg.Static.URL, cfg.Static.Root)
	}

	b.routes.Register(r)

	if b.handler != nil {
		r.NoRoute(func(c *gin.Context) {
			// gin primes unmatched requests with 404; the application decides.
			c.Status(http.StatusOK)
			b.handler.ServeHTTP(c.Writer, c.Request)
		})
	}

	return r, nil
}
