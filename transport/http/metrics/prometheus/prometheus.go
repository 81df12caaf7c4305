package prometheus

import (
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	Path                      string
	Namespace                 string
	EnabledGoCollector        bool
	EnabledBuildInfoCollector bool
}

// Prometheus keeps a private registry per server so several live servers in
// one test binary never collide on metric registration.
type Prometheus struct {
	Config    Config
	Registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

func NewPrometheus(c Config) *Prometheus {
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if c.Namespace == "" {
		c.Namespace = "liveserver"
	}

	p := &Prometheus{
		Config:   c,
		Registry: prometheus.NewRegistry(),
	}

	p.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.Namespace,
		Name:      "http_requests_total",
		Help:      "Requests served by the live server.",
	}, []string{"method", "route", "status"})
	p.durations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Request latency of the live server.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	p.Registry.MustRegister(p.requests, p.durations)

	if c.EnabledGoCollector {
		p.Registry.MustRegister(collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/.*")}),
		))
	}
	if c.EnabledBuildInfoCollector {
		p.Registry.MustRegister(collectors.NewBuildInfoCollector())
	}

	return p
}

// Middleware records every request. Requests that fall through to the
// application are labelled with route "-" to keep cardinality bounded.
func (p *Prometheus) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.Config.Path {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "-"
		}
		p.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		p.durations.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Register mounts the scrape endpoint on r.
func (p *Prometheus) Register(r gin.IRouter) {
	r.GET(p.Config.Path, gin.WrapH(promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})))
}
