package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kochabonline/liveserver/log"
)

type LoggerConfig struct {
	HeaderEnabled  bool
	HandlerEnabled bool
	// SkipPaths are path prefixes that are not logged, e.g. the health check.
	SkipPaths []string
	// Logger defaults to the package logger set by SetLogger.
	Logger *log.Logger
}

func GinLoggerWithConfig(config LoggerConfig) gin.HandlerFunc {
	logger := config.Logger
	if logger == nil {
		logger = mlog
	}

	return func(c *gin.Context) {
		if skippedPathPrefixes(c, config.SkipPaths...) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		event := logger.Debug().
			Str("method", c.Request.Method).
			Str("uri", c.Request.RequestURI).
			Dur("duration", duration).
			Int("status", c.Writer.Status()).
			Str("client_ip", c.ClientIP())

		if requestId := c.Writer.Header().Get(RequestIDHeader); requestId != "" {
			event = event.Str("request_id", requestId)
		}

		if config.HeaderEnabled {
			event = event.Any("headers", c.Request.Header)
		}

		if config.HandlerEnabled {
			event = event.Str("handler", c.HandlerName())
		}

		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}

		event.Send()
	}
}
