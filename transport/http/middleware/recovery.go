package middleware

import (
	"errors"
	"net"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	kerrors "github.com/kochabonline/liveserver/errors"
	"github.com/kochabonline/liveserver/log"
	"github.com/kochabonline/liveserver/transport/http/response"
)

type RecoveryConfig struct {
	Stack bool
	// Logger defaults to the package logger set by SetLogger.
	Logger *log.Logger
}

// GinRecoveryWithConfig turns a panicking handler into a 500 response so a
// broken application under test cannot take the server goroutine down.
func GinRecoveryWithConfig(config RecoveryConfig) gin.HandlerFunc {
	logger := config.Logger
	if logger == nil {
		logger = mlog
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			httpRequest, _ := httputil.DumpRequest(c.Request, false)
			event := logger.Error().Str("request", string(httpRequest)).Interface("panic", rec)

			// A dead connection cannot be written to.
			if err, ok := rec.(error); ok && isBrokenPipe(err) {
				event.Send()
				_ = c.Error(err)
				c.Abort()
				return
			}

			if config.Stack {
				event = event.Str("stack", string(debug.Stack()))
			}
			event.Msg("handler panicked")
			response.GinJSONError(c, kerrors.Internal("internal server error"))
		}()
		c.Next()
	}
}

func isBrokenPipe(err error) bool {
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !errors.As(ne.Err, &se) {
		return false
	}
	errStr := strings.ToLower(se.Error())
	return strings.Contains(errStr, "broken pipe") || strings.Contains(errStr, "connection reset by peer")
}
