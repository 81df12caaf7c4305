package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kochabonline/liveserver/log"
)

var (
	mlog = log.New(log.WithComponent("liveserver.http"))
)

// SetLogger replaces the logger used by every middleware in this package.
func SetLogger(logger *log.Logger) {
	if logger != nil {
		mlog = logger
	}
}

func skippedPathPrefixes(c *gin.Context, prefixes ...string) bool {
	path := c.Request.URL.Path
	for _, prefix := range prefixes {
		if path == prefix || len(path) > len(prefix) && path[:len(prefix)] == prefix {
			return true
		}
	}

	return false
}
