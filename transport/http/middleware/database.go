package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/kochabonline/liveserver/store/db"
)

// Database makes the shared connections visible to handlers through the
// request context; see db.Lookup.
func Database(overrides db.Overrides) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(overrides) > 0 {
			c.Request = c.Request.WithContext(db.NewContext(c.Request.Context(), overrides))
		}
		c.Next()
	}
}
