package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kochabonline/liveserver/errors"
)

type Response struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

func GinJSON(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: http.StatusOK, Data: data, Message: "success"})
}

// GinJSONError aborts the request with the status carried by err.
func GinJSONError(c *gin.Context, err error) {
	defer c.Abort()

	e := errors.FromError(err)
	httpCode := int(e.Code)

	if http.StatusText(httpCode) == "" {
		httpCode = http.StatusInternalServerError
	}

	c.JSON(httpCode, Response{Code: int(e.Code), Reason: e.Reason, Message: e.Message})
}
