package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haqnow/archive/internal/apierr"
)

// RequestSizeLimit rejects requests whose declared Content-Length exceeds
// maxSize before any body bytes are read.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			apierr.RespondWithError(c, http.StatusRequestEntityTooLarge,
				string(apierr.InputInvalid),
				"request body exceeds maximum size",
				gin.H{
					"max_size_bytes": maxSize,
					"received_bytes": c.Request.ContentLength,
				})
			return
		}
		c.Next()
	}
}

