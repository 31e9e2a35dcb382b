package apierr

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the stable JSON envelope every HTTP error response
// uses, regardless of Kind.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
}

// RespondWithError writes a typed ErrorResponse with the given HTTP
// status and aborts the gin context.
func RespondWithError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, ErrorResponse{ErrorCode: code, Message: message, Details: details})
}

// Respond maps an *Error to its HTTP status and writes the envelope. Any
// other error is treated as Internal with its message suppressed from
// the wire.
func Respond(c *gin.Context, err error) {
	if ae, ok := As(err); ok {
		RespondWithError(c, HTTPStatus(ae.Kind), string(ae.Kind), ae.Message, ae.Details)
		return
	}
	RespondWithError(c, HTTPStatus(Internal), string(Internal), "an unexpected error occurred", nil)
}
