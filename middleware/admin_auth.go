package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haqnow/archive/internal/apierr"
)

const AdminTokenHeader = "X-Admin-Token"

const adminContextKey = "is_admin"

// AdminAuthMiddleware gates the moderation/admin surface behind a shared
// bearer token. Full admin authentication and session management live in
// an external collaborator; this boundary only needs to distinguish the
// admin plane from the anonymous public surface.
func AdminAuthMiddleware(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken == "" {
			apierr.RespondWithError(c, http.StatusServiceUnavailable, "admin_disabled",
				"admin surface is not configured on this deployment", nil)
			return
		}
		presented := c.GetHeader(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(adminToken)) != 1 {
			apierr.RespondWithError(c, http.StatusUnauthorized, "unauthorized",
				"admin credentials required", nil)
			return
		}
		c.Set(adminContextKey, true)
		c.Next()
	}
}

// IsAdmin reports whether the request passed AdminAuthMiddleware.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(adminContextKey)
}

// AdminEmail returns the acting moderator identity recorded on approvals
// and rejections. The external auth collaborator forwards it per request;
// absent that, a stable placeholder keeps the audit columns populated.
func AdminEmail(c *gin.Context) string {
	if email := c.GetHeader("X-Admin-Email"); email != "" {
		return email
	}
	return "admin"
}
