package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/logger"
	"github.com/haqnow/archive/utils"
)

const APIKeyHeader = "X-API-Key"

const apiKeyContextKey = "api_key"

// APIKeyMiddleware resolves an optional X-API-Key header to its catalog
// row and stashes it on the context. It never rejects: endpoints that
// merely allow key-based bypasses (upload captcha and rate limits)
// treat a missing or invalid key as an ordinary anonymous caller.
func APIKeyMiddleware(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(APIKeyHeader)
		if presented == "" {
			c.Next()
			return
		}

		candidates, err := store.APIKeysByPrefix(c.Request.Context(), utils.APIKeyPrefix(presented))
		if err != nil {
			logger.Warn("api key lookup failed", "error", err)
			c.Next()
			return
		}

		for _, k := range candidates {
			if utils.CheckAPIKey(presented, k.KeyHash) {
				c.Set(apiKeyContextKey, k)
				if err := store.TouchAPIKey(c.Request.Context(), k.ID); err != nil {
					logger.Warn("api key usage update failed", "key_id", k.ID, "error", err)
				}
				break
			}
		}
		c.Next()
	}
}

// APIKeyFromContext returns the resolved key, if any.
func APIKeyFromContext(c *gin.Context) *catalog.APIKey {
	if v, ok := c.Get(apiKeyContextKey); ok {
		if k, ok := v.(*catalog.APIKey); ok {
			return k
		}
	}
	return nil
}

// HasAPIScope reports whether the request authenticated with a key
// carrying the given scope.
func HasAPIScope(c *gin.Context, scope string) bool {
	k := APIKeyFromContext(c)
	return k != nil && k.HasScope(scope)
}
