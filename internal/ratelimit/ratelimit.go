// Package ratelimit implements the anonymous, identity-free limiting
// the archive uses: upload and original-file download share a
// global time-bucket counter keyed on nothing but the clock (explicitly
// not the caller's IP, a documented privacy feature), while per-document
// comment/annotation/view-count limits scope to a session fingerprint
// hash instead. Both paths are Redis INCR/SETNX with an EXPIRE, failing
// open on Redis error.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/haqnow/archive/internal/logger"
)

// Limiter is safe for concurrent use; rdb may be nil in tests, in which
// case every check allows (the same fail-open posture as a Redis outage).
type Limiter struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

// SessionHash derives a stable per-client fingerprint from request-level
// bytes (remote IP, User-Agent, Accept-Language). It is never persisted;
// it only scopes rate limits and view-count suppression.
func SessionHash(c *gin.Context) string {
	fingerprint := c.ClientIP() + "|" + c.GetHeader("User-Agent") + "|" + c.GetHeader("Accept-Language")
	sum := sha256.Sum256([]byte(fingerprint))
	return hex.EncodeToString(sum[:])
}

// AllowBucket enforces the time-bucket-only semantics: the
// counter key is derived purely from the current window index, not from
// any per-client identifier, so unrelated callers smooth each other's
// windows rather than being tracked individually, a global smoothing
// semantic. Fails open on Redis error.
func (l *Limiter) AllowBucket(ctx context.Context, scope string, window time.Duration) (bool, int, error) {
	if l.rdb == nil || window <= 0 {
		return true, 0, nil
	}

	bucket := time.Now().Unix() / int64(window.Seconds())
	key := fmt.Sprintf("ratelimit:bucket:%s:%d", scope, bucket)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		logger.Warn("ratelimit: redis unavailable, failing open", "scope", scope, "error", err)
		return true, 0, nil
	}
	if count == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	if count > 1 {
		ttl, _ := l.rdb.TTL(ctx, key).Result()
		retryAfter := int(ttl.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter, nil
	}
	return true, 0, nil
}

// AllowOncePerWindow is an idempotent SETNX, the "at most once per
// (subject, window)" semantics used for per-session view-count
// suppression. Fails open on Redis error, which risks a
// double-counted view rather than blocking the read.
func (l *Limiter) AllowOncePerWindow(ctx context.Context, subject string, window time.Duration) bool {
	if l.rdb == nil || window <= 0 {
		return true
	}

	key := "ratelimit:once:" + subject
	ok, err := l.rdb.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		logger.Warn("ratelimit: redis unavailable, failing open", "subject", subject, "error", err)
		return true
	}
	return ok
}
