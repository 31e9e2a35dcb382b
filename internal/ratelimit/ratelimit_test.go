package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSessionHashStableForSameFingerprint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mk := func() *gin.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Accept-Language", "en-US")
		req.RemoteAddr = "203.0.113.5:1234"
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = req
		return c
	}

	h1 := SessionHash(mk())
	h2 := SessionHash(mk())
	if h1 != h2 {
		t.Fatalf("expected identical fingerprints to hash the same, got %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected a 64-char hex sha256 digest, got length %d", len(h1))
	}
}

func TestSessionHashDiffersAcrossClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	req1.RemoteAddr = "203.0.113.5:1111"
	w1 := httptest.NewRecorder()
	c1, _ := gin.CreateTestContext(w1)
	c1.Request = req1

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.RemoteAddr = "198.51.100.9:2222"
	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = req2

	if SessionHash(c1) == SessionHash(c2) {
		t.Fatal("expected different remote addresses to produce different session hashes")
	}
}

func TestLimiterFailsOpenWithoutRedis(t *testing.T) {
	l := New(nil)
	ctx := context.Background()

	allowed, retryAfter, err := l.AllowBucket(ctx, "upload", 2*time.Minute)
	if err != nil || !allowed || retryAfter != 0 {
		t.Fatalf("expected fail-open allow with no redis client, got allowed=%v retryAfter=%d err=%v", allowed, retryAfter, err)
	}

	if !l.AllowOncePerWindow(ctx, "view:1:abc", time.Hour) {
		t.Fatal("expected fail-open allow with no redis client")
	}
}

func TestLimiterAllowBucketZeroWindowAlwaysAllows(t *testing.T) {
	l := New(nil)
	allowed, _, err := l.AllowBucket(context.Background(), "upload", 0)
	if err != nil || !allowed {
		t.Fatalf("expected a zero window to always allow, got allowed=%v err=%v", allowed, err)
	}
}
