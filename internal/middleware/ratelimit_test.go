package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/api/auth/login", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func loginFrom(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_AllowsNormalRequests(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	defer rl.Stop()

	if w := loginFrom(limitedRouter(rl), "192.168.1.1:12345"); w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimit_BlocksExcessiveRequests(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()
	router := limitedRouter(rl)

	var last *httptest.ResponseRecorder
	for i := 0; i < 5; i++ {
		last = loginFrom(router, "10.0.0.1:12345")
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d after burst exceeded, got %d", http.StatusTooManyRequests, last.Code)
	}
	body := decodeEnvelope(t, last)
	if body.Success || body.Message == "" {
		t.Errorf("unexpected body %+v", body)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("Retry-After should be set")
	}
}

func TestRateLimit_IndependentPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	router := limitedRouter(rl)

	if w := loginFrom(router, "10.0.0.1:12345"); w.Code != http.StatusOK {
		t.Errorf("IP1 first request: expected %d, got %d", http.StatusOK, w.Code)
	}
	if w := loginFrom(router, "10.0.0.2:12345"); w.Code != http.StatusOK {
		t.Errorf("IP2 first request: expected %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRateLimit_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	rl.limiterFor("10.0.0.1")
	rl.limiterFor("10.0.0.2")
	rl.clients["10.0.0.1"].lastSeen = time.Now().Add(-2 * limiterIdleTTL)

	rl.evictIdle(time.Now())

	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Error("idle client should be evicted")
	}
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Error("active client should be kept")
	}
	rl.Stop()
}
