package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.POST("/api/ai/generate", func(c *gin.Context) {
		c.JSON(200, gin.H{"success": true})
	})
	return router
}

func hitFrom(router *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ai/generate", nil)
	req.RemoteAddr = ip + ":40000"
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_WithinBudget(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(10, 10))

	if code := hitFrom(router, "192.168.1.1"); code != http.StatusOK {
		t.Errorf("first request should pass, got %d", code)
	}
}

func TestRateLimiter_RejectsPastBurst(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(1, 2))

	var lastCode int
	for i := 0; i < 5; i++ {
		lastCode = hitFrom(router, "10.0.0.1")
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 once the burst is spent, got %d", lastCode)
	}
}

func TestRateLimiter_BudgetsArePerIP(t *testing.T) {
	router := newLimitedRouter(NewRateLimiter(1, 1))

	if code := hitFrom(router, "10.0.0.1"); code != http.StatusOK {
		t.Errorf("first IP should pass, got %d", code)
	}

	// A second address has its own untouched bucket.
	if code := hitFrom(router, "10.0.0.2"); code != http.StatusOK {
		t.Errorf("second IP should pass, got %d", code)
	}
}
