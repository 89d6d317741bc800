package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRemainingAfterClampsAtZero(t *testing.T) {
	require.Equal(t, 9, remainingAfter(10, 1))
	require.Equal(t, 0, remainingAfter(10, 10))
	require.Equal(t, 0, remainingAfter(10, 11))
	require.Equal(t, 0, remainingAfter(10, 500))
}

func TestRateLimitPassesThroughWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", RateLimit(nil, 10, 0, KeyByIPAndPath()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestKeyByIPAndPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var key string
	r := gin.New()
	r.Use(RealIP())
	r.POST("/login", func(c *gin.Context) {
		key = KeyByIPAndPath()(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "rl:path:/login:ip:203.0.113.9", key)
}
