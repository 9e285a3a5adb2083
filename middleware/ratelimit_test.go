package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(rps, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(rps, burst).Handler())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func hit(r *gin.Engine, remote string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiter_PerClient(t *testing.T) {
	r := newLimitedRouter(1, 2)

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1:1000"))

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2:1000"), "other clients keep their own bucket")
}

func TestRateLimiter_Disabled(t *testing.T) {
	r := newLimitedRouter(0, 0)
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1:1000"))
	}
}
