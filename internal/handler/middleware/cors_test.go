//go:build unit

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studio-booking/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCORSExposesBookingHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewCORSMiddleware(config.CORSConfig{
		AllowOrigins:  []string{"http://localhost:3000"},
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"content-type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        time.Hour,
	}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	exposed := strings.ToLower(w.Header().Get("Access-Control-Expose-Headers"))
	for _, h := range []string{"Idempotent-Replayed", "Retry-After", "Location"} {
		assert.Contains(t, exposed, strings.ToLower(h))
	}
}

func TestWithHeaders(t *testing.T) {
	got := withHeaders([]string{"content-type", "X-Custom"}, []string{"Content-Type", "Idempotency-Key"})
	assert.Equal(t, []string{"content-type", "X-Custom", "Idempotency-Key"}, got)
}
