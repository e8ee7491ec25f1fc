//go:build unit

package middleware_test

import (
	"net/http"
	"testing"
	"time"

	"studio-booking/internal/domain/user"
	"studio-booking/internal/handler/middleware"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/pkg/jwt"
	"studio-booking/internal/usecase"
	"studio-booking/tests/common/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-test-secret"

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := middleware.NewAuthMiddleware(usecase.NewTokenValidator(jwt.NewService(secret)))

	r := gin.New()
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		actor, _ := middleware.GetActor(c)
		c.JSON(http.StatusOK, gin.H{"userId": actor.UserID, "role": actor.Role})
	})
	r.GET("/admin", auth.RequireAuth(), auth.RequireRole(user.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	r := newAuthRouter()
	svc := jwt.NewService(secret)
	userID := uuid.New()

	valid, err := svc.GenerateToken(userID, user.RoleCustomer, time.Hour)
	require.NoError(t, err)
	expired, err := svc.GenerateToken(userID, user.RoleCustomer, -time.Minute)
	require.NoError(t, err)
	foreign, err := jwt.NewService("other-secret").GenerateToken(userID, user.RoleCustomer, time.Hour)
	require.NoError(t, err)

	t.Run("valid token exposes the actor", func(t *testing.T) {
		w := httptest.PerformRequest(t, r, http.MethodGet, "/me", nil, valid)

		var body struct {
			UserID uuid.UUID `json:"userId"`
			Role   string    `json:"role"`
		}
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &body)
		assert.Equal(t, userID, body.UserID)
		assert.Equal(t, "customer", body.Role)
	})

	for name, token := range map[string]string{
		"missing token":    "",
		"expired token":    expired,
		"wrong secret":     foreign,
		"not a jwt at all": "abc.def",
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.PerformRequest(t, r, http.MethodGet, "/me", nil, token)
			httptest.AssertErrorResponse(t, w, http.StatusUnauthorized, "")
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newAuthRouter()
	svc := jwt.NewService(secret)

	customer, err := svc.GenerateToken(uuid.New(), user.RoleCustomer, time.Hour)
	require.NoError(t, err)
	admin, err := svc.GenerateToken(uuid.New(), user.RoleAdmin, time.Hour)
	require.NoError(t, err)

	w := httptest.PerformRequest(t, r, http.MethodGet, "/admin", nil, customer)
	httptest.AssertErrorResponse(t, w, http.StatusForbidden, "Insufficient permissions")

	w = httptest.PerformRequest(t, r, http.MethodGet, "/admin", nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := middleware.NewRateLimiter(config.BookingConfig{RateLimitRPS: 0.001, RateLimitBurst: 2})

	r := gin.New()
	r.POST("/bookings", limiter.Limit(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for range 2 {
		w := httptest.PerformRequest(t, r, http.MethodPost, "/bookings", nil, "")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.PerformRequest(t, r, http.MethodPost, "/bookings", nil, "")
	httptest.AssertErrorResponse(t, w, http.StatusTooManyRequests, "Too many requests")
	httptest.AssertHeaders(t, w, map[string]string{"Retry-After": "1"})
}

func TestLoggingMiddlewareEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := middleware.NewLogger(config.LogConfig{Level: "error", TimeZone: "UTC", TimeFormat: time.RFC3339})

	r := gin.New()
	r.Use(logger.LoggingMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetRequestID(c))
	})

	w := httptest.PerformRequestWithHeaders(t, r, http.MethodGet, "/ping", nil, map[string]string{"X-Request-ID": "req-42"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.PerformRequest(t, r, http.MethodGet, "/ping", nil, "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
