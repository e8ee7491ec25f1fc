package middleware

import (
	"log/slog"
	"slices"
	"strings"

	"studio-booking/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Booking clients send the idempotency key and read the replay and retry
// hints, whatever the environment configures.
var (
	bookingRequestHeaders  = []string{"Authorization", "Content-Type", idempotencyKeyHeader, requestIDHeader}
	bookingResponseHeaders = []string{"Idempotent-Replayed", "Retry-After", "Location", requestIDHeader}
)

const idempotencyKeyHeader = "Idempotency-Key"

func NewCORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     withHeaders(cfg.AllowHeaders, bookingRequestHeaders),
		ExposeHeaders:    withHeaders(cfg.ExposeHeaders, bookingResponseHeaders),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	slog.Info("CORS middleware initialized",
		"allow_origins", cfg.AllowOrigins,
		"expose_headers", corsCfg.ExposeHeaders)
	return cors.New(corsCfg)
}

func withHeaders(configured, required []string) []string {
	out := slices.Clone(configured)
	for _, h := range required {
		if !slices.ContainsFunc(out, func(c string) bool { return strings.EqualFold(c, h) }) {
			out = append(out, h)
		}
	}
	return out
}
