package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"
	"studio-booking/internal/handler/httperr"
	"studio-booking/internal/pkg/errs"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/shared"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{ledger.ErrSlotConflict, http.StatusConflict, "SLOT_CONFLICT", "Slot no longer available"},
	{commands.ErrIdempotencyKeyReuse, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED", "Idempotency key was already used for a different request"},
	{pricing.ErrNoPricingConfigured, http.StatusUnprocessableEntity, "NO_PRICING_CONFIGURED", "No pricing configured for the requested date"},
	{booking.ErrInvalidTimeWindow, http.StatusBadRequest, "INVALID_TIME_WINDOW", "Invalid time window"},
	{ledger.ErrInvalidInterval, http.StatusBadRequest, "INVALID_TIME_WINDOW", "Invalid time window"},
	{pricing.ErrInvalidCatalogEntry, http.StatusUnprocessableEntity, "INVALID_CATALOG_ENTRY", "Invalid catalog entry"},
	{booking.ErrNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found"},
	{booking.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "Booking belongs to another user"},
	{studio.ErrStudioTypeNotFound, http.StatusNotFound, "STUDIO_TYPE_NOT_FOUND", "Studio type not found"},
	{studio.ErrResourceNotFound, http.StatusNotFound, "STUDIO_RESOURCE_NOT_FOUND", "Studio resource not found"},
	{studio.ErrServiceNotFound, http.StatusNotFound, "SERVICE_NOT_FOUND", "Service not found"},
	{studio.ErrNoResourceAvailable, http.StatusNotFound, "NO_STUDIO_RESOURCE", "No studio resource at this location"},
	{booking.ErrNoSlots, http.StatusBadRequest, "NO_SLOTS", "At least one slot is required"},
	{booking.ErrInvalidContacts, http.StatusBadRequest, "INVALID_CONTACT", "Phone number is required"},
	{booking.ErrNoteTooLong, http.StatusBadRequest, "NOTE_TOO_LONG", "Note is too long"},
	{commands.ErrMissingRequestID, http.StatusBadRequest, "IDEMPOTENCY_KEY_REQUIRED", "Idempotency-Key header is required"},
	{pricing.ErrAmountOverflow, http.StatusUnprocessableEntity, "AMOUNT_OVERFLOW", "Price is too large"},
}

// abortWithDomainError renders err as a structured error. Transient failures
// get 503 with Retry-After; clients retry them with the same Idempotency-Key.
func abortWithDomainError(c *gin.Context, err error, retryAfter time.Duration) {
	if errs.Is(err, shared.ErrTransient) {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		httperr.AbortWithCode(c, http.StatusServiceUnavailable, err, "TRANSIENT", "Temporary failure, retry later", nil)
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			httperr.AbortWithCode(c, m.status, err, m.code, m.message, nil)
			return
		}
	}
	httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
}

func abortBadRequest(c *gin.Context, err error, msg string) {
	httperr.AbortWithCode(c, http.StatusBadRequest, errs.Wrap(httperr.ErrBadRequest, err.Error()), "BAD_REQUEST", msg, nil)
}

func abortMissingActor(c *gin.Context) {
	httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error", nil)
}

var errMissingActor = errs.New("handler reached without an authenticated actor")
