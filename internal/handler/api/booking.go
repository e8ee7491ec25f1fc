package api

import (
	"net/http"
	"time"

	reqdto "studio-booking/internal/handler/dto/request"
	resdto "studio-booking/internal/handler/dto/response"
	"studio-booking/internal/handler/middleware"
	"studio-booking/internal/pkg/errs"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

type BookingHandler struct {
	commands   commands.BookingCommands
	queries    queries.BookingQueries
	retryAfter time.Duration
}

func NewBookingHandler(cmds commands.BookingCommands, qs queries.BookingQueries, retryAfter time.Duration) *BookingHandler {
	return &BookingHandler{
		commands:   cmds,
		queries:    qs,
		retryAfter: retryAfter,
	}
}

// @Summary Create booking
// @Description Price and reserve one or more studio slots. Retries with the same Idempotency-Key replay the original booking.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Request id (UUID)"
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.BookingResponse
// @Success 200 {object} resdto.BookingResponse "Replayed"
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Failure 503 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		abortMissingActor(c)
		return
	}

	requestID, err := uuid.Parse(c.GetHeader(idempotencyKeyHeader))
	if err != nil || requestID == uuid.Nil {
		abortWithDomainError(c, errs.Wrap(commands.ErrMissingRequestID, "parsing Idempotency-Key"), h.retryAfter)
		return
	}

	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err, "Invalid request format")
		return
	}

	result, err := h.commands.CreateBooking(c.Request.Context(), req.ToCommand(requestID, actor))
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}

	resp := resdto.FromBooking(result.Booking)
	if result.IsReplayed {
		c.Header(replayedHeader, "true")
		c.JSON(http.StatusOK, resp)
		return
	}
	c.Header("Location", "/api/bookings/"+result.Booking.ID().String())
	c.JSON(http.StatusCreated, resp)
}

// @Summary Get booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		abortMissingActor(c)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortBadRequest(c, err, "Invalid booking ID format")
		return
	}

	b, err := h.queries.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBooking(b))
}

// @Summary List my bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {array} resdto.BookingListResponse
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		abortMissingActor(c)
		return
	}
	var q reqdto.ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortBadRequest(c, err, "Invalid query parameters")
		return
	}

	bs, err := h.queries.ListByUser(c.Request.Context(), actor, q.Limit, q.Offset)
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingList(bs))
}

// @Summary Cancel booking
// @Description Cancels the booking and frees its slots. Canceling twice is a no-op.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		abortMissingActor(c)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortBadRequest(c, err, "Invalid booking ID format")
		return
	}

	b, err := h.commands.CancelBooking(c.Request.Context(), actor, id)
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBooking(b))
}

// @Summary Check resource availability
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Studio resource ID"
// @Param start query string true "RFC3339 start"
// @Param end query string true "RFC3339 end"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /studio-resources/{id}/availability [get]
func (h *BookingHandler) Availability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortBadRequest(c, err, "Invalid studio resource ID format")
		return
	}
	var q reqdto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortBadRequest(c, err, "Invalid query parameters")
		return
	}

	ok, err := h.queries.Availability(c.Request.Context(), id, q.Start, q.End)
	if err != nil {
		abortWithDomainError(c, err, h.retryAfter)
		return
	}
	c.JSON(http.StatusOK, resdto.AvailabilityResponse{
		StudioResourceID: id,
		StartTime:        q.Start,
		EndTime:          q.End,
		Available:        ok,
	})
}
