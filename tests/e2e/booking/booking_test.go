//go:build e2e

package booking_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"studio-booking/internal/domain/user"
	resdto "studio-booking/internal/handler/dto/response"
	"studio-booking/tests/common/authtest"
	"studio-booking/tests/common/builder"
	"studio-booking/tests/common/dbtest"
	"studio-booking/tests/common/httptest"
	"studio-booking/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL     = "/api/bookings"
	bookingURL      = "/api/bookings/%s"
	cancelURL       = "/api/bookings/%s/cancel"
	availabilityURL = "/api/studio-resources/%s/availability?start=%s&end=%s"

	defaultPerHour = int64(200000)
)

type BookingSuite struct {
	e2e.SharedSuite
	jwt *authtest.JWTHelper
}

func (s *BookingSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.jwt = authtest.NewJWTHelper(s.Config.JWT)
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

func (s *BookingSuite) newBooking() *builder.BookingBuilder {
	return builder.NewBookingBuilder().With(func(b *builder.BookingBuilder) {
		b.StudioTypeID = dbtest.StudioTypeID
		b.LocationID = dbtest.LocationID
		b.ResourceID = dbtest.ResourceAID
	})
}

func (s *BookingSuite) seedCatalog(t *testing.T) {
	dbtest.CreateTestPriceTable(t, s.DB, dbtest.StudioTypeID,
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), 0, defaultPerHour)
}

func idempotencyHeader(id uuid.UUID) map[string]string {
	return map[string]string{"Idempotency-Key": id.String()}
}

func availabilityPath(resourceID uuid.UUID, start, end time.Time) string {
	return fmt.Sprintf(availabilityURL, resourceID,
		url.QueryEscape(start.Format(time.RFC3339)), url.QueryEscape(end.Format(time.RFC3339)))
}

func (s *BookingSuite) TestBookingLifecycle() {
	s.Run("Normal case: create, replay, read, cancel and rebook", func() {
		t := s.T()
		s.seedCatalog(t)

		userID := uuid.New()
		token := s.jwt.GenerateToken(t, userID, user.RoleCustomer)
		b := s.newBooking()
		body := b.BuildCreateRequestDTO()

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, body, idempotencyHeader(b.RequestID), token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created resdto.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
		assert.Equal(t, "/api/bookings/"+created.ID.String(), w.Header().Get("Location"))
		assert.Equal(t, "CONFIRMED", created.Status)
		assert.Equal(t, userID, created.UserID)
		assert.Equal(t, b.RequestID, created.RequestID)
		assert.Equal(t, 2*defaultPerHour, created.Price.Total)
		require.Len(t, created.Price.Lines, 1)
		assert.Equal(t, dbtest.ResourceAID, created.Price.Lines[0].ResourceID)
		assert.Equal(t, 1, dbtest.CountReservedSlots(t, s.DB, dbtest.ResourceAID))

		// retry with the same key
		w = httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, body, idempotencyHeader(b.RequestID), token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))

		var replayed resdto.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &replayed))
		if diff := cmp.Diff(created, replayed, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
			t.Errorf("replayed booking mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, 1, dbtest.CountReservedSlots(t, s.DB, dbtest.ResourceAID))

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(bookingURL, created.ID), nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, availabilityPath(dbtest.ResourceAID, b.Start, b.End), nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var avail resdto.AvailabilityResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &avail))
		assert.False(t, avail.Available)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL, nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var list []resdto.BookingListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &list))
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, created.ID), nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var canceled resdto.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &canceled))
		assert.Equal(t, "CANCELED", canceled.Status)
		assert.Equal(t, 0, dbtest.CountReservedSlots(t, s.DB, dbtest.ResourceAID))

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, availabilityPath(dbtest.ResourceAID, b.Start, b.End), nil, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &avail))
		assert.True(t, avail.Available)

		again := s.newBooking()
		w = httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, again.BuildCreateRequestDTO(), idempotencyHeader(again.RequestID), token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	s.Run("Error case: another customer cannot read or cancel the booking", func() {
		t := s.T()
		s.seedCatalog(t)

		owner := s.jwt.GenerateToken(t, uuid.New(), user.RoleCustomer)
		other := s.jwt.GenerateToken(t, uuid.New(), user.RoleCustomer)
		b := s.newBooking()

		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, b.BuildCreateRequestDTO(), idempotencyHeader(b.RequestID), owner)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var created resdto.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, created.ID), nil, other)
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		assert.Equal(t, 1, dbtest.CountReservedSlots(t, s.DB, dbtest.ResourceAID))
	})
}

func (s *BookingSuite) TestCreateBookingErrors() {
	s.Run("Error case: overlapping slot on the same room is rejected", func() {
		t := s.T()
		s.seedCatalog(t)
		token := s.jwt.GenerateToken(t, uuid.New(), user.RoleCustomer)

		first := s.newBooking()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, first.BuildCreateRequestDTO(), idempotencyHeader(first.RequestID), token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		overlap := s.newBooking().With(func(b *builder.BookingBuilder) {
			b.Start = first.Start.Add(time.Hour)
			b.End = first.End.Add(time.Hour)
		})
		w = httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, overlap.BuildCreateRequestDTO(), idempotencyHeader(overlap.RequestID), token)
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
		assert.Equal(t, 1, dbtest.CountReservedSlots(t, s.DB, dbtest.ResourceAID))
	})

	s.Run("Normal case: adjacent slot on the same room is accepted", func() {
		t := s.T()
		s.seedCatalog(t)
		token := s.jwt.GenerateToken(t, uuid.New(), user.RoleCustomer)

		first := s.newBooking()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, first.BuildCreateRequestDTO(), idempotencyHeader(first.RequestID), token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		next := s.newBooking().With(func(b *builder.BookingBuilder) {
			b.Start = first.End
			b.End = first.End.Add(time.Hour)
		})
		w = httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, next.BuildCreateRequestDTO(), idempotencyHeader(next.RequestID), token)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, 2, dbtest.CountReservedSlots(t, s.DB, dbtest.ResourceAID))
	})

	s.Run("Error case: no price table covers the date", func() {
		t := s.T()
		token := s.jwt.GenerateToken(t, uuid.New(), user.RoleCustomer)

		b := s.newBooking()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, b.BuildCreateRequestDTO(), idempotencyHeader(b.RequestID), token)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		assert.Equal(t, 0, dbtest.CountReservedSlots(t, s.DB, dbtest.ResourceAID))
	})

	s.Run("Error case: slot past the latest end time", func() {
		t := s.T()
		s.seedCatalog(t)
		token := s.jwt.GenerateToken(t, uuid.New(), user.RoleCustomer)

		b := s.newBooking().With(func(b *builder.BookingBuilder) {
			b.Start = time.Date(2030, time.June, 1, 22, 0, 0, 0, b.Start.Location())
			b.End = b.Start.Add(90 * time.Minute)
		})
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, b.BuildCreateRequestDTO(), idempotencyHeader(b.RequestID), token)
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})

	s.Run("Error case: unknown studio type", func() {
		t := s.T()
		s.seedCatalog(t)
		token := s.jwt.GenerateToken(t, uuid.New(), user.RoleCustomer)

		b := s.newBooking().With(func(b *builder.BookingBuilder) {
			b.StudioTypeID = uuid.New()
		})
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, b.BuildCreateRequestDTO(), idempotencyHeader(b.RequestID), token)
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	})

	s.Run("Error case: missing token", func() {
		t := s.T()
		b := s.newBooking()
		w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, b.BuildCreateRequestDTO(), idempotencyHeader(b.RequestID), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func (s *BookingSuite) TestConcurrentBookings() {
	s.Run("Normal case: exactly one of many requests for the same slot wins", func() {
		t := s.T()
		s.seedCatalog(t)

		const callers = 8
		codes := make([]int, callers)
		var wg sync.WaitGroup
		for i := range callers {
			b := s.newBooking()
			token := s.jwt.GenerateToken(t, uuid.New(), user.RoleCustomer)
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, b.BuildCreateRequestDTO(), idempotencyHeader(b.RequestID), token)
				codes[i] = w.Code
			}()
		}
		wg.Wait()

		created := 0
		for _, code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict, http.StatusServiceUnavailable:
			default:
				t.Errorf("unexpected status %d", code)
			}
		}
		assert.Equal(t, 1, created)
		assert.Equal(t, 1, dbtest.CountReservedSlots(t, s.DB, dbtest.ResourceAID))
	})

	s.Run("Normal case: concurrent retries of one request create one booking", func() {
		t := s.T()
		s.seedCatalog(t)

		const callers = 5
		b := s.newBooking()
		token := s.jwt.GenerateToken(t, uuid.New(), user.RoleCustomer)
		ids := make([]uuid.UUID, callers)
		codes := make([]int, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, bookingsURL, b.BuildCreateRequestDTO(), idempotencyHeader(b.RequestID), token)
				codes[i] = w.Code
				var resp resdto.BookingResponse
				if json.Unmarshal(w.Body.Bytes(), &resp) == nil {
					ids[i] = resp.ID
				}
			}()
		}
		wg.Wait()

		for i, code := range codes {
			assert.Contains(t, []int{http.StatusCreated, http.StatusOK}, code)
			assert.Equal(t, ids[0], ids[i])
		}
		assert.Equal(t, 1, dbtest.CountReservedSlots(t, s.DB, dbtest.ResourceAID))
	})
}
