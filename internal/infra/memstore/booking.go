package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/infra"

	"github.com/google/uuid"
)

type outboxEntry struct {
	event       booking.Event
	publishedAt *time.Time
}

// Bookings stores bookings and their outbox in process. Stored bookings are
// copies, so callers mutating a returned booking do not change the store
// until they write it back.
type Bookings struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]*booking.Booking
	byRequest map[uuid.UUID]uuid.UUID
	outbox    []outboxEntry
}

func NewBookings() *Bookings {
	return &Bookings{
		byID:      make(map[uuid.UUID]*booking.Booking),
		byRequest: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *Bookings) Save(_ context.Context, b *booking.Booking, event booking.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byRequest[b.RequestID()]; ok {
		return infra.NewRepoErr(infra.KindDuplicateKey, "booking request "+b.RequestID().String())
	}
	if _, ok := s.byID[b.ID()]; ok {
		return infra.NewRepoErr(infra.KindDuplicateKey, "booking "+b.ID().String())
	}
	s.byID[b.ID()] = clone(b)
	s.byRequest[b.RequestID()] = b.ID()
	s.outbox = append(s.outbox, outboxEntry{event: event})
	return nil
}

func (s *Bookings) MarkCanceled(_ context.Context, b *booking.Booking, event booking.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[b.ID()]; !ok {
		return infra.NewRepoErr(infra.KindNotFound, "booking "+b.ID().String())
	}
	s.byID[b.ID()] = clone(b)
	s.outbox = append(s.outbox, outboxEntry{event: event})
	return nil
}

func (s *Bookings) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking "+id.String())
	}
	return clone(b), nil
}

func (s *Bookings) FindByRequestID(_ context.Context, requestID uuid.UUID) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byRequest[requestID]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking request "+requestID.String())
	}
	return clone(s.byID[id]), nil
}

// ListByUser returns the user's bookings, newest first.
func (s *Bookings) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*booking.Booking
	for _, b := range s.byID {
		if b.UserID() == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().After(out[j].CreatedAt())
		}
		return out[i].ID().String() < out[j].ID().String()
	})
	if offset >= len(out) {
		return []*booking.Booking{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	res := make([]*booking.Booking, len(out))
	for i, b := range out {
		res[i] = clone(b)
	}
	return res, nil
}

func (s *Bookings) Pending(_ context.Context, limit int) ([]booking.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.Event
	for _, e := range s.outbox {
		if e.publishedAt != nil {
			continue
		}
		out = append(out, e.event)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Bookings) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for i := range s.outbox {
		if _, ok := set[s.outbox[i].event.ID]; ok && s.outbox[i].publishedAt == nil {
			t := at.UTC()
			s.outbox[i].publishedAt = &t
		}
	}
	return nil
}

func clone(b *booking.Booking) *booking.Booking {
	return booking.ReconstructBooking(booking.ReconstructParams{
		ID:           b.ID(),
		RequestID:    b.RequestID(),
		RequestHash:  b.RequestHash(),
		UserID:       b.UserID(),
		StudioTypeID: b.StudioTypeID(),
		LocationID:   b.LocationID(),
		PhoneNumber:  b.PhoneNumber(),
		Note:         b.Note(),
		PaymentInfo:  b.PaymentInfo(),
		Status:       b.Status(),
		Slots:        append([]booking.Slot(nil), b.Slots()...),
		Snapshot:     b.Snapshot(),
		CreatedAt:    b.CreatedAt(),
		UpdatedAt:    b.UpdatedAt(),
	})
}
