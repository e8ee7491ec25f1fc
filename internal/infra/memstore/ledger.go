package memstore

import (
	"context"
	"sync"
	"time"

	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/pkg/clock"

	"github.com/google/uuid"
)

type heldSlot struct {
	slot       ledger.ReservedSlot
	reservedAt time.Time
}

// resourceSlots serializes writers with writer, held only through TryLock.
// mu guards slots so readers never contend with the writer lock.
type resourceSlots struct {
	writer sync.Mutex
	mu     sync.RWMutex
	slots  []heldSlot
}

func (rs *resourceSlots) overlapping(interval ledger.Interval) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	for _, h := range rs.slots {
		if h.slot.Interval().Overlaps(interval) {
			return true
		}
	}
	return false
}

// Ledger keeps reserved slots in process with one critical section per
// resource. A Reserve that finds another writer on the resource fails fast
// with ledger.ErrSlotConflict instead of queueing.
type Ledger struct {
	resources sync.Map // uuid.UUID -> *resourceSlots
	clock     clock.Clock

	mu        sync.Mutex
	byBooking map[uuid.UUID][]uuid.UUID
}

func NewLedger(clk clock.Clock) *Ledger {
	return &Ledger{clock: clk, byBooking: make(map[uuid.UUID][]uuid.UUID)}
}

func (l *Ledger) resource(id uuid.UUID) *resourceSlots {
	v, _ := l.resources.LoadOrStore(id, &resourceSlots{})
	return v.(*resourceSlots)
}

func (l *Ledger) IsAvailable(_ context.Context, resourceID uuid.UUID, interval ledger.Interval) (bool, error) {
	v, ok := l.resources.Load(resourceID)
	if !ok {
		return true, nil
	}
	return !v.(*resourceSlots).overlapping(interval), nil
}

// Reserve rejects any overlap, including one with a slot the same booking
// already holds.
func (l *Ledger) Reserve(_ context.Context, slot ledger.ReservedSlot) error {
	rs := l.resource(slot.ResourceID())
	if !rs.writer.TryLock() {
		return ledger.Conflict(slot.ResourceID(), slot.Interval())
	}
	defer rs.writer.Unlock()

	if rs.overlapping(slot.Interval()) {
		return ledger.Conflict(slot.ResourceID(), slot.Interval())
	}
	rs.mu.Lock()
	rs.slots = append(rs.slots, heldSlot{slot: slot, reservedAt: l.clock.Now()})
	rs.mu.Unlock()

	l.mu.Lock()
	l.byBooking[slot.BookingID()] = append(l.byBooking[slot.BookingID()], slot.ResourceID())
	l.mu.Unlock()
	return nil
}

// Release drops every slot held by bookingID. Unknown bookings are a no-op.
func (l *Ledger) Release(_ context.Context, bookingID uuid.UUID) error {
	l.mu.Lock()
	resourceIDs := l.byBooking[bookingID]
	delete(l.byBooking, bookingID)
	l.mu.Unlock()

	for _, id := range resourceIDs {
		v, ok := l.resources.Load(id)
		if !ok {
			continue
		}
		rs := v.(*resourceSlots)
		rs.mu.Lock()
		kept := rs.slots[:0]
		for _, h := range rs.slots {
			if h.slot.BookingID() != bookingID {
				kept = append(kept, h)
			}
		}
		rs.slots = kept
		rs.mu.Unlock()
	}
	return nil
}

// Holders lists the bookings holding at least one slot reserved before
// reservedBefore.
func (l *Ledger) Holders(_ context.Context, reservedBefore time.Time) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	l.resources.Range(func(_, v any) bool {
		rs := v.(*resourceSlots)
		rs.mu.RLock()
		defer rs.mu.RUnlock()
		for _, h := range rs.slots {
			if !h.reservedAt.Before(reservedBefore) {
				continue
			}
			if _, ok := seen[h.slot.BookingID()]; !ok {
				seen[h.slot.BookingID()] = struct{}{}
				out = append(out, h.slot.BookingID())
			}
		}
		return true
	})
	return out, nil
}
