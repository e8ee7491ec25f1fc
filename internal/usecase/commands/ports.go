package commands

import (
	"context"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/domain/pricing"

	"github.com/google/uuid"
)

// ItemCheck runs inside the repository's critical section for the owning
// table, with the table's other items and the row being replaced.
type ItemCheck func(siblings []*pricing.PriceItem, previous *pricing.PriceItem, ruleCount int) error

// RuleCheck runs inside the repository's critical section for the owning
// item, with every rule currently stored for it.
type RuleCheck func(siblings []*pricing.PriceRule) error

// CatalogRepository stores pricing configuration. Every write bumps the
// catalog version. A missing parent row is reported as infra.KindNotFound.
type CatalogRepository interface {
	UpsertTable(ctx context.Context, t *pricing.PriceTable) error
	UpsertItem(ctx context.Context, item *pricing.PriceItem, check ItemCheck) error
	UpsertRule(ctx context.Context, rule *pricing.PriceRule, check RuleCheck) error
	// AdvanceLifecycle applies advance to every table that is not ended and
	// persists the ones it changed.
	AdvanceLifecycle(ctx context.Context, advance func(*pricing.PriceTable) (*pricing.PriceTable, bool)) (int, error)
}

// SlotLedger serializes check-then-write per resource and fails fast with
// ledger.ErrSlotConflict on overlap or contention.
type SlotLedger interface {
	IsAvailable(ctx context.Context, resourceID uuid.UUID, interval ledger.Interval) (bool, error)
	Reserve(ctx context.Context, slot ledger.ReservedSlot) error
	Release(ctx context.Context, bookingID uuid.UUID) error
	// Holders lists the bookings holding a slot reserved before reservedBefore.
	Holders(ctx context.Context, reservedBefore time.Time) ([]uuid.UUID, error)
}

// BookingRepository persists bookings together with their outbox event.
// Saving a second booking with the same request id fails with
// infra.KindDuplicateKey.
type BookingRepository interface {
	Save(ctx context.Context, b *booking.Booking, event booking.Event) error
	MarkCanceled(ctx context.Context, b *booking.Booking, event booking.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*booking.Booking, error)
}

// Outbox holds booking events written alongside booking state changes.
type Outbox interface {
	Pending(ctx context.Context, limit int) ([]booking.Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// EventPublisher delivers events downstream. Delivery is at least once.
type EventPublisher interface {
	Publish(ctx context.Context, events []booking.Event) error
}
