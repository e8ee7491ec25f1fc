package queries

import (
	"context"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"
	"studio-booking/internal/infra"
	"studio-booking/internal/pkg/errs"
	"studio-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type BookingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*booking.Booking, error)
}

type AvailabilityReader interface {
	IsAvailable(ctx context.Context, resourceID uuid.UUID, interval ledger.Interval) (bool, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*booking.Booking, error)
	ListByUser(ctx context.Context, actor shared.Actor, limit, offset int) ([]*booking.Booking, error)
	Availability(ctx context.Context, resourceID uuid.UUID, start, end time.Time) (bool, error)
}

type bookingQueriesImpl struct {
	bookings  BookingReader
	ledger    AvailabilityReader
	directory shared.StudioDirectory
}

func NewBookingQueries(bookings BookingReader, ledger AvailabilityReader, directory shared.StudioDirectory) BookingQueries {
	return &bookingQueriesImpl{bookings: bookings, ledger: ledger, directory: directory}
}

// GetByID hides bookings of other users behind ErrNotFound unless the
// caller is an admin.
func (q *bookingQueriesImpl) GetByID(ctx context.Context, actor shared.Actor, id uuid.UUID) (*booking.Booking, error) {
	b, err := q.bookings.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Wrapf(booking.ErrNotFound, "%s", id)
		}
		return nil, shared.Transient(err, "loading booking")
	}
	if !actor.IsAdmin() && b.UserID() != actor.UserID {
		return nil, errs.Wrapf(booking.ErrNotFound, "%s", id)
	}
	return b, nil
}

func (q *bookingQueriesImpl) ListByUser(ctx context.Context, actor shared.Actor, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := q.bookings.ListByUser(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, shared.Transient(err, "listing bookings")
	}
	return rows, nil
}

func (q *bookingQueriesImpl) Availability(ctx context.Context, resourceID uuid.UUID, start, end time.Time) (bool, error) {
	interval, err := ledger.NewInterval(start, end)
	if err != nil {
		return false, errs.Wrap(booking.ErrInvalidTimeWindow, err.Error())
	}
	if _, err := q.directory.Resource(ctx, resourceID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return false, errs.Wrapf(studio.ErrResourceNotFound, "%s", resourceID)
		}
		return false, shared.Transient(err, "loading resource")
	}
	ok, err := q.ledger.IsAvailable(ctx, resourceID, interval)
	if err != nil {
		return false, shared.Transient(err, "checking availability")
	}
	return ok, nil
}

type CatalogQueries interface {
	FindTablesCovering(ctx context.Context, studioTypeID uuid.UUID, date pricing.Date) ([]*pricing.PriceTable, error)
}

type catalogQueriesImpl struct {
	catalog shared.CatalogReader
}

func NewCatalogQueries(catalog shared.CatalogReader) CatalogQueries {
	return &catalogQueriesImpl{catalog: catalog}
}

func (q *catalogQueriesImpl) FindTablesCovering(ctx context.Context, studioTypeID uuid.UUID, date pricing.Date) ([]*pricing.PriceTable, error) {
	tables, err := q.catalog.FindTablesCovering(ctx, studioTypeID, date)
	if err != nil {
		return nil, shared.Transient(err, "finding covering tables")
	}
	return tables, nil
}
