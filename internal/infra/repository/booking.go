package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/infra"
	"studio-booking/internal/infra/db"
	"studio-booking/internal/infra/uow"
	"studio-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const selectBookingColumns = `b.id, b.request_id, b.request_hash, b.user_id, b.studio_type_id, b.location_id,
	b.phone_number, b.note, b.payment_info, b.status, b.price_snapshot, b.created_at, b.updated_at`

// BookingRepository stores bookings, their slots and the booking_events
// outbox. A state change and its event are always written in one transaction.
type BookingRepository struct {
	uow    *uow.PostgresUoW
	logger *slog.Logger
}

func NewBookingRepository(u *uow.PostgresUoW, logger *slog.Logger) *BookingRepository {
	return &BookingRepository{uow: u, logger: logger}
}

func (r *BookingRepository) wrap(msg string, err error) error {
	return infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), msg, err)
}

func (r *BookingRepository) Save(ctx context.Context, b *booking.Booking, event booking.Event) error {
	snapshot, err := json.Marshal(b.Snapshot())
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode price snapshot", err)
	}
	return r.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO bookings (id, request_id, request_hash, user_id, studio_type_id, location_id,
				phone_number, note, payment_info, status, price_snapshot, total_price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			b.ID(), b.RequestID(), b.RequestHash(), b.UserID(), b.StudioTypeID(), b.LocationID(),
			b.PhoneNumber(), b.Note(), b.PaymentInfo(), b.Status().String(), snapshot, b.Snapshot().Total,
			b.CreatedAt(), b.UpdatedAt())
		if err != nil {
			return r.wrap("failed to insert booking", err)
		}

		for i, s := range b.Slots() {
			serviceIDs := s.ServiceIDs
			if serviceIDs == nil {
				serviceIDs = []uuid.UUID{}
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO booking_slots (booking_id, position, resource_id, start_at, end_at, service_ids)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				b.ID(), i, s.ResourceID, s.Interval.Start(), s.Interval.End(), serviceIDs)
			if err != nil {
				return r.wrap("failed to insert booking slot", err)
			}
		}
		return r.insertEvent(ctx, tx, event)
	})
}

func (r *BookingRepository) MarkCanceled(ctx context.Context, b *booking.Booking, event booking.Event) error {
	return r.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		tag, err := tx.Exec(ctx, `
			UPDATE bookings SET status = $2, updated_at = $3
			WHERE id = $1 AND status <> $2`,
			b.ID(), b.Status().String(), b.UpdatedAt())
		if err != nil {
			return r.wrap("failed to cancel booking", err)
		}
		if tag.RowsAffected() == 0 {
			// Someone else canceled first and already wrote the event.
			return nil
		}
		return r.insertEvent(ctx, tx, event)
	})
}

func (r *BookingRepository) insertEvent(ctx context.Context, tx db.DBTX, e booking.Event) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO booking_events (id, booking_id, event_type, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.BookingID, string(e.Type), e.Payload, e.OccurredAt)
	if err != nil {
		return r.wrap("failed to insert booking event", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return r.findOne(ctx, `SELECT `+selectBookingColumns+` FROM bookings b WHERE b.id = $1`, id)
}

func (r *BookingRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*booking.Booking, error) {
	return r.findOne(ctx, `SELECT `+selectBookingColumns+` FROM bookings b WHERE b.request_id = $1`, requestID)
}

func (r *BookingRepository) findOne(ctx context.Context, sql string, arg uuid.UUID) (*booking.Booking, error) {
	var out *booking.Booking
	err := r.uow.WithinReadOnly(ctx, func(ctx context.Context, tx db.DBTX) error {
		found, err := r.query(ctx, tx, sql, arg)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return infra.NewRepoErr(infra.KindNotFound, "booking not found: "+arg.String())
		}
		out = found[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*booking.Booking, error) {
	var out []*booking.Booking
	err := r.uow.WithinReadOnly(ctx, func(ctx context.Context, tx db.DBTX) error {
		found, err := r.query(ctx, tx, `
			SELECT `+selectBookingColumns+`
			FROM bookings b
			WHERE b.user_id = $1
			ORDER BY b.created_at DESC, b.id
			LIMIT $2 OFFSET $3`, userID, limit, offset)
		out = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingRepository) query(ctx context.Context, tx db.DBTX, sql string, args ...any) ([]*booking.Booking, error) {
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.wrap("failed to query bookings", err)
	}
	var headers []bookingRow
	for rows.Next() {
		var br bookingRow
		if err := rows.Scan(br.fields()...); err != nil {
			rows.Close()
			return nil, r.wrap("failed to scan booking", err)
		}
		headers = append(headers, br)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, r.wrap("failed to iterate bookings", err)
	}
	if len(headers) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(headers))
	for i, h := range headers {
		ids[i] = h.id
	}
	slots, err := r.slotsOf(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*booking.Booking, len(headers))
	for i, h := range headers {
		b, err := h.toDomain(slots[h.id])
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored booking is invalid", err)
		}
		out[i] = b
	}
	return out, nil
}

func (r *BookingRepository) slotsOf(ctx context.Context, tx db.DBTX, bookingIDs []uuid.UUID) (map[uuid.UUID][]booking.Slot, error) {
	rows, err := tx.Query(ctx, `
		SELECT booking_id, resource_id, start_at, end_at, service_ids
		FROM booking_slots
		WHERE booking_id = ANY($1)
		ORDER BY booking_id, position`, bookingIDs)
	if err != nil {
		return nil, r.wrap("failed to query booking slots", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]booking.Slot, len(bookingIDs))
	for rows.Next() {
		var (
			bookingID, resourceID uuid.UUID
			start, end            pgtype.Timestamptz
			serviceIDs            []uuid.UUID
		)
		if err := rows.Scan(&bookingID, &resourceID, &start, &end, &serviceIDs); err != nil {
			return nil, r.wrap("failed to scan booking slot", err)
		}
		interval, err := ledger.NewInterval(pgconv.TimeFromPgtype(start), pgconv.TimeFromPgtype(end))
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored booking slot is invalid", err)
		}
		if len(serviceIDs) == 0 {
			serviceIDs = nil
		}
		out[bookingID] = append(out[bookingID], booking.Slot{ResourceID: resourceID, Interval: interval, ServiceIDs: serviceIDs})
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("failed to iterate booking slots", err)
	}
	return out, nil
}

// Pending returns unpublished events, oldest first. Two relays may pick the
// same event, so delivery is at least once.
func (r *BookingRepository) Pending(ctx context.Context, limit int) ([]booking.Event, error) {
	var out []booking.Event
	err := r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		rows, err := q.Query(ctx, `
			SELECT id, booking_id, event_type, payload, occurred_at
			FROM booking_events
			WHERE published_at IS NULL
			ORDER BY occurred_at, id
			LIMIT $1`, limit)
		if err != nil {
			return r.wrap("failed to query pending events", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				e         booking.Event
				eventType string
			)
			if err := rows.Scan(&e.ID, &e.BookingID, &eventType, &e.Payload, &e.OccurredAt); err != nil {
				return r.wrap("failed to scan pending event", err)
			}
			e.Type = booking.EventType(eventType)
			out = append(out, e)
		}
		if err := rows.Err(); err != nil {
			return r.wrap("failed to iterate pending events", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingRepository) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		if _, err := q.Exec(ctx, `
			UPDATE booking_events SET published_at = $2
			WHERE id = ANY($1) AND published_at IS NULL`, ids, at); err != nil {
			return r.wrap("failed to mark events published", err)
		}
		return nil
	})
}

type bookingRow struct {
	id           uuid.UUID
	requestID    uuid.UUID
	requestHash  string
	userID       uuid.UUID
	studioTypeID uuid.UUID
	locationID   uuid.UUID
	phoneNumber  string
	note         string
	paymentInfo  string
	status       string
	snapshot     []byte
	createdAt    time.Time
	updatedAt    time.Time
}

func (b *bookingRow) fields() []any {
	return []any{
		&b.id, &b.requestID, &b.requestHash, &b.userID, &b.studioTypeID, &b.locationID,
		&b.phoneNumber, &b.note, &b.paymentInfo, &b.status, &b.snapshot, &b.createdAt, &b.updatedAt,
	}
}

func (b *bookingRow) toDomain(slots []booking.Slot) (*booking.Booking, error) {
	status, err := booking.ParseStatus(b.status)
	if err != nil {
		return nil, err
	}
	var snapshot booking.PriceSnapshot
	if err := json.Unmarshal(b.snapshot, &snapshot); err != nil {
		return nil, err
	}
	return booking.ReconstructBooking(booking.ReconstructParams{
		ID:           b.id,
		RequestID:    b.requestID,
		RequestHash:  b.requestHash,
		UserID:       b.userID,
		StudioTypeID: b.studioTypeID,
		LocationID:   b.locationID,
		PhoneNumber:  b.phoneNumber,
		Note:         b.note,
		PaymentInfo:  b.paymentInfo,
		Status:       status,
		Slots:        slots,
		Snapshot:     snapshot,
		CreatedAt:    b.createdAt.UTC(),
		UpdatedAt:    b.updatedAt.UTC(),
	}), nil
}
