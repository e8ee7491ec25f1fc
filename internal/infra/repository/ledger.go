package repository

import (
	"context"
	"encoding/binary"
	"log/slog"
	"time"

	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/infra"
	"studio-booking/internal/infra/db"
	"studio-booking/internal/infra/uow"
	"studio-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
)

// LedgerRepository is the durable slot ledger. Writers for one resource are
// serialized by a transaction-scoped advisory lock; the exclusion constraint
// on reserved_slots backs it up.
type LedgerRepository struct {
	uow    *uow.PostgresUoW
	logger *slog.Logger
}

func NewLedgerRepository(u *uow.PostgresUoW, logger *slog.Logger) *LedgerRepository {
	return &LedgerRepository{uow: u, logger: logger}
}

func (r *LedgerRepository) IsAvailable(ctx context.Context, resourceID uuid.UUID, interval ledger.Interval) (bool, error) {
	var taken bool
	err := r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		return q.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM reserved_slots
				WHERE resource_id = $1 AND period && $2
			)`, resourceID, pgconv.IntervalToRange(interval)).Scan(&taken)
	})
	if err != nil {
		return false, infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to check slot availability", err)
	}
	return !taken, nil
}

// Reserve fails fast with ledger.ErrSlotConflict when another writer holds
// the resource, or when any booking, this one included, already overlaps the
// interval.
func (r *LedgerRepository) Reserve(ctx context.Context, slot ledger.ReservedSlot) error {
	period := pgconv.IntervalToRange(slot.Interval())
	return r.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		var locked bool
		if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock($1)`, resourceLockKey(slot.ResourceID())).Scan(&locked); err != nil {
			return infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to lock resource", err)
		}
		if !locked {
			return ledger.Conflict(slot.ResourceID(), slot.Interval())
		}

		var taken bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM reserved_slots
				WHERE resource_id = $1 AND period && $2
			)`, slot.ResourceID(), period).Scan(&taken)
		if err != nil {
			return infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to read reserved slots", err)
		}
		if taken {
			return ledger.Conflict(slot.ResourceID(), slot.Interval())
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO reserved_slots (resource_id, booking_id, period)
			VALUES ($1, $2, $3)`, slot.ResourceID(), slot.BookingID(), period)
		if err != nil {
			if infra.ClassifyPgError(err) == infra.KindConflict {
				return ledger.Conflict(slot.ResourceID(), slot.Interval())
			}
			return infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to insert reserved slot", err)
		}
		return nil
	})
}

// resourceLockKey folds the full 128 bits of id into the bigint advisory
// lock key space.
func resourceLockKey(id uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(id[:8]) ^ binary.BigEndian.Uint64(id[8:]))
}

func (r *LedgerRepository) Release(ctx context.Context, bookingID uuid.UUID) error {
	err := r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		_, err := q.Exec(ctx, `DELETE FROM reserved_slots WHERE booking_id = $1`, bookingID)
		return err
	})
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to release slots", err)
	}
	return nil
}

func (r *LedgerRepository) Holders(ctx context.Context, reservedBefore time.Time) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		rows, err := q.Query(ctx, `
			SELECT DISTINCT booking_id FROM reserved_slots
			WHERE created_at < $1`, reservedBefore)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				return err
			}
			out = append(out, id)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to list slot holders", err)
	}
	return out, nil
}
