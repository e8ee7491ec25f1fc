package pgconv

import (
	"database/sql"
	"errors"
	"time"

	"studio-booking/internal/domain/ledger"
	"studio-booking/internal/domain/pricing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var ErrInvalidRange = errors.New("invalid tstzrange value")

func UUIDPtrFromPgtype(pu pgtype.UUID) *uuid.UUID {
	if !pu.Valid {
		return nil
	}
	id := uuid.UUID(pu.Bytes)
	return &id
}

func UUIDToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func TimeFromPgtype(pt pgtype.Timestamptz) time.Time {
	return pt.Time
}

func TimeToPgtype(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func DateToPgtype(d pricing.Date) pgtype.Date {
	return pgtype.Date{Time: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
}

func DatePtrToPgtype(d *pricing.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{Valid: false}
	}
	return DateToPgtype(*d)
}

func DateFromPgtype(pd pgtype.Date) pricing.Date {
	return pricing.DateOf(pd.Time)
}

func DatePtrFromPgtype(pd pgtype.Date) *pricing.Date {
	if !pd.Valid {
		return nil
	}
	d := DateFromPgtype(pd)
	return &d
}

// IntervalToRange encodes a half-open interval as a '[)' tstzrange.
func IntervalToRange(i ledger.Interval) pgtype.Range[pgtype.Timestamptz] {
	return pgtype.Range[pgtype.Timestamptz]{
		Lower:     TimeToPgtype(i.Start()),
		Upper:     TimeToPgtype(i.End()),
		LowerType: pgtype.Inclusive,
		UpperType: pgtype.Exclusive,
		Valid:     true,
	}
}

func IntervalFromRange(r pgtype.Range[pgtype.Timestamptz]) (ledger.Interval, error) {
	if !r.Valid || !r.Lower.Valid || !r.Upper.Valid {
		return ledger.Interval{}, ErrInvalidRange
	}
	return ledger.NewInterval(r.Lower.Time, r.Upper.Time)
}

// IsNoRows checks if the error is a "no rows" error from either sql or pgx
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}
