//go:build unit

package infra

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RepositoryErrorKind
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: KindNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("find booking: %w", pgx.ErrNoRows), want: KindNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: PgUniqueViolation}, want: KindDuplicateKey},
		{name: "foreign key violation", err: &pgconn.PgError{Code: PgForeignKeyViolation}, want: KindForeignKeyViolated},
		{name: "exclusion violation", err: &pgconn.PgError{Code: PgExclusionViolation}, want: KindConflict},
		{name: "other pg error", err: &pgconn.PgError{Code: "57014"}, want: KindDBFailure},
		{name: "network error", err: io.ErrUnexpectedEOF, want: KindDBFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPgError(tt.err))
		})
	}
}

func TestWrapRepoErr(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cause := &pgconn.PgError{Code: PgExclusionViolation}

	err := WrapRepoErr(logger, KindConflict, "reserve slot", cause)

	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))
	assert.Contains(t, err.Error(), "CONFLICT: reserve slot")

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr), "driver error stays reachable")
}

func TestNewRepoErr(t *testing.T) {
	err := NewRepoErr(KindNotFound, "booking not found")

	assert.True(t, IsKind(fmt.Errorf("get: %w", err), KindNotFound))
	assert.Equal(t, "NOT_FOUND: booking not found", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}
