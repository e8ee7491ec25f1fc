package shared

import (
	"context"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"
	"studio-booking/internal/domain/user"
	"studio-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrTransient marks failures of the persistence layer. It is the only class
// of error a client should retry, with the same idempotency key.
var ErrTransient = errs.New("temporary failure, retry later")

// Transient wraps err with msg and classifies it as ErrTransient.
func Transient(err error, msg string) error {
	return errs.Mark(errs.Wrap(err, msg), ErrTransient)
}

// Actor is the already authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   user.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == user.RoleAdmin
}

// CatalogReader is the read side of the price catalog used by pricing.
type CatalogReader interface {
	// Snapshot reads every covering table with its item for studioTypeID and
	// the item's rules, together with the catalog version, consistently.
	Snapshot(ctx context.Context, studioTypeID uuid.UUID, date pricing.Date) (pricing.CatalogSnapshot, error)
	Version(ctx context.Context) (int64, error)
	FindTablesCovering(ctx context.Context, studioTypeID uuid.UUID, date pricing.Date) ([]*pricing.PriceTable, error)
}

// StudioDirectory exposes studio type metadata, resources and services.
type StudioDirectory interface {
	StudioType(ctx context.Context, id uuid.UUID) (*studio.StudioType, error)
	Resource(ctx context.Context, id uuid.UUID) (*studio.Resource, error)
	ResourcesAt(ctx context.Context, studioTypeID, locationID uuid.UUID) ([]*studio.Resource, error)
	Services(ctx context.Context, ids []uuid.UUID) ([]*studio.Service, error)
}
