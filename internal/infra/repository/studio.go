package repository

import (
	"context"
	"log/slog"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"
	"studio-booking/internal/infra"
	"studio-booking/internal/infra/db"
	"studio-booking/internal/infra/uow"

	"github.com/google/uuid"
)

// StudioRepository reads studio types, bookable resources and services.
type StudioRepository struct {
	uow    *uow.PostgresUoW
	logger *slog.Logger
}

func NewStudioRepository(u *uow.PostgresUoW, logger *slog.Logger) *StudioRepository {
	return &StudioRepository{uow: u, logger: logger}
}

func (r *StudioRepository) wrap(msg string, err error) error {
	return infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), msg, err)
}

func (r *StudioRepository) StudioType(ctx context.Context, id uuid.UUID) (*studio.StudioType, error) {
	var (
		name                       string
		minArea, maxArea           int
		openMin, closeMin, lastMin int
	)
	err := r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		return q.QueryRow(ctx, `
			SELECT name, min_area, max_area, open_minute, closing_minute, latest_end_minute
			FROM studio_types WHERE id = $1`, id).
			Scan(&name, &minArea, &maxArea, &openMin, &closeMin, &lastMin)
	})
	if err != nil {
		return nil, r.wrap("failed to get studio type "+id.String(), err)
	}
	st, err := studio.NewStudioType(studio.StudioTypeParams{
		ID:              id,
		Name:            name,
		MinArea:         minArea,
		MaxArea:         maxArea,
		OpenTime:        pricing.TimeOfDay(openMin),
		ClosingBoundary: pricing.TimeOfDay(closeMin),
		LatestEndTime:   pricing.TimeOfDay(lastMin),
	})
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored studio type is invalid", err)
	}
	return st, nil
}

func (r *StudioRepository) Resource(ctx context.Context, id uuid.UUID) (*studio.Resource, error) {
	found, err := r.queryResources(ctx, `
		SELECT id, studio_type_id, location_id, name FROM studio_resources WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, infra.NewRepoErr(infra.KindNotFound, "resource not found: "+id.String())
	}
	return found[0], nil
}

// ResourcesAt lists the resources of a studio type at a location in a stable
// order, which is the order auto-assignment tries them in.
func (r *StudioRepository) ResourcesAt(ctx context.Context, studioTypeID, locationID uuid.UUID) ([]*studio.Resource, error) {
	return r.queryResources(ctx, `
		SELECT id, studio_type_id, location_id, name
		FROM studio_resources
		WHERE studio_type_id = $1 AND location_id = $2
		ORDER BY name, id`, studioTypeID, locationID)
}

func (r *StudioRepository) queryResources(ctx context.Context, sql string, args ...any) ([]*studio.Resource, error) {
	var out []*studio.Resource
	err := r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		rows, err := q.Query(ctx, sql, args...)
		if err != nil {
			return r.wrap("failed to query resources", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id, studioTypeID, locationID uuid.UUID
				name                         string
			)
			if err := rows.Scan(&id, &studioTypeID, &locationID, &name); err != nil {
				return r.wrap("failed to scan resource", err)
			}
			res, err := studio.NewResource(id, studioTypeID, locationID, name)
			if err != nil {
				return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored resource is invalid", err)
			}
			out = append(out, res)
		}
		if err := rows.Err(); err != nil {
			return r.wrap("failed to iterate resources", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Services returns the known services among ids; unknown ids are skipped.
func (r *StudioRepository) Services(ctx context.Context, ids []uuid.UUID) ([]*studio.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []*studio.Service
	err := r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		rows, err := q.Query(ctx, `SELECT id, name, fee FROM services WHERE id = ANY($1) ORDER BY id`, ids)
		if err != nil {
			return r.wrap("failed to query services", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id   uuid.UUID
				name string
				fee  int64
			)
			if err := rows.Scan(&id, &name, &fee); err != nil {
				return r.wrap("failed to scan service", err)
			}
			svc, err := studio.NewService(id, name, fee)
			if err != nil {
				return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored service is invalid", err)
			}
			out = append(out, svc)
		}
		if err := rows.Err(); err != nil {
			return r.wrap("failed to iterate services", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveStudioType and the other Save methods seed the directory; they are
// used by the admin surface and tests.
func (r *StudioRepository) SaveStudioType(ctx context.Context, st *studio.StudioType) error {
	return r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		_, err := q.Exec(ctx, `
			INSERT INTO studio_types (id, name, min_area, max_area, open_minute, closing_minute, latest_end_minute)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				min_area = EXCLUDED.min_area,
				max_area = EXCLUDED.max_area,
				open_minute = EXCLUDED.open_minute,
				closing_minute = EXCLUDED.closing_minute,
				latest_end_minute = EXCLUDED.latest_end_minute`,
			st.ID(), st.Name(), st.MinArea(), st.MaxArea(),
			st.OpenTime().Minutes(), st.ClosingBoundary().Minutes(), st.LatestEndTime().Minutes())
		if err != nil {
			return r.wrap("failed to save studio type", err)
		}
		return nil
	})
}

func (r *StudioRepository) SaveResource(ctx context.Context, res *studio.Resource) error {
	return r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		_, err := q.Exec(ctx, `
			INSERT INTO studio_resources (id, studio_type_id, location_id, name)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				studio_type_id = EXCLUDED.studio_type_id,
				location_id = EXCLUDED.location_id,
				name = EXCLUDED.name`,
			res.ID(), res.StudioTypeID(), res.LocationID(), res.Name())
		if err != nil {
			return r.wrap("failed to save resource", err)
		}
		return nil
	})
}

func (r *StudioRepository) SaveService(ctx context.Context, svc *studio.Service) error {
	return r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		_, err := q.Exec(ctx, `
			INSERT INTO services (id, name, fee) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, fee = EXCLUDED.fee`,
			svc.ID(), svc.Name(), svc.Fee())
		if err != nil {
			return r.wrap("failed to save service", err)
		}
		return nil
	})
}
