package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"studio-booking/internal/domain/booking"
	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"
	"studio-booking/internal/infra"
	"studio-booking/internal/pkg/errs"
	"studio-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// PlanKey identifies a cached day plan. A catalog write bumps the version,
// so stale plans are never read again.
type PlanKey struct {
	StudioTypeID uuid.UUID
	Date         pricing.Date
	Version      int64
}

func (k PlanKey) String() string {
	return fmt.Sprintf("%s:%s:%d", k.StudioTypeID, k.Date, k.Version)
}

// PlanCache returns (nil, nil) on a miss.
type PlanCache interface {
	Get(ctx context.Context, key PlanKey) (*pricing.DayPlan, error)
	Set(ctx context.Context, key PlanKey, plan *pricing.DayPlan) error
}

type QuoteRequest struct {
	StudioTypeID uuid.UUID
	Start        time.Time
	End          time.Time
	ServiceIDs   []uuid.UUID
}

type Quote struct {
	StudioType *studio.StudioType
	Date       pricing.Date
	Window     pricing.TimeWindow
	Plan       *pricing.DayPlan
	Breakdown  pricing.Breakdown
}

type PriceQuoter interface {
	// Quote validates the window and prices it without reserving anything.
	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
	// PriceWindow prices an already validated window.
	PriceWindow(ctx context.Context, st *studio.StudioType, date pricing.Date, w pricing.TimeWindow, serviceIDs []uuid.UUID) (*Quote, error)
	// StudioWindow loads the studio type and validates [start, end) against it.
	StudioWindow(ctx context.Context, studioTypeID uuid.UUID, start, end time.Time) (*studio.StudioType, pricing.Date, pricing.TimeWindow, error)
}

type priceQuoterImpl struct {
	catalog   shared.CatalogReader
	directory shared.StudioDirectory
	cache     PlanCache
	loc       *time.Location
	logger    *slog.Logger
	group     singleflight.Group
}

func NewPriceQuoter(
	catalog shared.CatalogReader,
	directory shared.StudioDirectory,
	cache PlanCache,
	loc *time.Location,
	logger *slog.Logger,
) PriceQuoter {
	return &priceQuoterImpl{
		catalog:   catalog,
		directory: directory,
		cache:     cache,
		loc:       loc,
		logger:    logger,
	}
}

func (q *priceQuoterImpl) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	st, date, w, err := q.StudioWindow(ctx, req.StudioTypeID, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	return q.PriceWindow(ctx, st, date, w, req.ServiceIDs)
}

func (q *priceQuoterImpl) StudioWindow(ctx context.Context, studioTypeID uuid.UUID, start, end time.Time) (*studio.StudioType, pricing.Date, pricing.TimeWindow, error) {
	st, err := q.directory.StudioType(ctx, studioTypeID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, pricing.Date{}, pricing.TimeWindow{}, errs.Wrapf(studio.ErrStudioTypeNotFound, "%s", studioTypeID)
		}
		return nil, pricing.Date{}, pricing.TimeWindow{}, shared.Transient(err, "loading studio type")
	}
	date, w, err := booking.SlotWindow(st, start, end, q.loc)
	if err != nil {
		return nil, pricing.Date{}, pricing.TimeWindow{}, err
	}
	return st, date, w, nil
}

func (q *priceQuoterImpl) PriceWindow(
	ctx context.Context,
	st *studio.StudioType,
	date pricing.Date,
	w pricing.TimeWindow,
	serviceIDs []uuid.UUID,
) (*Quote, error) {
	fees, err := q.serviceFees(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}
	plan, err := q.dayPlan(ctx, st.ID(), date)
	if err != nil {
		return nil, err
	}
	breakdown, err := plan.Price(w, st.ClosingBoundary(), fees)
	if err != nil {
		return nil, err
	}
	return &Quote{StudioType: st, Date: date, Window: w, Plan: plan, Breakdown: breakdown}, nil
}

func (q *priceQuoterImpl) serviceFees(ctx context.Context, ids []uuid.UUID) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	services, err := q.directory.Services(ctx, ids)
	if err != nil {
		return nil, shared.Transient(err, "loading services")
	}
	byID := make(map[uuid.UUID]*studio.Service, len(services))
	for _, s := range services {
		byID[s.ID()] = s
	}
	fees := make([]int64, 0, len(ids))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, errs.Wrapf(studio.ErrServiceNotFound, "%s", id)
		}
		fees = append(fees, s.Fee())
	}
	return fees, nil
}

// dayPlan serves plans from the cache and coalesces concurrent misses for
// the same key into a single catalog read.
func (q *priceQuoterImpl) dayPlan(ctx context.Context, studioTypeID uuid.UUID, date pricing.Date) (*pricing.DayPlan, error) {
	version, err := q.catalog.Version(ctx)
	if err != nil {
		return nil, shared.Transient(err, "reading catalog version")
	}
	key := PlanKey{StudioTypeID: studioTypeID, Date: date, Version: version}

	plan, err := q.cache.Get(ctx, key)
	if err != nil {
		q.logger.Warn("plan cache read failed", "key", key.String(), "error", err)
	}
	if plan != nil {
		return plan, nil
	}

	v, err, _ := q.group.Do(key.String(), func() (any, error) {
		snap, err := q.catalog.Snapshot(ctx, studioTypeID, date)
		if err != nil {
			return nil, shared.Transient(err, "reading catalog snapshot")
		}
		plan, err := pricing.BuildDayPlan(snap, studioTypeID, date)
		if err != nil {
			return nil, err
		}
		fill := PlanKey{StudioTypeID: studioTypeID, Date: date, Version: snap.Version}
		if err := q.cache.Set(ctx, fill, plan); err != nil {
			q.logger.Warn("plan cache write failed", "key", fill.String(), "error", err)
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pricing.DayPlan), nil
}
