// Package seed loads studio reference data (studio types, rooms and add-on
// services) from a JSON file into a studio directory.
package seed

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"
	"studio-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

// Writer is implemented by memstore.Directory and repository.StudioRepository.
type Writer interface {
	SaveStudioType(ctx context.Context, st *studio.StudioType) error
	SaveResource(ctx context.Context, r *studio.Resource) error
	SaveService(ctx context.Context, s *studio.Service) error
}

type StudioTypeEntry struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MinArea         int       `json:"minArea"`
	MaxArea         int       `json:"maxArea"`
	OpenTime        string    `json:"openTime"`
	ClosingBoundary string    `json:"closingBoundary"`
	LatestEndTime   string    `json:"latestEndTime"`
}

type ResourceEntry struct {
	ID           uuid.UUID `json:"id"`
	StudioTypeID uuid.UUID `json:"studioTypeId"`
	LocationID   uuid.UUID `json:"locationId"`
	Name         string    `json:"name"`
}

type ServiceEntry struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Fee  int64     `json:"fee"`
}

type Data struct {
	StudioTypes []StudioTypeEntry `json:"studioTypes"`
	Resources   []ResourceEntry   `json:"resources"`
	Services    []ServiceEntry    `json:"services"`
}

func Load(path string) (Data, error) {
	var d Data
	raw, err := os.ReadFile(path)
	if err != nil {
		return d, errs.Wrapf(err, "reading seed file %s", path)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, errs.Wrapf(err, "decoding seed file %s", path)
	}
	return d, nil
}

// Apply validates every entry through the domain constructors and saves
// them. Studio types go first so resources can reference them.
func Apply(ctx context.Context, w Writer, d Data, logger *slog.Logger) error {
	for _, e := range d.StudioTypes {
		st, err := e.toDomain()
		if err != nil {
			return errs.Wrapf(err, "studio type %s", e.ID)
		}
		if err := w.SaveStudioType(ctx, st); err != nil {
			return err
		}
	}
	for _, e := range d.Resources {
		r, err := studio.NewResource(e.ID, e.StudioTypeID, e.LocationID, e.Name)
		if err != nil {
			return errs.Wrapf(err, "resource %s", e.ID)
		}
		if err := w.SaveResource(ctx, r); err != nil {
			return err
		}
	}
	for _, e := range d.Services {
		s, err := studio.NewService(e.ID, e.Name, e.Fee)
		if err != nil {
			return errs.Wrapf(err, "service %s", e.ID)
		}
		if err := w.SaveService(ctx, s); err != nil {
			return err
		}
	}
	logger.Info("studio reference data seeded",
		"studio_types", len(d.StudioTypes),
		"resources", len(d.Resources),
		"services", len(d.Services))
	return nil
}

func (e StudioTypeEntry) toDomain() (*studio.StudioType, error) {
	open, err := pricing.ParseTimeOfDay(e.OpenTime)
	if err != nil {
		return nil, err
	}
	closing, err := pricing.ParseTimeOfDay(e.ClosingBoundary)
	if err != nil {
		return nil, err
	}
	latest, err := pricing.ParseTimeOfDay(e.LatestEndTime)
	if err != nil {
		return nil, err
	}
	return studio.NewStudioType(studio.StudioTypeParams{
		ID:              e.ID,
		Name:            e.Name,
		MinArea:         e.MinArea,
		MaxArea:         e.MaxArea,
		OpenTime:        open,
		ClosingBoundary: closing,
		LatestEndTime:   latest,
	})
}
