package memstore

import (
	"context"
	"sort"
	"sync"

	"studio-booking/internal/domain/studio"
	"studio-booking/internal/infra"

	"github.com/google/uuid"
)

// Directory is an in-process studio directory, filled with Add* calls at
// startup or in tests.
type Directory struct {
	mu          sync.RWMutex
	studioTypes map[uuid.UUID]*studio.StudioType
	resources   map[uuid.UUID]*studio.Resource
	services    map[uuid.UUID]*studio.Service
}

func NewDirectory() *Directory {
	return &Directory{
		studioTypes: make(map[uuid.UUID]*studio.StudioType),
		resources:   make(map[uuid.UUID]*studio.Resource),
		services:    make(map[uuid.UUID]*studio.Service),
	}
}

func (d *Directory) AddStudioType(st *studio.StudioType) {
	d.mu.Lock()
	d.studioTypes[st.ID()] = st
	d.mu.Unlock()
}

func (d *Directory) AddResource(r *studio.Resource) {
	d.mu.Lock()
	d.resources[r.ID()] = r
	d.mu.Unlock()
}

func (d *Directory) AddService(s *studio.Service) {
	d.mu.Lock()
	d.services[s.ID()] = s
	d.mu.Unlock()
}

func (d *Directory) SaveStudioType(_ context.Context, st *studio.StudioType) error {
	d.AddStudioType(st)
	return nil
}

func (d *Directory) SaveResource(_ context.Context, r *studio.Resource) error {
	d.AddResource(r)
	return nil
}

func (d *Directory) SaveService(_ context.Context, s *studio.Service) error {
	d.AddService(s)
	return nil
}

func (d *Directory) StudioType(_ context.Context, id uuid.UUID) (*studio.StudioType, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st, ok := d.studioTypes[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "studio type "+id.String())
	}
	return st, nil
}

func (d *Directory) Resource(_ context.Context, id uuid.UUID) (*studio.Resource, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.resources[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "studio resource "+id.String())
	}
	return r, nil
}

// ResourcesAt lists matching resources ordered by name, then id.
func (d *Directory) ResourcesAt(_ context.Context, studioTypeID, locationID uuid.UUID) ([]*studio.Resource, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*studio.Resource
	for _, r := range d.resources {
		if r.StudioTypeID() == studioTypeID && r.LocationID() == locationID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		return out[i].ID().String() < out[j].ID().String()
	})
	return out, nil
}

// Services returns the known services among ids; unknown ids are skipped.
func (d *Directory) Services(_ context.Context, ids []uuid.UUID) ([]*studio.Service, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*studio.Service, 0, len(ids))
	for _, id := range ids {
		if s, ok := d.services[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}
