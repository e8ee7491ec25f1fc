package studio

import (
	"strings"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrEmptyName           = errs.New("name cannot be empty")
	ErrNameTooLong         = errs.New("name is too long (max 255 characters)")
	ErrInvalidArea         = errs.New("invalid area range")
	ErrInvalidHours        = errs.New("invalid operating hours")
	ErrNegativeFee         = errs.New("service fee cannot be negative")
	ErrStudioTypeNotFound  = errs.New("studio type not found")
	ErrResourceNotFound    = errs.New("studio resource not found")
	ErrServiceNotFound     = errs.New("service not found")
	ErrNoResourceAvailable = errs.New("no studio resource at location")
)

const MaxNameLength = 255

// StudioType carries the operating hours used for window validation and
// overtime detection. Time between closingBoundary and latestEndTime is
// bookable but charged as overtime.
type StudioType struct {
	id              uuid.UUID
	name            string
	minArea         int
	maxArea         int
	openTime        pricing.TimeOfDay
	closingBoundary pricing.TimeOfDay
	latestEndTime   pricing.TimeOfDay
}

type StudioTypeParams struct {
	ID              uuid.UUID
	Name            string
	MinArea         int
	MaxArea         int
	OpenTime        pricing.TimeOfDay
	ClosingBoundary pricing.TimeOfDay
	LatestEndTime   pricing.TimeOfDay
}

func NewStudioType(p StudioTypeParams) (*StudioType, error) {
	if err := validateName(p.Name); err != nil {
		return nil, err
	}
	if p.MinArea < 0 || p.MaxArea < p.MinArea {
		return nil, errs.Wrapf(ErrInvalidArea, "%d-%d", p.MinArea, p.MaxArea)
	}
	if !p.OpenTime.IsValid() || !p.LatestEndTime.IsValid() ||
		p.OpenTime >= p.ClosingBoundary || p.ClosingBoundary > p.LatestEndTime {
		return nil, errs.Wrapf(ErrInvalidHours, "open %s close %s latest %s", p.OpenTime, p.ClosingBoundary, p.LatestEndTime)
	}
	return &StudioType{
		id:              p.ID,
		name:            strings.TrimSpace(p.Name),
		minArea:         p.MinArea,
		maxArea:         p.MaxArea,
		openTime:        p.OpenTime,
		closingBoundary: p.ClosingBoundary,
		latestEndTime:   p.LatestEndTime,
	}, nil
}

func (s *StudioType) ID() uuid.UUID                      { return s.id }
func (s *StudioType) Name() string                       { return s.name }
func (s *StudioType) MinArea() int                       { return s.minArea }
func (s *StudioType) MaxArea() int                       { return s.maxArea }
func (s *StudioType) OpenTime() pricing.TimeOfDay        { return s.openTime }
func (s *StudioType) ClosingBoundary() pricing.TimeOfDay { return s.closingBoundary }
func (s *StudioType) LatestEndTime() pricing.TimeOfDay   { return s.latestEndTime }

// OperatingHours is the bookable range [openTime, latestEndTime].
func (s *StudioType) OperatingHours() pricing.TimeWindow {
	return pricing.TimeWindow{Start: s.openTime, End: s.latestEndTime}
}

// Resource is a physical room of a studio type at a location.
type Resource struct {
	id           uuid.UUID
	studioTypeID uuid.UUID
	locationID   uuid.UUID
	name         string
}

func NewResource(id, studioTypeID, locationID uuid.UUID, name string) (*Resource, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Resource{
		id:           id,
		studioTypeID: studioTypeID,
		locationID:   locationID,
		name:         strings.TrimSpace(name),
	}, nil
}

func (r *Resource) ID() uuid.UUID           { return r.id }
func (r *Resource) StudioTypeID() uuid.UUID { return r.studioTypeID }
func (r *Resource) LocationID() uuid.UUID   { return r.locationID }
func (r *Resource) Name() string            { return r.name }

// Service is an add-on whose fee is passed through to the price breakdown.
type Service struct {
	id   uuid.UUID
	name string
	fee  int64
}

func NewService(id uuid.UUID, name string, fee int64) (*Service, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if fee < 0 {
		return nil, ErrNegativeFee
	}
	return &Service{id: id, name: strings.TrimSpace(name), fee: fee}, nil
}

func (s *Service) ID() uuid.UUID { return s.id }
func (s *Service) Name() string  { return s.name }
func (s *Service) Fee() int64    { return s.fee }

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}
