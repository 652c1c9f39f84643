package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/repository"
)

// ResourceStore is the persistence the resource service needs.
type ResourceStore interface {
	ResourceReader
	Create(ctx context.Context, res *model.Resource) error
	List(ctx context.Context, activeOnly bool) ([]model.Resource, error)
	Update(ctx context.Context, res *model.Resource) error
	SetActive(ctx context.Context, id uint64, active bool) error
}

// ResourceService manages the catalogue of bookable resources.
type ResourceService struct {
	store ResourceStore
}

func NewResourceService(store ResourceStore) *ResourceService {
	return &ResourceService{store: store}
}

// ResourceInput carries the writable attributes of a resource.
type ResourceInput struct {
	Name       string
	Type       model.ResourceType
	Capacity   int64
	HourlyRate decimal.Decimal
	IsActive   *bool
}

// Validate checks the input and normalizes the name.
func (in *ResourceInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidResource)
	case len(in.Name) > 120:
		return fmt.Errorf("%w: name is too long", ErrInvalidResource)
	case !in.Type.Valid():
		return fmt.Errorf("%w: type must be one of desk, meeting_room, private_office, phone_booth", ErrInvalidResource)
	case in.Capacity <= 0 || in.Capacity > 10000:
		return fmt.Errorf("%w: capacity must be a positive number", ErrInvalidResource)
	case in.HourlyRate.IsNegative():
		return fmt.Errorf("%w: hourly_rate must not be negative", ErrInvalidResource)
	case !in.HourlyRate.Equal(in.HourlyRate.Truncate(2)):
		return fmt.Errorf("%w: hourly_rate has more than 2 decimal places", ErrInvalidResource)
	case in.HourlyRate.GreaterThanOrEqual(decimal.New(1, 8)):
		return fmt.Errorf("%w: hourly_rate is too large", ErrInvalidResource)
	}
	return nil
}

// Create validates and stores a new, active resource.
func (s *ResourceService) Create(ctx context.Context, in ResourceInput) (*model.Resource, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res := &model.Resource{
		Name:       in.Name,
		Type:       in.Type,
		Capacity:   uint32(in.Capacity),
		HourlyRate: in.HourlyRate.Round(2),
		IsActive:   true,
	}
	if err := s.store.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Get returns a resource or ErrResourceNotFound.
func (s *ResourceService) Get(ctx context.Context, id uint64) (*model.Resource, error) {
	res, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrResourceNotFound
	}
	return res, err
}

// List returns resources, optionally only active ones.
func (s *ResourceService) List(ctx context.Context, activeOnly bool) ([]model.Resource, error) {
	return s.store.List(ctx, activeOnly)
}

// Update replaces the writable attributes of a resource.  A changed
// hourly rate affects only bookings created afterwards.
func (s *ResourceService) Update(ctx context.Context, id uint64, in ResourceInput) (*model.Resource, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res.Name = in.Name
	res.Type = in.Type
	res.Capacity = uint32(in.Capacity)
	res.HourlyRate = in.HourlyRate.Round(2)
	if in.IsActive != nil {
		res.IsActive = *in.IsActive
	}
	if err := s.store.Update(ctx, res); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Deactivate stops new bookings on a resource.  Existing bookings stay.
func (s *ResourceService) Deactivate(ctx context.Context, id uint64) error {
	err := s.store.SetActive(ctx, id, false)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrResourceNotFound
	}
	return err
}
