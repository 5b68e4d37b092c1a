package app

import (
	"context"
	"errors"
	"strings"

	"hotel_booking/internal/domain"
)

type LocationService struct {
	repo domain.LocationRepository
}

func NewLocationService(r domain.LocationRepository) *LocationService {
	return &LocationService{repo: r}
}

func (s *LocationService) List(ctx context.Context) ([]domain.Location, error) {
	ls, err := s.repo.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	if ls == nil {
		ls = []domain.Location{}
	}
	return ls, nil
}

func (s *LocationService) Get(ctx context.Context, id string) (domain.Location, error) {
	l, err := s.repo.GetLocation(ctx, id)
	return l, locationErr(err)
}

func (s *LocationService) Create(ctx context.Context, name string) (domain.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Location{}, domain.Invalid("Invalid location data")
	}
	l := domain.Location{Name: name}
	if err := s.repo.CreateLocation(ctx, &l); err != nil {
		return domain.Location{}, err
	}
	return l, nil
}

// Rename backs both PUT and PATCH; name is the only mutable field.
func (s *LocationService) Rename(ctx context.Context, id, name string) (domain.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Location{}, domain.Invalid("Invalid location data")
	}
	l, err := s.repo.GetLocation(ctx, id)
	if err != nil {
		return domain.Location{}, locationErr(err)
	}
	l.Name = name
	if err := s.repo.UpdateLocation(ctx, l); err != nil {
		return domain.Location{}, locationErr(err)
	}
	return l, nil
}

func (s *LocationService) Delete(ctx context.Context, id string) error {
	return locationErr(s.repo.DeleteLocation(ctx, id))
}

func locationErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound("Location not found")
	}
	return err
}
