package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/focusarena/focusarena/internal/domain/campus"
	"github.com/focusarena/focusarena/internal/domain/shared"
)

// CampusService serves the university/campus reference data.
type CampusService struct {
	campuses campus.Repository
	logger   *slog.Logger
}

// NewCampusService creates a CampusService.
func NewCampusService(campuses campus.Repository, logger *slog.Logger) *CampusService {
	return &CampusService{campuses: campuses, logger: logger}
}

// ListUniversities returns universities matching the filter.
func (s *CampusService) ListUniversities(ctx context.Context, filter campus.ListFilter) ([]*campus.University, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.campuses.ListUniversities(ctx, filter)
}

// GetUniversity returns a university with its campuses.
func (s *CampusService) GetUniversity(ctx context.Context, id string) (*campus.University, error) {
	return s.campuses.GetUniversity(ctx, id)
}

// CreateUniversityInput is the payload for seeding a university.
type CreateUniversityInput struct {
	Name    string
	Country string
	City    string
	LogoURL string
}

// CreateUniversity adds a university.
func (s *CampusService) CreateUniversity(ctx context.Context, in CreateUniversityInput) (*campus.University, error) {
	u, err := campus.NewUniversity(uuid.NewString(), in.Name, in.Country, in.City, in.LogoURL)
	if err != nil {
		return nil, shared.WrapError("campus", "Create", shared.ErrInvalidInput, "invalid university", err)
	}

	if err := s.campuses.CreateUniversity(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("university created", slog.String("university_id", u.ID), slog.String("name", u.Name))

	return u, nil
}

// CreateCampusInput is the payload for seeding a campus.
type CreateCampusInput struct {
	UniversityID string
	Name         string
	Address      string
	Latitude     float64
	Longitude    float64
}

// CreateCampus adds a campus under a university.
func (s *CampusService) CreateCampus(ctx context.Context, in CreateCampusInput) (*campus.Campus, error) {
	c, err := campus.NewCampus(uuid.NewString(), in.UniversityID, in.Name, in.Address, in.Latitude, in.Longitude)
	if err != nil {
		return nil, shared.WrapError("campus", "Create", shared.ErrInvalidInput, "invalid campus", err)
	}

	if err := s.campuses.CreateCampus(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}
