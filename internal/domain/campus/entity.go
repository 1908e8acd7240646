// Package campus contains the university and campus reference data users
// affiliate with. The data set is small, mostly read-only, and seeded at
// deploy time.
package campus

import (
	"errors"
	"strings"
	"time"
)

// University is a top-level institution.
type University struct {
	ID        string
	Name      string
	Country   string
	City      string
	LogoURL   string
	CreatedAt time.Time

	// Campuses is populated on detail lookups.
	Campuses []*Campus
}

// Campus is a physical location of a university.
type Campus struct {
	ID           string
	UniversityID string
	Name         string
	Address      string
	Latitude     float64
	Longitude    float64
	CreatedAt    time.Time
}

// Domain errors.
var (
	ErrInvalidUniversityName = errors.New("university name must be 2-200 chars")
	ErrInvalidCampusName     = errors.New("campus name must be 2-200 chars")
)

// NewUniversity validates and creates a university.
func NewUniversity(id, name, country, city, logoURL string) (*University, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 200 {
		return nil, ErrInvalidUniversityName
	}

	return &University{
		ID:        id,
		Name:      name,
		Country:   strings.TrimSpace(country),
		City:      strings.TrimSpace(city),
		LogoURL:   logoURL,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewCampus validates and creates a campus under a university.
func NewCampus(id, universityID, name, address string, lat, lon float64) (*Campus, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 200 {
		return nil, ErrInvalidCampusName
	}
	if universityID == "" {
		return nil, errors.New("university id is required")
	}

	return &Campus{
		ID:           id,
		UniversityID: universityID,
		Name:         name,
		Address:      strings.TrimSpace(address),
		Latitude:     lat,
		Longitude:    lon,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
