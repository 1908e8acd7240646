package campus

import "context"

// ListFilter narrows the university listing. Page is 1-based.
type ListFilter struct {
	// Query matches name fragments case-insensitively when non-empty.
	Query   string
	Country string
	Page    int
	Limit   int
}

// Offset converts the page number into a row offset.
func (f ListFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Repository defines the persistence operations for reference data.
type Repository interface {
	// ListUniversities returns universities matching the filter, ordered
	// by name.
	ListUniversities(ctx context.Context, filter ListFilter) ([]*University, error)

	// GetUniversity returns a university with its campuses, or
	// shared.ErrUniversityNotFound.
	GetUniversity(ctx context.Context, id string) (*University, error)

	// CreateUniversity persists a university.
	CreateUniversity(ctx context.Context, u *University) error

	// CreateCampus persists a campus. Returns
	// shared.ErrUniversityNotFound when the parent does not exist.
	CreateCampus(ctx context.Context, c *Campus) error
}
