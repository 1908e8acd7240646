package postgres

import (
	"context"
	"fmt"

	"github.com/focusarena/focusarena/internal/domain/campus"
	"github.com/focusarena/focusarena/internal/domain/shared"
)

// CampusRepository implements campus.Repository on PostgreSQL.
type CampusRepository struct {
	conn *Connection
}

// NewCampusRepository creates a CampusRepository.
func NewCampusRepository(conn *Connection) *CampusRepository {
	return &CampusRepository{conn: conn}
}

// ListUniversities returns universities matching the filter, by name.
func (r *CampusRepository) ListUniversities(ctx context.Context, f campus.ListFilter) ([]*campus.University, error) {
	query := `
		SELECT id, name, country, city, logo_url, created_at
		FROM universities
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR country = $2)
		ORDER BY name
		LIMIT $3 OFFSET $4`

	rows, err := r.conn.Query(ctx, query, f.Query, f.Country, f.Limit, f.Offset())
	if err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	defer rows.Close()

	var out []*campus.University
	for rows.Next() {
		var u campus.University
		if err := rows.Scan(&u.ID, &u.Name, &u.Country, &u.City, &u.LogoURL, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan university: %w", err)
		}
		out = append(out, &u)
	}

	return out, rows.Err()
}

// GetUniversity returns a university with its campuses.
func (r *CampusRepository) GetUniversity(ctx context.Context, id string) (*campus.University, error) {
	var u campus.University
	err := r.conn.QueryRow(ctx,
		`SELECT id, name, country, city, logo_url, created_at FROM universities WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Country, &u.City, &u.LogoURL, &u.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUniversityNotFound
		}
		return nil, fmt.Errorf("select university: %w", err)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT id, university_id, name, address, latitude, longitude, created_at
		FROM campuses
		WHERE university_id = $1
		ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("list campuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c campus.Campus
		if err := rows.Scan(&c.ID, &c.UniversityID, &c.Name, &c.Address, &c.Latitude, &c.Longitude, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan campus: %w", err)
		}
		u.Campuses = append(u.Campuses, &c)
	}

	return &u, rows.Err()
}

// CreateUniversity persists a university.
func (r *CampusRepository) CreateUniversity(ctx context.Context, u *campus.University) error {
	query := `
		INSERT INTO universities (id, name, country, city, logo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.conn.Exec(ctx, query, u.ID, u.Name, u.Country, u.City, u.LogoURL, u.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("campus", "Create", shared.ErrAlreadyExists, "university already exists")
		}
		return fmt.Errorf("insert university: %w", err)
	}

	return nil
}

// CreateCampus persists a campus.
func (r *CampusRepository) CreateCampus(ctx context.Context, c *campus.Campus) error {
	query := `
		INSERT INTO campuses (id, university_id, name, address, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.conn.Exec(ctx, query, c.ID, c.UniversityID, c.Name, c.Address, c.Latitude, c.Longitude, c.CreatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrUniversityNotFound
		}
		return fmt.Errorf("insert campus: %w", err)
	}

	return nil
}
