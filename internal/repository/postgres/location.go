package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"busticket/internal/domain"
	"busticket/internal/repository"
)

// LocationRepository is a PostgreSQL implementation of repository.LocationRepository.
type LocationRepository struct {
	q Querier
}

// NewLocationRepository creates a new PostgreSQL location repository.
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{q: db}
}

// Create persists a new location.
func (r *LocationRepository) Create(ctx context.Context, location *domain.Location) error {
	query := `
		INSERT INTO locations (name, city)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.q.QueryRowContext(ctx, query, location.Name, location.City).
		Scan(&location.ID, &location.CreatedAt)
	return mapWriteError(err)
}

// GetByID retrieves a location by ID.
func (r *LocationRepository) GetByID(ctx context.Context, id int64) (*domain.Location, error) {
	query := `SELECT id, name, city, created_at FROM locations WHERE id = $1`

	var l domain.Location
	err := r.q.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.Name, &l.City, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &l, nil
}

// List retrieves locations matching the filter.
func (r *LocationRepository) List(ctx context.Context, filter repository.LocationFilter) ([]*domain.Location, error) {
	var conditions []string
	var args []any

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.City != "" {
		args = append(args, "%"+filter.City+"%")
		conditions = append(conditions, fmt.Sprintf("city ILIKE $%d", len(args)))
	}

	query := `SELECT id, name, city, created_at FROM locations`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*domain.Location
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.City, &l.CreatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, &l)
	}

	return locations, rows.Err()
}

// Update updates an existing location.
func (r *LocationRepository) Update(ctx context.Context, location *domain.Location) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE locations SET name = $1, city = $2 WHERE id = $3`,
		location.Name, location.City, location.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}

	return expectAffected(result)
}

// Delete removes a location.
func (r *LocationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return mapDeleteError(err)
	}

	return expectAffected(result)
}

// Ensure LocationRepository implements repository.LocationRepository.
var _ repository.LocationRepository = (*LocationRepository)(nil)
