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

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
type RouteRepository struct {
	q Querier
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{q: db}
}

const routeSelect = `
	SELECT r.id, r.start_location_id, r.end_location_id, r.distance_km,
		sl.name, sl.city, el.name, el.city
	FROM routes r
	JOIN locations sl ON r.start_location_id = sl.id
	JOIN locations el ON r.end_location_id = el.id
`

func scanRoute(row interface{ Scan(...any) error }) (*domain.Route, error) {
	var route domain.Route
	err := row.Scan(
		&route.ID,
		&route.StartLocationID,
		&route.EndLocationID,
		&route.DistanceKm,
		&route.StartLocation.Name,
		&route.StartLocation.City,
		&route.EndLocation.Name,
		&route.EndLocation.City,
	)
	if err != nil {
		return nil, err
	}
	route.StartLocation.ID = route.StartLocationID
	route.EndLocation.ID = route.EndLocationID
	return &route, nil
}

// Create persists a new route.
func (r *RouteRepository) Create(ctx context.Context, route *domain.Route) error {
	query := `
		INSERT INTO routes (start_location_id, end_location_id, distance_km)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.q.QueryRowContext(ctx, query, route.StartLocationID, route.EndLocationID, route.DistanceKm).
		Scan(&route.ID)
	return mapWriteError(err)
}

// GetByID retrieves a route with its locations.
func (r *RouteRepository) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	route, err := scanRoute(r.q.QueryRowContext(ctx, routeSelect+" WHERE r.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return route, nil
}

// List retrieves routes matching the filter.
func (r *RouteRepository) List(ctx context.Context, filter repository.RouteFilter) ([]*domain.Route, error) {
	var conditions []string
	var args []any

	if filter.StartLocationID != 0 {
		args = append(args, filter.StartLocationID)
		conditions = append(conditions, fmt.Sprintf("r.start_location_id = $%d", len(args)))
	}
	if filter.EndLocationID != 0 {
		args = append(args, filter.EndLocationID)
		conditions = append(conditions, fmt.Sprintf("r.end_location_id = $%d", len(args)))
	}

	query := routeSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*domain.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	return routes, rows.Err()
}

// Update updates an existing route.
func (r *RouteRepository) Update(ctx context.Context, route *domain.Route) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE routes
		SET start_location_id = $1, end_location_id = $2, distance_km = $3
		WHERE id = $4
	`, route.StartLocationID, route.EndLocationID, route.DistanceKm, route.ID)
	if err != nil {
		return mapWriteError(err)
	}

	return expectAffected(result)
}

// Delete removes a route.
func (r *RouteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return mapDeleteError(err)
	}

	return expectAffected(result)
}

// Ensure RouteRepository implements repository.RouteRepository.
var _ repository.RouteRepository = (*RouteRepository)(nil)
