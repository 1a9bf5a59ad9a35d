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

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripSelect = `
	SELECT t.id, t.route_id, t.bus_id, t.departure_time, t.arrival_time, t.price_per_seat,
		r.start_location_id, r.end_location_id, r.distance_km,
		sl.name, sl.city, el.name, el.city,
		b.license_plate, b.model, b.total_seats, b.manufacture_year
	FROM trips t
	JOIN routes r ON t.route_id = r.id
	JOIN locations sl ON r.start_location_id = sl.id
	JOIN locations el ON r.end_location_id = el.id
	JOIN buses b ON t.bus_id = b.id
`

func scanTrip(row interface{ Scan(...any) error }) (*domain.Trip, error) {
	var trip domain.Trip
	err := row.Scan(
		&trip.ID,
		&trip.RouteID,
		&trip.BusID,
		&trip.DepartureTime,
		&trip.ArrivalTime,
		&trip.PricePerSeat,
		&trip.Route.StartLocationID,
		&trip.Route.EndLocationID,
		&trip.Route.DistanceKm,
		&trip.Route.StartLocation.Name,
		&trip.Route.StartLocation.City,
		&trip.Route.EndLocation.Name,
		&trip.Route.EndLocation.City,
		&trip.Bus.LicensePlate,
		&trip.Bus.Model,
		&trip.Bus.TotalSeats,
		&trip.Bus.ManufactureYear,
	)
	if err != nil {
		return nil, err
	}

	trip.Route.ID = trip.RouteID
	trip.Route.StartLocation.ID = trip.Route.StartLocationID
	trip.Route.EndLocation.ID = trip.Route.EndLocationID
	trip.Bus.ID = trip.BusID

	return &trip, nil
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (route_id, bus_id, departure_time, arrival_time, price_per_seat)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.q.QueryRowContext(ctx, query,
		trip.RouteID,
		trip.BusID,
		trip.DepartureTime,
		trip.ArrivalTime,
		trip.PricePerSeat,
	).Scan(&trip.ID)
	return mapWriteError(err)
}

// GetByID retrieves a trip with its route and bus.
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	trip, err := scanTrip(r.q.QueryRowContext(ctx, tripSelect+" WHERE t.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetForUpdate retrieves a trip with its bus and locks the trip row.
// Concurrent bookings of the same trip queue behind this lock.
func (r *TripRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Trip, error) {
	query := `
		SELECT t.id, t.route_id, t.bus_id, t.departure_time, t.arrival_time, t.price_per_seat,
			b.license_plate, b.model, b.total_seats, b.manufacture_year
		FROM trips t
		JOIN buses b ON t.bus_id = b.id
		WHERE t.id = $1
		FOR UPDATE OF t
	`

	var trip domain.Trip
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&trip.ID,
		&trip.RouteID,
		&trip.BusID,
		&trip.DepartureTime,
		&trip.ArrivalTime,
		&trip.PricePerSeat,
		&trip.Bus.LicensePlate,
		&trip.Bus.Model,
		&trip.Bus.TotalSeats,
		&trip.Bus.ManufactureYear,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	trip.Bus.ID = trip.BusID

	return &trip, nil
}

// List retrieves trips matching the filter, latest departure first.
func (r *TripRepository) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	var conditions []string
	var args []any

	if filter.RouteID != 0 {
		args = append(args, filter.RouteID)
		conditions = append(conditions, fmt.Sprintf("t.route_id = $%d", len(args)))
	}
	if filter.BusID != 0 {
		args = append(args, filter.BusID)
		conditions = append(conditions, fmt.Sprintf("t.bus_id = $%d", len(args)))
	}
	if !filter.DepartsAfter.IsZero() {
		args = append(args, filter.DepartsAfter)
		conditions = append(conditions, fmt.Sprintf("t.departure_time > $%d", len(args)))
	}

	query := tripSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.departure_time DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET route_id = $1, bus_id = $2, departure_time = $3, arrival_time = $4, price_per_seat = $5
		WHERE id = $6
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.RouteID,
		trip.BusID,
		trip.DepartureTime,
		trip.ArrivalTime,
		trip.PricePerSeat,
		trip.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}

	return expectAffected(result)
}

// Delete removes a trip.
func (r *TripRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return mapDeleteError(err)
	}

	return expectAffected(result)
}

// Availability counts bus seats and active tickets of a trip.
func (r *TripRepository) Availability(ctx context.Context, tripID int64) (*domain.SeatAvailability, error) {
	query := `
		SELECT b.total_seats,
			(SELECT COUNT(*) FROM tickets tk WHERE tk.trip_id = t.id AND tk.active)
		FROM trips t
		JOIN buses b ON t.bus_id = b.id
		WHERE t.id = $1
	`

	a := domain.SeatAvailability{TripID: tripID}
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(&a.TotalSeats, &a.Occupied)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &a, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
