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

// BusRepository is a PostgreSQL implementation of repository.BusRepository.
type BusRepository struct {
	q Querier
}

// NewBusRepository creates a new PostgreSQL bus repository.
func NewBusRepository(db *sql.DB) *BusRepository {
	return &BusRepository{q: db}
}

// NewBusRepositoryWithTx creates a bus repository using a transaction.
func NewBusRepositoryWithTx(tx *sql.Tx) *BusRepository {
	return &BusRepository{q: tx}
}

// Create persists a new bus.
func (r *BusRepository) Create(ctx context.Context, bus *domain.Bus) error {
	query := `
		INSERT INTO buses (license_plate, model, total_seats, manufacture_year)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.q.QueryRowContext(ctx, query,
		bus.LicensePlate,
		bus.Model,
		bus.TotalSeats,
		bus.ManufactureYear,
	).Scan(&bus.ID)
	return mapWriteError(err)
}

// GetByID retrieves a bus by ID.
func (r *BusRepository) GetByID(ctx context.Context, id int64) (*domain.Bus, error) {
	query := `SELECT id, license_plate, model, total_seats, manufacture_year FROM buses WHERE id = $1`

	var bus domain.Bus
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&bus.ID,
		&bus.LicensePlate,
		&bus.Model,
		&bus.TotalSeats,
		&bus.ManufactureYear,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &bus, nil
}

// List retrieves buses ordered by license plate.
func (r *BusRepository) List(ctx context.Context, filter repository.BusFilter) ([]*domain.Bus, error) {
	var conditions []string
	var args []any

	if filter.LicensePlate != "" {
		args = append(args, "%"+filter.LicensePlate+"%")
		conditions = append(conditions, fmt.Sprintf("license_plate ILIKE $%d", len(args)))
	}
	if filter.Model != "" {
		args = append(args, "%"+filter.Model+"%")
		conditions = append(conditions, fmt.Sprintf("model ILIKE $%d", len(args)))
	}

	query := `SELECT id, license_plate, model, total_seats, manufacture_year FROM buses`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY license_plate"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buses []*domain.Bus
	for rows.Next() {
		var bus domain.Bus
		if err := rows.Scan(&bus.ID, &bus.LicensePlate, &bus.Model, &bus.TotalSeats, &bus.ManufactureYear); err != nil {
			return nil, err
		}
		buses = append(buses, &bus)
	}

	return buses, rows.Err()
}

// Update updates an existing bus.
func (r *BusRepository) Update(ctx context.Context, bus *domain.Bus) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE buses
		SET license_plate = $1, model = $2, total_seats = $3, manufacture_year = $4
		WHERE id = $5
	`, bus.LicensePlate, bus.Model, bus.TotalSeats, bus.ManufactureYear, bus.ID)
	if err != nil {
		return mapWriteError(err)
	}

	return expectAffected(result)
}

// Delete removes a bus and, through the foreign key cascade, its seats.
func (r *BusRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM buses WHERE id = $1`, id)
	if err != nil {
		return mapDeleteError(err)
	}

	return expectAffected(result)
}

// Ensure BusRepository implements repository.BusRepository.
var _ repository.BusRepository = (*BusRepository)(nil)
