package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"busticket/internal/domain"
	"busticket/internal/repository"
)

// SeatRepository is a PostgreSQL implementation of repository.SeatRepository.
type SeatRepository struct {
	q Querier
}

// NewSeatRepository creates a new PostgreSQL seat repository.
func NewSeatRepository(db *sql.DB) *SeatRepository {
	return &SeatRepository{q: db}
}

// NewSeatRepositoryWithTx creates a seat repository using a transaction.
func NewSeatRepositoryWithTx(tx *sql.Tx) *SeatRepository {
	return &SeatRepository{q: tx}
}

// Create persists a new seat.
func (r *SeatRepository) Create(ctx context.Context, seat *domain.Seat) error {
	query := `
		INSERT INTO seats (bus_id, seat_number, is_available)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.q.QueryRowContext(ctx, query, seat.BusID, seat.SeatNumber, seat.IsAvailable).Scan(&seat.ID)
	return mapWriteError(err)
}

// CreateBatch persists all seats with a single multi-row insert.
func (r *SeatRepository) CreateBatch(ctx context.Context, seats []*domain.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	values := make([]string, 0, len(seats))
	args := make([]any, 0, len(seats)*3)
	for i, seat := range seats {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3))
		args = append(args, seat.BusID, seat.SeatNumber, seat.IsAvailable)
	}

	query := `INSERT INTO seats (bus_id, seat_number, is_available) VALUES ` +
		strings.Join(values, ", ") + ` RETURNING id, bus_id, seat_number`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err)
	}
	defer rows.Close()

	type seatKey struct {
		busID  int64
		number string
	}
	byKey := make(map[seatKey]*domain.Seat, len(seats))
	for _, seat := range seats {
		byKey[seatKey{seat.BusID, seat.SeatNumber}] = seat
	}

	for rows.Next() {
		var id int64
		var key seatKey
		if err := rows.Scan(&id, &key.busID, &key.number); err != nil {
			return err
		}
		if seat, ok := byKey[key]; ok {
			seat.ID = id
		}
	}

	return mapWriteError(rows.Err())
}

// GetByID retrieves a seat by ID.
func (r *SeatRepository) GetByID(ctx context.Context, id int64) (*domain.Seat, error) {
	return r.getOne(ctx, `SELECT id, bus_id, seat_number, is_available FROM seats WHERE id = $1`, id)
}

// GetForUpdate retrieves a seat and locks its row. Ticket inserts referencing
// the seat wait for the lock through the foreign key.
func (r *SeatRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Seat, error) {
	return r.getOne(ctx, `SELECT id, bus_id, seat_number, is_available FROM seats WHERE id = $1 FOR UPDATE`, id)
}

func (r *SeatRepository) getOne(ctx context.Context, query string, id int64) (*domain.Seat, error) {
	var seat domain.Seat
	err := r.q.QueryRowContext(ctx, query, id).Scan(&seat.ID, &seat.BusID, &seat.SeatNumber, &seat.IsAvailable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &seat, nil
}

// GetByIDs retrieves the existing seats among ids.
func (r *SeatRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, bus_id, seat_number, is_available FROM seats WHERE id = ANY($1) ORDER BY id`
	return r.query(ctx, query, pq.Array(ids))
}

// List retrieves seats matching the filter.
func (r *SeatRepository) List(ctx context.Context, filter repository.SeatFilter) ([]*domain.Seat, error) {
	var conditions []string
	var args []any

	if filter.BusID != 0 {
		args = append(args, filter.BusID)
		conditions = append(conditions, fmt.Sprintf("bus_id = $%d", len(args)))
	}
	if filter.IsAvailable != nil {
		args = append(args, *filter.IsAvailable)
		conditions = append(conditions, fmt.Sprintf("is_available = $%d", len(args)))
	}

	query := `SELECT id, bus_id, seat_number, is_available FROM seats`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY bus_id, seat_number"

	return r.query(ctx, query, args...)
}

func (r *SeatRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Seat, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []*domain.Seat
	for rows.Next() {
		var seat domain.Seat
		if err := rows.Scan(&seat.ID, &seat.BusID, &seat.SeatNumber, &seat.IsAvailable); err != nil {
			return nil, err
		}
		seats = append(seats, &seat)
	}

	return seats, rows.Err()
}

// Update updates the number and availability flag of a seat.
func (r *SeatRepository) Update(ctx context.Context, seat *domain.Seat) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE seats SET seat_number = $1, is_available = $2 WHERE id = $3`,
		seat.SeatNumber, seat.IsAvailable, seat.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}

	return expectAffected(result)
}

// Delete removes a seat.
func (r *SeatRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM seats WHERE id = $1`, id)
	if err != nil {
		return mapDeleteError(err)
	}

	return expectAffected(result)
}

// Ensure SeatRepository implements repository.SeatRepository.
var _ repository.SeatRepository = (*SeatRepository)(nil)
