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

// TicketRepository is a PostgreSQL implementation of repository.TicketRepository.
type TicketRepository struct {
	q Querier
}

// NewTicketRepository creates a new PostgreSQL ticket repository.
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{q: db}
}

// NewTicketRepositoryWithTx creates a ticket repository using a transaction.
func NewTicketRepositoryWithTx(tx *sql.Tx) *TicketRepository {
	return &TicketRepository{q: tx}
}

const ticketSelect = `
	SELECT tk.id, tk.booking_id, tk.seat_id, tk.trip_id, tk.price, tk.passenger_name, tk.active, s.seat_number
	FROM tickets tk
	JOIN seats s ON tk.seat_id = s.id
`

func scanTicket(row interface{ Scan(...any) error }) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.BookingID,
		&ticket.SeatID,
		&ticket.TripID,
		&ticket.Price,
		&ticket.PassengerName,
		&ticket.Active,
		&ticket.SeatNumber,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CreateBatch persists active tickets. The partial unique index on
// (trip_id, seat_id) WHERE active rejects a second active ticket for a seat.
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []*domain.Ticket) error {
	query := `
		INSERT INTO tickets (booking_id, seat_id, trip_id, price, passenger_name, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id
	`

	for _, ticket := range tickets {
		err := r.q.QueryRowContext(ctx, query,
			ticket.BookingID,
			ticket.SeatID,
			ticket.TripID,
			ticket.Price,
			ticket.PassengerName,
		).Scan(&ticket.ID)
		if err != nil {
			return mapWriteError(err)
		}
		ticket.Active = true
	}

	return nil
}

// GetByID retrieves a ticket by ID.
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.q.QueryRowContext(ctx, ticketSelect+" WHERE tk.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return ticket, nil
}

// List retrieves tickets matching the filter.
func (r *TicketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]*domain.Ticket, error) {
	var conditions []string
	var args []any

	query := ticketSelect
	if filter.UserID != "" {
		query += " JOIN bookings bk ON tk.booking_id = bk.id"
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("bk.user_id = $%d", len(args)))
	}
	if filter.BookingID != "" {
		args = append(args, filter.BookingID)
		conditions = append(conditions, fmt.Sprintf("tk.booking_id = $%d", len(args)))
	}
	if filter.TripID != 0 {
		args = append(args, filter.TripID)
		conditions = append(conditions, fmt.Sprintf("tk.trip_id = $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY tk.id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}

// BookedSeatIDs returns the seats among seatIDs that hold an active ticket on the trip.
func (r *TicketRepository) BookedSeatIDs(ctx context.Context, tripID int64, seatIDs []int64) ([]int64, error) {
	query := `SELECT seat_id FROM tickets WHERE trip_id = $1 AND active`
	args := []any{tripID}
	if len(seatIDs) > 0 {
		query += ` AND seat_id = ANY($2)`
		args = append(args, pq.Array(seatIDs))
	}
	query += ` ORDER BY seat_id`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var booked []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		booked = append(booked, id)
	}

	return booked, rows.Err()
}

// HasActiveForSeat reports whether the seat holds an active ticket on any trip.
func (r *TicketRepository) HasActiveForSeat(ctx context.Context, seatID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE seat_id = $1 AND active)`, seatID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// DeactivateByBooking releases the seats held by a booking.
func (r *TicketRepository) DeactivateByBooking(ctx context.Context, bookingID string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE tickets SET active = FALSE WHERE booking_id = $1`, bookingID)
	return err
}

// UpdatePassengerName renames the passenger of a ticket.
func (r *TicketRepository) UpdatePassengerName(ctx context.Context, id int64, name string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE tickets SET passenger_name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// Ensure TicketRepository implements repository.TicketRepository.
var _ repository.TicketRepository = (*TicketRepository)(nil)
