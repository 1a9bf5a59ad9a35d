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

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingSelect = `
	SELECT bk.id, bk.user_id, bk.guest_token, bk.trip_id, bk.number_of_seats, bk.total_amount,
		bk.booking_time, bk.status,
		t.route_id, t.bus_id, t.departure_time, t.arrival_time, t.price_per_seat,
		sl.name, sl.city, el.name, el.city, b.license_plate, b.model
	FROM bookings bk
	JOIN trips t ON bk.trip_id = t.id
	JOIN routes r ON t.route_id = r.id
	JOIN locations sl ON r.start_location_id = sl.id
	JOIN locations el ON r.end_location_id = el.id
	JOIN buses b ON t.bus_id = b.id
`

func scanBooking(row interface{ Scan(...any) error }) (*domain.Booking, error) {
	var booking domain.Booking
	var userID, guestToken sql.NullString

	err := row.Scan(
		&booking.ID,
		&userID,
		&guestToken,
		&booking.TripID,
		&booking.NumberOfSeats,
		&booking.TotalAmount,
		&booking.BookingTime,
		&booking.Status,
		&booking.Trip.RouteID,
		&booking.Trip.BusID,
		&booking.Trip.DepartureTime,
		&booking.Trip.ArrivalTime,
		&booking.Trip.PricePerSeat,
		&booking.Trip.Route.StartLocation.Name,
		&booking.Trip.Route.StartLocation.City,
		&booking.Trip.Route.EndLocation.Name,
		&booking.Trip.Route.EndLocation.City,
		&booking.Trip.Bus.LicensePlate,
		&booking.Trip.Bus.Model,
	)
	if err != nil {
		return nil, err
	}

	booking.UserID = userID.String
	booking.GuestToken = guestToken.String
	booking.Trip.ID = booking.TripID
	booking.Trip.Route.ID = booking.Trip.RouteID
	booking.Trip.Bus.ID = booking.Trip.BusID

	return &booking, nil
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, user_id, guest_token, trip_id, number_of_seats, total_amount, booking_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		nullString(booking.UserID),
		nullString(booking.GuestToken),
		booking.TripID,
		booking.NumberOfSeats,
		booking.TotalAmount,
		booking.BookingTime,
		booking.Status,
	)

	return mapWriteError(err)
}

// GetByID retrieves a booking with its trip.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.get(ctx, bookingSelect+" WHERE bk.id = $1", id)
}

// GetForUpdate retrieves a booking and locks its row.
func (r *BookingRepository) GetForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	return r.get(ctx, bookingSelect+" WHERE bk.id = $1 FOR UPDATE OF bk", id)
}

func (r *BookingRepository) get(ctx context.Context, query string, id string) (*domain.Booking, error) {
	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return booking, nil
}

// List retrieves bookings matching the filter.
func (r *BookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]*domain.Booking, error) {
	var conditions []string
	var args []any

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("bk.user_id = $%d", len(args)))
	}
	if filter.TripID != 0 {
		args = append(args, filter.TripID)
		conditions = append(conditions, fmt.Sprintf("bk.trip_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("bk.status = $%d", len(args)))
	}

	query := bookingSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY bk.booking_time DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

// UpdateStatus sets the status of a booking.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// Statistics counts bookings per status.
func (r *BookingRepository) Statistics(ctx context.Context) (*domain.BookingStatistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3)
		FROM bookings
	`

	var stats domain.BookingStatistics
	err := r.q.QueryRowContext(ctx, query,
		domain.BookingStatusPending,
		domain.BookingStatusConfirmed,
		domain.BookingStatusCanceled,
	).Scan(&stats.Total, &stats.Pending, &stats.Confirmed, &stats.Canceled)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
