package repository

import (
	"context"

	"busticket/internal/domain"
)

// BookingFilter narrows booking listings. Empty fields match everything.
type BookingFilter struct {
	UserID string
	TripID int64
	Status domain.BookingStatus
}

// BookingRepository defines the persistence operations for bookings.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking with its trip.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetForUpdate retrieves a booking with its trip and locks the booking row.
	GetForUpdate(ctx context.Context, id string) (*domain.Booking, error)

	// List retrieves bookings ordered by booking time, latest first.
	List(ctx context.Context, filter BookingFilter) ([]*domain.Booking, error)

	// UpdateStatus sets the status of a booking.
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error

	// Statistics counts bookings per status.
	Statistics(ctx context.Context) (*domain.BookingStatistics, error)
}

// TicketFilter narrows ticket listings. UserID matches the owner of the booking.
type TicketFilter struct {
	BookingID string
	TripID    int64
	UserID    string
}

// TicketRepository defines the persistence operations for tickets.
type TicketRepository interface {
	// CreateBatch persists active tickets and sets their IDs.
	// Returns ErrConflict if a seat already has an active ticket on the trip.
	CreateBatch(ctx context.Context, tickets []*domain.Ticket) error

	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)

	// List retrieves tickets ordered by ID.
	List(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, error)

	// BookedSeatIDs returns which of seatIDs hold an active ticket on the trip.
	// An empty seatIDs returns every booked seat of the trip.
	BookedSeatIDs(ctx context.Context, tripID int64, seatIDs []int64) ([]int64, error)

	// HasActiveForSeat reports whether any trip holds an active ticket on the seat.
	HasActiveForSeat(ctx context.Context, seatID int64) (bool, error)

	// DeactivateByBooking releases the seats held by a booking.
	DeactivateByBooking(ctx context.Context, bookingID string) error

	// UpdatePassengerName renames the passenger of a ticket.
	UpdatePassengerName(ctx context.Context, id int64, name string) error
}
