package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCanceled  BookingStatus = "Canceled"
)

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCanceled:
		return true
	}
	return false
}

// DefaultPassengerName is used for guest tickets without a passenger name.
const DefaultPassengerName = "Guest"

// Booking is a reservation of seats on one trip. UserID is empty for guests.
type Booking struct {
	ID            string
	UserID        string
	GuestToken    string
	TripID        int64
	NumberOfSeats int
	TotalAmount   int64
	BookingTime   time.Time
	Status        BookingStatus

	// Populated by joined reads.
	Trip Trip
}

// IsGuest reports whether the booking was made without an account.
func (b Booking) IsGuest() bool {
	return b.UserID == ""
}

// IsActive reports whether the booking still holds its seats.
func (b Booking) IsActive() bool {
	return b.Status != BookingStatusCanceled
}

// CanModify reports whether the booking is Pending and its trip has not departed.
func (b Booking) CanModify(now time.Time) bool {
	return b.Status == BookingStatusPending && b.Trip.DepartureTime.After(now)
}

// CanTransitionTo reports whether the state machine allows moving to next.
// Canceled is terminal; Confirmed can only be canceled.
func (b Booking) CanTransitionTo(next BookingStatus) bool {
	switch b.Status {
	case BookingStatusPending:
		return next == BookingStatusConfirmed || next == BookingStatusCanceled
	case BookingStatusConfirmed:
		return next == BookingStatusCanceled
	default:
		return false
	}
}

// Ticket binds one seat to one booking for one trip.
type Ticket struct {
	ID            int64
	BookingID     string
	SeatID        int64
	TripID        int64
	Price         int64
	PassengerName string
	Active        bool

	// Populated by joined reads.
	SeatNumber string
}

// BookingStatistics summarizes bookings by status.
type BookingStatistics struct {
	Total     int
	Pending   int
	Confirmed int
	Canceled  int
}
