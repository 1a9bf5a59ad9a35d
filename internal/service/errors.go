package service

import "errors"

var (
	// ErrNoSeatsRequested is returned when a booking names no seats.
	ErrNoSeatsRequested = errors.New("at least one seat is required")

	// ErrDuplicateSeat is returned when a booking names the same seat twice.
	ErrDuplicateSeat = errors.New("duplicate seat in request")

	// ErrSeatCountMismatch is returned when number_of_seats disagrees with the seat list.
	ErrSeatCountMismatch = errors.New("number of seats does not match selected seats")

	// ErrSeatAlreadyBooked is returned when a requested seat holds an active ticket.
	ErrSeatAlreadyBooked = errors.New("seat already booked for this trip")

	// ErrSeatLocked is returned when another booking is reserving the same seat.
	ErrSeatLocked = errors.New("seat is being reserved by another request")

	// ErrSeatNotOnBus is returned when a seat does not belong to the trip's bus.
	ErrSeatNotOnBus = errors.New("seat does not belong to the trip's bus")

	// ErrSeatUnavailable is returned when a seat is marked out of service.
	ErrSeatUnavailable = errors.New("seat is not available")

	// ErrInsufficientSeats is returned when a trip has fewer free seats than requested.
	ErrInsufficientSeats = errors.New("not enough available seats")

	// ErrTripDeparted is returned when booking a trip that already left.
	ErrTripDeparted = errors.New("trip has already departed")

	// ErrInvalidSchedule is returned when arrival is not after departure.
	ErrInvalidSchedule = errors.New("arrival time must be after departure time")

	// ErrSameLocations is returned when a route starts and ends at the same location.
	ErrSameLocations = errors.New("start and end location must differ")

	// ErrTripHasBookings is returned when moving a trip with active tickets to another bus.
	ErrTripHasBookings = errors.New("trip has active bookings on its bus")

	// ErrSeatHasBookings is returned when moving a seat with active tickets to another bus.
	ErrSeatHasBookings = errors.New("seat has active bookings")

	// ErrInUse is returned when deleting a row other rows still reference.
	ErrInUse = errors.New("resource is still referenced")

	// ErrInvalidBookingTransition is returned for a status change the state machine forbids.
	ErrInvalidBookingTransition = errors.New("invalid booking status transition")

	// ErrBookingAlreadyCanceled is returned when canceling a canceled booking.
	ErrBookingAlreadyCanceled = errors.New("booking already canceled")

	// ErrBookingNotModifiable is returned when a booking is no longer Pending or its trip left.
	ErrBookingNotModifiable = errors.New("booking can no longer be modified")

	// ErrTicketNotInBooking is returned when renaming a ticket of another booking.
	ErrTicketNotInBooking = errors.New("ticket does not belong to this booking")

	// ErrPaymentAlreadyCompleted is returned when completing a completed payment.
	ErrPaymentAlreadyCompleted = errors.New("payment already completed")

	// ErrPaymentNotPending is returned when a payment left the Pending state.
	ErrPaymentNotPending = errors.New("payment is not pending")

	// ErrInvalidPaymentMethod is returned when payment method is invalid.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrSelfTransfer is returned when a wallet transfer names the payer as payee.
	ErrSelfTransfer = errors.New("cannot transfer to own wallet")

	// ErrUnauthenticated is returned when an operation needs a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the caller lacks the role or ownership.
	ErrForbidden = errors.New("permission denied")

	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidToken is returned for a malformed, expired or revoked access token.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrUserExists is returned when registering a taken username or email.
	ErrUserExists = errors.New("username or email already registered")
)
