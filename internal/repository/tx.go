package repository

import "context"

// Repos groups the repositories that share one transaction.
type Repos struct {
	Buses    BusRepository
	Seats    SeatRepository
	Trips    TripRepository
	Bookings BookingRepository
	Tickets  TicketRepository
	Payments PaymentRepository
	Wallets  WalletRepository
}

// Transactor runs a unit of work atomically.
type Transactor interface {
	// WithinTx calls fn with repositories bound to a single transaction.
	// The transaction commits if fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
