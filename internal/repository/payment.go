package repository

import (
	"context"

	"busticket/internal/domain"
)

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	BookingID string
	Status    domain.PaymentStatus
}

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetForUpdate retrieves a payment and locks its row.
	GetForUpdate(ctx context.Context, id string) (*domain.Payment, error)

	// List retrieves payments ordered by payment time, latest first.
	List(ctx context.Context, filter PaymentFilter) ([]*domain.Payment, error)

	// Update updates method, status and completion time of a payment.
	Update(ctx context.Context, payment *domain.Payment) error

	// FailPendingByBooking marks every Pending payment of a booking as Failed.
	FailPendingByBooking(ctx context.Context, bookingID string) error

	// Statistics counts payments per status and sums completed amounts.
	Statistics(ctx context.Context) (*domain.PaymentStatistics, error)
}
