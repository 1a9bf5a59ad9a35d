package repository

import (
	"context"
	"time"

	"busticket/internal/domain"
)

// TripFilter narrows trip listings. A non-zero DepartsAfter keeps only trips departing after it.
type TripFilter struct {
	RouteID      int64
	BusID        int64
	DepartsAfter time.Time
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip and sets its ID.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip with its route and bus.
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)

	// GetForUpdate retrieves a trip with its bus and locks the trip row
	// until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Trip, error)

	// List retrieves trips ordered by departure time, latest first.
	List(ctx context.Context, filter TripFilter) ([]*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// Delete removes a trip.
	Delete(ctx context.Context, id int64) error

	// Availability counts the bus seats and the active tickets of a trip.
	Availability(ctx context.Context, tripID int64) (*domain.SeatAvailability, error)
}
