package repository

import (
	"context"

	"busticket/internal/domain"
)

// LocationFilter narrows location listings. Empty fields match everything.
type LocationFilter struct {
	Name string
	City string
}

// LocationRepository defines the persistence operations for locations.
type LocationRepository interface {
	// Create persists a new location and sets its ID.
	Create(ctx context.Context, location *domain.Location) error

	// GetByID retrieves a location by ID.
	GetByID(ctx context.Context, id int64) (*domain.Location, error)

	// List retrieves locations matching the filter with case-insensitive substring search.
	List(ctx context.Context, filter LocationFilter) ([]*domain.Location, error)

	// Update updates an existing location.
	Update(ctx context.Context, location *domain.Location) error

	// Delete removes a location.
	Delete(ctx context.Context, id int64) error
}

// RouteFilter narrows route listings. Zero IDs match everything.
type RouteFilter struct {
	StartLocationID int64
	EndLocationID   int64
}

// RouteRepository defines the persistence operations for routes.
type RouteRepository interface {
	Create(ctx context.Context, route *domain.Route) error

	// GetByID retrieves a route with its start and end locations.
	GetByID(ctx context.Context, id int64) (*domain.Route, error)

	List(ctx context.Context, filter RouteFilter) ([]*domain.Route, error)
	Update(ctx context.Context, route *domain.Route) error
	Delete(ctx context.Context, id int64) error
}

// BusFilter narrows bus listings.
type BusFilter struct {
	LicensePlate string
	Model        string
}

// BusRepository defines the persistence operations for buses.
type BusRepository interface {
	Create(ctx context.Context, bus *domain.Bus) error
	GetByID(ctx context.Context, id int64) (*domain.Bus, error)
	List(ctx context.Context, filter BusFilter) ([]*domain.Bus, error)
	Update(ctx context.Context, bus *domain.Bus) error
	Delete(ctx context.Context, id int64) error
}

// SeatFilter narrows seat listings. A nil IsAvailable matches both states.
type SeatFilter struct {
	BusID       int64
	IsAvailable *bool
}

// SeatRepository defines the persistence operations for seats.
type SeatRepository interface {
	Create(ctx context.Context, seat *domain.Seat) error

	// CreateBatch persists all seats and sets their IDs.
	CreateBatch(ctx context.Context, seats []*domain.Seat) error

	GetByID(ctx context.Context, id int64) (*domain.Seat, error)

	// GetForUpdate retrieves a seat and locks its row until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*domain.Seat, error)

	// GetByIDs retrieves the seats that exist among ids. Missing IDs are omitted.
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Seat, error)

	// List retrieves seats ordered by seat number.
	List(ctx context.Context, filter SeatFilter) ([]*domain.Seat, error)

	Update(ctx context.Context, seat *domain.Seat) error
	Delete(ctx context.Context, id int64) error
}
