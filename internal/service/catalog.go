package service

import (
	"context"
	"errors"
	"fmt"

	"busticket/internal/domain"
	"busticket/internal/repository"
)

// CatalogService manages locations, routes, buses and seats.
type CatalogService struct {
	locationRepo repository.LocationRepository
	routeRepo    repository.RouteRepository
	busRepo      repository.BusRepository
	seatRepo     repository.SeatRepository
	transactor   repository.Transactor
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	locationRepo repository.LocationRepository,
	routeRepo repository.RouteRepository,
	busRepo repository.BusRepository,
	seatRepo repository.SeatRepository,
	transactor repository.Transactor,
) *CatalogService {
	return &CatalogService{
		locationRepo: locationRepo,
		routeRepo:    routeRepo,
		busRepo:      busRepo,
		seatRepo:     seatRepo,
		transactor:   transactor,
	}
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// mapDeleteError turns a still-referenced row into ErrInUse.
func mapDeleteError(err error) error {
	if errors.Is(err, repository.ErrReferenced) {
		return fmt.Errorf("%w: %v", ErrInUse, err)
	}
	return err
}

// ────────────────────────────────────────────────────────────────────────────
// Locations
// ────────────────────────────────────────────────────────────────────────────

// LocationInput contains the editable fields of a location.
type LocationInput struct {
	Name string `validate:"required,max=255"`
	City string `validate:"required,max=100"`
}

// ListLocations searches locations by name and city.
func (s *CatalogService) ListLocations(ctx context.Context, filter repository.LocationFilter) ([]*domain.Location, error) {
	return s.locationRepo.List(ctx, filter)
}

// GetLocation retrieves a location by ID.
func (s *CatalogService) GetLocation(ctx context.Context, id int64) (*domain.Location, error) {
	return s.locationRepo.GetByID(ctx, id)
}

// CreateLocation creates a location.
func (s *CatalogService) CreateLocation(ctx context.Context, actor domain.Actor, in LocationInput) (*domain.Location, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	location := &domain.Location{Name: in.Name, City: in.City}
	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// UpdateLocation replaces the fields of a location.
func (s *CatalogService) UpdateLocation(ctx context.Context, actor domain.Actor, id int64, in LocationInput) (*domain.Location, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	location, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	location.Name = in.Name
	location.City = in.City

	if err := s.locationRepo.Update(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// DeleteLocation removes a location no route uses.
func (s *CatalogService) DeleteLocation(ctx context.Context, actor domain.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return mapDeleteError(s.locationRepo.Delete(ctx, id))
}

// ────────────────────────────────────────────────────────────────────────────
// Routes
// ────────────────────────────────────────────────────────────────────────────

// RouteInput contains the editable fields of a route.
type RouteInput struct {
	StartLocationID int64   `validate:"required,gt=0"`
	EndLocationID   int64   `validate:"required,gt=0"`
	DistanceKm      float64 `validate:"gt=0"`
}

func (in RouteInput) validate() error {
	if in.StartLocationID != 0 && in.StartLocationID == in.EndLocationID {
		return ErrSameLocations
	}
	return validateStruct(in)
}

// ListRoutes lists routes, optionally by endpoints.
func (s *CatalogService) ListRoutes(ctx context.Context, filter repository.RouteFilter) ([]*domain.Route, error) {
	return s.routeRepo.List(ctx, filter)
}

// GetRoute retrieves a route with both locations.
func (s *CatalogService) GetRoute(ctx context.Context, id int64) (*domain.Route, error) {
	return s.routeRepo.GetByID(ctx, id)
}

// CreateRoute creates a route between two existing locations.
func (s *CatalogService) CreateRoute(ctx context.Context, actor domain.Actor, in RouteInput) (*domain.Route, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	route := &domain.Route{
		StartLocationID: in.StartLocationID,
		EndLocationID:   in.EndLocationID,
		DistanceKm:      in.DistanceKm,
	}
	if err := s.routeRepo.Create(ctx, route); err != nil {
		return nil, err
	}

	return s.routeRepo.GetByID(ctx, route.ID)
}

// UpdateRoute replaces the fields of a route.
func (s *CatalogService) UpdateRoute(ctx context.Context, actor domain.Actor, id int64, in RouteInput) (*domain.Route, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	route := &domain.Route{
		ID:              id,
		StartLocationID: in.StartLocationID,
		EndLocationID:   in.EndLocationID,
		DistanceKm:      in.DistanceKm,
	}
	if err := s.routeRepo.Update(ctx, route); err != nil {
		return nil, err
	}

	return s.routeRepo.GetByID(ctx, id)
}

// DeleteRoute removes a route no trip uses.
func (s *CatalogService) DeleteRoute(ctx context.Context, actor domain.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return mapDeleteError(s.routeRepo.Delete(ctx, id))
}

// ────────────────────────────────────────────────────────────────────────────
// Buses
// ────────────────────────────────────────────────────────────────────────────

// BusInput contains the editable fields of a bus.
type BusInput struct {
	LicensePlate    string `validate:"required,max=20"`
	Model           string `validate:"required,max=100"`
	TotalSeats      int    `validate:"gte=1,lte=100"`
	ManufactureYear int    `validate:"gte=1900"`
}

// ListBuses searches buses by plate and model.
func (s *CatalogService) ListBuses(ctx context.Context, filter repository.BusFilter) ([]*domain.Bus, error) {
	return s.busRepo.List(ctx, filter)
}

// GetBus retrieves a bus by ID.
func (s *CatalogService) GetBus(ctx context.Context, id int64) (*domain.Bus, error) {
	return s.busRepo.GetByID(ctx, id)
}

// CreateBus creates a bus and its full seat layout in one transaction.
func (s *CatalogService) CreateBus(ctx context.Context, actor domain.Actor, in BusInput) (*domain.Bus, []*domain.Seat, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, nil, err
	}

	bus := &domain.Bus{
		LicensePlate:    in.LicensePlate,
		Model:           in.Model,
		TotalSeats:      in.TotalSeats,
		ManufactureYear: in.ManufactureYear,
	}

	var seats []*domain.Seat
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := repos.Buses.Create(ctx, bus); err != nil {
			return err
		}
		seats = domain.SeatLayout(bus.ID, bus.TotalSeats)
		return repos.Seats.CreateBatch(ctx, seats)
	})
	if err != nil {
		return nil, nil, err
	}

	return bus, seats, nil
}

// UpdateBus replaces the descriptive fields of a bus. The seat count is fixed
// at creation because seats and tickets hang off it.
func (s *CatalogService) UpdateBus(ctx context.Context, actor domain.Actor, id int64, in BusInput) (*domain.Bus, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	bus, err := s.busRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.TotalSeats != bus.TotalSeats {
		return nil, &ValidationError{Fields: map[string]string{"TotalSeats": "cannot be changed after creation"}}
	}

	bus.LicensePlate = in.LicensePlate
	bus.Model = in.Model
	bus.ManufactureYear = in.ManufactureYear

	if err := s.busRepo.Update(ctx, bus); err != nil {
		return nil, err
	}
	return bus, nil
}

// DeleteBus removes a bus no trip uses, with its seats.
func (s *CatalogService) DeleteBus(ctx context.Context, actor domain.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return mapDeleteError(s.busRepo.Delete(ctx, id))
}

// ────────────────────────────────────────────────────────────────────────────
// Seats
// ────────────────────────────────────────────────────────────────────────────

// SeatInput contains the editable fields of a seat.
type SeatInput struct {
	BusID       int64  `validate:"required,gt=0"`
	SeatNumber  string `validate:"required,max=10"`
	IsAvailable bool
}

// ListSeats lists seats, optionally by bus and availability flag.
func (s *CatalogService) ListSeats(ctx context.Context, filter repository.SeatFilter) ([]*domain.Seat, error) {
	return s.seatRepo.List(ctx, filter)
}

// GetSeat retrieves a seat by ID.
func (s *CatalogService) GetSeat(ctx context.Context, id int64) (*domain.Seat, error) {
	return s.seatRepo.GetByID(ctx, id)
}

// CreateSeat adds a single seat to a bus.
func (s *CatalogService) CreateSeat(ctx context.Context, actor domain.Actor, in SeatInput) (*domain.Seat, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	seat := &domain.Seat{BusID: in.BusID, SeatNumber: in.SeatNumber, IsAvailable: in.IsAvailable}
	if err := s.seatRepo.Create(ctx, seat); err != nil {
		return nil, err
	}
	return seat, nil
}

// UpdateSeat replaces the fields of a seat. Marking a seat unavailable takes
// it out of sale without touching existing tickets. A seat holding active
// tickets stays on its bus.
func (s *CatalogService) UpdateSeat(ctx context.Context, actor domain.Actor, id int64, in SeatInput) (*domain.Seat, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	seat := &domain.Seat{ID: id, BusID: in.BusID, SeatNumber: in.SeatNumber, IsAvailable: in.IsAvailable}
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		current, err := repos.Seats.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.BusID != seat.BusID {
			held, err := repos.Tickets.HasActiveForSeat(ctx, id)
			if err != nil {
				return err
			}
			if held {
				return fmt.Errorf("%w: %s", ErrSeatHasBookings, current.SeatNumber)
			}
		}
		return repos.Seats.Update(ctx, seat)
	})
	if err != nil {
		return nil, err
	}
	return seat, nil
}

// DeleteSeat removes a seat no ticket references.
func (s *CatalogService) DeleteSeat(ctx context.Context, actor domain.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return mapDeleteError(s.seatRepo.Delete(ctx, id))
}
