package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"busticket/internal/domain"
	"busticket/internal/redis"
	"busticket/internal/repository"
)

// TripService handles trip scheduling and seat availability.
type TripService struct {
	transactor repository.Transactor
	tripRepo   repository.TripRepository
	seatRepo   repository.SeatRepository
	ticketRepo repository.TicketRepository
	cacheStore redis.CacheStoreInterface
	logger     *slog.Logger
}

// NewTripService creates a new TripService. cacheStore may be nil.
func NewTripService(
	transactor repository.Transactor,
	tripRepo repository.TripRepository,
	seatRepo repository.SeatRepository,
	ticketRepo repository.TicketRepository,
	cacheStore redis.CacheStoreInterface,
	logger *slog.Logger,
) *TripService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TripService{
		transactor: transactor,
		tripRepo:   tripRepo,
		seatRepo:   seatRepo,
		ticketRepo: ticketRepo,
		cacheStore: cacheStore,
		logger:     logger,
	}
}

// TripInput contains the editable fields of a trip.
type TripInput struct {
	RouteID       int64     `validate:"required,gt=0"`
	BusID         int64     `validate:"required,gt=0"`
	DepartureTime time.Time `validate:"required"`
	ArrivalTime   time.Time `validate:"required"`
	PricePerSeat  int64     `validate:"gt=0"`
}

func (in TripInput) validate() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if !in.ArrivalTime.After(in.DepartureTime) {
		return ErrInvalidSchedule
	}
	return nil
}

// TripDetails is a trip with its current seat availability.
type TripDetails struct {
	Trip         *domain.Trip
	Availability *domain.SeatAvailability
}

// ListTrips lists trips, latest departure first. upcoming restricts the list to
// trips that have not departed.
func (s *TripService) ListTrips(ctx context.Context, filter repository.TripFilter, upcoming bool) ([]*domain.Trip, error) {
	if upcoming {
		filter.DepartsAfter = time.Now()
	}
	return s.tripRepo.List(ctx, filter)
}

// UpcomingTrips lists trips that have not departed.
func (s *TripService) UpcomingTrips(ctx context.Context) ([]*domain.Trip, error) {
	return s.ListTrips(ctx, repository.TripFilter{}, true)
}

// GetTrip retrieves a trip with its route, bus and availability.
func (s *TripService) GetTrip(ctx context.Context, id int64) (*TripDetails, error) {
	trip, err := s.getTrip(ctx, id)
	if err != nil {
		return nil, err
	}

	availability, err := s.Availability(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TripDetails{Trip: trip, Availability: availability}, nil
}

func (s *TripService) getTrip(ctx context.Context, id int64) (*domain.Trip, error) {
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetTrip(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "trip cache read failed", slog.Int64("trip_id", id), slog.Any("error", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetTrip(ctx, trip); err != nil {
			s.logger.WarnContext(ctx, "trip cache write failed", slog.Int64("trip_id", id), slog.Any("error", err))
		}
	}
	return trip, nil
}

// Availability returns total, occupied and available seats of a trip.
// Occupied counts active tickets only, so canceled bookings free their seats.
func (s *TripService) Availability(ctx context.Context, tripID int64) (*domain.SeatAvailability, error) {
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetAvailability(ctx, tripID)
		if err != nil {
			s.logger.WarnContext(ctx, "availability cache read failed", slog.Int64("trip_id", tripID), slog.Any("error", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	availability, err := s.tripRepo.Availability(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetAvailability(ctx, availability); err != nil {
			s.logger.WarnContext(ctx, "availability cache write failed", slog.Int64("trip_id", tripID), slog.Any("error", err))
		}
	}
	return availability, nil
}

// SeatMap lists every seat of the trip's bus and whether it is booked.
func (s *TripService) SeatMap(ctx context.Context, tripID int64) ([]domain.SeatStatus, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	seats, err := s.seatRepo.List(ctx, repository.SeatFilter{BusID: trip.BusID})
	if err != nil {
		return nil, err
	}

	booked, err := s.ticketRepo.BookedSeatIDs(ctx, tripID, nil)
	if err != nil {
		return nil, err
	}
	bookedSet := make(map[int64]struct{}, len(booked))
	for _, id := range booked {
		bookedSet[id] = struct{}{}
	}

	statuses := make([]domain.SeatStatus, 0, len(seats))
	for _, seat := range seats {
		_, isBooked := bookedSet[seat.ID]
		statuses = append(statuses, domain.SeatStatus{Seat: *seat, IsBooked: isBooked})
	}
	return statuses, nil
}

// CreateTrip schedules a trip.
func (s *TripService) CreateTrip(ctx context.Context, actor domain.Actor, in TripInput) (*domain.Trip, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		RouteID:       in.RouteID,
		BusID:         in.BusID,
		DepartureTime: in.DepartureTime,
		ArrivalTime:   in.ArrivalTime,
		PricePerSeat:  in.PricePerSeat,
	}
	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	return s.tripRepo.GetByID(ctx, trip.ID)
}

// UpdateTrip replaces the schedule of a trip. The bus of a trip with active
// tickets is fixed, since its seat count and seat map come from that bus.
func (s *TripService) UpdateTrip(ctx context.Context, actor domain.Actor, id int64, in TripInput) (*domain.Trip, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:            id,
		RouteID:       in.RouteID,
		BusID:         in.BusID,
		DepartureTime: in.DepartureTime,
		ArrivalTime:   in.ArrivalTime,
		PricePerSeat:  in.PricePerSeat,
	}
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		current, err := repos.Trips.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.BusID != trip.BusID {
			booked, err := repos.Tickets.BookedSeatIDs(ctx, id, nil)
			if err != nil {
				return err
			}
			if len(booked) > 0 {
				return fmt.Errorf("%w: %d seats held", ErrTripHasBookings, len(booked))
			}
		}
		return repos.Trips.Update(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	return s.tripRepo.GetByID(ctx, id)
}

// DeleteTrip removes a trip without bookings.
func (s *TripService) DeleteTrip(ctx context.Context, actor domain.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.tripRepo.Delete(ctx, id); err != nil {
		return mapDeleteError(err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *TripService) invalidate(ctx context.Context, tripID int64) {
	if s.cacheStore == nil {
		return
	}
	if err := s.cacheStore.InvalidateTrip(ctx, tripID); err != nil {
		s.logger.WarnContext(ctx, "trip cache invalidation failed", slog.Int64("trip_id", tripID), slog.Any("error", err))
	}
}
