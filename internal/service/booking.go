package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"busticket/internal/domain"
	"busticket/internal/redis"
	"busticket/internal/repository"
)

const defaultSeatLockTTL = 10 * time.Second

// BookingService handles seat reservation and the booking lifecycle.
type BookingService struct {
	transactor          repository.Transactor
	bookingRepo         repository.BookingRepository
	ticketRepo          repository.TicketRepository
	paymentRepo         repository.PaymentRepository
	lockStore           redis.LockStoreInterface
	cacheStore          redis.CacheStoreInterface
	notificationService *NotificationService
	documentService     *TicketDocumentService
	seatLockTTL         time.Duration
	logger              *slog.Logger
}

// NewBookingService creates a new BookingService. lockStore and cacheStore may be nil.
func NewBookingService(
	transactor repository.Transactor,
	bookingRepo repository.BookingRepository,
	ticketRepo repository.TicketRepository,
	paymentRepo repository.PaymentRepository,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CacheStoreInterface,
	notificationService *NotificationService,
	documentService *TicketDocumentService,
	seatLockTTL time.Duration,
	logger *slog.Logger,
) *BookingService {
	if seatLockTTL <= 0 {
		seatLockTTL = defaultSeatLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		transactor:          transactor,
		bookingRepo:         bookingRepo,
		ticketRepo:          ticketRepo,
		paymentRepo:         paymentRepo,
		lockStore:           lockStore,
		cacheStore:          cacheStore,
		notificationService: notificationService,
		documentService:     documentService,
		seatLockTTL:         seatLockTTL,
		logger:              logger,
	}
}

// SeatRequest selects one seat and optionally names its passenger.
type SeatRequest struct {
	SeatID        int64  `validate:"required,gt=0"`
	PassengerName string `validate:"max=100"`
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	TripID        int64         `validate:"required,gt=0"`
	Seats         []SeatRequest `validate:"dive"`
	NumberOfSeats int           `validate:"gte=0"` // Optional: must match len(Seats) when set
}

// BookingResult is a booking with its tickets and payment.
type BookingResult struct {
	Booking *domain.Booking
	Tickets []*domain.Ticket
	Payment *domain.Payment
}

func (req CreateBookingRequest) validate() error {
	if len(req.Seats) == 0 {
		return ErrNoSeatsRequested
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	if req.NumberOfSeats != 0 && req.NumberOfSeats != len(req.Seats) {
		return ErrSeatCountMismatch
	}

	seen := make(map[int64]struct{}, len(req.Seats))
	for _, seat := range req.Seats {
		if _, dup := seen[seat.SeatID]; dup {
			return ErrDuplicateSeat
		}
		seen[seat.SeatID] = struct{}{}
	}
	return nil
}

// CreateBooking reserves seats on a trip. The booking, its tickets and a
// Pending payment are written in one transaction: either all exist or none.
// Unauthenticated callers book as guests and receive a guest token.
func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, req CreateBookingRequest) (*BookingResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	seatIDs := make([]int64, len(req.Seats))
	for i, seat := range req.Seats {
		seatIDs[i] = seat.SeatID
	}

	// Short-lived locks keep overlapping requests from racing into the transaction.
	if s.lockStore != nil {
		token, ok, err := s.lockStore.AcquireSeatLocks(ctx, req.TripID, seatIDs, s.seatLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire seat locks: %w", err)
		}
		if !ok {
			return nil, ErrSeatLocked
		}
		defer func() {
			if err := s.lockStore.ReleaseSeatLocks(context.WithoutCancel(ctx), req.TripID, seatIDs, token); err != nil {
				s.logger.WarnContext(ctx, "release seat locks failed", slog.Int64("trip_id", req.TripID), slog.Any("error", err))
			}
		}()
	}

	booking := &domain.Booking{
		ID:            uuid.New().String(),
		UserID:        actor.UserID,
		TripID:        req.TripID,
		NumberOfSeats: len(req.Seats),
		BookingTime:   time.Now(),
		Status:        domain.BookingStatusPending,
	}
	if !actor.IsAuthenticated() {
		booking.GuestToken = uuid.New().String()
	}

	defaultName := domain.DefaultPassengerName
	if actor.FullName != "" {
		defaultName = actor.FullName
	}

	var (
		tickets []*domain.Ticket
		payment *domain.Payment
	)
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		// Lock the trip row so bookings of the same trip run one at a time.
		trip, err := repos.Trips.GetForUpdate(ctx, req.TripID)
		if err != nil {
			return err
		}

		seatNumbers, err := s.checkSeats(ctx, repos, trip, seatIDs)
		if err != nil {
			return err
		}

		availability, err := repos.Trips.Availability(ctx, trip.ID)
		if err != nil {
			return err
		}
		if len(seatIDs) > availability.Available() {
			return ErrInsufficientSeats
		}

		if !trip.IsUpcoming(time.Now()) {
			return ErrTripDeparted
		}

		booking.TotalAmount = int64(len(seatIDs)) * trip.PricePerSeat
		if err := repos.Bookings.Create(ctx, booking); err != nil {
			return err
		}

		tickets = make([]*domain.Ticket, 0, len(req.Seats))
		for _, seat := range req.Seats {
			name := seat.PassengerName
			if name == "" {
				name = defaultName
			}
			tickets = append(tickets, &domain.Ticket{
				BookingID:     booking.ID,
				SeatID:        seat.SeatID,
				TripID:        trip.ID,
				Price:         trip.PricePerSeat,
				PassengerName: name,
				SeatNumber:    seatNumbers[seat.SeatID],
			})
		}
		if err := repos.Tickets.CreateBatch(ctx, tickets); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: %v", ErrSeatAlreadyBooked, err)
			}
			return err
		}

		payment = &domain.Payment{
			ID:              uuid.New().String(),
			BookingID:       booking.ID,
			Amount:          booking.TotalAmount,
			Method:          domain.PaymentMethodPending,
			TransactionCode: domain.NewTransactionCode(),
			Status:          domain.PaymentStatusPending,
			PaymentTime:     time.Now(),
		}
		return repos.Payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateAvailability(ctx, req.TripID)

	// Reload to pick up the joined trip details.
	created, err := s.bookingRepo.GetByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	s.notificationService.NotifyBookingCreated(ctx, created, payment)

	return &BookingResult{Booking: created, Tickets: tickets, Payment: payment}, nil
}

// checkSeats verifies every seat exists, belongs to the trip's bus, is in
// service and holds no active ticket on the trip. Returns seat numbers by ID.
func (s *BookingService) checkSeats(ctx context.Context, repos repository.Repos, trip *domain.Trip, seatIDs []int64) (map[int64]string, error) {
	seats, err := repos.Seats.GetByIDs(ctx, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(seats) != len(seatIDs) {
		return nil, fmt.Errorf("seat: %w", repository.ErrNotFound)
	}

	numbers := make(map[int64]string, len(seats))
	for _, seat := range seats {
		if seat.BusID != trip.BusID {
			return nil, fmt.Errorf("%w: %s", ErrSeatNotOnBus, seat.SeatNumber)
		}
		if !seat.IsAvailable {
			return nil, fmt.Errorf("%w: %s", ErrSeatUnavailable, seat.SeatNumber)
		}
		numbers[seat.ID] = seat.SeatNumber
	}

	booked, err := repos.Tickets.BookedSeatIDs(ctx, trip.ID, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(booked) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSeatAlreadyBooked, numbers[booked[0]])
	}
	return numbers, nil
}

// authorizeBooking reports whether the actor may see and act on the booking.
func authorizeBooking(actor domain.Actor, booking *domain.Booking) error {
	if actor.CanAccessBooking(*booking) {
		return nil
	}
	if !actor.IsAuthenticated() && actor.GuestToken == "" {
		return ErrUnauthenticated
	}
	return ErrForbidden
}

// GetBooking retrieves a booking the actor may access.
func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeBooking(actor, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListBookings lists all bookings for admins and the caller's own otherwise.
func (s *BookingService) ListBookings(ctx context.Context, actor domain.Actor, filter repository.BookingFilter) ([]*domain.Booking, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	return s.bookingRepo.List(ctx, filter)
}

// MyBookings lists the caller's own bookings, admins included.
func (s *BookingService) MyBookings(ctx context.Context, actor domain.Actor) ([]*domain.Booking, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	return s.bookingRepo.List(ctx, repository.BookingFilter{UserID: actor.UserID})
}

// Statistics counts bookings per status.
func (s *BookingService) Statistics(ctx context.Context, actor domain.Actor) (*domain.BookingStatistics, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.bookingRepo.Statistics(ctx)
}

// UpdatePassengersRequest renames passengers by ticket ID.
type UpdatePassengersRequest struct {
	PassengerNames map[int64]string `validate:"required,min=1,dive,required,max=100"`
}

// UpdatePassengers renames passengers of a booking that can still be modified.
// All names change in one transaction under the booking row lock.
func (s *BookingService) UpdatePassengers(ctx context.Context, actor domain.Actor, id string, req UpdatePassengersRequest) ([]*domain.Ticket, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	ticketIDs := make([]int64, 0, len(req.PassengerNames))
	for ticketID := range req.PassengerNames {
		ticketIDs = append(ticketIDs, ticketID)
	}
	slices.Sort(ticketIDs)

	var tickets []*domain.Ticket
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		booking, err := repos.Bookings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := authorizeBooking(actor, booking); err != nil {
			return err
		}
		if !booking.CanModify(time.Now()) {
			return ErrBookingNotModifiable
		}

		tickets, err = repos.Tickets.List(ctx, repository.TicketFilter{BookingID: id})
		if err != nil {
			return err
		}
		owned := make(map[int64]*domain.Ticket, len(tickets))
		for _, t := range tickets {
			owned[t.ID] = t
		}
		for _, ticketID := range ticketIDs {
			if _, ok := owned[ticketID]; !ok {
				return fmt.Errorf("%w: %d", ErrTicketNotInBooking, ticketID)
			}
		}

		for _, ticketID := range ticketIDs {
			name := req.PassengerNames[ticketID]
			if err := repos.Tickets.UpdatePassengerName(ctx, ticketID, name); err != nil {
				return err
			}
			owned[ticketID].PassengerName = name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

// ConfirmBooking moves a Pending booking to Confirmed. Admin only.
func (s *BookingService) ConfirmBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var booking *domain.Booking
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		booking, err = repos.Bookings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !booking.CanTransitionTo(domain.BookingStatusConfirmed) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidBookingTransition, booking.Status, domain.BookingStatusConfirmed)
		}

		booking.Status = domain.BookingStatusConfirmed
		return repos.Bookings.UpdateStatus(ctx, id, booking.Status)
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.NotifyBookingConfirmed(ctx, booking)
	return booking, nil
}

// CancelBooking cancels a Pending or Confirmed booking. Its tickets stop
// holding seats and any Pending payment fails, in the same transaction.
func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		booking, err = repos.Bookings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := authorizeBooking(actor, booking); err != nil {
			return err
		}
		if booking.Status == domain.BookingStatusCanceled {
			return ErrBookingAlreadyCanceled
		}
		if !booking.CanTransitionTo(domain.BookingStatusCanceled) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidBookingTransition, booking.Status, domain.BookingStatusCanceled)
		}

		booking.Status = domain.BookingStatusCanceled
		if err := repos.Bookings.UpdateStatus(ctx, id, booking.Status); err != nil {
			return err
		}
		if err := repos.Tickets.DeactivateByBooking(ctx, id); err != nil {
			return err
		}
		return repos.Payments.FailPendingByBooking(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateAvailability(ctx, booking.TripID)

	canceledBy := actor.UserID
	if canceledBy == "" {
		canceledBy = "guest"
	}
	s.notificationService.NotifyBookingCanceled(ctx, booking, canceledBy)

	return booking, nil
}

// BookingTickets lists the tickets of a booking the actor may access.
func (s *BookingService) BookingTickets(ctx context.Context, actor domain.Actor, id string) ([]*domain.Ticket, error) {
	if _, err := s.GetBooking(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.ticketRepo.List(ctx, repository.TicketFilter{BookingID: id})
}

// ListTickets lists all tickets for admins and the caller's own otherwise.
func (s *BookingService) ListTickets(ctx context.Context, actor domain.Actor, filter repository.TicketFilter) ([]*domain.Ticket, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	return s.ticketRepo.List(ctx, filter)
}

// GetTicket retrieves a ticket whose booking the actor may access.
func (s *BookingService) GetTicket(ctx context.Context, actor domain.Actor, id int64) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetBooking(ctx, actor, ticket.BookingID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ETicket renders the PDF e-ticket of a booking.
func (s *BookingService) ETicket(ctx context.Context, actor domain.Actor, id string) ([]byte, error) {
	booking, err := s.GetBooking(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == domain.BookingStatusCanceled {
		return nil, ErrBookingAlreadyCanceled
	}

	tickets, err := s.ticketRepo.List(ctx, repository.TicketFilter{BookingID: id})
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.List(ctx, repository.PaymentFilter{BookingID: id})
	if err != nil {
		return nil, err
	}
	var payment *domain.Payment
	if len(payments) > 0 {
		payment = payments[0]
	}

	return s.documentService.RenderETicket(ETicket{Booking: booking, Tickets: tickets, Payment: payment})
}

func (s *BookingService) invalidateAvailability(ctx context.Context, tripID int64) {
	if s.cacheStore == nil {
		return
	}
	if err := s.cacheStore.InvalidateAvailability(ctx, tripID); err != nil {
		s.logger.WarnContext(ctx, "availability cache invalidation failed", slog.Int64("trip_id", tripID), slog.Any("error", err))
	}
}
