package tests

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"busticket/internal/domain"
	"busticket/internal/service"
)

const testSecret = "test-secret"

// testEnv wires every service over one in-memory store.
type testEnv struct {
	store        *Store
	transactor   *MockTransactor
	lockStore    *MockLockStore
	cacheStore   *MockCacheStore
	sessionStore *MockSessionStore
	psp          *service.MockPSP

	catalog  *service.CatalogService
	trips    *service.TripService
	bookings *service.BookingService
	payments *service.PaymentService
	wallets  *service.WalletService
	auth     *service.AuthService

	admin domain.Actor
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := discardLogger()
	store := NewStore()
	env := &testEnv{
		store:        store,
		transactor:   NewMockTransactor(store),
		lockStore:    NewMockLockStore(),
		cacheStore:   NewMockCacheStore(),
		sessionStore: NewMockSessionStore(),
		psp:          service.NewMockPSP(),
	}

	notifications := service.NewNotificationService(logger)
	env.catalog = service.NewCatalogService(store.Locations(), store.Routes(), store.Buses(), store.Seats(), env.transactor)
	env.trips = service.NewTripService(env.transactor, store.Trips(), store.Seats(), store.Tickets(), env.cacheStore, logger)
	env.bookings = service.NewBookingService(
		env.transactor, store.Bookings(), store.Tickets(), store.Payments(),
		env.lockStore, env.cacheStore, notifications, service.NewTicketDocumentService("Test Lines"),
		time.Second, logger,
	)
	env.payments = service.NewPaymentService(env.transactor, store.Payments(), store.Bookings(), env.psp, notifications)
	env.wallets = service.NewWalletService(env.transactor, store.Wallets(), store.Users(), notifications)
	env.auth = service.NewAuthService(store.Users(), store.Sessions(), env.sessionStore, testSecret, time.Hour, logger)

	env.admin = env.addUser(t, "admin", domain.UserRoleAdmin)
	return env
}

// addUser stores an active account and returns its actor.
func (e *testEnv) addUser(t *testing.T, username string, role domain.UserRole) domain.Actor {
	t.Helper()
	user := &domain.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "Full " + username,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if err := e.store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return domain.Actor{UserID: user.ID, Role: role, FullName: user.FullName}
}

// seededTrip is an upcoming trip with its bus seats.
type seededTrip struct {
	trip  *domain.Trip
	seats []*domain.Seat
}

// seedTrip creates two locations, a route, a bus with totalSeats seats and a
// trip departing tomorrow at the given price.
func (e *testEnv) seedTrip(t *testing.T, plate string, totalSeats int, price int64) seededTrip {
	t.Helper()
	ctx := context.Background()

	from, err := e.catalog.CreateLocation(ctx, e.admin, service.LocationInput{Name: "Central " + plate, City: "Hanoi"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	to, err := e.catalog.CreateLocation(ctx, e.admin, service.LocationInput{Name: "Harbor " + plate, City: "Hai Phong"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	route, err := e.catalog.CreateRoute(ctx, e.admin, service.RouteInput{StartLocationID: from.ID, EndLocationID: to.ID, DistanceKm: 120})
	if err != nil {
		t.Fatalf("create route: %v", err)
	}
	bus, seats, err := e.catalog.CreateBus(ctx, e.admin, service.BusInput{
		LicensePlate:    plate,
		Model:           "Coach 45",
		TotalSeats:      totalSeats,
		ManufactureYear: 2020,
	})
	if err != nil {
		t.Fatalf("create bus: %v", err)
	}

	departure := time.Now().Add(24 * time.Hour)
	trip, err := e.trips.CreateTrip(ctx, e.admin, service.TripInput{
		RouteID:       route.ID,
		BusID:         bus.ID,
		DepartureTime: departure,
		ArrivalTime:   departure.Add(3 * time.Hour),
		PricePerSeat:  price,
	})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	return seededTrip{trip: trip, seats: seats}
}

// book creates a booking of the given seats for the actor.
func (e *testEnv) book(t *testing.T, actor domain.Actor, tripID int64, seats ...*domain.Seat) *service.BookingResult {
	t.Helper()
	req := service.CreateBookingRequest{TripID: tripID}
	for _, s := range seats {
		req.Seats = append(req.Seats, service.SeatRequest{SeatID: s.ID})
	}
	result, err := e.bookings.CreateBooking(context.Background(), actor, req)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return result
}
