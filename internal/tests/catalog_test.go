package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"busticket/internal/domain"
	"busticket/internal/repository"
	"busticket/internal/service"
)

func TestCatalog_RequiresAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	ctx := context.Background()

	testCases := []struct {
		name    string
		actor   domain.Actor
		wantErr error
	}{
		{name: "anonymous", actor: domain.Actor{}, wantErr: service.ErrUnauthenticated},
		{name: "regular user", actor: alice, wantErr: service.ErrForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.catalog.CreateLocation(ctx, tc.actor, service.LocationInput{Name: "X", City: "Y"}); !errors.Is(err, tc.wantErr) {
				t.Errorf("create location: expected %v, got: %v", tc.wantErr, err)
			}
			if _, _, err := env.catalog.CreateBus(ctx, tc.actor, service.BusInput{LicensePlate: "P", Model: "M", TotalSeats: 1, ManufactureYear: 2000}); !errors.Is(err, tc.wantErr) {
				t.Errorf("create bus: expected %v, got: %v", tc.wantErr, err)
			}
			if _, err := env.trips.CreateTrip(ctx, tc.actor, service.TripInput{}); !errors.Is(err, tc.wantErr) {
				t.Errorf("create trip: expected %v, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateBus_GeneratesSeatLayout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	bus, seats, err := env.catalog.CreateBus(ctx, env.admin, service.BusInput{
		LicensePlate:    "51B-00001",
		Model:           "Sleeper 22",
		TotalSeats:      22,
		ManufactureYear: 2019,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(seats) != 22 {
		t.Fatalf("expected 22 seats, got %d", len(seats))
	}

	want := map[int]string{0: "A01", 9: "A10", 10: "B01", 21: "C02"}
	for i, label := range want {
		if seats[i].SeatNumber != label {
			t.Errorf("seat %d: expected %s, got %s", i, label, seats[i].SeatNumber)
		}
	}

	stored, err := env.catalog.ListSeats(ctx, repository.SeatFilter{BusID: bus.ID})
	if err != nil {
		t.Fatalf("list seats: %v", err)
	}
	if len(stored) != 22 {
		t.Errorf("expected 22 stored seats, got %d", len(stored))
	}

	// A duplicate plate fails and leaves no orphan seats.
	if _, _, err := env.catalog.CreateBus(ctx, env.admin, service.BusInput{
		LicensePlate:    "51B-00001",
		Model:           "Coach",
		TotalSeats:      4,
		ManufactureYear: 2020,
	}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
	all, err := env.catalog.ListSeats(ctx, repository.SeatFilter{})
	if err != nil {
		t.Fatalf("list seats: %v", err)
	}
	if len(all) != 22 {
		t.Errorf("expected 22 seats in total, got %d", len(all))
	}
}

func TestUpdateBus_SeatCountFixed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	bus, _, err := env.catalog.CreateBus(ctx, env.admin, service.BusInput{
		LicensePlate: "51B-00002", Model: "Coach", TotalSeats: 10, ManufactureYear: 2018,
	})
	if err != nil {
		t.Fatalf("create bus: %v", err)
	}

	_, err = env.catalog.UpdateBus(ctx, env.admin, bus.ID, service.BusInput{
		LicensePlate: "51B-00002", Model: "Coach", TotalSeats: 12, ManufactureYear: 2018,
	})
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got: %v", err)
	}

	updated, err := env.catalog.UpdateBus(ctx, env.admin, bus.ID, service.BusInput{
		LicensePlate: "51B-99999", Model: "Coach Plus", TotalSeats: 10, ManufactureYear: 2018,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updated.LicensePlate != "51B-99999" || updated.Model != "Coach Plus" {
		t.Errorf("unexpected bus %+v", updated)
	}
}

func TestCreateRoute_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	from, err := env.catalog.CreateLocation(ctx, env.admin, service.LocationInput{Name: "My Dinh", City: "Hanoi"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	to, err := env.catalog.CreateLocation(ctx, env.admin, service.LocationInput{Name: "Bai Chay", City: "Ha Long"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}

	if _, err := env.catalog.CreateRoute(ctx, env.admin, service.RouteInput{StartLocationID: from.ID, EndLocationID: from.ID, DistanceKm: 10}); !errors.Is(err, service.ErrSameLocations) {
		t.Errorf("expected ErrSameLocations, got: %v", err)
	}
	if _, err := env.catalog.CreateRoute(ctx, env.admin, service.RouteInput{StartLocationID: from.ID, EndLocationID: 999999, DistanceKm: 10}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
	var verr *service.ValidationError
	if _, err := env.catalog.CreateRoute(ctx, env.admin, service.RouteInput{StartLocationID: from.ID, EndLocationID: to.ID}); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for zero distance, got: %v", err)
	}

	route, err := env.catalog.CreateRoute(ctx, env.admin, service.RouteInput{StartLocationID: from.ID, EndLocationID: to.ID, DistanceKm: 165.5})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if want := "Route from My Dinh, Hanoi to Bai Chay, Ha Long, Distance: 165.5 km"; route.Info() != want {
		t.Errorf("expected %q, got %q", want, route.Info())
	}
}

func TestCatalogDelete_InUse(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seeded := env.seedTrip(t, "51B-00003", 4, 1000)
	trip := seeded.trip
	ctx := context.Background()

	env.book(t, domain.Actor{}, trip.ID, seeded.seats[0])

	testCases := []struct {
		name   string
		delete func() error
	}{
		{name: "location used by route", delete: func() error { return env.catalog.DeleteLocation(ctx, env.admin, trip.Route.StartLocationID) }},
		{name: "route used by trip", delete: func() error { return env.catalog.DeleteRoute(ctx, env.admin, trip.RouteID) }},
		{name: "bus used by trip", delete: func() error { return env.catalog.DeleteBus(ctx, env.admin, trip.BusID) }},
		{name: "seat with tickets", delete: func() error { return env.catalog.DeleteSeat(ctx, env.admin, seeded.seats[0].ID) }},
		{name: "trip with bookings", delete: func() error { return env.trips.DeleteTrip(ctx, env.admin, trip.ID) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.delete(); !errors.Is(err, service.ErrInUse) {
				t.Errorf("expected ErrInUse, got: %v", err)
			}
		})
	}

	// An unsold seat can go.
	if err := env.catalog.DeleteSeat(ctx, env.admin, seeded.seats[3].ID); err != nil {
		t.Errorf("expected unsold seat to be deletable, got: %v", err)
	}
	if err := env.catalog.DeleteLocation(ctx, env.admin, 999999); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestTrips_ScheduleAndAvailability(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seeded := env.seedTrip(t, "51B-00004", 6, 1200)
	trip := seeded.trip
	ctx := context.Background()

	if trip.DurationString() != "3h 0m" {
		t.Errorf("expected duration 3h 0m, got %s", trip.DurationString())
	}

	_, err := env.trips.CreateTrip(ctx, env.admin, service.TripInput{
		RouteID:       trip.RouteID,
		BusID:         trip.BusID,
		DepartureTime: trip.DepartureTime,
		ArrivalTime:   trip.DepartureTime,
		PricePerSeat:  1200,
	})
	if !errors.Is(err, service.ErrInvalidSchedule) {
		t.Errorf("expected ErrInvalidSchedule, got: %v", err)
	}

	past := time.Now().Add(-48 * time.Hour)
	if _, err := env.trips.CreateTrip(ctx, env.admin, service.TripInput{
		RouteID:       trip.RouteID,
		BusID:         trip.BusID,
		DepartureTime: past,
		ArrivalTime:   past.Add(2 * time.Hour),
		PricePerSeat:  900,
	}); err != nil {
		t.Fatalf("create past trip: %v", err)
	}

	all, err := env.trips.ListTrips(ctx, repository.TripFilter{BusID: trip.BusID}, false)
	if err != nil {
		t.Fatalf("list trips: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 trips, got %d", len(all))
	}
	upcoming, err := env.trips.UpcomingTrips(ctx)
	if err != nil {
		t.Fatalf("upcoming trips: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].ID != trip.ID {
		t.Errorf("expected only the upcoming trip, got %d trips", len(upcoming))
	}

	env.book(t, domain.Actor{}, trip.ID, seeded.seats[1], seeded.seats[4])

	details, err := env.trips.GetTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if details.Availability.TotalSeats != 6 || details.Availability.Available() != 4 {
		t.Errorf("expected 4 of 6 seats available, got %+v", *details.Availability)
	}

	seatMap, err := env.trips.SeatMap(ctx, trip.ID)
	if err != nil {
		t.Fatalf("seat map: %v", err)
	}
	if len(seatMap) != 6 {
		t.Fatalf("expected 6 seats, got %d", len(seatMap))
	}
	booked := 0
	for _, s := range seatMap {
		if s.IsBooked {
			booked++
			if s.Seat.ID != seeded.seats[1].ID && s.Seat.ID != seeded.seats[4].ID {
				t.Errorf("unexpected booked seat %s", s.Seat.SeatNumber)
			}
		}
	}
	if booked != 2 {
		t.Errorf("expected 2 booked seats, got %d", booked)
	}
}

func TestUpdateTrip_InvalidatesCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seeded := env.seedTrip(t, "51B-00005", 4, 1000)
	trip := seeded.trip
	ctx := context.Background()

	if _, err := env.trips.GetTrip(ctx, trip.ID); err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if !env.cacheStore.HasAvailability(trip.ID) {
		t.Fatal("expected availability to be cached")
	}

	updated, err := env.trips.UpdateTrip(ctx, env.admin, trip.ID, service.TripInput{
		RouteID:       trip.RouteID,
		BusID:         trip.BusID,
		DepartureTime: trip.DepartureTime,
		ArrivalTime:   trip.ArrivalTime,
		PricePerSeat:  1750,
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if updated.PricePerSeat != 1750 {
		t.Errorf("expected price 1750, got %d", updated.PricePerSeat)
	}
	if env.cacheStore.InvalidateTripCount != 1 {
		t.Errorf("expected 1 trip invalidation, got %d", env.cacheStore.InvalidateTripCount)
	}
	if env.cacheStore.HasAvailability(trip.ID) {
		t.Error("expected cached availability to be dropped")
	}

	details, err := env.trips.GetTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if details.Trip.PricePerSeat != 1750 {
		t.Errorf("expected fresh price 1750, got %d", details.Trip.PricePerSeat)
	}
}

func TestUpdateTrip_BusFixedWhileSeatsAreSold(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	seeded := env.seedTrip(t, "51B-00006", 3, 1000)
	spare := env.seedTrip(t, "51B-00007", 1, 1000)
	trip := seeded.trip
	ctx := context.Background()

	result := env.book(t, alice, trip.ID, seeded.seats[0], seeded.seats[1])

	moveTo := func(busID int64) error {
		_, err := env.trips.UpdateTrip(ctx, env.admin, trip.ID, service.TripInput{
			RouteID:       trip.RouteID,
			BusID:         busID,
			DepartureTime: trip.DepartureTime,
			ArrivalTime:   trip.ArrivalTime,
			PricePerSeat:  trip.PricePerSeat,
		})
		return err
	}

	if err := moveTo(spare.trip.BusID); !errors.Is(err, service.ErrTripHasBookings) {
		t.Fatalf("expected ErrTripHasBookings, got: %v", err)
	}

	availability, err := env.trips.Availability(ctx, trip.ID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if availability.TotalSeats != 3 || availability.Occupied != 2 || availability.Available() != 1 {
		t.Errorf("expected 1 of 3 seats free on the original bus, got %+v", *availability)
	}
	seatMap, err := env.trips.SeatMap(ctx, trip.ID)
	if err != nil {
		t.Fatalf("seat map: %v", err)
	}
	for _, s := range seatMap {
		wantBooked := s.Seat.ID == seeded.seats[0].ID || s.Seat.ID == seeded.seats[1].ID
		if s.IsBooked != wantBooked {
			t.Errorf("seat %s: expected booked=%v, got %v", s.Seat.SeatNumber, wantBooked, s.IsBooked)
		}
	}

	// Other fields of a sold trip may still change.
	if err := moveTo(trip.BusID); err != nil {
		t.Errorf("expected same-bus update to succeed, got: %v", err)
	}

	if _, err := env.bookings.CancelBooking(ctx, alice, result.Booking.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := moveTo(spare.trip.BusID); err != nil {
		t.Fatalf("expected bus change without active tickets, got: %v", err)
	}
	availability, err = env.trips.Availability(ctx, trip.ID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if availability.TotalSeats != 1 || availability.Occupied != 0 {
		t.Errorf("expected the new bus's single free seat, got %+v", *availability)
	}
}

func TestUpdateSeat_BusFixedWhileTicketed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seeded := env.seedTrip(t, "51B-00008", 3, 1000)
	spare := env.seedTrip(t, "51B-00009", 1, 1000)
	busID := seeded.trip.BusID
	ctx := context.Background()

	env.book(t, domain.Actor{}, seeded.trip.ID, seeded.seats[0])

	testCases := []struct {
		name    string
		seat    *domain.Seat
		in      service.SeatInput
		wantErr error
		wantBus int64
	}{
		{
			name:    "ticketed seat to another bus",
			seat:    seeded.seats[0],
			in:      service.SeatInput{BusID: spare.trip.BusID, SeatNumber: "Z01", IsAvailable: true},
			wantErr: service.ErrSeatHasBookings,
			wantBus: busID,
		},
		{
			name:    "ticketed seat out of service",
			seat:    seeded.seats[0],
			in:      service.SeatInput{BusID: busID, SeatNumber: seeded.seats[0].SeatNumber, IsAvailable: false},
			wantBus: busID,
		},
		{
			name:    "unsold seat to another bus",
			seat:    seeded.seats[2],
			in:      service.SeatInput{BusID: spare.trip.BusID, SeatNumber: "Z02", IsAvailable: true},
			wantBus: spare.trip.BusID,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.catalog.UpdateSeat(ctx, env.admin, tc.seat.ID, tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got: %v", tc.wantErr, err)
			}
			stored, err := env.catalog.GetSeat(ctx, tc.seat.ID)
			if err != nil {
				t.Fatalf("get seat: %v", err)
			}
			if stored.BusID != tc.wantBus {
				t.Errorf("expected seat on bus %d, got %d", tc.wantBus, stored.BusID)
			}
		})
	}
}
