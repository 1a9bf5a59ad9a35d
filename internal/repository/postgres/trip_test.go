package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"busticket/internal/repository"
)

func TestTripRepository_Availability(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT b.total_seats,\s+\(SELECT COUNT\(\*\) FROM tickets tk WHERE tk.trip_id = t.id AND tk.active\)`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"total_seats", "count"}).AddRow(2, 1))

	a, err := NewTripRepository(db).Availability(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.TotalSeats != 2 || a.Occupied != 1 || a.Available() != 1 {
		t.Errorf("unexpected availability %+v", a)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTripRepository_AvailabilityUnknownTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT b.total_seats`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"total_seats", "count"}))

	_, err = NewTripRepository(db).Availability(context.Background(), 404)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTripRepository_ListFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`WHERE t.route_id = \$1 AND t.departure_time > \$2 ORDER BY t.departure_time DESC`).
		WithArgs(int64(2), now).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "route_id", "bus_id", "departure_time", "arrival_time", "price_per_seat",
			"start_location_id", "end_location_id", "distance_km",
			"sl_name", "sl_city", "el_name", "el_city",
			"license_plate", "model", "total_seats", "manufacture_year",
		}).AddRow(
			1, 2, 3, now.Add(time.Hour), now.Add(4*time.Hour), 120000,
			10, 11, 150.5,
			"Mien Dong", "Ho Chi Minh", "Vung Tau Station", "Vung Tau",
			"51B-00001", "Thaco", 2, 2021,
		))

	trips, err := NewTripRepository(db).List(context.Background(), repository.TripFilter{RouteID: 2, DepartsAfter: now})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 trip, got %d", len(trips))
	}
	trip := trips[0]
	if trip.Bus.ID != 3 || trip.Route.EndLocation.City != "Vung Tau" {
		t.Errorf("joined fields not populated: %+v", trip)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTripRepository_DeleteReferenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM trips WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "bookings_trip_id_fkey"})

	err = NewTripRepository(db).Delete(context.Background(), 1)
	if !errors.Is(err, repository.ErrReferenced) {
		t.Fatalf("expected ErrReferenced, got %v", err)
	}
}
