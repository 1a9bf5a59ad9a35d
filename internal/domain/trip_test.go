package domain

import (
	"strings"
	"testing"
	"time"
)

func TestTrip_DurationString(t *testing.T) {
	t.Parallel()

	dep := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		arrival time.Time
		want    string
	}{
		{dep.Add(90 * time.Minute), "1h 30m"},
		{dep.Add(12*time.Hour + 5*time.Minute + 40*time.Second), "12h 5m"},
		{dep.Add(45 * time.Minute), "0h 45m"},
	}

	for _, tc := range tests {
		trip := Trip{DepartureTime: dep, ArrivalTime: tc.arrival}
		if got := trip.DurationString(); got != tc.want {
			t.Errorf("DurationString() = %q, want %q", got, tc.want)
		}
	}
}

func TestTrip_IsUpcoming(t *testing.T) {
	t.Parallel()

	now := time.Now()
	if !(Trip{DepartureTime: now.Add(time.Minute)}).IsUpcoming(now) {
		t.Error("trip departing in a minute should be upcoming")
	}
	if (Trip{DepartureTime: now.Add(-time.Minute)}).IsUpcoming(now) {
		t.Error("departed trip should not be upcoming")
	}
}

func TestSeatAvailability_Available(t *testing.T) {
	t.Parallel()

	a := SeatAvailability{TotalSeats: 40, Occupied: 15}
	if a.Available() != 25 {
		t.Errorf("expected 25 available, got %d", a.Available())
	}
	if a.Available()+a.Occupied != a.TotalSeats {
		t.Error("available + occupied must equal total seats")
	}

	over := SeatAvailability{TotalSeats: 2, Occupied: 3}
	if over.Available() != 0 {
		t.Errorf("expected 0 when occupied exceeds total, got %d", over.Available())
	}
}

func TestSeatLayout(t *testing.T) {
	t.Parallel()

	seats := SeatLayout(7, 23)
	if len(seats) != 23 {
		t.Fatalf("expected 23 seats, got %d", len(seats))
	}

	want := map[int]string{0: "A01", 9: "A10", 10: "B01", 22: "C03"}
	for idx, label := range want {
		if seats[idx].SeatNumber != label {
			t.Errorf("seat %d: got %s, want %s", idx, seats[idx].SeatNumber, label)
		}
	}

	for _, s := range seats {
		if s.BusID != 7 || !s.IsAvailable {
			t.Errorf("unexpected seat %+v", s)
		}
	}
}

func TestRoute_Info(t *testing.T) {
	t.Parallel()

	r := Route{
		DistanceKm:    300,
		StartLocation: Location{Name: "Mien Dong", City: "Ho Chi Minh"},
		EndLocation:   Location{Name: "Da Lat Station", City: "Da Lat"},
	}
	info := r.Info()
	if !strings.Contains(info, "Mien Dong, Ho Chi Minh") || !strings.Contains(info, "300 km") {
		t.Errorf("unexpected route info %q", info)
	}
}
