package domain

import (
	"fmt"
	"time"
)

// Trip is a scheduled run of a bus over a route.
type Trip struct {
	ID            int64
	RouteID       int64
	BusID         int64
	DepartureTime time.Time
	ArrivalTime   time.Time
	PricePerSeat  int64

	// Populated by joined reads.
	Route Route
	Bus   Bus
}

// IsUpcoming reports whether the trip departs after now.
func (t Trip) IsUpcoming(now time.Time) bool {
	return t.DepartureTime.After(now)
}

// Duration returns the travel time.
func (t Trip) Duration() time.Duration {
	return t.ArrivalTime.Sub(t.DepartureTime)
}

// DurationString formats the travel time as "Xh Ym".
func (t Trip) DurationString() string {
	d := t.Duration()
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// SeatAvailability is the seat inventory of one trip.
type SeatAvailability struct {
	TripID     int64
	TotalSeats int
	Occupied   int
}

// Available returns the number of seats still free.
func (a SeatAvailability) Available() int {
	if a.Occupied > a.TotalSeats {
		return 0
	}
	return a.TotalSeats - a.Occupied
}

// SeatStatus is one entry of a trip seat map.
type SeatStatus struct {
	Seat     Seat
	IsBooked bool
}
