package domain

import (
	"fmt"
	"time"
)

// Location is a named stop in a city.
type Location struct {
	ID        int64
	Name      string
	City      string
	CreatedAt time.Time
}

// FullAddress returns "name, city".
func (l Location) FullAddress() string {
	return l.Name + ", " + l.City
}

// Route connects two locations.
type Route struct {
	ID              int64
	StartLocationID int64
	EndLocationID   int64
	DistanceKm      float64

	// Populated by joined reads.
	StartLocation Location
	EndLocation   Location
}

// Info returns a human readable description of the route.
func (r Route) Info() string {
	return fmt.Sprintf("Route from %s to %s, Distance: %g km",
		r.StartLocation.FullAddress(), r.EndLocation.FullAddress(), r.DistanceKm)
}
