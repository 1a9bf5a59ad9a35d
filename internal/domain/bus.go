package domain

import "fmt"

// SeatsPerRow is the number of seats labelled under one row letter.
const SeatsPerRow = 10

// Bus is a vehicle with a fixed seat count.
type Bus struct {
	ID              int64
	LicensePlate    string
	Model           string
	TotalSeats      int
	ManufactureYear int
}

// Seat is a physical seat slot on a bus.
type Seat struct {
	ID          int64
	BusID       int64
	SeatNumber  string
	IsAvailable bool
}

// SeatNumber returns the label of the seat at the zero-based index:
// A01..A10, B01..B10 and so on.
func SeatNumber(index int) string {
	row := rune('A' + index/SeatsPerRow)
	return fmt.Sprintf("%c%02d", row, index%SeatsPerRow+1)
}

// SeatLayout returns the seats to create for a new bus.
func SeatLayout(busID int64, totalSeats int) []*Seat {
	seats := make([]*Seat, 0, totalSeats)
	for i := 0; i < totalSeats; i++ {
		seats = append(seats, &Seat{
			BusID:       busID,
			SeatNumber:  SeatNumber(i),
			IsAvailable: true,
		})
	}
	return seats
}
