package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/middleware"
	"busticket/internal/repository"
	"busticket/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripRequest is the HTTP request body for creating or updating a trip.
type TripRequest struct {
	RouteID       int64     `json:"route_id"`
	BusID         int64     `json:"bus_id"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	PricePerSeat  int64     `json:"price_per_seat"`
}

// TripResponse is the HTTP response for a trip.
type TripResponse struct {
	ID             int64          `json:"id"`
	Route          *RouteResponse `json:"route,omitempty"`
	Bus            *BusResponse   `json:"bus,omitempty"`
	RouteID        int64          `json:"route_id"`
	BusID          int64          `json:"bus_id"`
	DepartureTime  string         `json:"departure_time"`
	ArrivalTime    string         `json:"arrival_time"`
	PricePerSeat   int64          `json:"price_per_seat"`
	Duration       string         `json:"duration"`
	IsUpcoming     bool           `json:"is_upcoming"`
	AvailableSeats *int           `json:"available_seats,omitempty"`
}

func toTripResponse(t *domain.Trip, now time.Time) TripResponse {
	resp := TripResponse{
		ID:            t.ID,
		RouteID:       t.RouteID,
		BusID:         t.BusID,
		DepartureTime: formatTime(t.DepartureTime),
		ArrivalTime:   formatTime(t.ArrivalTime),
		PricePerSeat:  t.PricePerSeat,
		Duration:      t.DurationString(),
		IsUpcoming:    t.IsUpcoming(now),
	}
	if t.Route.ID != 0 {
		route := toRouteResponse(&t.Route)
		resp.Route = &route
	}
	if t.Bus.ID != 0 {
		bus := toBusResponse(&t.Bus)
		resp.Bus = &bus
	}
	return resp
}

// AvailabilityResponse is the HTTP response for trip seat availability.
type AvailabilityResponse struct {
	TripID         int64 `json:"trip_id"`
	TotalSeats     int   `json:"total_seats"`
	OccupiedSeats  int   `json:"occupied_seats"`
	AvailableSeats int   `json:"available_seats"`
}

// SeatStatusResponse is one entry of a trip seat map.
type SeatStatusResponse struct {
	SeatResponse
	IsBooked bool `json:"is_booked"`
}

// ListTrips handles GET /v1/trips
func (h *TripHandler) ListTrips(c *gin.Context) {
	routeID, ok := queryInt64(c, "route_id")
	if !ok {
		return
	}
	busID, ok := queryInt64(c, "bus_id")
	if !ok {
		return
	}
	upcoming, ok := queryBool(c, "upcoming")
	if !ok {
		return
	}

	trips, err := h.tripService.ListTrips(c.Request.Context(), repository.TripFilter{
		RouteID: routeID,
		BusID:   busID,
	}, upcoming != nil && *upcoming)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// UpcomingTrips handles GET /v1/trips/upcoming
func (h *TripHandler) UpcomingTrips(c *gin.Context) {
	trips, err := h.tripService.UpcomingTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

func toTripResponses(trips []*domain.Trip) []TripResponse {
	now := time.Now()
	out := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, toTripResponse(t, now))
	}
	return out
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	details, err := h.tripService.GetTrip(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := toTripResponse(details.Trip, time.Now())
	available := details.Availability.Available()
	resp.AvailableSeats = &available
	respondJSON(c, http.StatusOK, resp)
}

// Availability handles GET /v1/trips/:id/available-seats
func (h *TripHandler) Availability(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	availability, err := h.tripService.Availability(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, AvailabilityResponse{
		TripID:         id,
		TotalSeats:     availability.TotalSeats,
		OccupiedSeats:  availability.Occupied,
		AvailableSeats: availability.Available(),
	})
}

// SeatMap handles GET /v1/trips/:id/seats
func (h *TripHandler) SeatMap(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	statuses, err := h.tripService.SeatMap(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]SeatStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, SeatStatusResponse{SeatResponse: toSeatResponse(&st.Seat), IsBooked: st.IsBooked})
	}
	respondJSON(c, http.StatusOK, out)
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), middleware.ActorFrom(c), service.TripInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toTripResponse(trip, time.Now()))
}

// UpdateTrip handles PUT /v1/trips/:id
func (h *TripHandler) UpdateTrip(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	trip, err := h.tripService.UpdateTrip(c.Request.Context(), middleware.ActorFrom(c), id, service.TripInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(trip, time.Now()))
}

// DeleteTrip handles DELETE /v1/trips/:id
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.tripService.DeleteTrip(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
