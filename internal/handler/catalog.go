package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/middleware"
	"busticket/internal/repository"
	"busticket/internal/service"
)

// CatalogHandler handles HTTP requests for locations, routes, buses and seats.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// LocationRequest is the HTTP request body for creating or updating a location.
type LocationRequest struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// LocationResponse is the HTTP response for a location.
type LocationResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	City        string `json:"city"`
	FullAddress string `json:"full_address"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func toLocationResponse(l *domain.Location) LocationResponse {
	return LocationResponse{
		ID:          l.ID,
		Name:        l.Name,
		City:        l.City,
		FullAddress: l.FullAddress(),
		CreatedAt:   formatTime(l.CreatedAt),
	}
}

// RouteRequest is the HTTP request body for creating or updating a route.
type RouteRequest struct {
	StartLocationID int64   `json:"start_location_id"`
	EndLocationID   int64   `json:"end_location_id"`
	DistanceKm      float64 `json:"distance_km"`
}

// RouteResponse is the HTTP response for a route.
type RouteResponse struct {
	ID            int64            `json:"id"`
	StartLocation LocationResponse `json:"start_location"`
	EndLocation   LocationResponse `json:"end_location"`
	DistanceKm    float64          `json:"distance_km"`
	Info          string           `json:"info"`
}

func toRouteResponse(r *domain.Route) RouteResponse {
	return RouteResponse{
		ID:            r.ID,
		StartLocation: toLocationResponse(&r.StartLocation),
		EndLocation:   toLocationResponse(&r.EndLocation),
		DistanceKm:    r.DistanceKm,
		Info:          r.Info(),
	}
}

// BusRequest is the HTTP request body for creating or updating a bus.
type BusRequest struct {
	LicensePlate    string `json:"license_plate"`
	Model           string `json:"model"`
	TotalSeats      int    `json:"total_seats"`
	ManufactureYear int    `json:"manufacture_year"`
}

// BusResponse is the HTTP response for a bus.
type BusResponse struct {
	ID              int64          `json:"id"`
	LicensePlate    string         `json:"license_plate"`
	Model           string         `json:"model"`
	TotalSeats      int            `json:"total_seats"`
	ManufactureYear int            `json:"manufacture_year"`
	Seats           []SeatResponse `json:"seats,omitempty"`
}

func toBusResponse(b *domain.Bus) BusResponse {
	return BusResponse{
		ID:              b.ID,
		LicensePlate:    b.LicensePlate,
		Model:           b.Model,
		TotalSeats:      b.TotalSeats,
		ManufactureYear: b.ManufactureYear,
	}
}

// SeatRequest is the HTTP request body for creating or updating a seat.
type SeatRequest struct {
	BusID       int64  `json:"bus_id"`
	SeatNumber  string `json:"seat_number"`
	IsAvailable *bool  `json:"is_available"`
}

// SeatResponse is the HTTP response for a seat.
type SeatResponse struct {
	ID          int64  `json:"id"`
	BusID       int64  `json:"bus_id"`
	SeatNumber  string `json:"seat_number"`
	IsAvailable bool   `json:"is_available"`
}

func toSeatResponse(s *domain.Seat) SeatResponse {
	return SeatResponse{
		ID:          s.ID,
		BusID:       s.BusID,
		SeatNumber:  s.SeatNumber,
		IsAvailable: s.IsAvailable,
	}
}

func toSeatResponses(seats []*domain.Seat) []SeatResponse {
	out := make([]SeatResponse, 0, len(seats))
	for _, s := range seats {
		out = append(out, toSeatResponse(s))
	}
	return out
}

// ────────────────────────────────────────────────────────────────────────────
// Locations
// ────────────────────────────────────────────────────────────────────────────

// ListLocations handles GET /v1/locations
func (h *CatalogHandler) ListLocations(c *gin.Context) {
	locations, err := h.catalogService.ListLocations(c.Request.Context(), repository.LocationFilter{
		Name: c.Query("name"),
		City: c.Query("city"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]LocationResponse, 0, len(locations))
	for _, l := range locations {
		out = append(out, toLocationResponse(l))
	}
	respondJSON(c, http.StatusOK, out)
}

// GetLocation handles GET /v1/locations/:id
func (h *CatalogHandler) GetLocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	location, err := h.catalogService.GetLocation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toLocationResponse(location))
}

// CreateLocation handles POST /v1/locations
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	location, err := h.catalogService.CreateLocation(c.Request.Context(), middleware.ActorFrom(c), service.LocationInput{
		Name: req.Name,
		City: req.City,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toLocationResponse(location))
}

// UpdateLocation handles PUT /v1/locations/:id
func (h *CatalogHandler) UpdateLocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	location, err := h.catalogService.UpdateLocation(c.Request.Context(), middleware.ActorFrom(c), id, service.LocationInput{
		Name: req.Name,
		City: req.City,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toLocationResponse(location))
}

// DeleteLocation handles DELETE /v1/locations/:id
func (h *CatalogHandler) DeleteLocation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteLocation(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ────────────────────────────────────────────────────────────────────────────
// Routes
// ────────────────────────────────────────────────────────────────────────────

// ListRoutes handles GET /v1/routes
func (h *CatalogHandler) ListRoutes(c *gin.Context) {
	start, ok := queryInt64(c, "start_location_id")
	if !ok {
		return
	}
	end, ok := queryInt64(c, "end_location_id")
	if !ok {
		return
	}

	routes, err := h.catalogService.ListRoutes(c.Request.Context(), repository.RouteFilter{
		StartLocationID: start,
		EndLocationID:   end,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		out = append(out, toRouteResponse(r))
	}
	respondJSON(c, http.StatusOK, out)
}

// GetRoute handles GET /v1/routes/:id
func (h *CatalogHandler) GetRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	route, err := h.catalogService.GetRoute(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRouteResponse(route))
}

// CreateRoute handles POST /v1/routes
func (h *CatalogHandler) CreateRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	route, err := h.catalogService.CreateRoute(c.Request.Context(), middleware.ActorFrom(c), service.RouteInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toRouteResponse(route))
}

// UpdateRoute handles PUT /v1/routes/:id
func (h *CatalogHandler) UpdateRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	route, err := h.catalogService.UpdateRoute(c.Request.Context(), middleware.ActorFrom(c), id, service.RouteInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toRouteResponse(route))
}

// DeleteRoute handles DELETE /v1/routes/:id
func (h *CatalogHandler) DeleteRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteRoute(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ────────────────────────────────────────────────────────────────────────────
// Buses
// ────────────────────────────────────────────────────────────────────────────

// ListBuses handles GET /v1/buses
func (h *CatalogHandler) ListBuses(c *gin.Context) {
	buses, err := h.catalogService.ListBuses(c.Request.Context(), repository.BusFilter{
		LicensePlate: c.Query("license_plate"),
		Model:        c.Query("model"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]BusResponse, 0, len(buses))
	for _, b := range buses {
		out = append(out, toBusResponse(b))
	}
	respondJSON(c, http.StatusOK, out)
}

// GetBus handles GET /v1/buses/:id
func (h *CatalogHandler) GetBus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	bus, err := h.catalogService.GetBus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBusResponse(bus))
}

// CreateBus handles POST /v1/buses
func (h *CatalogHandler) CreateBus(c *gin.Context) {
	var req BusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	bus, seats, err := h.catalogService.CreateBus(c.Request.Context(), middleware.ActorFrom(c), service.BusInput(req))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := toBusResponse(bus)
	resp.Seats = toSeatResponses(seats)
	respondJSON(c, http.StatusCreated, resp)
}

// UpdateBus handles PUT /v1/buses/:id
func (h *CatalogHandler) UpdateBus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req BusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	bus, err := h.catalogService.UpdateBus(c.Request.Context(), middleware.ActorFrom(c), id, service.BusInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBusResponse(bus))
}

// DeleteBus handles DELETE /v1/buses/:id
func (h *CatalogHandler) DeleteBus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteBus(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BusSeats handles GET /v1/buses/:id/seats
func (h *CatalogHandler) BusSeats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.catalogService.GetBus(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	seats, err := h.catalogService.ListSeats(c.Request.Context(), repository.SeatFilter{BusID: id})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toSeatResponses(seats))
}

// ────────────────────────────────────────────────────────────────────────────
// Seats
// ────────────────────────────────────────────────────────────────────────────

// ListSeats handles GET /v1/seats
func (h *CatalogHandler) ListSeats(c *gin.Context) {
	busID, ok := queryInt64(c, "bus_id")
	if !ok {
		return
	}
	available, ok := queryBool(c, "is_available")
	if !ok {
		return
	}

	seats, err := h.catalogService.ListSeats(c.Request.Context(), repository.SeatFilter{
		BusID:       busID,
		IsAvailable: available,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toSeatResponses(seats))
}

// GetSeat handles GET /v1/seats/:id
func (h *CatalogHandler) GetSeat(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	seat, err := h.catalogService.GetSeat(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toSeatResponse(seat))
}

func (req SeatRequest) input() service.SeatInput {
	in := service.SeatInput{BusID: req.BusID, SeatNumber: req.SeatNumber, IsAvailable: true}
	if req.IsAvailable != nil {
		in.IsAvailable = *req.IsAvailable
	}
	return in
}

// CreateSeat handles POST /v1/seats
func (h *CatalogHandler) CreateSeat(c *gin.Context) {
	var req SeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	seat, err := h.catalogService.CreateSeat(c.Request.Context(), middleware.ActorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toSeatResponse(seat))
}

// UpdateSeat handles PUT /v1/seats/:id
func (h *CatalogHandler) UpdateSeat(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	seat, err := h.catalogService.UpdateSeat(c.Request.Context(), middleware.ActorFrom(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toSeatResponse(seat))
}

// DeleteSeat handles DELETE /v1/seats/:id
func (h *CatalogHandler) DeleteSeat(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteSeat(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
