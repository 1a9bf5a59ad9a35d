package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/middleware"
	"busticket/internal/repository"
	"busticket/internal/service"
)

// BookingHandler handles HTTP requests for bookings and tickets.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// BookingSeatRequest selects one seat in a booking request.
type BookingSeatRequest struct {
	SeatID        int64  `json:"seat_id"`
	PassengerName string `json:"passenger_name"`
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	TripID        int64                `json:"trip_id"`
	Seats         []BookingSeatRequest `json:"seats"`
	NumberOfSeats int                  `json:"number_of_seats"`
}

// UpdateBookingRequest is the HTTP request body for renaming passengers.
type UpdateBookingRequest struct {
	PassengerNames map[int64]string `json:"passenger_names"`
}

// BookingResponse is the HTTP response for a booking.
type BookingResponse struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id,omitempty"`
	GuestToken    string           `json:"guest_token,omitempty"`
	TripID        int64            `json:"trip_id"`
	Trip          *TripResponse    `json:"trip,omitempty"`
	NumberOfSeats int              `json:"number_of_seats"`
	TotalAmount   int64            `json:"total_amount"`
	BookingTime   string           `json:"booking_time"`
	Status        string           `json:"status"`
	CanModify     bool             `json:"can_modify"`
	Tickets       []TicketResponse `json:"tickets,omitempty"`
	Payment       *PaymentResponse `json:"payment,omitempty"`
}

func toBookingResponse(b *domain.Booking, now time.Time) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		TripID:        b.TripID,
		NumberOfSeats: b.NumberOfSeats,
		TotalAmount:   b.TotalAmount,
		BookingTime:   formatTime(b.BookingTime),
		Status:        string(b.Status),
		CanModify:     b.CanModify(now),
	}
	if b.Trip.ID != 0 {
		trip := toTripResponse(&b.Trip, now)
		resp.Trip = &trip
	}
	return resp
}

// TicketResponse is the HTTP response for a ticket.
type TicketResponse struct {
	ID            int64  `json:"id"`
	BookingID     string `json:"booking_id"`
	TripID        int64  `json:"trip_id"`
	SeatID        int64  `json:"seat_id"`
	SeatNumber    string `json:"seat_number,omitempty"`
	Price         int64  `json:"price"`
	PassengerName string `json:"passenger_name"`
	Active        bool   `json:"active"`
}

func toTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		BookingID:     t.BookingID,
		TripID:        t.TripID,
		SeatID:        t.SeatID,
		SeatNumber:    t.SeatNumber,
		Price:         t.Price,
		PassengerName: t.PassengerName,
		Active:        t.Active,
	}
}

func toTicketResponses(tickets []*domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResponse(t))
	}
	return out
}

// BookingStatisticsResponse is the HTTP response for booking statistics.
type BookingStatisticsResponse struct {
	Total     int `json:"total_bookings"`
	Pending   int `json:"pending_bookings"`
	Confirmed int `json:"confirmed_bookings"`
	Canceled  int `json:"canceled_bookings"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	seats := make([]service.SeatRequest, 0, len(req.Seats))
	for _, s := range req.Seats {
		seats = append(seats, service.SeatRequest(s))
	}

	result, err := h.bookingService.CreateBooking(c.Request.Context(), middleware.ActorFrom(c), service.CreateBookingRequest{
		TripID:        req.TripID,
		Seats:         seats,
		NumberOfSeats: req.NumberOfSeats,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := toBookingResponse(result.Booking, time.Now())
	resp.GuestToken = result.Booking.GuestToken
	resp.Tickets = toTicketResponses(result.Tickets)
	if result.Payment != nil {
		payment := toPaymentResponse(result.Payment)
		resp.Payment = &payment
	}
	respondJSON(c, http.StatusCreated, resp)
}

// ListBookings handles GET /v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	tripID, ok := queryInt64(c, "trip_id")
	if !ok {
		return
	}
	status := domain.BookingStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "invalid status")
		return
	}

	bookings, err := h.bookingService.ListBookings(c.Request.Context(), middleware.ActorFrom(c), repository.BookingFilter{
		TripID: tripID,
		Status: status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

// MyBookings handles GET /v1/bookings/my-bookings
func (h *BookingHandler) MyBookings(c *gin.Context) {
	bookings, err := h.bookingService.MyBookings(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

func toBookingResponses(bookings []*domain.Booking) []BookingResponse {
	now := time.Now()
	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b, now))
	}
	return out
}

// Statistics handles GET /v1/bookings/statistics
func (h *BookingHandler) Statistics(c *gin.Context) {
	stats, err := h.bookingService.Statistics(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, BookingStatisticsResponse{
		Total:     stats.Total,
		Pending:   stats.Pending,
		Confirmed: stats.Confirmed,
		Canceled:  stats.Canceled,
	})
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	tickets, err := h.bookingService.BookingTickets(c.Request.Context(), actor, booking.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := toBookingResponse(booking, time.Now())
	resp.Tickets = toTicketResponses(tickets)
	respondJSON(c, http.StatusOK, resp)
}

// UpdateBooking handles PUT /v1/bookings/:id
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	tickets, err := h.bookingService.UpdatePassengers(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), service.UpdatePassengersRequest(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTicketResponses(tickets))
}

// ConfirmBooking handles POST /v1/bookings/:id/confirm
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	booking, err := h.bookingService.ConfirmBooking(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking, time.Now()))
}

// CancelBooking handles POST /v1/bookings/:id/cancel and DELETE /v1/bookings/:id
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.CancelBooking(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking, time.Now()))
}

// BookingTickets handles GET /v1/bookings/:id/tickets
func (h *BookingHandler) BookingTickets(c *gin.Context) {
	tickets, err := h.bookingService.BookingTickets(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTicketResponses(tickets))
}

// ETicket handles GET /v1/bookings/:id/eticket
func (h *BookingHandler) ETicket(c *gin.Context) {
	id := c.Param("id")
	pdf, err := h.bookingService.ETicket(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="eticket-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ListTickets handles GET /v1/tickets
func (h *BookingHandler) ListTickets(c *gin.Context) {
	tripID, ok := queryInt64(c, "trip_id")
	if !ok {
		return
	}

	tickets, err := h.bookingService.ListTickets(c.Request.Context(), middleware.ActorFrom(c), repository.TicketFilter{
		BookingID: c.Query("booking_id"),
		TripID:    tripID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTicketResponses(tickets))
}

// GetTicket handles GET /v1/tickets/:id
func (h *BookingHandler) GetTicket(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.bookingService.GetTicket(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTicketResponse(ticket))
}
