package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/repository"
	"busticket/internal/service"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	_ = c.Error(err)

	resp := ErrorResponse{Error: err.Error()}
	if code == http.StatusInternalServerError {
		resp.Error = "internal server error"
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	c.JSON(code, resp)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// badRequest sends a 400 with a fixed message.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var verr *service.ValidationError

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation and business rule errors - Bad Request
	case errors.As(err, &verr),
		errors.Is(err, service.ErrNoSeatsRequested),
		errors.Is(err, service.ErrDuplicateSeat),
		errors.Is(err, service.ErrSeatCountMismatch),
		errors.Is(err, service.ErrSeatNotOnBus),
		errors.Is(err, service.ErrSeatUnavailable),
		errors.Is(err, service.ErrInsufficientSeats),
		errors.Is(err, service.ErrTripDeparted),
		errors.Is(err, service.ErrInvalidSchedule),
		errors.Is(err, service.ErrSameLocations),
		errors.Is(err, service.ErrBookingNotModifiable),
		errors.Is(err, service.ErrTicketNotInBooking),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrSelfTransfer),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrNonPositiveAmount):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized

	// Forbidden errors
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrSeatAlreadyBooked),
		errors.Is(err, service.ErrInvalidBookingTransition),
		errors.Is(err, service.ErrBookingAlreadyCanceled),
		errors.Is(err, service.ErrPaymentAlreadyCompleted),
		errors.Is(err, service.ErrPaymentNotPending),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrInUse),
		errors.Is(err, service.ErrTripHasBookings),
		errors.Is(err, service.ErrSeatHasBookings),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict

	// Seat lock contention - retry shortly
	case errors.Is(err, service.ErrSeatLocked):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt64 reads an optional integer query parameter. Absent means 0.
func queryInt64(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

// queryBool reads an optional boolean query parameter. Absent means nil.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &v, true
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
