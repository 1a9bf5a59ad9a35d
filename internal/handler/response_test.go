package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/repository"
	"busticket/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: repository.ErrNotFound, want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("seat: %w", repository.ErrNotFound), want: http.StatusNotFound},
		{name: "validation", err: &service.ValidationError{Fields: map[string]string{"Name": "is required"}}, want: http.StatusBadRequest},
		{name: "departed trip", err: service.ErrTripDeparted, want: http.StatusBadRequest},
		{name: "insufficient balance", err: domain.ErrInsufficientBalance, want: http.StatusBadRequest},
		{name: "unauthenticated", err: service.ErrUnauthenticated, want: http.StatusUnauthorized},
		{name: "invalid token", err: service.ErrInvalidToken, want: http.StatusUnauthorized},
		{name: "forbidden", err: service.ErrForbidden, want: http.StatusForbidden},
		{name: "seat booked", err: fmt.Errorf("%w: A01", service.ErrSeatAlreadyBooked), want: http.StatusConflict},
		{name: "in use", err: service.ErrInUse, want: http.StatusConflict},
		{name: "trip bus change with bookings", err: fmt.Errorf("%w: 2 seats held", service.ErrTripHasBookings), want: http.StatusConflict},
		{name: "seat bus change with bookings", err: service.ErrSeatHasBookings, want: http.StatusConflict},
		{name: "conflict", err: repository.ErrConflict, want: http.StatusConflict},
		{name: "seat locked", err: service.ErrSeatLocked, want: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestRespondError_Body(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		err        error
		wantError  string
		wantFields int
	}{
		{
			name:       "validation fields",
			err:        &service.ValidationError{Fields: map[string]string{"Email": "must be a valid email address", "Password": "is required"}},
			wantError:  "validation failed: Email must be a valid email address; Password is required",
			wantFields: 2,
		},
		{
			name:      "internal errors are masked",
			err:       errors.New("pq: connection refused"),
			wantError: "internal server error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tc.err)

			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tc.wantError {
				t.Errorf("expected error %q, got %q", tc.wantError, body.Error)
			}
			if len(body.Fields) != tc.wantFields {
				t.Errorf("expected %d fields, got %v", tc.wantFields, body.Fields)
			}
			if len(c.Errors) != 1 {
				t.Errorf("expected the error to be recorded on the context, got %d", len(c.Errors))
			}
		})
	}
}
