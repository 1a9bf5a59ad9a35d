package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
	"busticket/internal/middleware"
	"busticket/internal/repository"
	"busticket/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// UpdatePaymentMethodRequest is the HTTP request body for selecting a payment method.
type UpdatePaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID              string `json:"id"`
	BookingID       string `json:"booking_id"`
	Amount          int64  `json:"amount"`
	PaymentMethod   string `json:"payment_method"`
	TransactionCode string `json:"transaction_code"`
	Status          string `json:"status"`
	IsSuccessful    bool   `json:"is_successful"`
	PaymentTime     string `json:"payment_time"`
	CompletedAt     string `json:"completed_at,omitempty"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		BookingID:       p.BookingID,
		Amount:          p.Amount,
		PaymentMethod:   string(p.Method),
		TransactionCode: p.TransactionCode,
		Status:          string(p.Status),
		IsSuccessful:    p.IsSuccessful(),
		PaymentTime:     formatTime(p.PaymentTime),
		CompletedAt:     formatTime(p.CompletedAt),
	}
}

// PaymentStatisticsResponse is the HTTP response for payment statistics.
type PaymentStatisticsResponse struct {
	Total        int   `json:"total_payments"`
	Pending      int   `json:"pending_payments"`
	Completed    int   `json:"completed_payments"`
	Failed       int   `json:"failed_payments"`
	TotalRevenue int64 `json:"total_revenue"`
}

// ListPayments handles GET /v1/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	status := domain.PaymentStatus(c.Query("status"))
	switch status {
	case "", domain.PaymentStatusPending, domain.PaymentStatusCompleted, domain.PaymentStatusFailed:
	default:
		badRequest(c, "invalid status")
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), middleware.ActorFrom(c), repository.PaymentFilter{
		BookingID: c.Query("booking_id"),
		Status:    status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	respondJSON(c, http.StatusOK, out)
}

// Statistics handles GET /v1/payments/statistics
func (h *PaymentHandler) Statistics(c *gin.Context) {
	stats, err := h.paymentService.Statistics(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, PaymentStatisticsResponse{
		Total:        stats.Total,
		Pending:      stats.Pending,
		Completed:    stats.Completed,
		Failed:       stats.Failed,
		TotalRevenue: stats.TotalRevenue,
	})
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// PaymentStatusResponse is the HTTP response for a payment status check.
type PaymentStatusResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	IsSuccessful bool   `json:"is_successful"`
}

// PaymentStatus handles GET /v1/payments/:id/status
func (h *PaymentHandler) PaymentStatus(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, PaymentStatusResponse{
		ID:           payment.ID,
		Status:       string(payment.Status),
		IsSuccessful: payment.IsSuccessful(),
	})
}

// UpdateMethod handles PATCH /v1/payments/:id/method
func (h *PaymentHandler) UpdateMethod(c *gin.Context) {
	var req UpdatePaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	payment, err := h.paymentService.UpdateMethod(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// CompletePayment handles POST /v1/payments/:id/complete
func (h *PaymentHandler) CompletePayment(c *gin.Context) {
	payment, err := h.paymentService.CompletePayment(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// FailPayment handles POST /v1/payments/:id/fail
func (h *PaymentHandler) FailPayment(c *gin.Context) {
	payment, err := h.paymentService.FailPayment(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// PayWithWallet handles POST /v1/payments/:id/pay-with-wallet
func (h *PaymentHandler) PayWithWallet(c *gin.Context) {
	payment, err := h.paymentService.PayWithWallet(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}
