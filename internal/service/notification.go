package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"busticket/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingCreated   NotificationType = "BOOKING_CREATED"
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationBookingCanceled  NotificationType = "BOOKING_CANCELED"
	NotificationPaymentCompleted NotificationType = "PAYMENT_COMPLETED"
	NotificationPaymentFailed    NotificationType = "PAYMENT_FAILED"
	NotificationWalletMovement   NotificationType = "WALLET_MOVEMENT"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // User ID, or guest token for guest bookings
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}

// NotificationService records booking, payment and wallet events.
// Delivery is a structured log line; channels such as email plug in behind send.
type NotificationService struct {
	logger *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{logger: logger}
}

func bookingRecipient(b *domain.Booking) string {
	if b.UserID != "" {
		return b.UserID
	}
	return "guest"
}

// NotifyBookingCreated announces a new Pending booking.
func (s *NotificationService) NotifyBookingCreated(ctx context.Context, booking *domain.Booking, payment *domain.Payment) {
	s.send(ctx, Notification{
		Type:        NotificationBookingCreated,
		RecipientID: bookingRecipient(booking),
		Title:       "Booking Created",
		Message:     fmt.Sprintf("Booking for %d seat(s) created, amount due %d", booking.NumberOfSeats, booking.TotalAmount),
		Data: map[string]any{
			"booking_id":       booking.ID,
			"trip_id":          booking.TripID,
			"seats":            booking.NumberOfSeats,
			"total_amount":     booking.TotalAmount,
			"transaction_code": payment.TransactionCode,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBookingConfirmed announces a confirmed booking.
func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, booking *domain.Booking) {
	s.send(ctx, Notification{
		Type:        NotificationBookingConfirmed,
		RecipientID: bookingRecipient(booking),
		Title:       "Booking Confirmed",
		Message:     "Your booking has been confirmed",
		Data: map[string]any{
			"booking_id": booking.ID,
			"trip_id":    booking.TripID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyBookingCanceled announces a canceled booking and its released seats.
func (s *NotificationService) NotifyBookingCanceled(ctx context.Context, booking *domain.Booking, canceledBy string) {
	s.send(ctx, Notification{
		Type:        NotificationBookingCanceled,
		RecipientID: bookingRecipient(booking),
		Title:       "Booking Canceled",
		Message:     fmt.Sprintf("Booking canceled, %d seat(s) released", booking.NumberOfSeats),
		Data: map[string]any{
			"booking_id":  booking.ID,
			"trip_id":     booking.TripID,
			"canceled_by": canceledBy,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentCompleted announces a settled payment.
func (s *NotificationService) NotifyPaymentCompleted(ctx context.Context, payment *domain.Payment) {
	s.send(ctx, Notification{
		Type:    NotificationPaymentCompleted,
		Title:   "Payment Successful",
		Message: fmt.Sprintf("Payment of %d via %s was successful", payment.Amount, payment.Method),
		Data: map[string]any{
			"payment_id":       payment.ID,
			"booking_id":       payment.BookingID,
			"amount":           payment.Amount,
			"transaction_code": payment.TransactionCode,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentFailed announces a failed payment.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, payment *domain.Payment) {
	s.send(ctx, Notification{
		Type:    NotificationPaymentFailed,
		Title:   "Payment Failed",
		Message: fmt.Sprintf("Payment of %d failed", payment.Amount),
		Data: map[string]any{
			"payment_id": payment.ID,
			"booking_id": payment.BookingID,
			"amount":     payment.Amount,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyWalletMovement records a wallet ledger entry.
func (s *NotificationService) NotifyWalletMovement(ctx context.Context, userID string, entry *domain.WalletTransaction) {
	s.send(ctx, Notification{
		Type:        NotificationWalletMovement,
		RecipientID: userID,
		Title:       "Wallet Updated",
		Message:     fmt.Sprintf("%s of %d, balance %d", entry.Type, entry.Amount, entry.BalanceAfter),
		Data: map[string]any{
			"wallet_id": entry.WalletID,
			"type":      entry.Type,
			"amount":    entry.Amount,
			"reference": entry.Reference,
		},
		CreatedAt: entry.CreatedAt,
	})
}

func (s *NotificationService) send(ctx context.Context, n Notification) {
	if s == nil {
		return
	}
	s.logger.InfoContext(ctx, "notification",
		slog.String("type", string(n.Type)),
		slog.String("recipient", n.RecipientID),
		slog.String("title", n.Title),
		slog.String("message", n.Message),
		slog.Any("data", n.Data),
	)
}
