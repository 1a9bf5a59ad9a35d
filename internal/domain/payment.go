package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
)

// PaymentMethod represents how a payment is settled.
type PaymentMethod string

const (
	PaymentMethodPending      PaymentMethod = "Pending"
	PaymentMethodCreditCard   PaymentMethod = "Credit Card"
	PaymentMethodPayPal       PaymentMethod = "PayPal"
	PaymentMethodBankTransfer PaymentMethod = "Bank Transfer"
	PaymentMethodWallet       PaymentMethod = "Wallet"
)

// Selectable reports whether a customer may choose m for a payment.
func (m PaymentMethod) Selectable() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodPayPal, PaymentMethodBankTransfer, PaymentMethodWallet:
		return true
	}
	return false
}

// Payment is the settlement record of a booking.
type Payment struct {
	ID              string
	BookingID       string
	Amount          int64
	Method          PaymentMethod
	TransactionCode string
	Status          PaymentStatus
	PaymentTime     time.Time
	CompletedAt     time.Time
}

// IsSuccessful reports whether the payment was completed.
func (p Payment) IsSuccessful() bool {
	return p.Status == PaymentStatusCompleted
}

// NewTransactionCode returns a code of the form TXN-XXXXXXXX.
func NewTransactionCode() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TXN-" + strings.ToUpper(hex[:8])
}

// PaymentStatistics summarizes payments by status.
type PaymentStatistics struct {
	Total        int
	Pending      int
	Completed    int
	Failed       int
	TotalRevenue int64
}
