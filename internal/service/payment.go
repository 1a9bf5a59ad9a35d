package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"busticket/internal/domain"
	"busticket/internal/repository"
)

// PSP is the interface for a Payment Service Provider.
type PSP interface {
	Charge(ctx context.Context, payment *domain.Payment) (bool, error)
}

// MockPSP is a mock implementation of PSP for testing.
type MockPSP struct {
	Decline bool
}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

// Charge simulates a payment charge.
func (p *MockPSP) Charge(ctx context.Context, payment *domain.Payment) (bool, error) {
	return !p.Decline, nil
}

// PaymentService handles payment settlement.
type PaymentService struct {
	transactor          repository.Transactor
	paymentRepo         repository.PaymentRepository
	bookingRepo         repository.BookingRepository
	psp                 PSP
	notificationService *NotificationService
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	transactor repository.Transactor,
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	psp PSP,
	notificationService *NotificationService,
) *PaymentService {
	return &PaymentService{
		transactor:          transactor,
		paymentRepo:         paymentRepo,
		bookingRepo:         bookingRepo,
		psp:                 psp,
		notificationService: notificationService,
	}
}

// checkPending reports why a payment can no longer be settled.
func checkPending(p *domain.Payment) error {
	switch p.Status {
	case domain.PaymentStatusPending:
		return nil
	case domain.PaymentStatusCompleted:
		return ErrPaymentAlreadyCompleted
	default:
		return fmt.Errorf("%w: %s", ErrPaymentNotPending, p.Status)
	}
}

// GetPayment retrieves a payment of a booking the actor may access.
func (s *PaymentService) GetPayment(ctx context.Context, actor domain.Actor, id string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeBooking(actor, booking); err != nil {
		return nil, err
	}

	return payment, nil
}

// ListPayments lists payments. Admin only.
func (s *PaymentService) ListPayments(ctx context.Context, actor domain.Actor, filter repository.PaymentFilter) ([]*domain.Payment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.paymentRepo.List(ctx, filter)
}

// Statistics counts payments per status and sums completed revenue. Admin only.
func (s *PaymentService) Statistics(ctx context.Context, actor domain.Actor) (*domain.PaymentStatistics, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.paymentRepo.Statistics(ctx)
}

// UpdateMethod selects how a Pending payment will be settled.
func (s *PaymentService) UpdateMethod(ctx context.Context, actor domain.Actor, id string, method domain.PaymentMethod) (*domain.Payment, error) {
	if !method.Selectable() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}

	var payment *domain.Payment
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		payment, err = repos.Payments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		booking, err := repos.Bookings.GetByID(ctx, payment.BookingID)
		if err != nil {
			return err
		}
		if err := authorizeBooking(actor, booking); err != nil {
			return err
		}
		if err := checkPending(payment); err != nil {
			return err
		}

		payment.Method = method
		return repos.Payments.Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// CompletePayment settles a Pending payment through the payment provider.
// A declined charge marks the payment Failed. Admin only.
func (s *PaymentService) CompletePayment(ctx context.Context, actor domain.Actor, id string) (*domain.Payment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var payment *domain.Payment
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		payment, err = repos.Payments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := checkPending(payment); err != nil {
			return err
		}

		success, err := s.psp.Charge(ctx, payment)
		if err != nil {
			return fmt.Errorf("charge payment: %w", err)
		}

		if success {
			payment.Status = domain.PaymentStatusCompleted
			payment.CompletedAt = time.Now()
		} else {
			payment.Status = domain.PaymentStatusFailed
		}
		return repos.Payments.Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	if payment.IsSuccessful() {
		s.notificationService.NotifyPaymentCompleted(ctx, payment)
	} else {
		s.notificationService.NotifyPaymentFailed(ctx, payment)
	}
	return payment, nil
}

// FailPayment marks a Pending payment Failed. Admin only.
func (s *PaymentService) FailPayment(ctx context.Context, actor domain.Actor, id string) (*domain.Payment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var payment *domain.Payment
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		payment, err = repos.Payments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := checkPending(payment); err != nil {
			return err
		}

		payment.Status = domain.PaymentStatusFailed
		return repos.Payments.Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.NotifyPaymentFailed(ctx, payment)
	return payment, nil
}

// PayWithWallet settles a Pending payment from the caller's wallet. The
// debit, ledger entry and payment update commit together.
func (s *PaymentService) PayWithWallet(ctx context.Context, actor domain.Actor, id string) (*domain.Payment, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}

	var payment *domain.Payment
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		payment, err = repos.Payments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		booking, err := repos.Bookings.GetByID(ctx, payment.BookingID)
		if err != nil {
			return err
		}
		if booking.UserID != actor.UserID {
			return ErrForbidden
		}
		if err := checkPending(payment); err != nil {
			return err
		}

		wallet, err := repos.Wallets.GetByUserIDForUpdate(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrInsufficientBalance
			}
			return err
		}
		if err := wallet.Withdraw(payment.Amount); err != nil {
			return err
		}
		if err := repos.Wallets.UpdateBalance(ctx, wallet.ID, wallet.Balance); err != nil {
			return err
		}

		now := time.Now()
		if err := repos.Wallets.AddTransaction(ctx, &domain.WalletTransaction{
			ID:           uuid.New().String(),
			WalletID:     wallet.ID,
			Type:         domain.WalletTxPayment,
			Amount:       payment.Amount,
			BalanceAfter: wallet.Balance,
			Reference:    payment.TransactionCode,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		payment.Method = domain.PaymentMethodWallet
		payment.Status = domain.PaymentStatusCompleted
		payment.CompletedAt = now
		return repos.Payments.Update(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.notificationService.NotifyPaymentCompleted(ctx, payment)
	return payment, nil
}
