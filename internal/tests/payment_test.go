package tests

import (
	"context"
	"errors"
	"testing"

	"busticket/internal/domain"
	"busticket/internal/repository"
	"busticket/internal/service"
)

func TestCompletePayment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	seeded := env.seedTrip(t, "30B-10001", 4, 2500)
	ctx := context.Background()

	result := env.book(t, alice, seeded.trip.ID, seeded.seats[0])
	id := result.Payment.ID

	if _, err := env.payments.CompletePayment(ctx, alice, id); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a regular user, got: %v", err)
	}

	payment, err := env.payments.CompletePayment(ctx, env.admin, id)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if payment.Status != domain.PaymentStatusCompleted {
		t.Errorf("expected Completed, got %s", payment.Status)
	}
	if !payment.IsSuccessful() {
		t.Error("expected payment to be successful")
	}
	if payment.CompletedAt.IsZero() {
		t.Error("expected completion time to be set")
	}

	if _, err := env.payments.CompletePayment(ctx, env.admin, id); !errors.Is(err, service.ErrPaymentAlreadyCompleted) {
		t.Errorf("expected ErrPaymentAlreadyCompleted, got: %v", err)
	}
	if _, err := env.payments.FailPayment(ctx, env.admin, id); !errors.Is(err, service.ErrPaymentAlreadyCompleted) {
		t.Errorf("expected ErrPaymentAlreadyCompleted on fail, got: %v", err)
	}
}

func TestCompletePayment_Declined_MarksFailed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seeded := env.seedTrip(t, "30B-10002", 4, 2500)
	ctx := context.Background()

	result := env.book(t, domain.Actor{}, seeded.trip.ID, seeded.seats[0])
	env.psp.Decline = true

	payment, err := env.payments.CompletePayment(ctx, env.admin, result.Payment.ID)
	if err != nil {
		t.Fatalf("expected declined charge to return the payment, got: %v", err)
	}
	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("expected Failed, got %s", payment.Status)
	}

	stored := env.store.PaymentsOf(result.Booking.ID)
	if len(stored) != 1 || stored[0].Status != domain.PaymentStatusFailed {
		t.Errorf("expected stored payment Failed, got %+v", stored)
	}

	if _, err := env.payments.CompletePayment(ctx, env.admin, result.Payment.ID); !errors.Is(err, service.ErrPaymentNotPending) {
		t.Errorf("expected ErrPaymentNotPending, got: %v", err)
	}
}

func TestFailPayment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seeded := env.seedTrip(t, "30B-10003", 4, 2500)
	ctx := context.Background()

	result := env.book(t, domain.Actor{}, seeded.trip.ID, seeded.seats[0])

	payment, err := env.payments.FailPayment(ctx, env.admin, result.Payment.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if payment.Status != domain.PaymentStatusFailed {
		t.Errorf("expected Failed, got %s", payment.Status)
	}

	if _, err := env.payments.FailPayment(ctx, env.admin, result.Payment.ID); !errors.Is(err, service.ErrPaymentNotPending) {
		t.Errorf("expected ErrPaymentNotPending, got: %v", err)
	}
	if _, err := env.payments.FailPayment(ctx, env.admin, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestUpdatePaymentMethod(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	bob := env.addUser(t, "bob", domain.UserRoleUser)
	seeded := env.seedTrip(t, "30B-10004", 4, 2500)
	ctx := context.Background()

	result := env.book(t, alice, seeded.trip.ID, seeded.seats[0])
	id := result.Payment.ID

	testCases := []struct {
		name    string
		actor   domain.Actor
		method  domain.PaymentMethod
		wantErr error
	}{
		{name: "placeholder method", actor: alice, method: domain.PaymentMethodPending, wantErr: service.ErrInvalidPaymentMethod},
		{name: "unknown method", actor: alice, method: "Cash", wantErr: service.ErrInvalidPaymentMethod},
		{name: "other user", actor: bob, method: domain.PaymentMethodPayPal, wantErr: service.ErrForbidden},
		{name: "owner selects card", actor: alice, method: domain.PaymentMethodCreditCard},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payment, err := env.payments.UpdateMethod(ctx, tc.actor, id, tc.method)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got: %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if payment.Method != tc.method {
				t.Errorf("expected method %s, got %s", tc.method, payment.Method)
			}
		})
	}

	if _, err := env.payments.CompletePayment(ctx, env.admin, id); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := env.payments.UpdateMethod(ctx, alice, id, domain.PaymentMethodPayPal); !errors.Is(err, service.ErrPaymentAlreadyCompleted) {
		t.Errorf("expected ErrPaymentAlreadyCompleted, got: %v", err)
	}
}

func TestPayWithWallet(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	bob := env.addUser(t, "bob", domain.UserRoleUser)
	seeded := env.seedTrip(t, "30B-10005", 4, 2500)
	ctx := context.Background()

	result := env.book(t, alice, seeded.trip.ID, seeded.seats[0], seeded.seats[1])
	id := result.Payment.ID

	if _, err := env.wallets.Deposit(ctx, alice.UserID, 4000); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if _, err := env.payments.PayWithWallet(ctx, alice, id); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}
	if balance, _ := env.wallets.Balance(ctx, alice.UserID); balance != 4000 {
		t.Errorf("expected balance unchanged at 4000, got %d", balance)
	}
	if p := env.store.PaymentsOf(result.Booking.ID)[0]; p.Status != domain.PaymentStatusPending {
		t.Errorf("expected payment still Pending, got %s", p.Status)
	}

	if _, err := env.payments.PayWithWallet(ctx, bob, id); !errors.Is(err, service.ErrForbidden) {
		t.Errorf("expected ErrForbidden for another user, got: %v", err)
	}
	if _, err := env.payments.PayWithWallet(ctx, domain.Actor{}, id); !errors.Is(err, service.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got: %v", err)
	}

	if _, err := env.wallets.Deposit(ctx, alice.UserID, 2000); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	payment, err := env.payments.PayWithWallet(ctx, alice, id)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if payment.Status != domain.PaymentStatusCompleted || payment.Method != domain.PaymentMethodWallet {
		t.Errorf("expected Completed by Wallet, got %s/%s", payment.Status, payment.Method)
	}

	balance, err := env.wallets.Balance(ctx, alice.UserID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 1000 {
		t.Errorf("expected balance 1000, got %d", balance)
	}

	entries, err := env.wallets.Transactions(ctx, alice.UserID, 0)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(entries))
	}
	latest := entries[0]
	if latest.Type != domain.WalletTxPayment || latest.Amount != 5000 || latest.BalanceAfter != 1000 {
		t.Errorf("unexpected payment entry %+v", latest)
	}
	if latest.Reference != payment.TransactionCode {
		t.Errorf("expected reference %s, got %s", payment.TransactionCode, latest.Reference)
	}

	if _, err := env.payments.PayWithWallet(ctx, alice, id); !errors.Is(err, service.ErrPaymentAlreadyCompleted) {
		t.Errorf("expected ErrPaymentAlreadyCompleted, got: %v", err)
	}
}

func TestPayWithWallet_NoWallet_InsufficientBalance(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.addUser(t, "alice", domain.UserRoleUser)
	seeded := env.seedTrip(t, "30B-10006", 4, 2500)

	result := env.book(t, alice, seeded.trip.ID, seeded.seats[0])

	_, err := env.payments.PayWithWallet(context.Background(), alice, result.Payment.ID)
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}
}

func TestPaymentStatistics(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	seeded := env.seedTrip(t, "30B-10007", 6, 2500)
	ctx := context.Background()

	paid := env.book(t, domain.Actor{}, seeded.trip.ID, seeded.seats[0], seeded.seats[1])
	failed := env.book(t, domain.Actor{}, seeded.trip.ID, seeded.seats[2])
	env.book(t, domain.Actor{}, seeded.trip.ID, seeded.seats[3])

	if _, err := env.payments.CompletePayment(ctx, env.admin, paid.Payment.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := env.bookings.CancelBooking(ctx, env.admin, failed.Booking.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	stats, err := env.payments.Statistics(ctx, env.admin)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	want := domain.PaymentStatistics{Total: 3, Pending: 1, Completed: 1, Failed: 1, TotalRevenue: 5000}
	if *stats != want {
		t.Errorf("expected %+v, got %+v", want, *stats)
	}

	pending, err := env.payments.ListPayments(ctx, env.admin, repository.PaymentFilter{Status: domain.PaymentStatusPending})
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 pending payment, got %d", len(pending))
	}
}
