package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestWallet_WithdrawNeverGoesNegative(t *testing.T) {
	t.Parallel()

	w := &Wallet{Balance: 100}

	if err := w.Withdraw(150); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if w.Balance != 100 {
		t.Errorf("balance changed on failed withdraw: %d", w.Balance)
	}

	if err := w.Withdraw(100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Balance != 0 {
		t.Errorf("expected 0, got %d", w.Balance)
	}
}

func TestWallet_RejectsNonPositiveAmounts(t *testing.T) {
	t.Parallel()

	w := &Wallet{Balance: 50}
	for _, amount := range []int64{0, -10} {
		if err := w.Deposit(amount); !errors.Is(err, ErrNonPositiveAmount) {
			t.Errorf("Deposit(%d): expected ErrNonPositiveAmount, got %v", amount, err)
		}
		if err := w.Withdraw(amount); !errors.Is(err, ErrNonPositiveAmount) {
			t.Errorf("Withdraw(%d): expected ErrNonPositiveAmount, got %v", amount, err)
		}
	}
	if w.Balance != 50 {
		t.Errorf("balance changed: %d", w.Balance)
	}
}

func TestNewTransactionCode(t *testing.T) {
	t.Parallel()

	code := NewTransactionCode()
	if !strings.HasPrefix(code, "TXN-") || len(code) != 12 {
		t.Fatalf("unexpected code %q", code)
	}
	if strings.ToUpper(code) != code {
		t.Errorf("code should be upper case: %q", code)
	}
	if NewTransactionCode() == code {
		t.Error("codes should differ")
	}
}
