package domain

import (
	"errors"
	"time"
)

// ErrInsufficientBalance is returned when a debit exceeds the wallet balance.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

// ErrNonPositiveAmount is returned for zero or negative money movements.
var ErrNonPositiveAmount = errors.New("amount must be greater than zero")

// WalletTransactionType classifies a ledger entry.
type WalletTransactionType string

const (
	WalletTxDeposit     WalletTransactionType = "deposit"
	WalletTxWithdraw    WalletTransactionType = "withdraw"
	WalletTxPayment     WalletTransactionType = "payment"
	WalletTxTransferIn  WalletTransactionType = "transfer_in"
	WalletTxTransferOut WalletTransactionType = "transfer_out"
)

// Wallet is a per-user stored balance.
type Wallet struct {
	ID        string
	UserID    string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Deposit adds amount to the balance.
func (w *Wallet) Deposit(amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	w.Balance += amount
	return nil
}

// Withdraw removes amount from the balance. The balance is left unchanged on error.
func (w *Wallet) Withdraw(amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if amount > w.Balance {
		return ErrInsufficientBalance
	}
	w.Balance -= amount
	return nil
}

// WalletTransaction is an append-only ledger entry.
type WalletTransaction struct {
	ID           string
	WalletID     string
	Type         WalletTransactionType
	Amount       int64
	BalanceAfter int64
	Reference    string
	CreatedAt    time.Time
}
