package repository

import (
	"context"

	"busticket/internal/domain"
)

// WalletRepository defines the persistence operations for wallets and their ledger.
type WalletRepository interface {
	// Create persists a new wallet. Returns ErrConflict if the user already has one.
	Create(ctx context.Context, wallet *domain.Wallet) error

	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)

	// GetByUserIDForUpdate retrieves a wallet and locks its row.
	GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Wallet, error)

	// UpdateBalance stores a new balance.
	UpdateBalance(ctx context.Context, id string, balance int64) error

	// AddTransaction appends a ledger entry.
	AddTransaction(ctx context.Context, entry *domain.WalletTransaction) error

	// ListTransactions retrieves the latest ledger entries of a wallet.
	ListTransactions(ctx context.Context, walletID string, limit int) ([]*domain.WalletTransaction, error)
}
