package postgres

import (
	"context"
	"database/sql"
	"errors"

	"busticket/internal/domain"
	"busticket/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of repository.WalletRepository.
type WalletRepository struct {
	q Querier
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{q: db}
}

// NewWalletRepositoryWithTx creates a wallet repository using a transaction.
func NewWalletRepositoryWithTx(tx *sql.Tx) *WalletRepository {
	return &WalletRepository{q: tx}
}

const walletSelect = `SELECT id, user_id, balance, created_at, updated_at FROM wallets`

// Create persists a new wallet.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		wallet.ID,
		wallet.UserID,
		wallet.Balance,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)

	return mapWriteError(err)
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	return r.get(ctx, walletSelect+" WHERE id = $1", id)
}

// GetByUserID retrieves the wallet of a user.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	return r.get(ctx, walletSelect+" WHERE user_id = $1", userID)
}

// GetByUserIDForUpdate retrieves the wallet of a user and locks its row.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Wallet, error) {
	return r.get(ctx, walletSelect+" WHERE user_id = $1 FOR UPDATE", userID)
}

func (r *WalletRepository) get(ctx context.Context, query, arg string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&wallet.ID,
		&wallet.UserID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &wallet, nil
}

// UpdateBalance stores a new balance. The balance >= 0 check constraint is the last guard.
func (r *WalletRepository) UpdateBalance(ctx context.Context, id string, balance int64) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`,
		balance, id,
	)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// AddTransaction appends a ledger entry.
func (r *WalletRepository) AddTransaction(ctx context.Context, entry *domain.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (id, wallet_id, type, amount, balance_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		entry.ID,
		entry.WalletID,
		entry.Type,
		entry.Amount,
		entry.BalanceAfter,
		entry.Reference,
		entry.CreatedAt,
	)

	return mapWriteError(err)
}

// ListTransactions retrieves the latest ledger entries of a wallet.
func (r *WalletRepository) ListTransactions(ctx context.Context, walletID string, limit int) ([]*domain.WalletTransaction, error) {
	query := `
		SELECT id, wallet_id, type, amount, balance_after, reference, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, walletID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.WalletTransaction
	for rows.Next() {
		var e domain.WalletTransaction
		if err := rows.Scan(&e.ID, &e.WalletID, &e.Type, &e.Amount, &e.BalanceAfter, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Ensure WalletRepository implements repository.WalletRepository.
var _ repository.WalletRepository = (*WalletRepository)(nil)
