package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"busticket/internal/repository"
)

// Transactor runs units of work inside a PostgreSQL transaction.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new Transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx begins a transaction, builds transaction-scoped repositories and
// commits if fn succeeds. Any error from fn rolls the transaction back.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	repos := repository.Repos{
		Buses:    NewBusRepositoryWithTx(tx),
		Seats:    NewSeatRepositoryWithTx(tx),
		Trips:    NewTripRepositoryWithTx(tx),
		Bookings: NewBookingRepositoryWithTx(tx),
		Tickets:  NewTicketRepositoryWithTx(tx),
		Payments: NewPaymentRepositoryWithTx(tx),
		Wallets:  NewWalletRepositoryWithTx(tx),
	}

	if err = fn(ctx, repos); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Ensure Transactor implements repository.Transactor.
var _ repository.Transactor = (*Transactor)(nil)
