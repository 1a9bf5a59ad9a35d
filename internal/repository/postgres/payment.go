package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"busticket/internal/domain"
	"busticket/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

const paymentSelect = `
	SELECT id, booking_id, amount, payment_method, transaction_code, status, payment_time, completed_at
	FROM payments
`

func scanPayment(row interface{ Scan(...any) error }) (*domain.Payment, error) {
	var payment domain.Payment
	var completedAt sql.NullTime

	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.Amount,
		&payment.Method,
		&payment.TransactionCode,
		&payment.Status,
		&payment.PaymentTime,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		payment.CompletedAt = completedAt.Time
	}

	return &payment, nil
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, amount, payment_method, transaction_code, status, payment_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		payment.Method,
		payment.TransactionCode,
		payment.Status,
		payment.PaymentTime,
	)

	return mapWriteError(err)
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.get(ctx, paymentSelect+" WHERE id = $1", id)
}

// GetForUpdate retrieves a payment and locks its row.
func (r *PaymentRepository) GetForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	return r.get(ctx, paymentSelect+" WHERE id = $1 FOR UPDATE", id)
}

func (r *PaymentRepository) get(ctx context.Context, query, id string) (*domain.Payment, error) {
	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return payment, nil
}

// List retrieves payments matching the filter.
func (r *PaymentRepository) List(ctx context.Context, filter repository.PaymentFilter) ([]*domain.Payment, error) {
	var conditions []string
	var args []any

	if filter.BookingID != "" {
		args = append(args, filter.BookingID)
		conditions = append(conditions, fmt.Sprintf("booking_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := paymentSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY payment_time DESC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

// Update updates method, status and completion time of a payment.
func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	var completedAt sql.NullTime
	if !payment.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: payment.CompletedAt, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, `
		UPDATE payments
		SET payment_method = $1, status = $2, completed_at = $3
		WHERE id = $4
	`, payment.Method, payment.Status, completedAt, payment.ID)
	if err != nil {
		return err
	}

	return expectAffected(result)
}

// FailPendingByBooking marks every Pending payment of a booking as Failed.
func (r *PaymentRepository) FailPendingByBooking(ctx context.Context, bookingID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE payments SET status = $1 WHERE booking_id = $2 AND status = $3`,
		domain.PaymentStatusFailed, bookingID, domain.PaymentStatusPending,
	)
	return err
}

// Statistics counts payments per status and sums completed amounts.
func (r *PaymentRepository) Statistics(ctx context.Context) (*domain.PaymentStatistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COALESCE(SUM(amount) FILTER (WHERE status = $2), 0)
		FROM payments
	`

	var stats domain.PaymentStatistics
	err := r.q.QueryRowContext(ctx, query,
		domain.PaymentStatusPending,
		domain.PaymentStatusCompleted,
		domain.PaymentStatusFailed,
	).Scan(&stats.Total, &stats.Pending, &stats.Completed, &stats.Failed, &stats.TotalRevenue)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// Ensure PaymentRepository implements repository.PaymentRepository.
var _ repository.PaymentRepository = (*PaymentRepository)(nil)
