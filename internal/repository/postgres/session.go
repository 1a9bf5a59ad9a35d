package postgres

import (
	"context"
	"database/sql"
	"time"

	"busticket/internal/domain"
	"busticket/internal/repository"
)

// SessionRepository implements repository.SessionRepository on the user_sessions table.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create adds a new session.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO user_sessions
			(id, user_id, session_key, ip_address, user_agent, created_at, last_activity, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.SessionKey, s.IPAddress, s.UserAgent,
		s.CreatedAt, s.LastActivity, s.ExpiresAt, s.IsActive,
	)
	return mapWriteError(err)
}

// GetByKey retrieves a session by key.
func (r *SessionRepository) GetByKey(ctx context.Context, key string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, session_key, ip_address, user_agent, created_at, last_activity, expires_at, is_active
		FROM user_sessions WHERE session_key = $1
	`

	var s domain.Session
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&s.ID, &s.UserID, &s.SessionKey, &s.IPAddress, &s.UserAgent,
		&s.CreatedAt, &s.LastActivity, &s.ExpiresAt, &s.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Touch records activity on an active session.
func (r *SessionRepository) Touch(ctx context.Context, key string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_sessions SET last_activity = $1 WHERE session_key = $2 AND is_active`,
		at, key,
	)
	return err
}

// Deactivate ends a session.
func (r *SessionRepository) Deactivate(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE user_sessions SET is_active = FALSE WHERE session_key = $1`, key)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// Ensure SessionRepository implements repository.SessionRepository.
var _ repository.SessionRepository = (*SessionRepository)(nil)
