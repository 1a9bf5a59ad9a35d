package postgres

import (
	"context"
	"database/sql"

	"busticket/internal/domain"
	"busticket/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userSelect = `SELECT id, username, email, full_name, password_hash, role, is_active, created_at FROM users`

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, full_name, password_hash, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.FullName,
		user.PasswordHash, user.Role, user.IsActive, user.CreatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, userSelect+` WHERE id = $1`, id)
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.get(ctx, userSelect+` WHERE username = $1`, username)
}

// GetByLogin retrieves a user by username or email.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.get(ctx, userSelect+` WHERE username = $1 OR LOWER(email) = LOWER($1) LIMIT 1`, login)
}

func (r *UserRepository) get(ctx context.Context, query, arg string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)

	var user domain.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.PasswordHash, &user.Role, &user.IsActive, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRole changes the role of a user.
func (r *UserRepository) UpdateRole(ctx context.Context, username string, role domain.UserRole) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET role = $1 WHERE username = $2`, role, username)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// Ensure UserRepository implements repository.UserRepository.
var _ repository.UserRepository = (*UserRepository)(nil)
