package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"busticket/internal/domain"
	"busticket/internal/redis"
	"busticket/internal/repository"
)

const (
	defaultSessionTTL = 24 * time.Hour

	// touchInterval throttles last_activity writes.
	touchInterval = time.Minute
)

// SessionClaims are the JWT claims of an access token. The token ID carries
// the server-side session key so logout revokes the token.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and session validation.
type AuthService struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	sessionCache redis.SessionStoreInterface
	secret       []byte
	sessionTTL   time.Duration
	logger       *slog.Logger
}

// NewAuthService creates a new AuthService. sessionCache may be nil.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	sessionCache redis.SessionStoreInterface,
	secret string,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		sessionCache: sessionCache,
		secret:       []byte(secret),
		sessionTTL:   sessionTTL,
		logger:       logger,
	}
}

// RegisterRequest contains the parameters for creating an account.
type RegisterRequest struct {
	Username string `validate:"required,min=3,max=150"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
	FullName string `validate:"max=255"`
}

// Register creates a regular user account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         domain.UserRoleUser,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// LoginRequest contains the credentials and client details of a login.
type LoginRequest struct {
	Login     string `validate:"required"` // Username or email
	Password  string `validate:"required"`
	IPAddress string
	UserAgent string
}

// LoginResult holds the issued access token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Login checks credentials, opens a session and issues a token for it.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	session := &domain.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		SessionKey:   strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", ""),
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(s.sessionTTL),
		IsActive:     true,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	s.cacheSession(ctx, session)

	token, err := s.signToken(user, session)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID), slog.String("ip", req.IPAddress))
	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

func (s *AuthService) signToken(user *domain.User, session *domain.Session) (string, error) {
	claims := SessionClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        session.SessionKey,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate validates an access token against its live session and
// returns the signed-in user and session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, nil, ErrInvalidToken
	}

	session, err := s.session(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if !session.Valid(now) || session.UserID != claims.Subject {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrInvalidToken
	}

	if now.Sub(session.LastActivity) >= touchInterval {
		if err := s.sessionRepo.Touch(ctx, session.SessionKey, now); err != nil {
			return nil, nil, err
		}
		session.LastActivity = now
		s.cacheSession(ctx, session)
	}

	return user, session, nil
}

func (s *AuthService) session(ctx context.Context, key string) (*domain.Session, error) {
	if s.sessionCache != nil {
		cached, err := s.sessionCache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "session cache read failed", slog.Any("error", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	session, err := s.sessionRepo.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if session.IsActive {
		s.cacheSession(ctx, session)
	}
	return session, nil
}

func (s *AuthService) cacheSession(ctx context.Context, session *domain.Session) {
	if s.sessionCache == nil {
		return
	}
	if err := s.sessionCache.Set(ctx, session, s.sessionTTL); err != nil {
		s.logger.WarnContext(ctx, "session cache write failed", slog.Any("error", err))
		return
	}

	// Logout deactivates before evicting, so a logout that ran since the
	// session was read shows up here and the entry is dropped again.
	current, err := s.sessionRepo.GetByKey(ctx, session.SessionKey)
	if err == nil && current.IsActive {
		return
	}
	if err := s.sessionCache.Delete(ctx, session.SessionKey); err != nil {
		s.logger.WarnContext(ctx, "session cache eviction failed", slog.Any("error", err))
	}
}

// Logout ends a session. Its token stops authenticating immediately.
func (s *AuthService) Logout(ctx context.Context, sessionKey string) error {
	if sessionKey == "" {
		return ErrUnauthenticated
	}
	if err := s.sessionRepo.Deactivate(ctx, sessionKey); err != nil {
		return err
	}
	if s.sessionCache != nil {
		if err := s.sessionCache.Delete(ctx, sessionKey); err != nil {
			return fmt.Errorf("evict session: %w", err)
		}
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// PromoteAdmin grants the admin role to an existing user.
func (s *AuthService) PromoteAdmin(ctx context.Context, username string) error {
	if username == "" {
		return &ValidationError{Fields: map[string]string{"Username": "is required"}}
	}
	return s.userRepo.UpdateRole(ctx, username, domain.UserRoleAdmin)
}
