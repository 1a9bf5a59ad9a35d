package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"busticket/internal/domain"
	"busticket/internal/repository"
	"busticket/internal/service"
)

func registerAndLogin(t *testing.T, env *testEnv, username string) *service.LoginResult {
	t.Helper()
	ctx := context.Background()

	if _, err := env.auth.Register(ctx, service.RegisterRequest{
		Username: username,
		Email:    username + "@mail.test",
		Password: "correct-horse",
		FullName: "Traveller " + username,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := env.auth.Login(ctx, service.LoginRequest{Login: username, Password: "correct-horse", IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return result
}

func TestRegister(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, service.RegisterRequest{
		Username: "linh",
		Email:    "Linh@Mail.Test",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.Role != domain.UserRoleUser {
		t.Errorf("expected role user, got %s", user.Role)
	}
	if user.Email != "linh@mail.test" {
		t.Errorf("expected lowercased email, got %s", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct-horse" {
		t.Error("expected password to be hashed")
	}

	testCases := []struct {
		name      string
		req       service.RegisterRequest
		wantErr   error
		wantField string
	}{
		{
			name:    "duplicate username",
			req:     service.RegisterRequest{Username: "linh", Email: "other@mail.test", Password: "correct-horse"},
			wantErr: service.ErrUserExists,
		},
		{
			name:    "duplicate email",
			req:     service.RegisterRequest{Username: "linh2", Email: "LINH@mail.test", Password: "correct-horse"},
			wantErr: service.ErrUserExists,
		},
		{
			name:      "short password",
			req:       service.RegisterRequest{Username: "minh", Email: "minh@mail.test", Password: "short"},
			wantField: "Password",
		},
		{
			name:      "invalid email",
			req:       service.RegisterRequest{Username: "minh", Email: "not-an-email", Password: "correct-horse"},
			wantField: "Email",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tc.req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got: %v", tc.wantErr, err)
				}
				return
			}
			var verr *service.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got: %v", err)
			}
			if _, ok := verr.Fields[tc.wantField]; !ok {
				t.Errorf("expected %s field error, got %v", tc.wantField, verr.Fields)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	result := registerAndLogin(t, env, "quang")
	ctx := context.Background()

	if result.Token == "" {
		t.Fatal("expected a token")
	}
	if !result.ExpiresAt.After(time.Now()) {
		t.Error("expected expiry in the future")
	}

	byEmail, err := env.auth.Login(ctx, service.LoginRequest{Login: "QUANG@mail.test", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("expected login by email to succeed, got: %v", err)
	}
	if byEmail.User.Username != "quang" {
		t.Errorf("expected user quang, got %s", byEmail.User.Username)
	}

	testCases := []struct {
		name string
		req  service.LoginRequest
	}{
		{name: "wrong password", req: service.LoginRequest{Login: "quang", Password: "wrong-horse"}},
		{name: "unknown user", req: service.LoginRequest{Login: "nobody", Password: "correct-horse"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.auth.Login(ctx, tc.req); !errors.Is(err, service.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got: %v", err)
			}
		})
	}
}

func TestAuthenticate_AndLogout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	result := registerAndLogin(t, env, "thu")
	ctx := context.Background()

	user, session, err := env.auth.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("expected token to authenticate, got: %v", err)
	}
	if user.ID != result.User.ID {
		t.Errorf("expected user %s, got %s", result.User.ID, user.ID)
	}
	if session.IPAddress != "10.0.0.1" {
		t.Errorf("expected session IP 10.0.0.1, got %s", session.IPAddress)
	}
	if !env.sessionStore.Has(session.SessionKey) {
		t.Error("expected session to be cached")
	}

	if err := env.auth.Logout(ctx, session.SessionKey); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if env.sessionStore.Has(session.SessionKey) {
		t.Error("expected session to be evicted from the cache")
	}

	if _, _, err := env.auth.Authenticate(ctx, result.Token); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after logout, got: %v", err)
	}

	if err := env.auth.Logout(ctx, ""); !errors.Is(err, service.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got: %v", err)
	}
}

func TestAuthenticate_LogoutDuringTouch_LeavesNoCachedSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	result := registerAndLogin(t, env, "lan")
	ctx := context.Background()

	_, session, err := env.auth.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	key := session.SessionKey

	// Make the next authentication refresh last_activity from the database.
	if err := env.store.Sessions().Touch(ctx, key, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("age session: %v", err)
	}
	if err := env.sessionStore.Delete(ctx, key); err != nil {
		t.Fatalf("evict session: %v", err)
	}

	env.store.AfterSessionTouch = func(touched string) {
		if err := env.auth.Logout(ctx, touched); err != nil {
			t.Errorf("logout: %v", err)
		}
	}
	if _, _, err := env.auth.Authenticate(ctx, result.Token); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if env.sessionStore.Has(key) {
		t.Error("expected the logged out session to stay out of the cache")
	}
	if _, _, err := env.auth.Authenticate(ctx, result.Token); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after logout, got: %v", err)
	}
}

func TestAuthenticate_RejectsForeignAndMalformedTokens(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	result := registerAndLogin(t, env, "hoa")
	_, session, err := env.auth.Authenticate(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	sign := func(secret string, claims service.SessionClaims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return token
	}
	valid := service.SessionClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   result.User.ID,
			ID:        session.SessionKey,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	otherSubject := valid
	otherSubject.Subject = env.admin.UserID
	noSession := valid
	noSession.ID = "unknown-session"

	testCases := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "other secret", token: sign("another-secret", valid)},
		{name: "expired", token: sign(testSecret, expired)},
		{name: "subject mismatch", token: sign(testSecret, otherSubject)},
		{name: "unknown session", token: sign(testSecret, noSession)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := env.auth.Authenticate(context.Background(), tc.token); !errors.Is(err, service.ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got: %v", err)
			}
		})
	}

	// The role claim is informational; the stored role wins.
	user, _, err := env.auth.Authenticate(context.Background(), sign(testSecret, valid))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.IsAdmin() {
		t.Error("expected stored role to be used, not the token claim")
	}
}

func TestPromoteAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	result := registerAndLogin(t, env, "duc")
	ctx := context.Background()

	if err := env.auth.PromoteAdmin(ctx, "duc"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	user, err := env.auth.GetUser(ctx, result.User.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !user.IsAdmin() {
		t.Error("expected user to be admin")
	}

	if err := env.auth.PromoteAdmin(ctx, "nobody"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
	var verr *service.ValidationError
	if err := env.auth.PromoteAdmin(ctx, ""); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got: %v", err)
	}
}
