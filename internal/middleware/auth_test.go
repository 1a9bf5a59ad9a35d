package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"busticket/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator struct {
	tokens map[string]*domain.User
}

func (f fakeAuthenticator) Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	user, ok := f.tokens[token]
	if !ok {
		return nil, nil, errors.New("invalid or expired token")
	}
	return user, &domain.Session{SessionKey: "session-" + token, UserID: user.ID}, nil
}

func newAuthRouter() *gin.Engine {
	auth := fakeAuthenticator{tokens: map[string]*domain.User{
		"user-token":  {ID: "u-1", Role: domain.UserRoleUser, FullName: "Pham Thi B"},
		"admin-token": {ID: "u-2", Role: domain.UserRoleAdmin},
	}}

	r := gin.New()
	r.Use(RequestID(), Authenticate(auth))
	r.GET("/whoami", func(c *gin.Context) {
		actor := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id":     actor.UserID,
			"guest_token": actor.GuestToken,
			"session":     SessionKeyFrom(c),
		})
	})
	r.GET("/user", RequireUser(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestAuthenticate_AccessRules(t *testing.T) {
	t.Parallel()

	r := newAuthRouter()

	testCases := []struct {
		name       string
		path       string
		headers    map[string]string
		wantStatus int
	}{
		{name: "anonymous public", path: "/whoami", wantStatus: http.StatusOK},
		{name: "invalid token", path: "/whoami", headers: map[string]string{"Authorization": "Bearer nope"}, wantStatus: http.StatusUnauthorized},
		{name: "non bearer scheme ignored", path: "/whoami", headers: map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, wantStatus: http.StatusOK},
		{name: "anonymous user route", path: "/user", wantStatus: http.StatusUnauthorized},
		{name: "guest user route", path: "/user", headers: map[string]string{"X-Guest-Token": "g-1"}, wantStatus: http.StatusUnauthorized},
		{name: "user route", path: "/user", headers: map[string]string{"Authorization": "Bearer user-token"}, wantStatus: http.StatusNoContent},
		{name: "lowercase scheme", path: "/user", headers: map[string]string{"Authorization": "bearer user-token"}, wantStatus: http.StatusNoContent},
		{name: "user on admin route", path: "/admin", headers: map[string]string{"Authorization": "Bearer user-token"}, wantStatus: http.StatusForbidden},
		{name: "anonymous admin route", path: "/admin", wantStatus: http.StatusUnauthorized},
		{name: "admin route", path: "/admin", headers: map[string]string{"Authorization": "Bearer admin-token"}, wantStatus: http.StatusNoContent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("expected a request ID header")
			}
		})
	}
}

func TestAuthenticate_SetsActor(t *testing.T) {
	t.Parallel()

	r := newAuthRouter()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	req.Header.Set("X-Guest-Token", "g-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	want := `{"guest_token":"g-7","session":"session-user-token","user_id":"u-1"}`
	if w.Body.String() != want {
		t.Errorf("expected %s, got %s", want, w.Body.String())
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		header string
		want   string
		wantOK bool
	}{
		{header: "Bearer abc", want: "abc", wantOK: true},
		{header: "BEARER  abc ", want: "abc", wantOK: true},
		{header: "Bearer", wantOK: false},
		{header: "Bearer   ", wantOK: false},
		{header: "Token abc", wantOK: false},
		{header: "", wantOK: false},
	}

	for _, tc := range testCases {
		got, ok := bearerToken(tc.header)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("bearerToken(%q) = %q, %v; expected %q, %v", tc.header, got, ok, tc.want, tc.wantOK)
		}
	}
}
