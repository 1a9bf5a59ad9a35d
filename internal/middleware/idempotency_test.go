package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestIdempotencyScope(t *testing.T) {
	t.Parallel()

	r := newAuthRouter()
	r.POST("/scope", func(c *gin.Context) {
		c.String(http.StatusOK, idempotencyScope(c))
	})

	testCases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "signed in user", headers: map[string]string{"Authorization": "Bearer user-token"}, want: "user:u-1"},
		{name: "user with guest token", headers: map[string]string{"Authorization": "Bearer user-token", "X-Guest-Token": "g-7"}, want: "user:u-1"},
		{name: "guest", headers: map[string]string{"X-Guest-Token": "g-7"}, want: "guest:g-7"},
		{name: "anonymous", want: "ip:192.0.2.1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/scope", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Body.String() != tc.want {
				t.Errorf("expected scope %q, got %q", tc.want, w.Body.String())
			}
		})
	}
}

func newIdempotentRouter(client *redis.Client, calls *int) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	r.Use(RequestID(), IdempotencyMiddleware(client, logger))
	r.POST("/charge", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusCreated, gin.H{"call": *calls})
	})
	return r
}

func TestIdempotencyMiddleware_PassesThrough(t *testing.T) {
	t.Parallel()

	unreachable := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { unreachable.Close() })

	testCases := []struct {
		name   string
		client *redis.Client
		key    string
	}{
		{name: "no redis client", key: "charge-1"},
		{name: "no idempotency key", client: unreachable},
		{name: "redis unavailable", client: unreachable, key: "charge-1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			r := newIdempotentRouter(tc.client, &calls)
			for i := 0; i < 2; i++ {
				req := httptest.NewRequest(http.MethodPost, "/charge", nil)
				if tc.key != "" {
					req.Header.Set("Idempotency-Key", tc.key)
				}
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)

				if w.Code != http.StatusCreated {
					t.Fatalf("expected 201, got %d", w.Code)
				}
				if w.Header().Get("Idempotent-Replayed") != "" {
					t.Error("expected the handler to run, not a replay")
				}
			}
			if calls != 2 {
				t.Errorf("expected the handler to run twice, got %d", calls)
			}
		})
	}
}
