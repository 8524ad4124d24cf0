package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/veldt-labs/authcore"
	"github.com/veldt-labs/authcore/middleware"
)

type fakeDirectory struct {
	mu      sync.Mutex
	byEmail map[string]authcore.UserRecord
	byID    map[string]authcore.UserRecord
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		byEmail: make(map[string]authcore.UserRecord),
		byID:    make(map[string]authcore.UserRecord),
	}
}

func (d *fakeDirectory) CreateUser(_ context.Context, input authcore.CreateUserInput) (authcore.UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byEmail[input.Email]; exists {
		return authcore.UserRecord{}, authcore.ErrDuplicateEmail
	}
	rec := authcore.UserRecord{
		UserID:       uuid.NewString(),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
	}
	d.byEmail[rec.Email] = rec
	d.byID[rec.UserID] = rec
	return rec, nil
}

func (d *fakeDirectory) GetUserByEmail(_ context.Context, email string) (authcore.UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.byEmail[email]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return rec, nil
}

func (d *fakeDirectory) GetUserByID(_ context.Context, userID string) (authcore.UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.byID[userID]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return rec, nil
}

func newTestEngine(t *testing.T) *authcore.Engine {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Cost = 10

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithDirectory(newFakeDirectory()).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func guardedHandler(t *testing.T, engine *authcore.Engine) http.Handler {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := middleware.AuthResultFromContext(r.Context())
		if !ok {
			t.Error("auth result missing from context")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-User-ID", res.UserID)
		w.WriteHeader(http.StatusOK)
	})

	return middleware.Guard(engine)(inner)
}

func TestGuardAllowsValidToken(t *testing.T) {
	engine := newTestEngine(t)

	signup, err := engine.Signup(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signup.Tokens.AccessToken)
	rec := httptest.NewRecorder()

	guardedHandler(t, engine).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-User-ID"); got != signup.User.UserID {
		t.Fatalf("user id = %q, want %q", got, signup.User.UserID)
	}
}

func TestGuardRejections(t *testing.T) {
	engine := newTestEngine(t)

	cases := []struct {
		name   string
		header string
	}{
		{"missing_header", ""},
		{"not_bearer", "Basic dXNlcjpwYXNz"},
		{"empty_token", "Bearer "},
		{"garbage_token", "Bearer not.a.jwt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			guardedHandler(t, engine).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d", rec.Code)
			}

			var body authcore.PublicError
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Code != "AUTH_UNAUTHORIZED" || body.StatusCode != http.StatusUnauthorized {
				t.Fatalf("body = %+v", body)
			}
		})
	}
}

func TestGuardRejectsRefreshTokenOnProtectedRoute(t *testing.T) {
	engine := newTestEngine(t)

	signup, err := engine.Signup(context.Background(), "bob@example.com", "correct horse")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signup.Tokens.RefreshToken)
	rec := httptest.NewRecorder()

	guardedHandler(t, engine).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGuardWithNilEngine(t *testing.T) {
	handler := middleware.Guard(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("inner handler reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}
