package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/textbooksaver/textbooksaver/internal/auth"
	"github.com/textbooksaver/textbooksaver/internal/domain"
	"github.com/textbooksaver/textbooksaver/internal/session"
)

// mockUserService implements service.UserService with overridable funcs.
type mockUserService struct {
	getBySessionTokenFunc func(ctx context.Context, token string) (*domain.User, error)
}

func (m *mockUserService) Register(_ context.Context, _ domain.RegisterParams) (*domain.User, error) {
	return nil, nil
}

func (m *mockUserService) Login(_ context.Context, _, _ string) (*domain.LoginResult, error) {
	return nil, nil
}

func (m *mockUserService) CreateSession(_ context.Context, _ uuid.UUID) (string, error) {
	return "", nil
}

func (m *mockUserService) Logout(_ context.Context, _ string) error { return nil }

func (m *mockUserService) GetByID(_ context.Context, _ uuid.UUID) (*domain.User, error) {
	return nil, nil
}

func (m *mockUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if m.getBySessionTokenFunc != nil {
		return m.getBySessionTokenFunc(ctx, token)
	}
	return nil, domain.Unauthorized("", "Invalid or expired session")
}

func (m *mockUserService) ActivatePremium(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (m *mockUserService) DeactivatePremiumByEmail(_ context.Context, _ string) error { return nil }

func (m *mockUserService) CompleteCheckout(_ context.Context, _, _ string, _ time.Time) error {
	return nil
}

func (m *mockUserService) DeleteExpiredSessions(_ context.Context) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWithUserNoCookie(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)

	var gotUser *domain.User
	handler := mw.WithUser(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUser = auth.GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUser != nil {
		t.Error("expected no user in context")
	}
}

func TestWithUserValidSession(t *testing.T) {
	want := &domain.User{ID: uuid.New(), Email: "reader@example.com"}
	svc := &mockUserService{
		getBySessionTokenFunc: func(_ context.Context, token string) (*domain.User, error) {
			if token != "valid-token" {
				t.Errorf("token = %q, want %q", token, "valid-token")
			}
			return want, nil
		},
	}
	mw := NewAuthMiddleware(svc, testLogger(), false)

	var gotUser *domain.User
	handler := mw.WithUser(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUser = auth.GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotUser == nil || gotUser.Email != want.Email {
		t.Errorf("user in context = %v, want %v", gotUser, want)
	}
}

func TestWithUserInvalidSessionClearsCookie(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)

	handler := mw.WithUser(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "stale-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (request continues without user)", rec.Code, http.StatusOK)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the session cookie to be cleared")
	}
}

func TestRequireUser(t *testing.T) {
	mw := NewAuthMiddleware(&mockUserService{}, testLogger(), false)

	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("no user yields 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		if !strings.Contains(rec.Body.String(), `"unauthorized"`) {
			t.Errorf("body = %q, want error envelope", rec.Body.String())
		}
	})

	t.Run("user in context passes through", func(t *testing.T) {
		user := &domain.User{ID: uuid.New()}
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req = req.WithContext(auth.SetUser(req.Context(), user))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
		}
	})
}

func TestSetSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "some-token", true)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}

	c := cookies[0]
	if c.Name != session.CookieName {
		t.Errorf("name = %q, want %q", c.Name, session.CookieName)
	}
	if c.Value != "some-token" {
		t.Errorf("value = %q", c.Value)
	}
	if !c.HttpOnly {
		t.Error("HttpOnly = false, want true")
	}
	if !c.Secure {
		t.Error("Secure = false, want true")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.MaxAge != session.CookieMaxAge {
		t.Errorf("MaxAge = %d, want %d", c.MaxAge, session.CookieMaxAge)
	}
}

func TestStackOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	stack := Stack(tag("outer"), tag("inner"))
	handler := stack(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"outer", "inner", "handler"}
	for i, name := range want {
		if i >= len(order) || order[i] != name {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
