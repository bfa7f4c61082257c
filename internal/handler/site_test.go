package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/textbooksaver/textbooksaver/internal/domain"
)

type mockQuotaService struct {
	canSearchFunc func(ctx context.Context, user *domain.User, now time.Time) (bool, error)
}

func (m *mockQuotaService) CanSearch(ctx context.Context, user *domain.User, now time.Time) (bool, error) {
	if m.canSearchFunc != nil {
		return m.canSearchFunc(ctx, user, now)
	}
	return true, nil
}

func (m *mockQuotaService) IncrementSearch(_ context.Context, _ *domain.User, _ time.Time) error {
	return nil
}

func TestHome(t *testing.T) {
	h := NewSiteHandler(&mockQuotaService{}, testLogger())

	t.Run("anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.Home(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if strings.Contains(rec.Body.String(), `"user"`) {
			t.Error("anonymous response should not include a user")
		}
	})

	t.Run("signed in", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Home(rec, authedRequest(http.MethodGet, "/", ""))

		if !strings.Contains(rec.Body.String(), "reader@example.com") {
			t.Errorf("body = %q, want signed-in user", rec.Body.String())
		}
	})
}

func TestHealth(t *testing.T) {
	h := NewSiteHandler(&mockQuotaService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDashboard(t *testing.T) {
	t.Run("unauthenticated yields 401", func(t *testing.T) {
		h := NewSiteHandler(&mockQuotaService{}, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		rec := httptest.NewRecorder()
		h.Dashboard(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("reports remaining searches", func(t *testing.T) {
		quota := &mockQuotaService{
			canSearchFunc: func(_ context.Context, user *domain.User, _ time.Time) (bool, error) {
				user.SearchesToday = 2
				return true, nil
			},
		}
		h := NewSiteHandler(quota, testLogger())

		rec := httptest.NewRecorder()
		h.Dashboard(rec, authedRequest(http.MethodGet, "/dashboard", ""))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"searches_remaining":3`) {
			t.Errorf("body = %q, want searches_remaining 3", rec.Body.String())
		}
	})
}
