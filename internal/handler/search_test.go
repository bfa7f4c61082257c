package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/textbooksaver/textbooksaver/internal/auth"
	"github.com/textbooksaver/textbooksaver/internal/domain"
	"github.com/textbooksaver/textbooksaver/internal/service"
)

type mockSearchService struct {
	searchFunc func(ctx context.Context, user *domain.User, query, isbn string) (*service.SearchResult, error)
}

func (m *mockSearchService) Search(ctx context.Context, user *domain.User, query, isbn string) (*service.SearchResult, error) {
	return m.searchFunc(ctx, user, query, isbn)
}

func authedRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	user := &domain.User{ID: uuid.New(), Email: "reader@example.com", LastSearchReset: time.Now().UTC()}
	return req.WithContext(auth.SetUser(req.Context(), user))
}

func TestSearchUnauthenticated(t *testing.T) {
	h := NewSearchHandler(&mockSearchService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"Calculus"}`))
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestSearchValidationError(t *testing.T) {
	svc := &mockSearchService{
		searchFunc: func(_ context.Context, _ *domain.User, _, _ string) (*service.SearchResult, error) {
			return nil, domain.Invalid("SearchService.Search", "Please enter a book title or ISBN")
		},
	}
	h := NewSearchHandler(svc, testLogger())

	rec := httptest.NewRecorder()
	h.Search(rec, authedRequest(http.MethodPost, "/search", `{"query":"","isbn":""}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSearchQuotaExhausted(t *testing.T) {
	svc := &mockSearchService{
		searchFunc: func(_ context.Context, _ *domain.User, _, _ string) (*service.SearchResult, error) {
			return nil, domain.Forbidden("SearchService.Search", "Daily search limit reached. Upgrade to Premium for unlimited searches!")
		},
	}
	h := NewSearchHandler(svc, testLogger())

	rec := httptest.NewRecorder()
	h.Search(rec, authedRequest(http.MethodPost, "/search", `{"query":"Calculus"}`))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if !strings.Contains(rec.Body.String(), "Upgrade to Premium") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestSearchSuccess(t *testing.T) {
	svc := &mockSearchService{
		searchFunc: func(_ context.Context, _ *domain.User, query, isbn string) (*service.SearchResult, error) {
			if query != "Calculus" || isbn != "978-0134438986" {
				t.Errorf("query = %q, isbn = %q", query, isbn)
			}
			return &service.SearchResult{
				Offers: []domain.Offer{
					{Source: "eBay", Price: 12.50, Title: "Calculus", URL: "https://ebay.example/1"},
					{Source: "Amazon", Price: 0, IsSearchLink: true, URL: "https://amazon.example"},
				},
				Savings:   11.50,
				Remaining: 3,
			}, nil
		},
	}
	h := NewSearchHandler(svc, testLogger())

	rec := httptest.NewRecorder()
	h.Search(rec, authedRequest(http.MethodPost, "/search", `{"query":"Calculus","isbn":"978-0134438986"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var body struct {
		Results   []domain.Offer  `json:"results"`
		Savings   float64         `json:"savings"`
		Remaining json.RawMessage `json:"searches_remaining"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(body.Results) != 2 {
		t.Errorf("results = %d, want 2", len(body.Results))
	}
	if body.Savings != 11.50 {
		t.Errorf("savings = %.2f, want 11.50", body.Savings)
	}
	if string(body.Remaining) != "3" {
		t.Errorf("searches_remaining = %s, want 3", body.Remaining)
	}
}

func TestSearchUnlimitedRemaining(t *testing.T) {
	svc := &mockSearchService{
		searchFunc: func(_ context.Context, _ *domain.User, _, _ string) (*service.SearchResult, error) {
			return &service.SearchResult{Remaining: domain.UnlimitedSearches}, nil
		},
	}
	h := NewSearchHandler(svc, testLogger())

	rec := httptest.NewRecorder()
	h.Search(rec, authedRequest(http.MethodPost, "/search", `{"query":"Calculus"}`))

	if !strings.Contains(rec.Body.String(), `"searches_remaining":"unlimited"`) {
		t.Errorf("body = %q, want unlimited sentinel", rec.Body.String())
	}
}
