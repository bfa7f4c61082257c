package handler

import (
	"log/slog"
	"net/http"

	"github.com/textbooksaver/textbooksaver/internal/domain"
	"github.com/textbooksaver/textbooksaver/internal/metrics"
	"github.com/textbooksaver/textbooksaver/internal/middleware"
	"github.com/textbooksaver/textbooksaver/internal/service"
	"github.com/textbooksaver/textbooksaver/internal/session"
)

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	userService service.UserService
	logger      *slog.Logger
	isSecure    bool
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(userService service.UserService, logger *slog.Logger, isSecure bool) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
		isSecure:    isSecure,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	IsPremium bool   `json:"is_premium"`
}

// Signup handles POST /signup. A successful signup logs the new
// account in immediately.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.userService.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	token, err := h.userService.CreateSession(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.SignupsTotal.Inc()
	middleware.SetSessionCookie(w, token, h.isSecure)

	writeJSON(w, http.StatusCreated, map[string]any{
		"user": userResponse{
			ID:        user.ID.String(),
			Email:     user.Email,
			IsPremium: user.IsPremium,
		},
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	middleware.SetSessionCookie(w, result.Token, h.isSecure)

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{
			ID:        result.User.ID.String(),
			Email:     result.User.Email,
			IsPremium: result.User.IsPremium,
		},
	})
}

// Logout handles POST /logout. Always succeeds, even without a valid
// session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		_ = h.userService.Logout(r.Context(), cookie.Value)
	}

	middleware.ClearSessionCookie(w, h.isSecure)

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
