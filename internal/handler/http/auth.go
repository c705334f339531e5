package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ivaylo9512/Platform-app-auth-server/internal/service"
	"github.com/ivaylo9512/Platform-app-auth-server/pkg/validator"
)

// refreshCookieName is the cookie carrying the refresh token.
const refreshCookieName = "refreshToken"

// AuthHandler handles registration, login, and session endpoints.
type AuthHandler struct {
	sessions *service.SessionService
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(sessions *service.SessionService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for registration.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=8,max=20"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=10,max=22"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Age       int    `json:"age" validate:"required,gte=1,lte=120"`
}

// LoginRequest is the JSON request body for login. Exactly one of username
// or email identifies the account.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email,omitempty,min=8,max=20"`
	Email    string `json:"email" validate:"required_without=Username,omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest is the JSON request body for requesting a reset token.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the JSON request body for redeeming a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=10,max=22"`
}

// refreshRequest is the fallback body for clients that cannot send cookies.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validator.Validate(req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, pair, err := h.sessions.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
	})
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	h.setSessionCredentials(w, pair)
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validator.Validate(req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, pair, err := h.sessions.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	h.setSessionCredentials(w, pair)
	writeJSON(w, http.StatusOK, user)
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token arrives in
// the refreshToken cookie; a JSON body is accepted as a fallback. A new
// access token goes out in the Authorization header, the refresh token is
// not rotated.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := h.refreshTokenFromRequest(r)
	if token == "" {
		writeText(w, http.StatusUnauthorized, "No auth token")
		return
	}

	user, accessToken, err := h.sessions.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Authorization", accessToken)
	writeJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/v1/auth/logout. Always succeeds; revoking an
// already-revoked token is a no-op.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context(), h.refreshTokenFromRequest(r))
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusOK)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password. The response is
// identical whether or not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validator.Validate(req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if _, err := h.sessions.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeText(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validator.Validate(req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.sessions.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// setSessionCredentials attaches the token pair to the response: access
// token in the Authorization header, refresh token in an httpOnly cookie
// scoped for a cross-site client.
func (h *AuthHandler) setSessionCredentials(w http.ResponseWriter, pair *service.TokenPair) {
	w.Header().Set("Authorization", pair.AccessToken)
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.sessions.RefreshExpiry().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *AuthHandler) refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		return req.RefreshToken
	}

	return ""
}
