package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/upb/monument-scanner/utils"
	"go.uber.org/zap"
)

const (
	// SessionCookieName is the cookie carrying the session token
	SessionCookieName = "auth_token"
	sessionCookieMaxAge = 86400 * 7 // 7 days
)

// Validator validates session tokens and returns claims.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// sessionRequest is the body of POST /auth/session
type sessionRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

// Handler handles session establishment and sign-out.
type Handler struct {
	validator    Validator
	secureCookie bool
	logger       *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(validator Validator, secureCookie bool, logger *zap.Logger) *Handler {
	return &Handler{
		validator:    validator,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// HandleSession validates an access token obtained from the identity service
// and stores it in the session cookie.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := utils.DecodeAndValidate(r.Body, &req); err != nil {
		_ = utils.WriteBadRequest(w, "Missing access token", nil)
		return
	}

	claims, err := h.validator.ValidateToken(r.Context(), req.AccessToken)
	if errors.Is(err, ErrJWKSFetchFailed) {
		h.logger.Warn("signing keys unavailable", zap.Error(err))
		_ = utils.WriteServiceUnavailable(w, "Sign-in is temporarily unavailable", time.Second)
		return
	}
	if err != nil {
		h.logger.Warn("session token rejected", zap.Error(err))
		_ = utils.WriteUnauthorized(w, "Invalid or expired token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    req.AccessToken,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("session established", zap.String("sub", claims.Subject))
	utils.WriteNoContent(w)
}

// HandleLogout clears the session cookie
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteNoContent(w)
}
