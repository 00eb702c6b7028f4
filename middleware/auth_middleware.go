package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/upb/monument-scanner/auth"
	"github.com/upb/monument-scanner/models"
	"github.com/upb/monument-scanner/services"
	"github.com/upb/monument-scanner/services/guard"
	"github.com/upb/monument-scanner/utils"
	"go.uber.org/zap"
)

// UserResolver maps validated claims to the signed-in user's profile
type UserResolver interface {
	ResolveUser(ctx context.Context, claims *auth.Claims) (*models.User, error)
}

// AuthMiddleware resolves the session carried by each request into an auth state
type AuthMiddleware struct {
	validator     auth.Validator
	users         UserResolver
	lookupTimeout time.Duration
	logger        *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator auth.Validator, users UserResolver, lookupTimeout time.Duration, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator:     validator,
		users:         users,
		lookupTimeout: lookupTimeout,
		logger:        logger,
	}
}

// ResolveSession attaches the auth state to the request context. It never
// rejects a request: a missing or invalid token is simply unauthenticated,
// and a token that cannot be checked yet (signing keys unavailable, profile
// lookup out of time) is reported as loading.
func (m *AuthMiddleware) ResolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		state, claims := m.resolve(ctx, extractToken(r))

		ctx = WithAuthState(ctx, state)
		if claims != nil {
			ctx = WithClaims(ctx, claims)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) resolve(ctx context.Context, token string) (guard.AuthState, *auth.Claims) {
	requestID := GetRequestIDFromContext(ctx)

	if token == "" {
		return guard.Unauthenticated(), nil
	}

	claims, err := m.validator.ValidateToken(ctx, token)
	if errors.Is(err, auth.ErrJWKSFetchFailed) {
		m.logger.Warn("signing keys unavailable, session still loading",
			zap.String("request_id", requestID),
			zap.Error(err))
		return guard.Loading(), nil
	}
	if err != nil {
		m.logger.Debug("token validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		return guard.Unauthenticated(), nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, m.lookupTimeout)
	defer cancel()

	user, err := m.users.ResolveUser(lookupCtx, claims)
	switch {
	case err == nil:
		m.logger.Debug("session resolved",
			zap.String("request_id", requestID),
			zap.String("sub", claims.Subject))
		return guard.Authenticated(user), claims
	case errors.Is(err, context.DeadlineExceeded), services.IsInternalError(err):
		m.logger.Warn("profile lookup unavailable, session still loading",
			zap.String("request_id", requestID),
			zap.String("sub", claims.Subject),
			zap.Error(err))
		return guard.Loading(), claims
	default:
		m.logger.Warn("profile lookup rejected session",
			zap.String("request_id", requestID),
			zap.String("sub", claims.Subject),
			zap.Error(err))
		return guard.Unauthenticated(), nil
	}
}

// RequireAuth rejects requests whose session is not authenticated.
// It must run after ResolveSession.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		state := GetAuthStateFromContext(ctx)

		switch {
		case state.IsAuthenticated():
			next.ServeHTTP(w, r)
		case state.IsLoading():
			_ = utils.WriteServiceUnavailable(w, "Session is still loading", m.retryAfter())
		default:
			m.logger.Debug("unauthenticated request rejected",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
		}
	})
}

func (m *AuthMiddleware) retryAfter() time.Duration {
	if m.lookupTimeout < time.Second {
		return time.Second
	}
	return m.lookupTimeout
}

// extractToken extracts the session token from the Authorization header
// ("Bearer TOKEN") or the session cookie. The header takes precedence.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
