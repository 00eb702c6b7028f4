package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/monument-scanner/auth"
	"github.com/upb/monument-scanner/services/guard"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for session token claims
	ClaimsKey contextKey = "claims"

	// AuthStateKey is the context key for the resolved auth state
	AuthStateKey contextKey = "auth_state"
)

// GetRequestIDFromContext retrieves the request ID from context, falling
// back to the id assigned by the router's RequestID middleware.
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimiddleware.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves session claims from context
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds session claims to the context
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetAuthStateFromContext retrieves the auth state from context.
// A request that never passed through ResolveSession is unauthenticated.
func GetAuthStateFromContext(ctx context.Context) guard.AuthState {
	if val := ctx.Value(AuthStateKey); val != nil {
		if state, ok := val.(guard.AuthState); ok {
			return state
		}
	}
	return guard.Unauthenticated()
}

// WithAuthState adds the resolved auth state to the context
func WithAuthState(ctx context.Context, state guard.AuthState) context.Context {
	return context.WithValue(ctx, AuthStateKey, state)
}
