package middleware

import (
	"net/http"
	"time"

	"github.com/upb/monument-scanner/services/guard"
	"github.com/upb/monument-scanner/utils"
	"go.uber.org/zap"
)

// RouteGuard applies the route policy to page requests.
// It must run after AuthMiddleware.ResolveSession.
type RouteGuard struct {
	policy     guard.Policy
	retryAfter time.Duration
	logger     *zap.Logger
}

// NewRouteGuard creates a route guard for the given policy
func NewRouteGuard(policy guard.Policy, retryAfter time.Duration, logger *zap.Logger) *RouteGuard {
	return &RouteGuard{
		policy:     policy,
		retryAfter: retryAfter,
		logger:     logger,
	}
}

// Handler renders, defers or redirects each request according to the
// decision for its route group.
func (g *RouteGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		group := guard.RouteGroup(r.URL.Path)
		decision := guard.Decide(g.policy, GetAuthStateFromContext(ctx), group)

		switch decision.Action {
		case guard.ActionLoading:
			_ = utils.WriteServiceUnavailable(w, "Session is still loading", g.retryAfter)
		case guard.ActionRedirect:
			g.logger.Info("route guard redirect",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("path", r.URL.Path),
				zap.String("group", group),
				zap.String("target", decision.Target))
			http.Redirect(w, r, decision.Target, http.StatusFound)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
