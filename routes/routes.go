package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/monument-scanner/app"
	"github.com/upb/monument-scanner/handlers"
	"github.com/upb/monument-scanner/internal/observability"
	"github.com/upb/monument-scanner/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location", "Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(deps.SQLDB(), deps.Handoff, deps.Logger)
	handoffHandler := handlers.NewHandoffHandler(deps.Handoff, deps.Logger)
	guardHandler := handlers.NewGuardHandler(deps.Policy, deps.Logger)
	pages := handlers.NewPageHandler(deps.Handoff, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// Session endpoints; the identity service issues the token
	r.Route("/auth", func(r chi.Router) {
		r.Post("/session", deps.AuthHandler.HandleSession)
		r.Post("/logout", deps.AuthHandler.HandleLogout)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.ResolveSession)

		// Scan result handoff (require authentication)
		r.Route("/handoff", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/", handoffHandler.HandleStore)
			r.Delete("/", handoffHandler.HandleClearAll)
			r.Get("/stats", handoffHandler.HandleStats)
			r.Get("/{id}", handoffHandler.HandleRetrieve)
			r.Delete("/{id}", handoffHandler.HandleClear)
		})

		// Guard introspection for the client
		r.Route("/guard", func(r chi.Router) {
			r.Get("/decision", guardHandler.HandleDecision)
			r.Get("/policy", guardHandler.HandlePolicy)
		})
	})

	// Screens; every navigation passes the route guard
	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.ResolveSession)
		r.Use(deps.RouteGuard.Handler)

		// root is outside every group: signed-out users get the login page
		// here, signed-in users are sent to their default screen
		r.Get("/", pages.HandleLogin)
		r.Get("/login", pages.HandleLogin)
		r.Get("/(tabs)", pages.HandleTabs)
		r.Get("/(tabs)/{tab}", pages.HandleTabs)
		r.Get("/scan-result/{id}", pages.HandleScanResult)
		r.Get("/style-detail/{style}", pages.HandleStyleDetail)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
