package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/upb/monument-scanner/auth"
	"github.com/upb/monument-scanner/config"
	"github.com/upb/monument-scanner/middleware"
	"github.com/upb/monument-scanner/models"
	"github.com/upb/monument-scanner/repositories"
	"github.com/upb/monument-scanner/repositories/postgres"
	"github.com/upb/monument-scanner/services"
	"github.com/upb/monument-scanner/services/guard"
	"github.com/upb/monument-scanner/services/handoff"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when no profiles database is configured
	Logger *zap.Logger

	// Repositories; nil without a database
	Repos *repositories.Repositories

	// Core
	Handoff *handoff.Cache[*models.ScanResult]
	Policy  guard.Policy

	// Auth
	TokenValidator *auth.TokenValidator
	Profiles       *services.ProfileService
	AuthMiddleware *middleware.AuthMiddleware
	RouteGuard     *middleware.RouteGuard
	AuthHandler    *auth.Handler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initPolicy(cfg); err != nil {
		return nil, fmt.Errorf("failed to load guard policy: %w", err)
	}

	if cfg.Database.Enabled() {
		if err := deps.initDatabase(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	} else {
		logger.Info("no profiles database configured, profiles derive from token claims")
	}

	deps.Handoff = handoff.New[*models.ScanResult](handoff.DefaultCapacity)
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initPolicy loads the guard policy from GUARD_POLICY_FILE, or the defaults
func (d *Dependencies) initPolicy(cfg *config.Config) error {
	if cfg.Guard.PolicyFile == "" {
		d.Policy = guard.DefaultPolicy()
		return nil
	}

	policy, err := guard.LoadPolicy(cfg.Guard.PolicyFile)
	if err != nil {
		return err
	}
	d.Policy = policy
	d.Logger.Info("guard policy loaded",
		zap.String("file", cfg.Guard.PolicyFile),
		zap.String("protected_group", policy.ProtectedGroup),
		zap.Strings("exempt", policy.Exempt))
	return nil
}

// initDatabase opens the profiles database and its repositories
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return err
	}

	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return err
	}

	d.DB = db
	d.Repos = postgres.NewRepositories(db, d.Logger)
	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	d.TokenValidator = auth.NewTokenValidator(auth.Config{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	})

	var validator auth.Validator
	switch {
	case cfg.Auth.JWKSURL != "":
		validator = auth.NewJWKSValidator(auth.JWKSConfig{
			URL:      cfg.Auth.JWKSURL,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
			Leeway:   cfg.Auth.Leeway,
		})
		d.Logger.Info("session tokens verified against key set", zap.String("jwks_url", cfg.Auth.JWKSURL))
	case cfg.Auth.JWTSecret != "":
		validator = d.TokenValidator
	default:
		d.Logger.Warn("neither AUTH_JWT_SECRET nor AUTH_JWKS_URL set, every session resolves as signed out")
		validator = rejectAllValidator{}
	}

	d.Profiles = services.NewProfileService(d.Repos, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Profiles, cfg.Auth.LookupTimeout, d.Logger)
	d.RouteGuard = middleware.NewRouteGuard(d.Policy, max(cfg.Auth.LookupTimeout, time.Second), d.Logger)
	d.AuthHandler = auth.NewHandler(validator, cfg.Auth.SecureCookie, d.Logger)
}

// SQLDB returns the raw pool for health checks, or nil without a database
func (d *Dependencies) SQLDB() *sql.DB {
	if d.DB == nil {
		return nil
	}
	return d.DB.DB
}

// rejectAllValidator rejects all tokens (used when no verification key is configured)
type rejectAllValidator struct{}

func (rejectAllValidator) ValidateToken(context.Context, string) (*auth.Claims, error) {
	return nil, fmt.Errorf("%w: authentication not configured", auth.ErrInvalidToken)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.Handoff != nil {
		d.Handoff.ClearAll()
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
