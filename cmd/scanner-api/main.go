// Command scanner-api serves the monument scanner backend: the scan result
// handoff cache, session resolution and the route guard in front of every
// screen.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/upb/monument-scanner/app"
	"github.com/upb/monument-scanner/config"
	"github.com/upb/monument-scanner/internal/observability"
	"github.com/upb/monument-scanner/routes"
	"github.com/upb/monument-scanner/services/guard"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Tests call it for fresh instances.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scanner-api",
		Short: "Backend for the monument scanner app",
		Long: `scanner-api hands scan results from the camera screen to the result
screen and guards every screen behind the signed-in session.

Running without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
		Version: version,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newPolicyCmd())
	cmd.AddCommand(newReplayCmd())

	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newPolicyCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Validate and print the effective route guard policy",
		Long: `policy loads the route guard policy the server would use, validates it
and prints it as YAML. Without --file the GUARD_POLICY_FILE variable is used;
without either the built-in defaults are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = os.Getenv("GUARD_POLICY_FILE")
			}
			return printPolicy(cmd.OutOrStdout(), file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML policy file to validate")
	return cmd
}

// printPolicy loads the policy at path, or the defaults for an empty path,
// and writes it as YAML.
func printPolicy(w io.Writer, path string) error {
	policy := guard.DefaultPolicy()
	if path != "" {
		loaded, err := guard.LoadPolicy(path)
		if err != nil {
			return err
		}
		policy = loaded
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(policy); err != nil {
		return fmt.Errorf("failed to encode policy: %w", err)
	}
	return enc.Close()
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", zap.Error(err))
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, srv, deps)
}

// serve runs srv until ctx is cancelled, then shuts down the server and
// releases the dependencies.
func serve(ctx context.Context, srv *http.Server, deps *app.Dependencies) error {
	cfg := deps.Config
	logger := deps.Logger

	errCh := make(chan error, 1)
	go func() {
		logger.Info("scanner-api listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment),
			zap.Bool("tls", cfg.Server.TLS.Enabled),
			zap.String("version", version))

		var err error
		if cfg.Server.TLS.Enabled {
			err = srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("server error", zap.Error(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := deps.Close(shutdownCtx); err != nil {
		logger.Error("dependency shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped")
	return serveErr
}
