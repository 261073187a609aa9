package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	specpkg "github.com/rosterhq/roster/api"
	"github.com/rosterhq/roster/internal/activity"
	"github.com/rosterhq/roster/internal/api"
	"github.com/rosterhq/roster/internal/auth"
	"github.com/rosterhq/roster/internal/config"
	"github.com/rosterhq/roster/internal/database"
	"github.com/rosterhq/roster/internal/decision"
	"github.com/rosterhq/roster/internal/identity"
	"github.com/rosterhq/roster/internal/profile"
	"github.com/rosterhq/roster/internal/provisioning"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("database migrations applied")
	}

	identities, authenticator := initIdentityProvider(cfg, db)

	verifier, issuer, err := initTokenVerifier(cfg)
	if err != nil {
		slog.Error("failed to initialize token verifier", "error", err)
		os.Exit(1)
	}

	profiles := profile.NewRepository(db.Pool())
	svc := provisioning.NewService(provisioning.Deps{
		Engine: decision.NewEngine(decision.Policy{
			LeadScope:           decision.LeadScope(cfg.LeadScopeRule),
			RequireCallerActive: cfg.RequireCallerActive,
		}),
		Identities:    identities,
		Profiles:      profiles,
		Activity:      activity.NewRepository(db.Pool()),
		PendingStatus: profile.Status(cfg.PendingStatus),
	})

	if cfg.BootstrapEnabled() {
		director, err := svc.BootstrapDirector(ctx, cfg.BootstrapDirectorEmail, cfg.BootstrapDirectorPassword, cfg.BootstrapDirectorName)
		if err != nil {
			slog.Error("failed to bootstrap director", "error", err)
			os.Exit(1)
		}
		if director != nil {
			slog.Info("bootstrap director created", "userId", director.ID, "email", director.Email)
		}
	}

	deps := api.RouterDeps{
		DBPinger:           db,
		Identity:           identities,
		Verifier:           verifier,
		Profiles:           profiles,
		Provisioner:        svc,
		Version:            cfg.Version,
		OpenAPISpec:        specpkg.OpenAPISpec,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	// Tokens can only be minted for principals this service stores itself.
	if authenticator != nil && issuer != nil {
		deps.Authenticator = authenticator
		deps.TokenIssuer = issuer
	}
	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting roster server",
			"port", cfg.Port,
			"version", cfg.Version,
			"identityProvider", cfg.IdentityProvider,
			"tokenVerifier", cfg.TokenVerifier,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// initIdentityProvider returns the configured provider. The local provider
// doubles as the authenticator behind POST /auth/token.
func initIdentityProvider(cfg *config.Config, db *database.DB) (identity.Provider, *identity.LocalProvider) {
	if cfg.IdentityProvider == config.BackendLocal {
		local := identity.NewLocalProvider(db.Pool(), cfg.BcryptCost)
		return local, local
	}
	return identity.NewKratosProvider(cfg.KratosAdminURL, cfg.KratosSchemaID, cfg.IdentityTimeout), nil
}

func initTokenVerifier(cfg *config.Config) (auth.Verifier, *auth.TokenIssuer, error) {
	if cfg.TokenVerifier == config.BackendJWT {
		jwtCfg := auth.JWTConfig{
			Secret: cfg.JWTSecret,
			Issuer: cfg.JWTIssuer,
			TTL:    cfg.JWTTTL,
		}
		verifier, err := auth.NewJWTVerifier(jwtCfg)
		if err != nil {
			return nil, nil, err
		}
		return verifier, auth.NewTokenIssuer(jwtCfg), nil
	}
	return auth.NewKratosVerifier(cfg.KratosPublicURL, cfg.IdentityTimeout), nil, nil
}
