package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/stockdesk/internal/auth/http"
	"github.com/aussiebroadwan/stockdesk/internal/auth/facematch"
	"github.com/aussiebroadwan/stockdesk/internal/auth/service"
	"github.com/aussiebroadwan/stockdesk/internal/auth/store"
	"github.com/aussiebroadwan/stockdesk/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/stockdesk/pkg/cryptox"
	"github.com/aussiebroadwan/stockdesk/pkg/jwtx"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	hasher   *cryptox.PasswordHasher
	signer   *jwtx.EdDSASigner
	keys     *jwtx.KeySet
	verifier *jwtx.EdDSAVerifier

	// Services
	authService         *service.AuthService
	userService         *service.UserService
	faceService         *service.FaceService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewPasswordHasher(pepper)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.signer, app.keys, app.verifier, err = InitAuthKeys(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}

	app.initServices()

	if err := app.bootstrap(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			app.housekeepingService.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:     app.db,
		Hasher:    app.hasher,
		Signer:    app.signer,
		Issuer:    app.cfg.Issuer,
		AccessTTL: app.cfg.TokenTTL,
	}
	app.userService = &service.UserService{Store: app.db, Hasher: app.hasher}
	app.faceService = &service.FaceService{
		Store:   app.db,
		Matcher: facematch.Matcher{Threshold: app.cfg.FaceThreshold},
	}
	app.bootstrapService = &service.BootstrapService{Store: app.db, Hasher: app.hasher}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.FaceAttemptRetention,
	)
}

// bootstrap creates the first administrator. A generated password is logged
// once, since there is no other way to learn it.
func (app *Application) bootstrap() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = slogx.WithContext(ctx, app.logger)

	created, password, err := app.bootstrapService.EnsureAdmin(ctx, app.cfg.Bootstrap)
	if err != nil {
		return fmt.Errorf("failed to bootstrap administrator: %w", err)
	}
	if created && app.cfg.Bootstrap.Password == "" {
		app.logger.Warn("generated bootstrap administrator password; change it after first login",
			"email", app.cfg.Bootstrap.Email,
			"password", password,
		)
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		app.verifier,
		BuildVersion,
		app.db,
		app.cfg.RateLimits,
		app.logger,
	)

	router.AuthService = app.authService
	router.UserService = app.userService
	router.FaceService = app.faceService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
