// Package app wires the admin console: the saved session, the auth service
// client, the face capture flow and the command loop.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/stockdesk/internal/console/cli"
	"github.com/aussiebroadwan/stockdesk/internal/console/facecapture"
	"github.com/aussiebroadwan/stockdesk/internal/console/gate"
	"github.com/aussiebroadwan/stockdesk/internal/console/login"
	"github.com/aussiebroadwan/stockdesk/internal/console/notify"
	"github.com/aussiebroadwan/stockdesk/internal/console/session"
	"github.com/aussiebroadwan/stockdesk/internal/console/state"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/facecloud"
	"github.com/aussiebroadwan/stockdesk/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application is the console with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      *sql.DB
	client  *authsdk.SDKClient
	guard   *session.Guard
	notices *notify.Center
	screen  *login.Screen
	router  *gate.Router
	console *cli.App
}

// New creates the console. It opens the state file but does not contact the
// auth service until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "console",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  os.Stderr,
		}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := state.Open(ctx, cfg.StateFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open console state: %w", err)
	}
	app.db = db

	app.init(os.Stdout)
	return app, nil
}

func (app *Application) init(out io.Writer) {
	app.client = authsdk.NewSDKClient(app.cfg.APIURL)

	app.guard = session.NewGuard(session.Config{
		API:           app.client,
		Headers:       app.client.Headers,
		Store:         state.NewTokenStore(app.db),
		CheckInterval: app.cfg.ExpiryCheck,
		Logger:        app.logger,
	})

	app.notices = notify.NewCenter(app.cfg.NoticeTTL, app.logger)

	var detection cloudLoader
	if app.cfg.FaceCloudURL != "" {
		detection.client = facecloud.New(app.cfg.FaceCloudURL, app.cfg.FaceCloudEmail, app.cfg.FaceCloudPassword)
	}
	newFlow := func() *facecapture.Flow {
		return facecapture.NewFlow(facecapture.Config{
			Loader:         detection,
			OpenCamera:     facecapture.DirCameraOpener(app.cfg.CameraDir),
			Verifier:       app.client,
			Notifier:       app.notices,
			Logger:         app.logger,
			SampleInterval: app.cfg.SampleInterval,
			StartupDelay:   app.cfg.StartupDelay,
			RetryDelay:     app.cfg.RetryDelay,
		})
	}
	app.screen = login.NewScreen(app.guard, newFlow, app.notices, app.logger)

	app.router = gate.NewRouter(app.guard, cli.LoginView, cli.LandingView, app.logger)
	cli.RegisterViews(app.router)

	app.console = cli.NewApp(cli.Config{
		Guard:    app.guard,
		Screen:   app.screen,
		Router:   app.router,
		Notices:  app.notices,
		Accounts: app.client,
		Out:      out,
		Logger:   app.logger,
	})
}

// Run restores the saved session and reads commands from stdin until the
// user exits or a shutdown signal arrives.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.start(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.console.Run(ctx, os.Stdin)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	}

	return app.Shutdown()
}

// start checks the service, resumes the saved session and begins watching
// its expiry.
func (app *Application) start(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if _, err := app.client.GetReadiness(checkCtx); err != nil {
		app.logger.Warn("auth service is not ready", "url", app.cfg.APIURL, "error", err)
	}
	cancel()

	restoreCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	switch err := app.guard.Restore(restoreCtx); {
	case errors.Is(err, session.ErrSessionExpired):
		app.notices.Info("Your previous session has ended. Please log in again.")
	case err != nil:
		app.logger.Error("failed to restore session", "error", err)
	}

	app.guard.Start()
}

// Shutdown stops the expiry loop and closes the state file. The saved
// token stays for the next run.
func (app *Application) Shutdown() error {
	app.guard.Stop()
	app.screen.Leave()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing console state", "error", err)
		return err
	}
	return nil
}
