package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/stockdesk/internal/console/facecapture"
)

func (a *App) Face(ctx context.Context) error {
	if a.isLoggedIn() {
		a.printf("Already logged in.")
		return nil
	}

	err := a.screen.StartFace(ctx)
	a.watch(a.screen.Flow())
	if err != nil {
		// The flow posted a notice for the user.
		a.logger.Warn("face capture did not start", "error", err)
		return err
	}
	a.printf("Starting camera...")
	return nil
}

// watch prints the transitions of flow that need the user's attention.
func (a *App) watch(flow *facecapture.Flow) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if flow == nil || flow == a.watched {
		return
	}
	if a.unwatch != nil {
		a.unwatch()
	}
	a.watched = flow
	a.unwatch = flow.Subscribe(a.onFlow)
}

func (a *App) stopWatching() {
	a.mu.Lock()
	unwatch := a.unwatch
	a.unwatch, a.watched = nil, nil
	a.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
}

func (a *App) onFlow(s facecapture.Session) {
	switch s.State {
	case facecapture.StateArmedScanning:
		a.printf("Scanning for a face...")
	case facecapture.StateFaceDetected:
		a.printf("Face detected %s. Type 'capture' to take the picture.", describeFaces(s.Faces))
	case facecapture.StateCaptured:
		a.printf("Picture taken. Type 'verify <email>' or 'retry'.")
	case facecapture.StateVerified:
		a.printf("Face verified. Type 'login <email>' to continue.")
	}
}

func describeFaces(faces []facecapture.Box) string {
	parts := make([]string, 0, len(faces))
	for _, f := range faces {
		parts = append(parts, fmt.Sprintf("at %d,%d %dx%d", f.X, f.Y, f.Width, f.Height))
	}
	return "(" + strings.Join(parts, "; ") + ")"
}

func (a *App) Capture(context.Context) error {
	flow := a.screen.Flow()
	if flow == nil {
		a.printf("Start face capture first with 'face'.")
		return facecapture.ErrNotCaptured
	}
	if !flow.Capture() {
		a.printf("No face detected yet. Nothing was captured.")
		return facecapture.ErrNotCaptured
	}
	return nil
}

func (a *App) Verify(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: verify <email>")
		return errUsage
	}

	err := a.screen.VerifyFace(ctx, args[0])
	switch {
	case err == nil:
	case errors.Is(err, facecapture.ErrNotCaptured):
		a.printf("Capture a picture first with 'capture'.")
	case errors.Is(err, facecapture.ErrCancelled):
		a.printf("Face capture was cancelled.")
	}
	return err
}

func (a *App) Retry(context.Context) error {
	flow := a.screen.Flow()
	if flow == nil || !flow.Retry() {
		a.printf("Nothing to retry.")
		return nil
	}
	return nil
}

func (a *App) Cancel(context.Context) error {
	flow := a.screen.Flow()
	if flow == nil || flow.State() == facecapture.StateIdle {
		a.printf("Face capture is not running.")
		return nil
	}
	flow.Cancel()
	a.printf("Face capture cancelled.")
	return nil
}
