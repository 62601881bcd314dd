package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aussiebroadwan/stockdesk/internal/console/facecapture"
	"github.com/aussiebroadwan/stockdesk/internal/console/gate"
	"github.com/aussiebroadwan/stockdesk/internal/console/login"
	"github.com/aussiebroadwan/stockdesk/internal/console/notify"
	"github.com/aussiebroadwan/stockdesk/internal/console/session"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
	"github.com/aussiebroadwan/stockdesk/pkg/idx"
)

// Registrar creates accounts. *authsdk.SDKClient satisfies it.
type Registrar interface {
	RegisterUser(ctx context.Context, req authsdk.RegisterUserRequest) (*authsdk.RegisterUserResponse, error)
}

type Config struct {
	Guard    *session.Guard
	Screen   *login.Screen
	Router   *gate.Router
	Notices  *notify.Center
	Accounts Registrar

	// Out receives command output. Defaults to stdout.
	Out    io.Writer
	Logger *slog.Logger
}

type App struct {
	guard    *session.Guard
	screen   *login.Screen
	router   *gate.Router
	notices  *notify.Center
	accounts Registrar
	out      io.Writer
	logger   *slog.Logger

	// lines is the REPL input, used for password prompts when stdin is not
	// a terminal.
	lines *bufio.Scanner

	mu      sync.Mutex
	shown   map[idx.ID]bool
	listed  []notify.Notice
	watched *facecapture.Flow
	unwatch func()
}

func NewApp(cfg Config) *App {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		guard:    cfg.Guard,
		screen:   cfg.Screen,
		router:   cfg.Router,
		notices:  cfg.Notices,
		accounts: cfg.Accounts,
		out:      &lockedWriter{w: out},
		logger:   logger,
		shown:    make(map[idx.ID]bool),
	}
}

// Run reads commands from in until the user exits, then discards any
// capture session.
func (a *App) Run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	a.lines = scanner
	defer a.close()

	printlnFn("stockdesk admin console. Type 'help' for commands.")
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) close() {
	a.mu.Lock()
	unwatch := a.unwatch
	a.unwatch, a.watched = nil, nil
	a.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	a.screen.Leave()
}

// lockedWriter serializes writes from the REPL and from flow callbacks.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) isLoggedIn() bool {
	snap := a.guard.Snapshot()
	return snap.Valid(a.guard.Now()) && snap.Profile != nil
}

func (a *App) status() string {
	snap := a.guard.Snapshot()
	if snap.Profile != nil && snap.Valid(a.guard.Now()) {
		return fmt.Sprintf("%s [%s]", snap.Profile.Username, snap.Profile.Role)
	}
	if flow := a.screen.Flow(); flow != nil {
		return fmt.Sprintf("anonymous [face: %s]", flow.State())
	}
	return "anonymous"
}

func (a *App) pendingNotices() []string {
	active := a.notices.Active()

	a.mu.Lock()
	defer a.mu.Unlock()

	live := make(map[idx.ID]bool, len(active))
	var out []string
	for _, n := range active {
		live[n.ID] = true
		if a.shown[n.ID] {
			continue
		}
		a.shown[n.ID] = true
		out = append(out, fmt.Sprintf("[%s] %s", n.Kind, n.Text))
	}
	for id := range a.shown {
		if !live[id] {
			delete(a.shown, id)
		}
	}
	return out
}

func (a *App) promptPassword() (string, error) {
	if isTerminal(int(os.Stdin.Fd())) {
		pw, err := GetPassword(a.out, "Password: ")
		if err != nil {
			return "", err
		}
		defer wipe(pw)
		return string(pw), nil
	}

	fmt.Fprint(a.out, "Password: ")
	if a.lines == nil || !a.lines.Scan() {
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(a.lines.Text()), nil
}

func (a *App) Login(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		a.printf("Usage: login <email> [admin|user]")
		return errUsage
	}
	email := args[0]

	accountType := session.RoleUser
	if len(args) == 2 {
		role, err := session.ParseRole(args[1])
		if err != nil {
			a.printf("Account type must be admin or user.")
			return err
		}
		accountType = role
	}

	if accountType == session.RoleUser && !a.screen.CanSubmit(email, accountType) {
		// Refused before any request is made; no need to ask for a password.
		_, err := a.screen.Submit(ctx, email, "", accountType)
		return err
	}

	password, err := a.promptPassword()
	if err != nil {
		a.printf("Could not read password: %v", err)
		return err
	}

	ok, err := a.screen.Submit(ctx, email, password, accountType)
	if err != nil || !ok {
		return err
	}

	a.stopWatching()
	return a.Open(ctx, []string{LandingView})
}

func (a *App) Logout(ctx context.Context) error {
	if !a.guard.Snapshot().HasCredential() {
		a.printf("Not logged in.")
		return nil
	}
	a.guard.Logout(ctx)
	a.printf("Logged out.")
	return nil
}

func (a *App) WhoAmI(context.Context) error {
	snap := a.guard.Snapshot()
	if snap.Profile == nil || !snap.Valid(a.guard.Now()) {
		a.printf("Not logged in.")
		return nil
	}
	p := snap.Profile
	a.printf("%s <%s> role=%s id=%s", p.Username, p.Email, p.Role, p.ID)
	a.printf("Session expires %s", snap.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func (a *App) Open(_ context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: open <view>")
		return errUsage
	}

	res, err := a.router.Open(a.out, args[0])
	if err != nil {
		if errors.Is(err, gate.ErrUnknownView) {
			a.printf("Unknown view %q. Type 'views' to list them.", args[0])
		} else {
			a.printf("Could not show %s: %v", args[0], err)
		}
		return err
	}
	if res.Decision.Action == gate.RedirectLanding {
		a.printf("(%s is restricted; showing %s)", res.Requested, res.View)
	}
	return nil
}

func (a *App) Views(context.Context) error {
	for _, v := range a.router.Views() {
		suffix := ""
		if v.Requirement.Role != "" {
			suffix = fmt.Sprintf(" (%s only)", v.Requirement.Role)
		}
		a.printf("  %-12s %s%s", v.Name, v.Title, suffix)
	}
	return nil
}

func (a *App) Notices(context.Context) error {
	active := a.notices.Active()

	a.mu.Lock()
	a.listed = active
	for _, n := range active {
		a.shown[n.ID] = true
	}
	a.mu.Unlock()

	if len(active) == 0 {
		a.printf("No notices.")
		return nil
	}
	for i, n := range active {
		a.printf("%d. [%s] %s", i+1, n.Kind, n.Text)
	}
	return nil
}

func (a *App) Dismiss(_ context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: dismiss <n|all>")
		return errUsage
	}
	if args[0] == "all" {
		a.notices.DismissAll()
		return nil
	}

	i, err := strconv.Atoi(args[0])

	a.mu.Lock()
	listed := a.listed
	a.mu.Unlock()

	if err != nil || i < 1 || i > len(listed) {
		a.printf("No notice %s. Type 'notices' to list them.", args[0])
		return errUsage
	}
	a.notices.Dismiss(listed[i-1].ID)
	return nil
}

var errUsage = errors.New("usage")
