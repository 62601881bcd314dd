package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	pendingNotices() []string

	Login(ctx context.Context, args []string) error
	Face(ctx context.Context) error
	Capture(ctx context.Context) error
	Verify(ctx context.Context, args []string) error
	Retry(ctx context.Context) error
	Cancel(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Open(ctx context.Context, args []string) error
	Views(ctx context.Context) error
	Register(ctx context.Context, args []string) error
	Notices(ctx context.Context) error
	Dismiss(ctx context.Context, args []string) error
}

// runREPL reads commands from scanner until EOF, "exit" or "quit".
//
// The prompt shows statusFn. Notices posted by a command are printed before
// the next prompt. Handler errors are not reported here; handlers print
// what the user needs to see and log the rest.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		for _, n := range a.pendingNotices() {
			printlnFn(n)
		}
		printlnFn(fmt.Sprintf("stockdesk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "?":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, views, open <view>, register <username> <email> <ADMIN|USER> [face-image], notices, dismiss <n>, logout, exit")
			} else {
				printlnFn("Available commands: face, capture, verify <email>, retry, cancel, login <email> [admin|user], notices, dismiss <n>, exit")
			}

		case "login":
			_ = a.Login(ctx, args)

		case "face":
			_ = a.Face(ctx)

		case "capture":
			_ = a.Capture(ctx)

		case "verify":
			_ = a.Verify(ctx, args)

		case "retry":
			_ = a.Retry(ctx)

		case "cancel", "back":
			_ = a.Cancel(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "open":
			_ = a.Open(ctx, args)

		case "views":
			_ = a.Views(ctx)

		case "register":
			_ = a.Register(ctx, args)

		case "notices":
			_ = a.Notices(ctx)

		case "dismiss":
			_ = a.Dismiss(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
