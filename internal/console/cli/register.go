package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/aussiebroadwan/stockdesk/internal/console/gate"
	"github.com/aussiebroadwan/stockdesk/pkg/authsdk"
)

// Register creates an account. It goes through the gate like any view so
// only administrators reach the request.
func (a *App) Register(ctx context.Context, args []string) error {
	res, err := a.router.Navigate("register")
	if err != nil {
		return err
	}
	if res.Decision.Action != gate.Render {
		a.printf("Only administrators can register users.")
		return nil
	}

	if len(args) < 3 || len(args) > 4 {
		a.printf("Usage: register <username> <email> <ADMIN|USER> [face-image]")
		return errUsage
	}

	req := authsdk.RegisterUserRequest{
		Username: args[0],
		Email:    args[1],
		Role:     strings.ToUpper(args[2]),
		Status:   authsdk.StatusActive,
	}
	if len(args) == 4 {
		data, err := os.ReadFile(args[3])
		if err != nil {
			a.printf("Could not read face image: %v", err)
			return err
		}
		req.FaceImage = authsdk.EncodeDataURL(http.DetectContentType(data), data)
	}

	password, err := a.promptPassword()
	if err != nil {
		a.printf("Could not read password: %v", err)
		return err
	}
	req.Password = password

	if problems := req.Validate(); len(problems) > 0 {
		a.printProblems(problems)
		return authsdk.ErrValidation
	}

	out, err := a.accounts.RegisterUser(ctx, req)
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) {
			a.printf("Registration failed: %s", apiErr.Description)
			a.printProblems(apiErr.Details)
		} else {
			a.printf("Registration failed: %v", err)
		}
		return err
	}

	a.printf("Registered %s (%s) with id %s.", req.Username, req.Role, out.ID)
	return nil
}

func (a *App) printProblems(problems map[string]string) {
	fields := make([]string, 0, len(problems))
	for f := range problems {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		a.printf("  %s: %s", f, problems[f])
	}
}

