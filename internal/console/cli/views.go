package cli

import (
	"fmt"
	"io"

	"github.com/aussiebroadwan/stockdesk/internal/console/gate"
	"github.com/aussiebroadwan/stockdesk/internal/console/session"
)

const (
	LoginView   = "login"
	LandingView = "dashboard"
)

// RegisterViews adds the console's views to r. The inventory screens are
// served by their own backends; here they only confirm access.
func RegisterViews(r *gate.Router) {
	for _, v := range []struct {
		name, title string
		req         gate.Requirement
	}{
		{LandingView, "Dashboard", gate.Requirement{}},
		{"products", "Products", gate.Requirement{}},
		{"categories", "Categories", gate.Requirement{}},
		{"customers", "Customers", gate.Requirement{}},
		{"suppliers", "Suppliers", gate.Requirement{}},
		{"inventory", "Inventory", gate.Requirement{}},
		{"orders", "Orders", gate.Requirement{}},
		{"users", "Users", gate.AdminOnly},
	} {
		r.Register(gate.View{
			Name:        v.name,
			Title:       v.title,
			Requirement: v.req,
			Render:      heading(v.title),
		})
	}

	r.Register(gate.View{
		Name:        "register",
		Title:       "Register user",
		Requirement: gate.AdminOnly,
		Render: func(w io.Writer, snap session.Snapshot) error {
			if err := heading("Register user")(w, snap); err != nil {
				return err
			}
			_, err := fmt.Fprintln(w, "Usage: register <username> <email> <ADMIN|USER> [face-image]")
			return err
		},
	})
}

func heading(title string) gate.RenderFunc {
	return func(w io.Writer, snap session.Snapshot) error {
		_, err := fmt.Fprintf(w, "== %s ==\nSigned in as %s (%s)\n", title, snap.Profile.Username, snap.Profile.Role)
		return err
	}
}
