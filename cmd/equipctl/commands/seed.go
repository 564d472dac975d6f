package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"equipmarket/internal/domain"
	"equipmarket/internal/domain/auth"
	"equipmarket/internal/domain/catalog"
	"equipmarket/internal/query"
	"equipmarket/internal/server"
)

type demoUser struct {
	username, password string
	role               domain.Role
}

var demoUsers = []demoUser{
	{"admin", "admin123", domain.RoleAdmin},
	{"seller", "seller123", domain.RoleSeller},
}

var demoCatalog = []catalog.EquipmentRequest{
	{Name: "Router X", Model: "RX-1800", Manufacturer: "TP-Link", Description: "Двухдиапазонный Wi-Fi 6 маршрутизатор", Price: 1500, Quantity: 3},
	{Name: "Коммутатор", Model: "SG-108", Manufacturer: "Zyxel", Description: "8 портов, гигабит", Price: 500, Quantity: 10},
	{Name: "Точка доступа", Model: "U6-Lite", Manufacturer: "Ubiquiti", Description: "Потолочная точка доступа Wi-Fi 6", Price: 3000, Quantity: 4},
	{Name: "Патч-корд", Model: "Cat6 2m", Manufacturer: "Hyperline", Description: "Медный патч-корд, 2 метра", Price: 1, Quantity: 64},
	{Name: "ИБП", Model: "Back-UPS 650", Manufacturer: "APC", Description: "Источник бесперебойного питания", Price: 7800, Quantity: 2},
}

func newSeedCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo accounts and equipment",
		Long: `Create the demo admin and seller accounts and, when the catalog is
empty, a handful of equipment records. Existing accounts are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, done, err := flags.open()
			if err != nil {
				return err
			}
			defer done()
			return seed(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

func seed(ctx context.Context, app *server.App, out io.Writer) error {
	for _, u := range demoUsers {
		_, err := app.Auth.CreateUser(ctx, u.username, u.password, u.role, false)
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			fmt.Fprintf(out, "account %q exists, skipped\n", u.username)
		case err != nil:
			return fmt.Errorf("seed user %s: %w", u.username, err)
		default:
			fmt.Fprintf(out, "account %s / %s (%s)\n", u.username, u.password, u.role)
		}
	}

	existing, err := app.Catalog.List(ctx, query.EquipmentFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Fprintf(out, "catalog has %d items, skipped\n", len(existing))
		return nil
	}

	seller := domain.Session{Username: "seller", Role: domain.RoleSeller}
	for _, req := range demoCatalog {
		e, err := app.Catalog.Create(ctx, seller, req)
		if err != nil {
			return fmt.Errorf("seed equipment %s: %w", req.Name, err)
		}
		fmt.Fprintf(out, "equipment #%d %s x%d\n", e.ID, e.Name, e.Quantity)
	}
	return nil
}
