package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"equipmarket/internal/domain"
)

func newUserCmd(flags *globalFlags) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage seller and admin accounts",
	}

	var (
		username  string
		password  string
		role      string
		useBcrypt bool
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Create a seller or admin account.

Examples:
  equipctl user create --username anna --password secret --role seller
  equipctl user create --username root --password secret --role admin --bcrypt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := domain.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			app, done, err := flags.open()
			if err != nil {
				return err
			}
			defer done()

			u, err := app.Auth.CreateUser(cmd.Context(), username, password, r, useBcrypt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q (id %d)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&username, "username", "", "Login name")
	createCmd.Flags().StringVar(&password, "password", "", "Plain password")
	createCmd.Flags().StringVar(&role, "role", "seller", "seller or admin")
	createCmd.Flags().BoolVar(&useBcrypt, "bcrypt", false, "Store a bcrypt hash instead of SHA-256")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("password")

	userCmd.AddCommand(createCmd)
	return userCmd
}
