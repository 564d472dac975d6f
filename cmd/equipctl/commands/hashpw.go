package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"equipmarket/internal/domain/auth"
)

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <plain>",
		Short: "Print the SHA-256 hex form of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), auth.HashPassword(args[0]))
			return nil
		},
	}
}
