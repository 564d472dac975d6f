package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newWipeCmd(flags *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all equipment and all history",
		Long: `Delete every equipment record and then every history entry.

If history cannot be cleared after the catalog was, the command exits with
status 2 and the history has to be cleared by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to wipe without --yes")
			}
			app, done, err := flags.open()
			if err != nil {
				return err
			}
			defer done()

			res, err := app.Admin.Wipe(cmd.Context(), operator)
			fmt.Fprintf(cmd.OutOrStdout(), "equipment deleted: %d, history deleted: %d\n", res.Equipment, res.History)
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the wipe")
	return cmd
}
