package cmd

import (
	"fmt"

	"dcrclient/internal/app"
	"dcrclient/internal/storage"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the persisted client registration",
		Long: `Delete the persisted client registration so the next shell starts
as a fresh install and registers a new client.

This is a developer action. The registration is removed locally only;
the provider still knows the old client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to delete the registration without --force")
			}

			settings, err := app.LoadSettings(newAppConfig())
			if err != nil {
				return err
			}

			kv, err := storage.New(cmd.Context(), settings.Storage)
			if err != nil {
				return err
			}
			defer kv.Close()

			if err := app.ResetRegistration(cmd.Context(), kv); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Client registration deleted")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm deletion")
	return cmd
}
