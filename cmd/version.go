package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCmd prints the build version. The same value is sent as
// software_version when the shell registers a client.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dcrclient build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dcrclient version %s\n", GetVersion())
		},
	}
}
