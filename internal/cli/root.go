// Package cli holds the linkitylink command tree. Running the binary with no
// subcommand starts the server.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/planet-nine-app/linkitylink/internal/version"
)

// NewRootCommand creates the root command. serve is the default action.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "linkitylink",
		Short:         "Linkitylink - link pages rendered as SVG",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewRenderCommand())
	cmd.AddCommand(NewKeygenCommand())

	return cmd
}
