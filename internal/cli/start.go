package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/solidcli/internal/scaffold"
)

// startHandler stages one `solid start` action from its optional argument.
type startHandler func(ctx context.Context, e *scaffold.Env, st scaffold.Stager, arg string) error

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "SolidStart utilities",
	Long: `Configure a SolidStart project and generate routes, data files and
API routes. Without a subcommand solid asks what to do.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu(cmd, "What would you like to do?", scaffold.StartActions)
	},
}

func newStartCmd(use, short string, handler startHandler) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			return runStaged(cmd, true, func(ctx context.Context, env *scaffold.Env, st scaffold.Stager) error {
				return handler(ctx, env, st, arg)
			})
		},
	}
}

func init() {
	startCmd.AddCommand(newStartCmd("mode [csr|ssr|ssg]", "Switch the rendering mode", scaffold.Mode))
	startCmd.AddCommand(newStartCmd("route [path]", "Create a new route", scaffold.Route))
	startCmd.AddCommand(newStartCmd("data [name]", "Create a new data file", scaffold.Data))
	startCmd.AddCommand(newStartCmd("adapter [preset]", "Configure a deployment adapter", scaffold.Adapter))
	startCmd.AddCommand(newStartCmd("api [path]", "Create a new API route", scaffold.API))
}
