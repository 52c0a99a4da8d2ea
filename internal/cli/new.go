package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/solidcli/internal/scaffold"
)

var newCmd = &cobra.Command{
	Use:   "new [template] [name]",
	Short: "Create a new SolidStart project",
	Long: `Create a new SolidStart project in a new directory and install its
dependencies. Missing arguments are asked for.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var template, name string
		if len(args) > 0 {
			template = args[0]
		}
		if len(args) > 1 {
			name = args[1]
		}
		return runStaged(cmd, false, func(ctx context.Context, env *scaffold.Env, st scaffold.Stager) error {
			return scaffold.New(ctx, env, st, template, name)
		})
	},
}
