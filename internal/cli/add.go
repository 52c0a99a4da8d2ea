package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/solidcli/internal/scaffold"
)

var addCmd = &cobra.Command{
	Use:   "add [integration...]",
	Short: "Add integrations to the current project",
	Long: fmt.Sprintf(`Add one or more integrations to the current project.

Available integrations: %s

Without arguments solid asks which integrations to add.`, integrationNames()),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, in := range scaffold.Integrations {
			names = append(names, in.Name)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStaged(cmd, true, func(ctx context.Context, env *scaffold.Env, st scaffold.Stager) error {
			return scaffold.Add(ctx, env, st, args)
		})
	},
}

func integrationNames() string {
	names := make([]string, len(scaffold.Integrations))
	for i, in := range scaffold.Integrations {
		names[i] = in.Name
	}
	return strings.Join(names, ", ")
}
