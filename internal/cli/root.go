package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/solidcli/internal/prompt"
)

var (
	// Global flags
	jsonOutput bool
	assumeYes  bool
	dryRun     bool
	cwdFlag    string
	configFile string
	logLevel   string

	// Colors for help output sections
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// rootCmd is the root command for solid.
var rootCmd = &cobra.Command{
	Use:     "solid",
	Version: "dev",
	Short:   "Scaffold and update SolidStart projects",
	Long: `solid creates SolidStart projects and adds integrations, routes and
configuration to existing ones.

Every change is staged first. solid shows what will be updated and asks
before writing files, installing packages or running setup commands.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu(cmd, "What would you like to do?", []prompt.Option{
			{Label: "Add", Value: "add", Hint: "add an integration to this project"},
			{Label: "New", Value: "new", Hint: "create a new project"},
			{Label: "Start", Value: "start", Hint: "SolidStart utilities"},
		})
	},
}

// runMenu asks which subcommand of cmd to run and runs it with no arguments.
func runMenu(cmd *cobra.Command, title string, options []prompt.Option) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	choice, err := newPrompter().Select(ctx, title, options)
	if err != nil {
		if errors.Is(err, prompt.ErrCancelled) {
			PrintWarning(cmd.ErrOrStderr(), "Cancelled")
			return nil
		}
		return err
	}
	var sub *cobra.Command
	for _, c := range cmd.Commands() {
		if c.Name() == choice {
			sub = c
		}
	}
	if sub == nil || sub.RunE == nil {
		return fmt.Errorf("unknown command %q", choice)
	}
	sub.SetContext(ctx)
	return sub.RunE(sub, nil)
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// customHelpFunc returns a custom help function that colors group titles
func customHelpFunc(cmd *cobra.Command, args []string) {
	// Build complete help output
	var help strings.Builder

	// Add long description if present
	if cmd.Long != "" {
		help.WriteString(cmd.Long)
		help.WriteString("\n\n")
	}

	// Add usage
	help.WriteString(sectionTitleColor.Sprint("Usage:"))
	help.WriteString("\n")
	fmt.Fprintf(&help, "  %s\n\n", cmd.UseLine())

	// Add grouped commands
	for _, group := range cmd.Groups() {
		// Color the group title
		help.WriteString(groupTitleColor.Sprint(group.Title))
		help.WriteString("\n")

		for _, c := range cmd.Commands() {
			if c.GroupID == group.ID && !c.Hidden {
				fmt.Fprintf(&help, "  %-11s %s\n", c.Name(), c.Short)
			}
		}
		help.WriteString("\n")
	}

	// Add ungrouped commands (Additional Commands section)
	hasUngrouped := false
	for _, c := range cmd.Commands() {
		if c.GroupID == "" && !c.Hidden {
			if !hasUngrouped {
				help.WriteString(sectionTitleColor.Sprint("Additional Commands:"))
				help.WriteString("\n")
				hasUngrouped = true
			}
			fmt.Fprintf(&help, "  %-11s %s\n", c.Name(), c.Short)
		}
	}
	if hasUngrouped {
		help.WriteString("\n")
	}

	// Add flags
	if cmd.HasAvailableLocalFlags() || cmd.HasAvailablePersistentFlags() {
		help.WriteString(sectionTitleColor.Sprint("Flags:"))
		help.WriteString("\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString(cmd.InheritedFlags().FlagUsages())
		help.WriteString("\n")
	}

	// Add usage footer
	fmt.Fprintf(&help, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())

	fmt.Fprint(cmd.OutOrStdout(), help.String())
}

func init() {
	// Set custom help function to color group titles
	rootCmd.SetHelpFunc(customHelpFunc)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "Apply changes without asking for confirmation")
	flags.BoolVar(&dryRun, "dry-run", false, "Show what would be updated without changing anything")
	flags.StringVar(&cwdFlag, "cwd", "", "Run as if solid was started in this directory")
	flags.StringVar(&configFile, "config", "", "Path to a config file (default: $XDG_CONFIG_HOME/solid/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "scaffolding",
		Title: "Scaffolding:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "solid-start",
		Title: "SolidStart:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cli-tooling",
		Title: "CLI & Tooling:",
	})

	// CLI & Tooling commands
	versionCmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the solid CLI version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	// Add help command to CLI & Tooling group
	helpCmd := &cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			target, _, err := cmd.Root().Find(args)
			if err != nil || target == nil {
				target = cmd.Root()
			}
			_ = target.Help()
		},
	}
	rootCmd.SetHelpCommand(helpCmd)

	// Add completion command to CLI & Tooling group
	completionCmd := &cobra.Command{
		Use:     "completion",
		Short:   "Generate the autocompletion script for the specified shell",
		GroupID: "cli-tooling",
		Long: `Generate the autocompletion script for solid for the specified shell.
See each sub-command's help for details on how to use the generated script.`,
	}
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "bash",
		Short:                 "Generate the autocompletion script for bash",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "zsh",
		Short:                 "Generate the autocompletion script for zsh",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "fish",
		Short:                 "Generate the autocompletion script for fish",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "powershell",
		Short:                 "Generate the autocompletion script for powershell",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		},
	})
	rootCmd.AddCommand(completionCmd)

	// Scaffolding commands
	addCmd.GroupID = "scaffolding"
	newCmd.GroupID = "scaffolding"
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(newCmd)

	// SolidStart commands
	startCmd.GroupID = "solid-start"
	rootCmd.AddCommand(startCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext executes the root command with ctx, which is passed to
// every subcommand.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
