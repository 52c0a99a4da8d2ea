package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/solidcli/internal/clock"
	"github.com/danieljhkim/solidcli/internal/config"
	"github.com/danieljhkim/solidcli/internal/engine"
	"github.com/danieljhkim/solidcli/internal/fsops"
	"github.com/danieljhkim/solidcli/internal/hash"
	"github.com/danieljhkim/solidcli/internal/logging"
	"github.com/danieljhkim/solidcli/internal/pkgmanager"
	"github.com/danieljhkim/solidcli/internal/project"
	"github.com/danieljhkim/solidcli/internal/prompt"
	"github.com/danieljhkim/solidcli/internal/scaffold"
	"github.com/danieljhkim/solidcli/internal/session"
	"github.com/danieljhkim/solidcli/internal/shell"
	"github.com/danieljhkim/solidcli/internal/staging"
)

// Seams replaced in tests.
var (
	newPrompter = func() prompt.Prompter {
		return prompt.NewHuhPrompter(!isInteractive())
	}
	newRunner = func(stdout, stderr io.Writer) shell.Runner {
		return shell.NewInterpRunner(stdout, stderr)
	}
	spin = prompt.Spin
)

// isInteractive reports whether stdin and stdout are terminals.
func isInteractive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// handlerFunc stages the changes of one subcommand.
type handlerFunc func(ctx context.Context, env *scaffold.Env, st scaffold.Stager) error

// app is everything one run needs, built from flags, config and the project.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	prompter prompt.Prompter
	env      *scaffold.Env
	session  *session.Session

	// output of package-manager and setup commands
	cmdOutput *bytes.Buffer
}

// newApp wires the run for the working directory. When requireProject is
// set the working directory must be inside a project with a package.json;
// otherwise the working directory itself is the root.
func newApp(cmd *cobra.Command, requireProject bool) (*app, error) {
	cwd := cwdFlag
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		cwd = wd
	}

	locator := project.NewOSLocator()
	root := cwd
	var manifest *project.Manifest
	if requireProject {
		proj, err := locator.Discover(cwd)
		if err != nil {
			return nil, err
		}
		root, manifest = proj.Root, proj.Manifest
	}

	cfg, err := config.Load(config.NewViper(), config.LoadOptions{ConfigFile: configFile, ProjectRoot: root})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if assumeYes {
		cfg.AssumeYes = true
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	fs := fsops.NewProjectFS(root)
	caseInsensitive, err := resolveCaseInsensitive(fs, root, cfg.CaseInsensitive, logger)
	if err != nil {
		return nil, err
	}

	manifestPM := ""
	if manifest != nil {
		manifestPM = manifest.PackageManager
	}
	pm, err := pkgmanager.Detect(fs.Afero(), ".", cfg.PackageManager, manifestPM)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved project", "root", root, "package_manager", pm.Name(), "case_insensitive", caseInsensitive)

	cmdOutput := &bytes.Buffer{}
	eng := engine.New(
		fs,
		newRunner(cmdOutput, cmdOutput),
		pm,
		hash.NewSHA256Hasher(fs.Afero()),
		&clock.RealClock{},
		logger,
		engine.Config{Root: root, Concurrency: cfg.Files.Concurrency},
	)

	store := staging.NewStore(staging.Options{Root: root, CaseInsensitive: caseInsensitive})
	prompter := newPrompter()
	sess := session.New(store, eng,
		session.WithLogger(logger),
		session.WithPhaseRunner(phaseRunner(cmd.ErrOrStderr(), isInteractive() && !jsonOutput)),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		prompter:  prompter,
		env:       &scaffold.Env{FS: fs.Afero(), Manifest: manifest, PM: pm, Prompter: prompter},
		session:   sess,
		cmdOutput: cmdOutput,
	}, nil
}

// resolveCaseInsensitive applies the case_insensitive setting. In auto mode
// it checks the project directory, or its parent when the project directory
// has nothing to compare.
func resolveCaseInsensitive(fs *fsops.AferoFS, root, mode string, logger *log.Logger) (bool, error) {
	switch mode {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	ci, err := fsops.DetectCaseInsensitive(fs.Afero(), ".")
	if errors.Is(err, fsops.ErrNoCasedEntry) {
		ci, err = fsops.DetectCaseInsensitive(afero.NewOsFs(), filepath.Dir(root))
	}
	if err != nil {
		logger.Warn("could not determine filesystem case sensitivity, assuming case-sensitive", "err", err)
		return false, nil
	}
	return ci, nil
}

// phaseRunner reports each phase and, when spinner is set, shows a spinner
// while it runs. The phase runs exactly once in its own goroutine; the
// spinner only waits for it, and phaseRunner returns only after the phase
// finished, even if the spinner stopped early.
func phaseRunner(w io.Writer, spinner bool) session.PhaseRunner {
	titles := map[staging.Phase][2]string{
		staging.PhaseFiles:    {"Writing files...", "Updates written"},
		staging.PhasePackages: {"Installing packages...", "Packages installed"},
		staging.PhaseCommands: {"Running setup commands...", "Setup commands ran"},
	}

	return func(phase staging.Phase, run func() (*engine.PhaseResult, error)) (*engine.PhaseResult, error) {
		var (
			result *engine.PhaseResult
			err    error
		)
		done := make(chan struct{})
		go func() {
			defer close(done)
			result, err = run()
		}()

		if spinner {
			_ = spin(titles[phase][0], func() { <-done })
		}
		<-done

		if err == nil && result != nil && result.OK() && result.Total() > 0 && !jsonOutput {
			PrintSuccess(w, titles[phase][1])
		}
		return result, err
	}
}

// runStaged builds the app, runs handler, then shows the summary, asks for
// confirmation and flushes.
func runStaged(cmd *cobra.Command, requireProject bool, handler handlerFunc) error {
	a, err := newApp(cmd, requireProject)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := handler(ctx, a.env, a.session); err != nil {
		_ = a.session.Abort()
		if errors.Is(err, prompt.ErrCancelled) {
			PrintWarning(cmd.ErrOrStderr(), "Cancelled, no changes were made")
			return nil
		}
		return err
	}
	return a.finish(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// summaryOutput is the --json form of a run.
type summaryOutput struct {
	Summary []staging.DisplayLine `json:"summary"`
	DryRun  bool                  `json:"dry_run"`
	Aborted bool                  `json:"aborted"`
	Report  *session.Report       `json:"report,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func (a *app) finish(ctx context.Context, stdout, stderr io.Writer) error {
	summary := a.session.Summary()

	if a.session.IsEmpty() {
		if _, err := a.session.Finish(ctx, session.AlwaysConfirm); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(stdout, summaryOutput{Summary: summary})
		}
		PrintEmptyState(stderr, "Nothing to update.")
		return nil
	}

	if dryRun {
		if err := a.session.Abort(); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(stdout, summaryOutput{Summary: summary, DryRun: true})
		}
		PrintSummary(stdout, summary)
		PrintEmptyState(stdout, "Dry run, no changes were made.")
		return nil
	}

	confirmer := session.ConfirmFunc(func(ctx context.Context, lines []staging.DisplayLine) (bool, error) {
		if !jsonOutput {
			PrintSummary(stdout, lines)
		}
		if a.cfg.AssumeYes {
			return true, nil
		}
		return a.prompter.Confirm(ctx, "Do you wish to continue?")
	})

	report, err := a.session.Finish(ctx, confirmer)
	if errors.Is(err, session.ErrAborted) {
		if jsonOutput {
			return outputJSON(stdout, summaryOutput{Summary: summary, Aborted: true})
		}
		PrintWarning(stderr, "Aborted, no changes were made")
		return nil
	}
	if err != nil {
		return err
	}

	runErr := report.Err()
	if runErr != nil && a.cmdOutput.Len() > 0 && !jsonOutput {
		_, _ = dimColor.Fprint(stderr, a.cmdOutput.String())
	}

	if jsonOutput {
		out := summaryOutput{Summary: summary, Report: report}
		if runErr != nil {
			out.Error = runErr.Error()
		}
		if err := outputJSON(stdout, out); err != nil {
			return err
		}
	} else {
		PrintReport(stderr, report)
	}
	return runErr
}

// FormatError formats an error for display.
func FormatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON writes a value as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
