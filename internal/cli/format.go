package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/danieljhkim/solidcli/internal/engine"
	"github.com/danieljhkim/solidcli/internal/session"
	"github.com/danieljhkim/solidcli/internal/staging"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

// PrintSection prints a section header
func PrintSection(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w)
	_, _ = headerColor.Fprintf(w, "▸ %s\n", title)
	_, _ = fmt.Fprintln(w)
}

// PrintSuccess prints a success message with a checkmark
func PrintSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}

// PrintWarning prints a warning message with a warning symbol
func PrintWarning(w io.Writer, msg string) {
	_, _ = warningColor.Fprintf(w, "⚠ %s\n", msg)
}

// PrintError prints an error message with a cross
func PrintError(w io.Writer, msg string) {
	_, _ = errorColor.Fprintf(w, "✗ %s\n", msg)
}

// PrintList prints a list of items with bullet points
func PrintList(w io.Writer, items []string, indent int) {
	indentStr := strings.Repeat("  ", indent)
	for _, item := range items {
		_, _ = infoColor.Fprintf(w, "%s• %s\n", indentStr, item)
	}
}

// PrintEmptyState prints a message when there's no data to show
func PrintEmptyState(w io.Writer, msg string) {
	_, _ = dimColor.Fprintf(w, "  %s\n", msg)
}

// PrintCount prints a count with proper formatting
func PrintCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

var phaseTitles = map[staging.Phase]string{
	staging.PhaseFiles:    "Files",
	staging.PhasePackages: "Packages",
	staging.PhaseCommands: "Commands",
}

// PrintSummary prints the pending changes grouped by phase
func PrintSummary(w io.Writer, lines []staging.DisplayLine) {
	PrintSection(w, "The following things will be updated")
	for _, phase := range staging.Phases {
		var items []string
		for _, line := range lines {
			if line.Phase == phase {
				items = append(items, line.Text)
			}
		}
		if len(items) == 0 {
			continue
		}
		_, _ = labelColor.Fprintf(w, "  %s\n", phaseTitles[phase])
		PrintList(w, items, 2)
	}
	_, _ = fmt.Fprintln(w)
}

// PrintReport prints the outcome of every phase that ran
func PrintReport(w io.Writer, report *session.Report) {
	for _, result := range report.Phases() {
		if result.Total() == 0 {
			continue
		}
		printPhaseResult(w, result)
	}
}

func printPhaseResult(w io.Writer, result *engine.PhaseResult) {
	title := phaseTitles[result.Phase]
	if result.OK() {
		PrintSuccess(w, fmt.Sprintf("%s: %s", title, PrintCount(len(result.Succeeded), "update applied", "updates applied")))
		return
	}

	PrintError(w, fmt.Sprintf("%s: %d of %d failed", title, len(result.Failed), result.Total()))
	for _, f := range result.Failed {
		_, _ = errorColor.Fprintf(w, "    %s: ", f.Item)
		_, _ = fmt.Fprintln(w, f.Message)
	}
	for _, s := range result.Skipped {
		PrintEmptyState(w, "  skipped "+s)
	}
}
