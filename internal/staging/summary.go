package staging

import "fmt"

// Summarize renders one line per effective entry: files, then packages
// (runtime before dev), then commands. The output depends only on the
// store's contents.
func Summarize(s *Store) []DisplayLine {
	lines := []DisplayLine{}

	for _, f := range s.files {
		lines = append(lines, DisplayLine{Phase: PhaseFiles, Text: describeFile(f)})
	}

	for _, kind := range []DepKind{DepRuntime, DepDev} {
		for _, p := range s.packages {
			if p.Kind != kind {
				continue
			}
			lines = append(lines, DisplayLine{Phase: PhasePackages, Text: describePackage(p)})
		}
	}

	for _, c := range s.commands {
		lines = append(lines, DisplayLine{Phase: PhaseCommands, Text: describeCommand(c)})
	}

	return lines
}

// CountByPhase returns the number of summary lines per phase.
func CountByPhase(lines []DisplayLine) map[Phase]int {
	counts := make(map[Phase]int, len(Phases))
	for _, line := range lines {
		counts[line.Phase]++
	}
	return counts
}

func describeFile(f FileChange) string {
	text := fmt.Sprintf("%s %s", f.Op.Kind, f.Path)
	if f.Op.Kind == OpPatch {
		if len(f.Op.Edits) == 1 {
			text += " (1 edit)"
		} else {
			text += fmt.Sprintf(" (%d edits)", len(f.Op.Edits))
		}
	}
	if f.Label != "" {
		text += ": " + f.Label
	}
	return text
}

func describePackage(p PackageInstall) string {
	text := fmt.Sprintf("install %s@%s", p.Name, p.Constraint.String())
	if p.Kind == DepDev {
		text += " (dev)"
	}
	return text
}

func describeCommand(c Command) string {
	return "run " + c.Display()
}
