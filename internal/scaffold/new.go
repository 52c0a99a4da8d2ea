package scaffold

import (
	"context"
	"fmt"
	"path"
	"regexp"

	"github.com/danieljhkim/solidcli/internal/project"
	"github.com/danieljhkim/solidcli/internal/prompt"
)

// Template is a starter project for `solid new`.
type Template struct {
	Name  string
	Label string
	Hint  string

	tailwind bool
	vitest   bool
}

// Templates lists every starter in menu order.
var Templates = []Template{
	{Name: "bare", Label: "Bare", Hint: "SolidStart with nothing else"},
	{Name: "with-tailwind", Label: "With Tailwind", Hint: "SolidStart and Tailwind CSS", tailwind: true},
	{Name: "with-vitest", Label: "With Vitest", Hint: "SolidStart and Vitest", vitest: true},
}

var projectNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

func templateOptions() []prompt.Option {
	opts := make([]prompt.Option, len(Templates))
	for i, t := range Templates {
		opts[i] = prompt.Option{Label: t.Label, Value: t.Name, Hint: t.Hint}
	}
	return opts
}

func validateProjectName(name string) error {
	if !projectNameRegex.MatchString(name) {
		return fmt.Errorf("invalid project name %q (use lowercase letters, digits, '.', '_' and '-')", name)
	}
	return nil
}

// projectFiles maps generated paths to the templates they render from.
var projectFiles = []struct {
	dest string
	tmpl string
}{
	{"package.json", "new/package.json"},
	{"app.config.ts", "new/app.config.ts"},
	{"tsconfig.json", "new/tsconfig.json"},
	{".gitignore", "new/gitignore"},
	{"src/app.tsx", "new/app.tsx"},
	{"src/app.css", "new/app.css"},
	{"src/entry-client.tsx", "new/entry-client.tsx"},
	{"src/entry-server.tsx", "new/entry-server.tsx"},
	{"src/routes/index.tsx", "new/index.tsx"},
}

type newProjectData struct {
	Name     string
	Tailwind bool
	Vitest   bool
}

// New stages a new project from a template in the directory name, then
// stages a dependency install inside it. Missing arguments are asked for.
func New(ctx context.Context, e *Env, st Stager, templateName, name string) error {
	templateName, err := choose(ctx, e, templateName, "Which template would you like to use?", templateOptions())
	if err != nil {
		return err
	}
	var tmpl Template
	for _, t := range Templates {
		if t.Name == templateName {
			tmpl = t
		}
	}

	if name == "" {
		name, err = e.Prompter.Input(ctx, "Project name", "my-app", validateProjectName)
		if err != nil {
			return err
		}
	}
	if err := validateProjectName(name); err != nil {
		return err
	}

	empty, err := project.NewLocator(e.FS).IsEmptyDir(name)
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("directory %s: %w and is not empty", name, ErrExists)
	}

	data := newProjectData{Name: name, Tailwind: tmpl.tailwind, Vitest: tmpl.vitest}
	for _, f := range projectFiles {
		if err := stageTemplate(st, path.Join(name, f.dest), f.tmpl, data, ""); err != nil {
			return err
		}
	}
	if tmpl.tailwind {
		if err := stageTemplate(st, path.Join(name, "tailwind.config.js"), "add/tailwind.config.js", nil, ""); err != nil {
			return err
		}
		if err := stageTemplate(st, path.Join(name, "postcss.config.js"), "add/postcss.config.js", nil, ""); err != nil {
			return err
		}
	}
	if tmpl.vitest {
		if err := stageTemplate(st, path.Join(name, "vitest.config.ts"), "add/vitest.config.ts", nil, ""); err != nil {
			return err
		}
	}

	return st.StageCommand(e.PM.InstallAllArgs(), name)
}
