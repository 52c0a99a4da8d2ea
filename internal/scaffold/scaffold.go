// Package scaffold implements the solid subcommands. Handlers inspect the
// project, ask for missing input, and stage the resulting file changes,
// package installs and commands. They never modify the project themselves.
package scaffold

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"text/template"

	"github.com/spf13/afero"

	"github.com/danieljhkim/solidcli/internal/pkgmanager"
	"github.com/danieljhkim/solidcli/internal/project"
	"github.com/danieljhkim/solidcli/internal/prompt"
	"github.com/danieljhkim/solidcli/internal/staging"
)

//go:embed templates
var templateFS embed.FS

var (
	// ErrUnknownChoice indicates an argument that is not one of the offered choices.
	ErrUnknownChoice = errors.New("unknown choice")

	// ErrNotSolidStart indicates a start subcommand outside a SolidStart project.
	ErrNotSolidStart = errors.New("not a SolidStart project (no @solidjs/start dependency)")

	// ErrExists indicates the target of a generator already exists.
	ErrExists = errors.New("already exists")
)

// Stager receives staged changes. *session.Session implements it.
type Stager interface {
	StageFile(path string, op staging.FileOperation, label string) error
	StagePackage(name string, kind staging.DepKind, constraint string) error
	StageCommand(args []string, dir string) error
}

// Env is what a handler may read.
type Env struct {
	// FS is rooted at the project (or working) directory; paths are relative
	FS afero.Fs

	// Manifest is the project's package.json, nil outside a project
	Manifest *project.Manifest

	// PM is the project's package manager
	PM pkgmanager.Manager

	// Prompter asks for input the arguments did not provide
	Prompter prompt.Prompter

	// number of package.json scripts staged so far
	scriptsStaged int
}

// readFile returns the current content of a project file and whether it exists.
func (e *Env) readFile(name string) (string, bool, error) {
	data, err := afero.ReadFile(e.FS, name)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), true, nil
}

func (e *Env) exists(name string) (bool, error) {
	return afero.Exists(e.FS, name)
}

func (e *Env) hasDependency(name string) bool {
	return e.Manifest != nil && e.Manifest.HasDependency(name)
}

func (e *Env) requireSolidStart() error {
	if e.Manifest == nil || !e.Manifest.IsSolidStart() {
		return ErrNotSolidStart
	}
	return nil
}

// render executes templates/<name>.tmpl with data.
func render(name string, data any) (string, error) {
	src, err := templateFS.ReadFile(path.Join("templates", name+".tmpl"))
	if err != nil {
		return "", fmt.Errorf("unknown template %s: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// stageTemplate renders a template and stages it as a full write of dest.
func stageTemplate(st Stager, dest, name string, data any, label string) error {
	content, err := render(name, data)
	if err != nil {
		return err
	}
	return st.StageFile(dest, staging.Write(content), label)
}

// choose returns arg if it names one of options, prompts when arg is empty.
func choose(ctx context.Context, e *Env, arg, title string, options []prompt.Option) (string, error) {
	if arg == "" {
		return e.Prompter.Select(ctx, title, options)
	}
	for _, opt := range options {
		if opt.Value == arg {
			return arg, nil
		}
	}
	return "", fmt.Errorf("%w %q (expected one of %s)", ErrUnknownChoice, arg, optionValues(options))
}

func optionValues(options []prompt.Option) string {
	var buf bytes.Buffer
	for i, opt := range options {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(opt.Value)
	}
	return buf.String()
}
