package scaffold

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/danieljhkim/solidcli/internal/prompt"
	"github.com/danieljhkim/solidcli/internal/staging"
)

// dependency is one package an integration installs.
type dependency struct {
	name       string
	constraint string
	kind       staging.DepKind
}

// Integration is a tool that `solid add` can wire into a project.
type Integration struct {
	Name  string
	Label string
	Hint  string

	deps  []dependency
	apply func(e *Env, st Stager) error
}

// Integrations lists every supported integration in menu order.
var Integrations = []Integration{
	{
		Name:  "tailwind",
		Label: "Tailwind CSS",
		Hint:  "utility-first CSS",
		deps: []dependency{
			{"tailwindcss", "^3.4.3", staging.DepDev},
			{"postcss", "^8.4.38", staging.DepDev},
			{"autoprefixer", "^10.4.19", staging.DepDev},
		},
		apply: applyTailwind,
	},
	{
		Name:  "unocss",
		Label: "UnoCSS",
		Hint:  "instant on-demand atomic CSS",
		deps: []dependency{
			{"unocss", "^0.65.0", staging.DepDev},
		},
		apply: applyUnoCSS,
	},
	{
		Name:  "vitest",
		Label: "Vitest",
		Hint:  "unit testing",
		deps: []dependency{
			{"vitest", "^2.1.4", staging.DepDev},
			{"jsdom", "^25.0.1", staging.DepDev},
			{"@solidjs/testing-library", "^0.8.10", staging.DepDev},
			{"vite-plugin-solid", "^2.11.0", staging.DepDev},
		},
		apply: applyVitest,
	},
	{
		Name:  "prettier",
		Label: "Prettier",
		Hint:  "code formatting",
		deps: []dependency{
			{"prettier", "^3.3.3", staging.DepDev},
		},
		apply: applyPrettier,
	},
}

// LookupIntegration returns the integration called name.
func LookupIntegration(name string) (Integration, bool) {
	i := slices.IndexFunc(Integrations, func(in Integration) bool { return in.Name == name })
	if i < 0 {
		return Integration{}, false
	}
	return Integrations[i], true
}

func integrationOptions() []prompt.Option {
	opts := make([]prompt.Option, len(Integrations))
	for i, in := range Integrations {
		opts[i] = prompt.Option{Label: in.Label, Value: in.Name, Hint: in.Hint}
	}
	return opts
}

// Add stages the named integrations. With no names it asks which to add.
func Add(ctx context.Context, e *Env, st Stager, names []string) error {
	if len(names) == 0 {
		selected, err := e.Prompter.MultiSelect(ctx, "Which integrations would you like to add?", integrationOptions())
		if err != nil {
			return err
		}
		names = selected
	}

	integrations := make([]Integration, 0, len(names))
	for _, name := range names {
		in, ok := LookupIntegration(name)
		if !ok {
			return fmt.Errorf("%w %q (expected one of %s)", ErrUnknownChoice, name, optionValues(integrationOptions()))
		}
		integrations = append(integrations, in)
	}

	for _, in := range integrations {
		if err := in.stage(e, st); err != nil {
			return fmt.Errorf("failed to add %s: %w", in.Name, err)
		}
	}
	return nil
}

func (in Integration) stage(e *Env, st Stager) error {
	for _, dep := range in.deps {
		if e.hasDependency(dep.name) {
			continue
		}
		if err := st.StagePackage(dep.name, dep.kind, dep.constraint); err != nil {
			return err
		}
	}
	return in.apply(e, st)
}

func applyTailwind(e *Env, st Stager) error {
	if err := stageConfigFile(e, st, "tailwind.config.js", "add/tailwind.config.js", "tailwind config"); err != nil {
		return err
	}
	if err := stageConfigFile(e, st, "postcss.config.js", "add/postcss.config.js", "postcss config"); err != nil {
		return err
	}

	css, exists, err := e.readFile("src/app.css")
	if err != nil {
		return err
	}
	if exists && strings.Contains(css, "@tailwind base;") {
		return nil
	}
	directives := "@tailwind base;\n@tailwind components;\n@tailwind utilities;\n"
	if exists {
		return st.StageFile("src/app.css", staging.Patch(staging.Edit{
			Match:   `\A`,
			Replace: directives + "\n",
		}), "tailwind directives")
	}
	return st.StageFile("src/app.css", staging.Write(directives), "tailwind directives")
}

func applyUnoCSS(e *Env, st Stager) error {
	if err := stageConfigFile(e, st, "uno.config.ts", "add/uno.config.ts", "unocss config"); err != nil {
		return err
	}

	if err := patchIfPresent(e, st, "app.config.ts", "unocss vite plugin",
		staging.Edit{
			Match:   `(import \{ defineConfig \} from "@solidjs/start/config";\n)`,
			Replace: "${1}import UnoCSS from \"unocss/vite\";\n",
		},
		staging.Edit{
			Match:   `defineConfig\(\{`,
			Replace: "defineConfig({\n  vite: { plugins: [UnoCSS()] },",
		},
	); err != nil {
		return err
	}

	return patchIfPresent(e, st, "src/app.tsx", "unocss import", staging.Edit{
		Match:   `\A`,
		Replace: "import \"virtual:uno.css\";\n",
	})
}

func applyVitest(e *Env, st Stager) error {
	if err := stageConfigFile(e, st, "vitest.config.ts", "add/vitest.config.ts", "vitest config"); err != nil {
		return err
	}
	if e.Manifest != nil && e.Manifest.HasScript("test") {
		return nil
	}
	return addScript(e, st, "test", "vitest run")
}

func applyPrettier(e *Env, st Stager) error {
	if err := stageConfigFile(e, st, ".prettierrc", "add/prettierrc", "prettier config"); err != nil {
		return err
	}
	if e.Manifest == nil || !e.Manifest.HasScript("format") {
		if err := addScript(e, st, "format", "prettier --write ."); err != nil {
			return err
		}
	}
	return st.StageCommand(e.PM.RunScriptArgs("format"), "")
}

// stageConfigFile writes a config file from a template unless the project
// already has one.
func stageConfigFile(e *Env, st Stager, dest, name, label string) error {
	ok, err := e.exists(dest)
	if err != nil || ok {
		return err
	}
	return stageTemplate(st, dest, name, nil, label)
}

// addScript patches package.json to declare a script. Patches to one file
// apply in staging order, so once a script has been staged in this run the
// scripts object exists and is non-empty.
func addScript(e *Env, st Stager, name, command string) error {
	entry := fmt.Sprintf("%q: %q", name, command)

	var edit staging.Edit
	switch {
	case e.scriptsStaged == 0 && (e.Manifest == nil || e.Manifest.Scripts == nil):
		edit = staging.Edit{
			Match:   `\A(\s*)\{`,
			Replace: "${1}{\n  \"scripts\": {\n    " + escapeReplacement(entry) + "\n  },",
		}
	case e.scriptsStaged == 0 && len(e.Manifest.Scripts) == 0:
		edit = staging.Edit{
			Match:   `"scripts"\s*:\s*\{\s*\}`,
			Replace: "\"scripts\": {\n    " + escapeReplacement(entry) + "\n  }",
		}
	default:
		edit = staging.Edit{
			Match:   `"scripts"\s*:\s*\{`,
			Replace: "\"scripts\": {\n    " + escapeReplacement(entry) + ",",
		}
	}
	if err := st.StageFile("package.json", staging.Patch(edit), "add "+name+" script"); err != nil {
		return err
	}
	e.scriptsStaged++
	return nil
}

// escapeReplacement protects literal text from $-expansion in an edit replacement.
func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

// patchIfPresent stages edits for name when the file exists.
func patchIfPresent(e *Env, st Stager, name, label string, edits ...staging.Edit) error {
	ok, err := e.exists(name)
	if err != nil || !ok {
		return err
	}
	return st.StageFile(name, staging.Patch(edits...), label)
}
