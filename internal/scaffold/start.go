package scaffold

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/danieljhkim/solidcli/internal/prompt"
	"github.com/danieljhkim/solidcli/internal/staging"
)

const appConfig = "app.config.ts"

// StartActions lists the `solid start` subcommands in menu order.
var StartActions = []prompt.Option{
	{Label: "Mode", Value: "mode", Hint: "switch between csr, ssr and ssg"},
	{Label: "Route", Value: "route", Hint: "create a new route"},
	{Label: "Data", Value: "data", Hint: "create a new data file"},
	{Label: "Adapter", Value: "adapter", Hint: "configure a deployment adapter"},
	{Label: "API", Value: "api", Hint: "create a new API route"},
}

var modes = []prompt.Option{
	{Label: "Client-side rendering", Value: "csr"},
	{Label: "Server-side rendering", Value: "ssr"},
	{Label: "Static site generation", Value: "ssg"},
}

var adapters = []prompt.Option{
	{Label: "Node", Value: "node-server"},
	{Label: "Vercel", Value: "vercel"},
	{Label: "Netlify", Value: "netlify"},
	{Label: "Cloudflare Pages", Value: "cloudflare-pages"},
	{Label: "AWS Lambda", Value: "aws-lambda"},
	{Label: "Deno", Value: "deno-server"},
	{Label: "Bun", Value: "bun"},
	{Label: "Static", Value: "static"},
}

var (
	ssrOption       = regexp.MustCompile(`ssr:\s*(true|false)`)
	prerenderOption = regexp.MustCompile(`prerender:\s*\{`)
	presetOption    = regexp.MustCompile(`preset:\s*"[^"]*"`)
	serverOption    = regexp.MustCompile(`server:\s*\{`)
	routeSegment    = regexp.MustCompile(`^(\[{1,2}(\.\.\.)?[A-Za-z0-9_]+\]{1,2}|\([A-Za-z0-9_-]+\)|[A-Za-z0-9_.-]+)$`)
	dataName        = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

// Mode stages the rendering mode in app.config.ts.
func Mode(ctx context.Context, e *Env, st Stager, mode string) error {
	if err := e.requireSolidStart(); err != nil {
		return err
	}
	mode, err := choose(ctx, e, mode, "Which rendering mode would you like to use?", modes)
	if err != nil {
		return err
	}

	config, exists, err := e.readFile(appConfig)
	if err != nil {
		return err
	}
	if !exists {
		config, err = render("new/app.config.ts", nil)
		if err != nil {
			return err
		}
	}

	ssr := "true"
	if mode == "csr" {
		ssr = "false"
	}

	var edits []staging.Edit
	if ssrOption.MatchString(config) {
		edits = append(edits, staging.Edit{Match: ssrOption.String(), Replace: "ssr: " + ssr})
	} else {
		edits = append(edits, staging.Edit{Match: `defineConfig\(\{`, Replace: "defineConfig({\n  ssr: " + ssr + ","})
	}
	if mode == "ssg" && !prerenderOption.MatchString(config) {
		edits = append(edits, serverEdit(config, "prerender: { crawlLinks: true }"))
	}

	return stageConfigEdits(st, config, exists, edits, "set mode "+mode)
}

// Adapter stages the deployment preset in app.config.ts.
func Adapter(ctx context.Context, e *Env, st Stager, preset string) error {
	if err := e.requireSolidStart(); err != nil {
		return err
	}
	preset, err := choose(ctx, e, preset, "Which adapter would you like to use?", adapters)
	if err != nil {
		return err
	}

	config, exists, err := e.readFile(appConfig)
	if err != nil {
		return err
	}
	if !exists {
		config, err = render("new/app.config.ts", nil)
		if err != nil {
			return err
		}
	}

	var edit staging.Edit
	if presetOption.MatchString(config) {
		edit = staging.Edit{Match: presetOption.String(), Replace: fmt.Sprintf("preset: %q", preset)}
	} else {
		edit = serverEdit(config, fmt.Sprintf("preset: %q", preset))
	}
	return stageConfigEdits(st, config, exists, []staging.Edit{edit}, "use adapter "+preset)
}

// serverEdit inserts option into the server block, creating the block if needed.
func serverEdit(config, option string) staging.Edit {
	if serverOption.MatchString(config) {
		return staging.Edit{Match: serverOption.String(), Replace: "server: { " + option + ","}
	}
	return staging.Edit{Match: `defineConfig\(\{`, Replace: "defineConfig({\n  server: { " + option + " },"}
}

// stageConfigEdits patches app.config.ts, or writes it with the edits
// applied when the project has none.
func stageConfigEdits(st Stager, config string, exists bool, edits []staging.Edit, label string) error {
	if exists {
		return st.StageFile(appConfig, staging.Patch(edits...), label)
	}
	content, err := staging.ApplyEdits(config, edits)
	if err != nil {
		return err
	}
	return st.StageFile(appConfig, staging.Write(content), label)
}

type routeData struct {
	Component string
	Title     string
	Route     string
}

// Route stages a new page under src/routes.
func Route(ctx context.Context, e *Env, st Stager, route string) error {
	if err := e.requireSolidStart(); err != nil {
		return err
	}
	route, err := askIfEmpty(ctx, e, route, "Route path", "about", validateRoute)
	if err != nil {
		return err
	}
	if err := validateRoute(route); err != nil {
		return err
	}

	clean := cleanRoute(route)
	file := path.Join("src/routes", clean+".tsx")
	if clean == "" {
		file = "src/routes/index.tsx"
	}
	if err := e.ensureAbsent(file); err != nil {
		return err
	}

	data := routeData{Component: componentName(clean), Title: titleFor(clean), Route: "/" + clean}
	if err := stageTemplate(st, file, "start/route.tsx", data, ""); err != nil {
		return err
	}
	return e.ensureRouter(st)
}

// API stages a new API route under src/routes/api.
func API(ctx context.Context, e *Env, st Stager, route string) error {
	if err := e.requireSolidStart(); err != nil {
		return err
	}
	route, err := askIfEmpty(ctx, e, route, "API route path", "hello", validateRoute)
	if err != nil {
		return err
	}
	if err := validateRoute(route); err != nil {
		return err
	}

	clean := strings.TrimPrefix(cleanRoute(route), "api/")
	if clean == "" || clean == "api" {
		return fmt.Errorf("invalid API route %q", route)
	}
	file := path.Join("src/routes/api", clean+".ts")
	if err := e.ensureAbsent(file); err != nil {
		return err
	}
	return stageTemplate(st, file, "start/api.ts", routeData{Route: "/api/" + clean}, "")
}

type dataFileData struct {
	Name  string
	Query string
}

// Data stages a new server data query under src/lib.
func Data(ctx context.Context, e *Env, st Stager, name string) error {
	if err := e.requireSolidStart(); err != nil {
		return err
	}
	validate := func(s string) error {
		if !dataName.MatchString(s) {
			return fmt.Errorf("invalid data name %q (use letters, digits, '_' and '-')", s)
		}
		return nil
	}
	name, err := askIfEmpty(ctx, e, name, "Data file name", "posts", validate)
	if err != nil {
		return err
	}
	if err := validate(name); err != nil {
		return err
	}

	file := path.Join("src/lib", name+".ts")
	if err := e.ensureAbsent(file); err != nil {
		return err
	}
	data := dataFileData{Name: name, Query: "get" + componentName(name)}
	if err := stageTemplate(st, file, "start/data.ts", data, ""); err != nil {
		return err
	}
	return e.ensureRouter(st)
}

func askIfEmpty(ctx context.Context, e *Env, value, title, placeholder string, validate func(string) error) (string, error) {
	if value != "" {
		return value, nil
	}
	return e.Prompter.Input(ctx, title, placeholder, validate)
}

func (e *Env) ensureAbsent(file string) error {
	ok, err := e.exists(file)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%s: %w", file, ErrExists)
	}
	return nil
}

// ensureRouter stages @solidjs/router when the project does not depend on it.
func (e *Env) ensureRouter(st Stager) error {
	if e.hasDependency("@solidjs/router") {
		return nil
	}
	return st.StagePackage("@solidjs/router", staging.DepRuntime, "^0.x")
}

func cleanRoute(route string) string {
	return strings.Trim(path.Clean("/"+strings.TrimSpace(route)), "/")
}

func validateRoute(route string) error {
	clean := cleanRoute(route)
	if clean == "" {
		return nil
	}
	for _, seg := range strings.Split(clean, "/") {
		if seg == ".." || !routeSegment.MatchString(seg) {
			return fmt.Errorf("invalid route segment %q in %q", seg, route)
		}
	}
	return nil
}

// componentName derives a PascalCase identifier from a route or name.
func componentName(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	name := b.String()
	if name == "" {
		return "Home"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "Page" + name
	}
	return name
}

func titleFor(route string) string {
	if route == "" {
		return "Home"
	}
	return path.Base(route)
}
