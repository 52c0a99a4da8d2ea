// Package prompt provides the interactive questions and spinners used by
// the CLI, built on charmbracelet/huh.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// ErrCancelled is returned when the user dismisses a prompt.
var ErrCancelled = errors.New("prompt cancelled")

// Option is one choice of a select prompt.
type Option struct {
	Label string
	Value string
	Hint  string
}

func (o Option) title() string {
	if o.Hint == "" {
		return o.Label
	}
	return fmt.Sprintf("%s (%s)", o.Label, o.Hint)
}

// Prompter asks the user questions.
type Prompter interface {
	Confirm(ctx context.Context, title string) (bool, error)
	Select(ctx context.Context, title string, options []Option) (string, error)
	MultiSelect(ctx context.Context, title string, options []Option) ([]string, error)
	Input(ctx context.Context, title, placeholder string, validate func(string) error) (string, error)
}

// HuhPrompter implements Prompter with huh forms.
type HuhPrompter struct {
	// Accessible renders prompts as plain line-based questions
	Accessible bool
}

// NewHuhPrompter creates a HuhPrompter.
func NewHuhPrompter(accessible bool) *HuhPrompter {
	return &HuhPrompter{Accessible: accessible}
}

func (p *HuhPrompter) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).WithAccessible(p.Accessible)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrCancelled
		}
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// Confirm asks a yes/no question.
func (p *HuhPrompter) Confirm(ctx context.Context, title string) (bool, error) {
	var ok bool
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if err := p.run(ctx, field); err != nil {
		return false, err
	}
	return ok, nil
}

// Select asks for exactly one option and returns its value.
func (p *HuhPrompter) Select(ctx context.Context, title string, options []Option) (string, error) {
	var value string
	field := huh.NewSelect[string]().
		Title(title).
		Options(huhOptions(options)...).
		Value(&value)
	if err := p.run(ctx, field); err != nil {
		return "", err
	}
	return value, nil
}

// MultiSelect asks for any number of options and returns their values.
func (p *HuhPrompter) MultiSelect(ctx context.Context, title string, options []Option) ([]string, error) {
	var values []string
	field := huh.NewMultiSelect[string]().
		Title(title).
		Options(huhOptions(options)...).
		Value(&values)
	if err := p.run(ctx, field); err != nil {
		return nil, err
	}
	return values, nil
}

// Input asks for a line of text. validate may be nil.
func (p *HuhPrompter) Input(ctx context.Context, title, placeholder string, validate func(string) error) (string, error) {
	var value string
	field := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}
	if err := p.run(ctx, field); err != nil {
		return "", err
	}
	return value, nil
}

func huhOptions(options []Option) []huh.Option[string] {
	out := make([]huh.Option[string], len(options))
	for i, opt := range options {
		out[i] = huh.NewOption(opt.title(), opt.Value)
	}
	return out
}

// Spin shows a spinner titled title while fn runs.
func Spin(title string, fn func()) error {
	return spinner.New().
		Title(title).
		Action(fn).
		Run()
}

// Scripted implements Prompter with pre-recorded answers, consumed in order.
// It is used where no terminal is available.
type Scripted struct {
	mu sync.Mutex

	Confirms     []bool
	Selects      []string
	MultiSelects [][]string
	Inputs       []string

	// Asked records every prompt title in order
	Asked []string
}

// ErrNoAnswer is returned by Scripted when it runs out of answers.
var ErrNoAnswer = errors.New("no scripted answer")

func pop[T any](s *Scripted, queue *[]T, title string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, title)
	var zero T
	if len(*queue) == 0 {
		return zero, fmt.Errorf("%w for %q", ErrNoAnswer, title)
	}
	v := (*queue)[0]
	*queue = (*queue)[1:]
	return v, nil
}

// Confirm returns the next scripted confirmation.
func (s *Scripted) Confirm(_ context.Context, title string) (bool, error) {
	return pop(s, &s.Confirms, title)
}

// Select returns the next scripted selection.
func (s *Scripted) Select(_ context.Context, title string, _ []Option) (string, error) {
	return pop(s, &s.Selects, title)
}

// MultiSelect returns the next scripted multi-selection.
func (s *Scripted) MultiSelect(_ context.Context, title string, _ []Option) ([]string, error) {
	return pop(s, &s.MultiSelects, title)
}

// Input returns the next scripted input, checked by validate.
func (s *Scripted) Input(_ context.Context, title, _ string, validate func(string) error) (string, error) {
	v, err := pop(s, &s.Inputs, title)
	if err != nil {
		return "", err
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return "", err
		}
	}
	return v, nil
}
