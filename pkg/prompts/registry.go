// Package prompts maps generation roles to prompt templates. The content is
// pluggable; the gateway only needs a registry that can render a role.
package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrUnknownPrompt is returned by Build for names with no template.
var ErrUnknownPrompt = errors.New("unknown prompt")

// Input is everything a template may reference.
type Input struct {
	Goal          string
	Subject       string
	UserContext   string
	MemoryContext string
	Context       string
	Constraints   []string
	Rules         []string
	Schema        string
	Feedback      string
	TargetSteps   int
	Timeframe     string
	StepTitle     string
	StepTimeframe string
	Question      string
}

// Validator rejects inputs a template cannot render meaningfully.
type Validator func(Input) error

// Spec is the declaration format for one prompt. System and User are
// text/template sources over Input.
type Spec struct {
	Name       string
	Version    int
	System     string
	User       string
	Validators []Validator
}

// Prompt is a rendered prompt ready for the generation call.
type Prompt struct {
	Name    string
	Version int
	System  string
	User    string
}

type compiled struct {
	spec   Spec
	system *template.Template
	user   *template.Template
}

// Registry holds compiled templates. Populate it before sharing; it is not
// mutated by Build and is safe for concurrent reads.
type Registry struct {
	templates map[string]compiled
}

func NewRegistry() *Registry {
	return &Registry{templates: map[string]compiled{}}
}

// Register compiles and adds a spec, replacing one with the same name.
func (r *Registry) Register(s Spec) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("missing prompt name")
	}
	if s.Version <= 0 {
		return fmt.Errorf("invalid version for %s", s.Name)
	}
	funcs := template.FuncMap{"bullets": bullets}
	sysT, err := template.New("system").Funcs(funcs).Option("missingkey=zero").Parse(s.System)
	if err != nil {
		return fmt.Errorf("%s system template parse: %w", s.Name, err)
	}
	userT, err := template.New("user").Funcs(funcs).Option("missingkey=zero").Parse(s.User)
	if err != nil {
		return fmt.Errorf("%s user template parse: %w", s.Name, err)
	}
	r.templates[s.Name] = compiled{spec: s, system: sysT, user: userT}
	return nil
}

// MustRegister is Register that panics; for package-level setup.
func (r *Registry) MustRegister(s Spec) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Has reports whether a template exists for name.
func (r *Registry) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Names lists the registered prompt names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.templates))
	for n := range r.templates {
		out = append(out, n)
	}
	return out
}

// Build renders the named prompt.
func (r *Registry) Build(name string, in Input) (Prompt, error) {
	c, ok := r.templates[name]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownPrompt, name)
	}
	for _, v := range c.spec.Validators {
		if v == nil {
			continue
		}
		if err := v(in); err != nil {
			return Prompt{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	system, err := render(c.system, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s system render: %w", name, err)
	}
	user, err := render(c.user, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("%s user render: %w", name, err)
	}
	return Prompt{Name: name, Version: c.spec.Version, System: system, User: user}, nil
}

func render(t *template.Template, in Input) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, in); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

func bullets(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// RequireGoal rejects inputs without a goal.
func RequireGoal(in Input) error {
	if strings.TrimSpace(in.Goal) == "" {
		return fmt.Errorf("goal is required")
	}
	return nil
}

// RequireStep rejects inputs that are not bound to a step.
func RequireStep(in Input) error {
	if strings.TrimSpace(in.StepTitle) == "" {
		return fmt.Errorf("step title is required")
	}
	return nil
}
