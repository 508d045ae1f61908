// Package prompt implements interactive terminal prompts for the service's
// workflows.
package prompt

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/ccs/pkg/service"
)

var _ service.Prompter = (*Prompter)(nil)

// Prompter runs a short-lived bubbletea program per question.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

// New creates a prompter. Nil streams default to stdin and stderr so that
// stdout stays usable for command output.
func New(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &Prompter{in: in, out: out}
}

func (p *Prompter) PromptForName(ctx context.Context, prompt, initial string, validate service.Validator) (string, bool, error) {
	final, err := p.run(ctx, NewName(prompt, initial, validate))
	if err != nil {
		return "", false, err
	}
	m, ok := final.(NameModel)
	if !ok {
		return "", false, fmt.Errorf("unexpected model %T", final)
	}
	name, ok := m.Result()
	return name, ok, nil
}

func (p *Prompter) PromptForChoice(ctx context.Context, prompt string, options []string) (int, bool, error) {
	final, err := p.run(ctx, NewChoice(prompt, options))
	if err != nil {
		return 0, false, err
	}
	m, ok := final.(ChoiceModel)
	if !ok {
		return 0, false, fmt.Errorf("unexpected model %T", final)
	}
	i, ok := m.Result()
	return i, ok, nil
}

func (p *Prompter) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("run prompt: %w", err)
	}
	return final, nil
}
