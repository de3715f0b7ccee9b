// Package terminal implements the operator-facing ports on a terminal.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Prompt asks yes/no questions. On a terminal it shows a huh confirm form.
// Otherwise it reads one answer line per question from a reader shared by
// every call, so piped answers are consumed in order.
type Prompt struct {
	in         io.Reader
	out        io.Writer
	accessible bool

	mu    sync.Mutex
	lines *bufio.Reader
}

// NewPrompt creates a prompt reading from in and drawing on out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	p := &Prompt{
		in:         in,
		out:        out,
		accessible: !isTerminal(in),
	}
	if p.accessible {
		p.lines = bufio.NewReader(in)
	}
	return p
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Confirm implements action.Confirmer. Aborting the form counts as "no".
func (p *Prompt) Confirm(ctx context.Context, question string) (bool, error) {
	if p.accessible {
		return p.readAnswer(ctx, question)
	}

	var confirmed bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).
		WithInput(p.in).
		WithOutput(p.out)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}

	return confirmed, nil
}

// readAnswer reads lines until one is a yes or no. An empty line is "no".
// Running out of input before any answer is an error.
func (p *Prompt) readAnswer(ctx context.Context, question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		fmt.Fprintf(p.out, "%s [y/N] ", question)
		line, err := p.lines.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			fmt.Fprintln(p.out)
			return false, fmt.Errorf("read answer: %w", err)
		}

		if answer, ok := parseAnswer(line); ok {
			return answer, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
		if err != nil {
			return false, fmt.Errorf("read answer: %w", err)
		}
	}
}

func parseAnswer(line string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, true
	case "", "n", "no":
		return false, true
	default:
		return false, false
	}
}
