package terminal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Alert writes notifications to a stream, one per line.
type Alert struct {
	mu  sync.Mutex
	out io.Writer
}

// NewAlert creates an alert writing to out.
func NewAlert(out io.Writer) *Alert {
	return &Alert{out: out}
}

// Notify implements action.Notifier.
func (a *Alert) Notify(_ context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := fmt.Fprintln(a.out, strings.TrimRight(message, "\n"))
	return err
}
