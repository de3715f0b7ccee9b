package terminal

import (
	"fmt"
	"io"
	"sync"
)

// Button is a terminal stand-in for the control that triggered an action.
// Label changes are echoed to the output so the operator sees the busy state.
type Button struct {
	mu      sync.Mutex
	name    string
	label   string
	enabled bool
	out     io.Writer
}

// NewButton creates an enabled button. name prefixes echoed labels, e.g. the
// attendee id. A nil out keeps the button silent.
func NewButton(name, label string, out io.Writer) *Button {
	return &Button{name: name, label: label, enabled: true, out: out}
}

// Label implements action.Control.
func (b *Button) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label
}

// SetLabel implements action.Control.
func (b *Button) SetLabel(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if label == b.label {
		return
	}
	b.label = label
	if b.out != nil {
		fmt.Fprintf(b.out, "[%s] %s\n", b.name, label)
	}
}

// Enabled implements action.Control.
func (b *Button) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// SetEnabled implements action.Control.
func (b *Button) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}
