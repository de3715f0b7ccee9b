package action

import (
	"context"
	"errors"
	"time"

	"github.com/c360studio/attendeeadmin/client"
)

// Confirmer asks the operator a yes/no question and blocks for the answer.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Notifier shows a blocking message to the operator.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Reloader refreshes whatever shows the attendee after a successful action.
type Reloader interface {
	Reload(ctx context.Context, act Action, id AttendeeID, res *client.Result) error
}

// Control is the handle of the control that triggered an action.
type Control interface {
	Label() string
	SetLabel(label string)
	Enabled() bool
	SetEnabled(enabled bool)
}

// Poster sends an action request.
type Poster interface {
	PostAction(ctx context.Context, path, csrfToken string) (*client.Result, error)
}

// Observer records how invocations end.
type Observer interface {
	ObserveAction(action, status string, elapsed time.Duration)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// AutoConfirm answers yes to every question.
var AutoConfirm = ConfirmFunc(func(context.Context, string) (bool, error) {
	return true, nil
})

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(ctx context.Context, message string) error

// Notify implements Notifier.
func (f NotifyFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// ReloadFunc adapts a function to Reloader.
type ReloadFunc func(ctx context.Context, act Action, id AttendeeID, res *client.Result) error

// Reload implements Reloader.
func (f ReloadFunc) Reload(ctx context.Context, act Action, id AttendeeID, res *client.Result) error {
	return f(ctx, act, id, res)
}

// Reloaders runs every reloader in order and joins their errors.
type Reloaders []Reloader

// Reload implements Reloader.
func (rs Reloaders) Reload(ctx context.Context, act Action, id AttendeeID, res *client.Result) error {
	var errs []error
	for _, r := range rs {
		if r == nil {
			continue
		}
		if err := r.Reload(ctx, act, id, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopObserver struct{}

func (nopObserver) ObserveAction(string, string, time.Duration) {}
