package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/attendeeadmin/client"
	"github.com/c360studio/attendeeadmin/cookie"
)

// ErrMissingAttendee is returned for an empty attendee id.
var ErrMissingAttendee = errors.New("attendee id is required")

// Status is how an invocation ended.
type Status string

const (
	StatusDeclined  Status = "declined"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome reports one invocation.
type Outcome struct {
	Status Status

	// Message is the server message on success, or the text shown to the
	// operator on failure.
	Message string

	// Result is the decoded envelope, when one arrived.
	Result *client.Result

	// Err is the cause of a failure, a confirmer error on decline, or a
	// reload error on success.
	Err error
}

// Ports are the operator-facing collaborators of a Trigger.
type Ports struct {
	Confirmer Confirmer
	Notifier  Notifier
	Reloader  Reloader
}

// Trigger runs confirmation-gated actions. It holds no per-invocation state,
// so one Trigger may serve any number of controls.
type Trigger struct {
	poster     Poster
	cookies    cookie.Source
	ports      Ports
	csrfCookie string
	observer   Observer
	logger     *slog.Logger
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithCSRFCookie overrides the cookie the CSRF token is read from.
func WithCSRFCookie(name string) Option {
	return func(t *Trigger) {
		if name != "" {
			t.csrfCookie = name
		}
	}
}

// WithObserver records every outcome.
func WithObserver(o Observer) Option {
	return func(t *Trigger) {
		if o != nil {
			t.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trigger) {
		t.logger = logger
	}
}

// NewTrigger creates a trigger that posts through poster and reads the CSRF
// token from cookies. Every port is required.
func NewTrigger(poster Poster, cookies cookie.Source, ports Ports, opts ...Option) (*Trigger, error) {
	switch {
	case poster == nil:
		return nil, fmt.Errorf("poster is required")
	case cookies == nil:
		return nil, fmt.Errorf("cookie source is required")
	case ports.Confirmer == nil:
		return nil, fmt.Errorf("confirmer is required")
	case ports.Notifier == nil:
		return nil, fmt.Errorf("notifier is required")
	case ports.Reloader == nil:
		return nil, fmt.Errorf("reloader is required")
	}

	t := &Trigger{
		poster:     poster,
		cookies:    cookies,
		ports:      ports,
		csrfCookie: cookie.CSRFCookie,
		observer:   nopObserver{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// RegisterZoom runs the RegisterZoom action.
func (t *Trigger) RegisterZoom(ctx context.Context, id AttendeeID, ctl Control) Outcome {
	return t.Run(ctx, RegisterZoom, id, ctl)
}

// Run confirms, sends act for id and settles ctl.
//
// A declined confirmation sends nothing and leaves ctl untouched. Otherwise
// ctl is disabled under act.BusyLabel for the request. Success hands over to
// the reloader and leaves ctl disabled; any failure notifies the operator and
// restores ctl's label and enables it again.
func (t *Trigger) Run(ctx context.Context, act Action, id AttendeeID, ctl Control) Outcome {
	start := time.Now()
	out := t.run(ctx, act, id, ctl)
	t.observer.ObserveAction(act.Name, string(out.Status), time.Since(start))
	return out
}

func (t *Trigger) run(ctx context.Context, act Action, id AttendeeID, ctl Control) Outcome {
	if strings.TrimSpace(string(id)) == "" {
		return Outcome{Status: StatusFailed, Err: ErrMissingAttendee}
	}

	ok, err := t.ports.Confirmer.Confirm(ctx, act.Prompt)
	if err != nil {
		t.logger.Debug("Confirmation failed", "action", act.Name, "attendee", id, "error", err)
		return Outcome{Status: StatusDeclined, Err: fmt.Errorf("confirm: %w", err)}
	}
	if !ok {
		return Outcome{Status: StatusDeclined}
	}

	original := ctl.Label()
	ctl.SetLabel(act.BusyLabel)
	ctl.SetEnabled(false)

	token, found := t.cookies.Cookie(t.csrfCookie)
	if !found {
		t.logger.Warn("CSRF cookie not found", "cookie", t.csrfCookie)
	}

	res, err := post(ctx, t.poster, act.Path(id), token)
	if err != nil {
		return t.fail(ctx, act, id, ctl, original, err.Error(), nil, err)
	}
	if !res.Success {
		cause := fmt.Errorf("%w: %s", client.ErrApplication, res.Message)
		return t.fail(ctx, act, id, ctl, original, res.Message, res, cause)
	}

	t.logger.Info("Action succeeded",
		"action", act.Name,
		"attendee", id,
		"registrant_id", res.RegistrantID,
		"message", res.Message)

	out := Outcome{Status: StatusSucceeded, Message: res.Message, Result: res}
	if err := t.ports.Reloader.Reload(ctx, act, id, res); err != nil {
		t.logger.Warn("Reload failed", "action", act.Name, "attendee", id, "error", err)
		out.Err = fmt.Errorf("reload: %w", err)
	}
	return out
}

func (t *Trigger) fail(ctx context.Context, act Action, id AttendeeID, ctl Control, original, message string, res *client.Result, cause error) Outcome {
	text := "Error: " + message

	t.logger.Info("Action failed", "action", act.Name, "attendee", id, "error", cause)

	if err := t.ports.Notifier.Notify(ctx, text); err != nil {
		t.logger.Warn("Notification failed", "action", act.Name, "error", err)
	}

	ctl.SetLabel(original)
	ctl.SetEnabled(true)

	return Outcome{Status: StatusFailed, Message: text, Result: res, Err: cause}
}

// post guards against a poster that returns neither result nor error.
func post(ctx context.Context, poster Poster, path, token string) (*client.Result, error) {
	res, err := poster.PostAction(ctx, path, token)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: empty result", client.ErrProtocol)
	}
	return res, nil
}
