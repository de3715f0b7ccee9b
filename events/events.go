// Package events publishes attendee action events on NATS.
//
// Publishing is the alternative to reloading the admin page after a
// successful action: other services subscribed to the subject refresh their
// own view of the attendee.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/c360studio/attendeeadmin/action"
	"github.com/c360studio/attendeeadmin/client"
)

// DefaultSubjectPrefix is prepended to the action name to form the subject.
const DefaultSubjectPrefix = "attendeeadmin.attendee"

// Publisher is the subset of *nats.Conn used here.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// flusher is implemented by *nats.Conn.
type flusher interface {
	FlushWithContext(ctx context.Context) error
}

// Event is the payload published after a successful action.
type Event struct {
	EventID      string    `json:"event_id"`
	Action       string    `json:"action"`
	AttendeeID   string    `json:"attendee_id"`
	RegistrantID string    `json:"registrant_id,omitempty"`
	Message      string    `json:"message,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Connect dials NATS with the reconnect policy used by the CLI.
func Connect(ctx context.Context, url string) (*nats.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled before connect: %w", err)
	}
	nc, err := nats.Connect(url,
		nats.Name("attendeeadmin"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// Reloader publishes an Event instead of re-reading the attendee.
type Reloader struct {
	pub    Publisher
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

// NewReloader creates a reloader publishing under prefix (DefaultSubjectPrefix
// when empty).
func NewReloader(pub Publisher, prefix string, logger *slog.Logger) *Reloader {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{pub: pub, prefix: prefix, now: time.Now, logger: logger}
}

// Subject returns the subject events for act are published on.
func (r *Reloader) Subject(act action.Action) string {
	return r.prefix + "." + act.Name
}

// Reload implements action.Reloader.
func (r *Reloader) Reload(ctx context.Context, act action.Action, id action.AttendeeID, res *client.Result) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}

	evt := Event{
		EventID:    uuid.New().String(),
		Action:     act.Name,
		AttendeeID: string(id),
		OccurredAt: r.now().UTC(),
	}
	if res != nil {
		evt.RegistrantID = res.RegistrantID
		evt.Message = res.Message
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := r.Subject(act)
	if err := r.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if f, ok := r.pub.(flusher); ok {
		if err := f.FlushWithContext(ctx); err != nil {
			return fmt.Errorf("flush %s: %w", subject, err)
		}
	}

	r.logger.Debug("Published attendee event", "subject", subject, "event_id", evt.EventID)
	return nil
}
