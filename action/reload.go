package action

import (
	"context"
	"fmt"
	"io"

	"github.com/c360studio/attendeeadmin/client"
)

// AttendeeFetcher loads an attendee's current record.
type AttendeeFetcher interface {
	GetAttendee(ctx context.Context, id string) (*client.Attendee, error)
}

// StatusReloader re-reads the attendee from the server after a successful
// action and prints its refreshed status line, the terminal counterpart of
// reloading the admin page.
type StatusReloader struct {
	fetcher AttendeeFetcher
	out     io.Writer
}

// NewStatusReloader creates a reloader that writes to out.
func NewStatusReloader(fetcher AttendeeFetcher, out io.Writer) *StatusReloader {
	return &StatusReloader{fetcher: fetcher, out: out}
}

// Reload implements Reloader. When the record carries no registration
// fields, the registrant id from res stands in for them.
func (r *StatusReloader) Reload(ctx context.Context, act Action, id AttendeeID, res *client.Result) error {
	attendee, err := r.fetcher.GetAttendee(ctx, string(id))
	if err != nil {
		return fmt.Errorf("fetch attendee %s: %w", id, err)
	}
	if !attendee.HasZoomFields() && res != nil && res.RegistrantID != "" {
		attendee.ZoomRegistrantID = res.RegistrantID
	}
	return WriteStatus(r.out, attendee)
}

// WriteStatus prints one attendee status line.
func WriteStatus(w io.Writer, attendee *client.Attendee) error {
	_, err := fmt.Fprintf(w, "#%d %s [zoom: %s]\n", attendee.ID, attendee, attendee.ZoomStatus())
	return err
}
