package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/attendeeadmin/action"
	"github.com/c360studio/attendeeadmin/client"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs    []published
	err     error
	flushed int
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{subject, data})
	return nil
}

func (p *fakePublisher) FlushWithContext(context.Context) error {
	p.flushed++
	return nil
}

func TestReloaderPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	r := NewReloader(pub, "", nil)
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	err := r.Reload(context.Background(), action.RegisterZoom, "42",
		&client.Result{Success: true, Message: "ok", RegistrantID: "reg-1"})
	require.NoError(t, err)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "attendeeadmin.attendee.register-zoom", pub.msgs[0].subject)
	assert.Equal(t, 1, pub.flushed)

	var evt Event
	require.NoError(t, json.Unmarshal(pub.msgs[0].data, &evt))
	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, "register-zoom", evt.Action)
	assert.Equal(t, "42", evt.AttendeeID)
	assert.Equal(t, "reg-1", evt.RegistrantID)
	assert.True(t, fixed.Equal(evt.OccurredAt))
}

func TestReloaderCustomPrefix(t *testing.T) {
	r := NewReloader(&fakePublisher{}, "webinars.admin", nil)
	assert.Equal(t, "webinars.admin.activate", r.Subject(action.Activate))
}

func TestReloaderPublishError(t *testing.T) {
	r := NewReloader(&fakePublisher{err: errors.New("no responders")}, "", nil)
	err := r.Reload(context.Background(), action.Activate, "1", nil)
	assert.ErrorContains(t, err, "no responders")
}

func TestReloaderCancelledContext(t *testing.T) {
	pub := &fakePublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewReloader(pub, "", nil).Reload(ctx, action.Activate, "1", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pub.msgs)
}
