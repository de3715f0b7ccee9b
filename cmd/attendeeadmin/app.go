package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/attendeeadmin/action"
	"github.com/c360studio/attendeeadmin/client"
	"github.com/c360studio/attendeeadmin/config"
	"github.com/c360studio/attendeeadmin/cookie"
	"github.com/c360studio/attendeeadmin/events"
	"github.com/c360studio/attendeeadmin/metrics"
	"github.com/c360studio/attendeeadmin/terminal"
)

// Streams are the operator's terminal.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Summary counts how the invocations of one run ended.
type Summary struct {
	Succeeded int
	Declined  int
	Failed    int
}

// App is the main application that wires together all components.
type App struct {
	cfg     *config.Config
	streams Streams
	logger  *slog.Logger

	client  *client.Client
	cookies cookie.Store

	// Set when cookies come from a jar that must be primed first
	jarPrimed bool
	useJar    bool

	files     *cookie.FileSource
	natsConn  *nats.Conn
	recorder  *metrics.Recorder
	confirmer action.Confirmer
}

// NewApp creates a new application instance.
func NewApp(ctx context.Context, cfg *config.Config, streams Streams, yes bool, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		cfg:      cfg,
		streams:  streams,
		logger:   logger,
		recorder: metrics.NewRecorder(),
	}

	opts := []client.Option{
		client.WithTimeout(cfg.HTTP.Timeout),
		client.WithCSRFHeader(cfg.Server.CSRFHeader),
		client.WithLogger(logger),
	}

	switch {
	case cfg.Cookies.Raw != "":
		raw := cookie.Raw(cfg.Cookies.Raw)
		app.cookies = raw
		opts = append(opts, client.WithCookieHeader(raw))
	case cfg.Cookies.File != "":
		files := cookie.NewFileSource(cfg.Cookies.File, logger)
		if err := files.Watch(ctx); err != nil {
			// The file is still read on demand, just not refreshed
			logger.Warn("Cookie file will not be watched", "path", cfg.Cookies.File, "error", err)
		}
		app.files = files
		app.cookies = files
		opts = append(opts, client.WithCookieHeader(files))
	default:
		jar, err := cookie.NewJar()
		if err != nil {
			return nil, err
		}
		source, err := cookie.NewJarSource(jar, cfg.Server.BaseURL)
		if err != nil {
			return nil, err
		}
		app.cookies = source
		app.useJar = true
		opts = append(opts, client.WithJar(jar))
	}

	app.client = client.NewClient(cfg.Server.BaseURL, opts...)

	if yes {
		app.confirmer = action.AutoConfirm
	} else {
		app.confirmer = terminal.NewPrompt(streams.In, streams.Err)
	}

	if cfg.Events.NATSURL != "" {
		nc, err := events.Connect(ctx, cfg.Events.NATSURL)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.natsConn = nc
	}

	return app, nil
}

// Close releases the cookie watcher and the NATS connection.
func (a *App) Close() {
	if a.files != nil {
		if err := a.files.Close(); err != nil {
			a.logger.Debug("Close cookie watcher", "error", err)
		}
	}
	if a.natsConn != nil {
		a.natsConn.Close()
	}
}

// prime fetches the login page once so the jar holds the CSRF cookie.
// Failures are logged; the action request then carries whatever the jar has.
func (a *App) prime(ctx context.Context) {
	if !a.useJar || a.jarPrimed {
		return
	}
	a.jarPrimed = true
	if err := a.client.Prime(ctx, a.cfg.Server.LoginPath); err != nil {
		a.logger.Warn("Could not prime cookies", "path", a.cfg.Server.LoginPath, "error", err)
	}
}

// reloader shows the refreshed status and, when NATS is configured, also
// publishes an event.
func (a *App) reloader() action.Reloader {
	reloaders := action.Reloaders{action.NewStatusReloader(a.client, a.streams.Out)}
	if a.natsConn != nil {
		reloaders = append(reloaders, events.NewReloader(a.natsConn, a.cfg.Events.SubjectPrefix, a.logger))
	}
	return reloaders
}

// RunAction runs act for each id in order. Each id gets its own control, so
// a failure on one id never affects the next.
func (a *App) RunAction(ctx context.Context, act action.Action, ids []string) (Summary, error) {
	var summary Summary

	trigger, err := action.NewTrigger(a.client, a.cookies, action.Ports{
		Confirmer: a.confirmer,
		Notifier:  terminal.NewAlert(a.streams.Err),
		Reloader:  a.reloader(),
	},
		action.WithCSRFCookie(a.cfg.Server.CSRFCookie),
		action.WithObserver(a.recorder),
		action.WithLogger(a.logger),
	)
	if err != nil {
		return summary, fmt.Errorf("create trigger: %w", err)
	}

	a.prime(ctx)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		button := terminal.NewButton(act.Name+" "+id, act.Label, a.streams.Err)
		out := trigger.Run(ctx, act, action.AttendeeID(id), button)

		switch out.Status {
		case action.StatusSucceeded:
			summary.Succeeded++
			if out.Message != "" {
				fmt.Fprintf(a.streams.Err, "%s %s: %s\n", act.Name, id, out.Message)
			}
			if out.Err != nil {
				fmt.Fprintf(a.streams.Err, "%s %s: %v\n", act.Name, id, out.Err)
			}
		case action.StatusDeclined:
			summary.Declined++
			if out.Err != nil {
				fmt.Fprintf(a.streams.Err, "%s %s: skipped: %v\n", act.Name, id, out.Err)
			}
		default:
			summary.Failed++
			if errors.Is(out.Err, action.ErrMissingAttendee) {
				fmt.Fprintf(a.streams.Err, "%s: %v\n", act.Name, out.Err)
			}
		}
	}

	a.writeMetrics()

	a.logger.Info("Run finished",
		"action", act.Name,
		"succeeded", summary.Succeeded,
		"declined", summary.Declined,
		"failed", summary.Failed)

	return summary, nil
}

// Status prints the attendee's status line.
func (a *App) Status(ctx context.Context, id string) error {
	attendee, err := a.client.GetAttendee(ctx, id)
	if err != nil {
		return err
	}
	return action.WriteStatus(a.streams.Out, attendee)
}

// Cookie returns the decoded value of the named cookie.
func (a *App) Cookie(ctx context.Context, name string) (string, error) {
	a.prime(ctx)
	value, ok := a.cookies.Cookie(name)
	if !ok {
		return "", fmt.Errorf("cookie %q not found", name)
	}
	return value, nil
}

func (a *App) writeMetrics() {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := a.recorder.WriteTextfile(path); err != nil {
		a.logger.Warn("Failed to write metrics textfile", "path", path, "error", err)
	}
}
