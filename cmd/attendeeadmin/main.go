// Package main provides the attendeeadmin binary entry point.
// attendeeadmin runs the webinar admin's attendee actions from a terminal:
// each action is confirmed, sent with the site's CSRF token, and followed by
// a refreshed status line or an error message.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/attendeeadmin/action"
	"github.com/c360studio/attendeeadmin/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "attendeeadmin"
)

// errInvocationsFailed marks a run where at least one action failed. The
// failures were already reported, so main only sets the exit code.
var errInvocationsFailed = errors.New("one or more actions failed")

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errInvocationsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	baseURL    string
	cookie     string
	cookieFile string
	yes        bool
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Run attendee actions against the webinar admin",
		Long: `attendeeadmin runs the attendee actions of the webinar admin site from a
terminal.

Each action asks for confirmation, then sends one request carrying the
site's CSRF token. On success the attendee's refreshed status is printed;
on failure the server's message is shown and the run exits non-zero.

Cookies come from --cookie, --cookie-file, or a cookie jar primed from
the site's login page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.baseURL, "base-url", "", "Admin site root URL")
	pf.StringVar(&flags.cookie, "cookie", "", "Raw Cookie header (\"sessionid=...; csrftoken=...\")")
	pf.StringVar(&flags.cookieFile, "cookie-file", "", "File holding a raw Cookie header")
	pf.BoolVarP(&flags.yes, "yes", "y", false, "Answer yes to every confirmation")

	for _, name := range action.Names() {
		act, _ := action.Lookup(name)
		cmd.AddCommand(actionCmd(act, flags))
	}
	cmd.AddCommand(statusCmd(flags))
	cmd.AddCommand(cookieCmd(flags))
	cmd.AddCommand(configCmd(flags))

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func actionCmd(act action.Action, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   act.Name + " <attendee-id>...",
		Short: act.Label + " for each attendee",
		Long: fmt.Sprintf(`%s for each attendee id, one at a time.

Every id is confirmed separately ("%s") unless --yes is given.
The command exits non-zero if any id failed.`, act.Label, act.Prompt),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			summary, err := app.RunAction(cmd.Context(), act, args)
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return errInvocationsFailed
			}
			return nil
		},
	}
}

func statusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status <attendee-id>",
		Short: "Print an attendee's Zoom registration status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Status(cmd.Context(), args[0])
		},
	}
}

func cookieCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cookie <name>",
		Short: "Print the decoded value of a cookie from the configured source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			value, err := app.Cookie(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel, cmd.ErrOrStderr())
			path, err := config.NewLoader(logger).EnsureUserConfig()
			if err != nil {
				return fmt.Errorf("init config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cmd
}

// setup loads configuration, applies flag overrides and builds the App.
func setup(cmd *cobra.Command, flags *globalFlags) (*App, error) {
	logger := newLogger(flags.logLevel, cmd.ErrOrStderr())

	cfg, err := loadConfig(flags, logger)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewApp(cmd.Context(), cfg, Streams{
		In:  cmd.InOrStdin(),
		Out: cmd.OutOrStdout(),
		Err: cmd.ErrOrStderr(),
	}, flags.yes, logger)
}

func loadConfig(flags *globalFlags, logger *slog.Logger) (*config.Config, error) {
	loader := config.NewLoader(logger)

	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = loader.LoadPath(flags.configPath)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		return nil, err
	}

	// Flags take precedence over every file and environment layer
	if flags.baseURL != "" {
		cfg.Server.BaseURL = flags.baseURL
	}
	if flags.cookieFile != "" {
		cfg.Cookies.File = flags.cookieFile
		cfg.Cookies.Raw = ""
	}
	if flags.cookie != "" {
		cfg.Cookies.Raw = flags.cookie
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
