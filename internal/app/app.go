// Package app wires configuration, logging, and the session supervisor
// into a runnable interactive bridge.
package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dshills/gorebridge/internal/bridge"
	"github.com/dshills/gorebridge/internal/command"
	"github.com/dshills/gorebridge/internal/complete"
	"github.com/dshills/gorebridge/internal/config"
	"github.com/dshills/gorebridge/internal/history"
	"github.com/dshills/gorebridge/internal/logging"
	"github.com/dshills/gorebridge/internal/session"
)

// ErrQuit is returned by Run when the user asks to leave.
var ErrQuit = errors.New("quit requested")

// shutdownTimeout bounds how long Shutdown waits for subprocesses.
const shutdownTimeout = 5 * time.Second

// completeHelper lists completion candidates without sending anything.
const completeHelper = ":?"

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML configuration file. Optional.
	ConfigPath string

	// SessionName names the supervised session. Defaults to "main".
	SessionName string

	// Program overrides the configured REPL executable when non-empty.
	Program string

	// Args overrides the configured launch flags when non-nil.
	Args []string

	// ContextFile overrides the configured context file when non-empty.
	ContextFile string

	// LogLevel overrides the configured log level when non-empty.
	LogLevel string

	// Input is where user lines are read from. Defaults to os.Stdin.
	Input io.Reader

	// Output is where session output is displayed. Defaults to os.Stdout.
	Output io.Writer
}

// App is the assembled interactive bridge.
type App struct {
	cfg config.Config
	log *logging.Logger

	registry  *session.Registry
	sup       *bridge.Supervisor
	completer *complete.Provider
	hist      *history.History

	sessionName string
	input       io.Reader
	output      io.Writer

	// sent buffers raw commands for history persistence at shutdown.
	sent []string

	watcher *config.Watcher

	// shutdownOnce guards Shutdown against the signal handler and the
	// deferred call racing each other.
	shutdownOnce sync.Once
}

// New creates an App from the given options.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.Program != "" {
		cfg.REPL.Program = opts.Program
	}
	if opts.Args != nil {
		cfg.REPL.Args = opts.Args
	}
	if opts.ContextFile != "" {
		cfg.REPL.ContextFile = opts.ContextFile
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.SessionName == "" {
		opts.SessionName = "main"
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	log := logging.New(logging.Config{
		Level: logging.ParseLevel(cfg.Log.Level),
	})

	registry := session.NewRegistry()
	sup := bridge.NewSupervisor(
		registry,
		bridge.NewWriterSink(opts.Output),
		bridge.WithGracePeriod(cfg.Supervisor.GracePeriod()),
		bridge.WithLogger(log),
	)

	a := &App{
		cfg:         cfg,
		log:         log,
		registry:    registry,
		sup:         sup,
		completer:   complete.NewProvider(),
		sessionName: opts.SessionName,
		input:       opts.Input,
		output:      opts.Output,
	}

	if cfg.REPL.HistoryFile != "" {
		a.hist = history.New(cfg.REPL.HistoryFile)
	}

	// Live reload: only the log level is safe to change under a
	// running session.
	if opts.ConfigPath != "" {
		w, err := config.Watch(opts.ConfigPath, a.onConfigChange)
		if err == nil {
			a.watcher = w
		} else {
			log.Warn("config watch unavailable: %v", err)
		}
	}

	return a, nil
}

// Supervisor exposes the session supervisor for embedding callers.
func (a *App) Supervisor() *bridge.Supervisor {
	return a.sup
}

// Run starts the configured session and drives the interactive loop
// until input is exhausted or the user quits.
func (a *App) Run() error {
	if _, err := a.sup.EnsureSession(a.sessionName, a.cfg.LaunchSpec()); err != nil {
		return err
	}

	a.seedCompletions()

	scanner := bufio.NewScanner(a.input)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, completeHelper):
			a.listCompletions(strings.TrimSpace(line[len(completeHelper):]))

		case line == command.Quit():
			_ = a.sup.Terminate(a.sessionName)
			return ErrQuit

		case strings.HasPrefix(line, command.Marker):
			if err := a.dispatchDirective(line); err != nil {
				return err
			}

		default:
			if err := a.sup.Send(a.sessionName, line, false); err != nil {
				return err
			}
			a.sent = append(a.sent, line)
		}
	}

	return scanner.Err()
}

// Restart replaces the running session with a fresh subprocess.
func (a *App) Restart() error {
	_, err := a.sup.RestartSession(a.sessionName, a.cfg.LaunchSpec())
	return err
}

// Interrupt forwards an interrupt to the running session so the REPL
// cancels its current evaluation without ending the session.
func (a *App) Interrupt() error {
	return a.sup.Interrupt(a.sessionName)
}

// Shutdown persists history and ends all sessions. Safe to call after
// a failed Run; concurrent and repeated calls run the shutdown once.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(a.shutdown)
}

func (a *App) shutdown() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}

	if a.hist != nil && len(a.sent) > 0 {
		if err := a.hist.Append(a.sent); err != nil {
			a.log.Warn("history append failed: %v", err)
		}
		a.sent = nil
	}

	a.sup.Close(shutdownTimeout)
}

// dispatchDirective validates and forwards one ":name arg" line.
// Validation failures are reported to the display, not fatal.
func (a *App) dispatchDirective(line string) error {
	name, arg := splitDirective(line)

	err := a.sup.SendDirective(a.sessionName, name, arg)
	var verr *command.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(a.output, "error: %v\n", verr)
		return nil
	}
	return err
}

// listCompletions prints candidates for the given directive prefix.
func (a *App) listCompletions(prefix string) {
	candidates := a.completer.Complete(prefix)
	if len(candidates) == 0 {
		fmt.Fprintln(a.output, "directives:", strings.Join(complete.Keywords(), " "))
		return
	}
	fmt.Fprintln(a.output, strings.Join(candidates, "  "))
}

// seedCompletions loads history-derived candidates into the completer.
func (a *App) seedCompletions() {
	if a.hist == nil {
		return
	}
	candidates, err := a.hist.Candidates(100)
	if err != nil {
		a.log.Warn("history load failed: %v", err)
		return
	}
	a.completer.Seed(candidates)
}

// onConfigChange applies a reloaded configuration.
func (a *App) onConfigChange(cfg config.Config, err error) {
	if err != nil {
		a.log.Warn("config reload failed: %v", err)
		return
	}
	a.log.SetLevel(logging.ParseLevel(cfg.Log.Level))
	a.log.Info("config reloaded: log level %s", cfg.Log.Level)
}

// splitDirective parses ":name arg..." into its name and argument.
func splitDirective(line string) (name, arg string) {
	rest := strings.TrimPrefix(line, command.Marker)
	name, arg, _ = strings.Cut(rest, " ")
	return name, strings.TrimSpace(arg)
}
