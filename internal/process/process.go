package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// State represents the state of a REPL subprocess.
type State int

const (
	// StateRunning indicates the subprocess is currently running.
	StateRunning State = iota
	// StateExited indicates the subprocess has exited normally or with an error.
	StateExited
	// StateKilled indicates the subprocess was killed by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Sentinel errors for the process package.
var (
	// ErrNotRunning is returned when an operation requires a live subprocess.
	ErrNotRunning = errors.New("process not running")
)

// Process is one spawned REPL subprocess with piped standard I/O.
//
// A Process is created running by Spawn and never restarted; a fresh
// Process replaces it. It is safe for concurrent use.
type Process struct {
	// ID is the unique identifier for this process instance.
	ID string

	// Cmd is the underlying exec.Cmd.
	Cmd *exec.Cmd

	// Stdout provides read access to the subprocess's stdout.
	Stdout io.ReadCloser

	// Stderr provides read access to the subprocess's stderr.
	Stderr io.ReadCloser

	// Started is the time the subprocess was started.
	Started time.Time

	// stdin is the subprocess's input; writes are serialized by writeMu.
	stdin   io.WriteCloser
	writeMu sync.Mutex

	// done is closed when the subprocess exits.
	done chan struct{}

	// state tracks the current process state.
	state atomic.Int32

	// exitCode stores the exit code after the subprocess exits.
	exitCode atomic.Int32

	// exitErr stores any error from Wait().
	exitErr error
	mu      sync.RWMutex

	waitOnce sync.Once
}

// Spawn starts cmd with piped stdin, stdout, and stderr and begins
// tracking its lifetime. The returned Process is already running.
func Spawn(cmd *exec.Cmd) (*Process, error) {
	p := &Process{
		ID:   uuid.New().String(),
		Cmd:  cmd,
		done: make(chan struct{}),
	}
	p.exitCode.Store(-1) // -1 indicates not exited

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	p.stdin = stdin
	p.Stdout = stdout
	p.Stderr = stderr

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		_ = stderr.Close()
		return nil, err
	}

	p.Started = time.Now()
	p.state.Store(int32(StateRunning))

	go p.waitLoop()

	return p, nil
}

// WriteLine writes text followed by a line terminator to the
// subprocess's input as a single write. Nothing is written when the
// subprocess is not running (all-or-nothing framing).
func (p *Process) WriteLine(text string) error {
	if !p.IsRunning() {
		return ErrNotRunning
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, err := io.WriteString(p.stdin, text+"\n"); err != nil {
		return fmt.Errorf("write to process input: %w", err)
	}
	return nil
}

// State returns the current process state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// IsRunning returns true if the subprocess is currently running.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// Done returns a channel that is closed when the subprocess exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the subprocess exit code.
// Returns -1 if the subprocess has not exited.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError returns any error from waiting on the subprocess.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// PID returns the OS process ID, or -1 if not started.
func (p *Process) PID() int {
	if p.Cmd.Process == nil {
		return -1
	}
	return p.Cmd.Process.Pid
}

// Signal sends a signal to the subprocess.
// Returns ErrNotRunning if the subprocess has exited.
func (p *Process) Signal(sig os.Signal) error {
	if !p.IsRunning() || p.Cmd.Process == nil {
		return ErrNotRunning
	}
	return p.Cmd.Process.Signal(sig)
}

// Interrupt sends SIGINT to the subprocess.
func (p *Process) Interrupt() error {
	return p.Signal(syscall.SIGINT)
}

// Kill sends SIGKILL to the subprocess.
func (p *Process) Kill() error {
	return p.Signal(syscall.SIGKILL)
}

// CloseInput closes the subprocess's stdin. Many REPLs treat EOF on
// input as a quit request.
func (p *Process) CloseInput() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.stdin.Close()
}

// Runtime returns the duration the subprocess has been running.
// If the subprocess has exited, returns the total runtime.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	return time.Since(p.Started)
}

// waitLoop waits for the subprocess to exit and updates state.
func (p *Process) waitLoop() {
	p.waitOnce.Do(func() {
		err := p.Cmd.Wait()

		p.mu.Lock()
		p.exitErr = err
		p.mu.Unlock()

		exitCode := 0
		state := StateExited

		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
				if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
					state = StateKilled
				}
			} else {
				exitCode = -1
			}
		}

		p.exitCode.Store(int32(exitCode))
		p.state.Store(int32(state))
		close(p.done)
	})
}
