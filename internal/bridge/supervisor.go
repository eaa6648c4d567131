package bridge

import (
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/gorebridge/internal/command"
	"github.com/dshills/gorebridge/internal/logging"
	"github.com/dshills/gorebridge/internal/normalize"
	"github.com/dshills/gorebridge/internal/process"
	"github.com/dshills/gorebridge/internal/session"
)

// DefaultGracePeriod is how long RestartSession waits after delivering
// the quit directive before spawning the replacement subprocess.
const DefaultGracePeriod = 500 * time.Millisecond

// defaultReadBufferSize is the per-stream read buffer for output pumps.
const defaultReadBufferSize = 4096

// Supervisor owns REPL subprocess lifecycle for named sessions.
//
// It resolves or spawns sessions through a Registry, frames commands
// onto each subprocess's input, and pumps normalized output to the
// caller-supplied Sink. Supervisor is safe for concurrent use.
type Supervisor struct {
	// mu serializes the check-then-spawn path so concurrent
	// EnsureSession calls for the same name cannot double-spawn.
	mu sync.Mutex

	registry *session.Registry
	sink     Sink
	log      *logging.Logger

	gracePeriod time.Duration
	readBufSize int

	closed atomic.Bool

	// wg tracks per-session pump goroutines for Close.
	wg sync.WaitGroup
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithGracePeriod sets the restart grace period.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.gracePeriod = d
		}
	}
}

// WithLogger sets the supervisor's logger.
func WithLogger(log *logging.Logger) Option {
	return func(s *Supervisor) {
		if log != nil {
			s.log = log.WithComponent("bridge")
		}
	}
}

// WithReadBufferSize sets the per-stream output read buffer size.
func WithReadBufferSize(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.readBufSize = n
		}
	}
}

// NewSupervisor creates a supervisor writing session output to sink.
func NewSupervisor(registry *session.Registry, sink Sink, opts ...Option) *Supervisor {
	s := &Supervisor{
		registry:    registry,
		sink:        sink,
		log:         logging.Discard(),
		gracePeriod: DefaultGracePeriod,
		readBufSize: defaultReadBufferSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// EnsureSession returns the live session named name, spawning one from
// spec when none exists. The check-then-spawn is atomic with respect
// to concurrent calls, so two callers racing on the same name observe
// the same subprocess.
func (s *Supervisor) EnsureSession(name string, spec session.LaunchSpec) (*session.Session, error) {
	if s.closed.Load() {
		return nil, ErrSupervisorClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.registry.Get(name); ok {
		return sess, nil
	}

	return s.spawnLocked(name, spec)
}

// RestartSession quits the current session named name, waits the grace
// period, and unconditionally spawns a fresh session from spec.
//
// The quit is best-effort: delivery failure (or no live session) skips
// straight to spawn. The grace period is a fixed delay, not a wait for
// process exit; a stubborn subprocess may outlive the restart but is
// no longer reachable through the registry.
func (s *Supervisor) RestartSession(name string, spec session.LaunchSpec) (*session.Session, error) {
	if s.closed.Load() {
		return nil, ErrSupervisorClosed
	}

	if old, ok := s.registry.Get(name); ok {
		if err := old.Proc.WriteLine(command.Quit()); err != nil {
			s.log.Debug("quit delivery failed for %q: %v", name, err)
		} else {
			time.Sleep(s.gracePeriod)
		}

		// The old subprocess is discarded either way; reclaim it when
		// it ignores the quit directive, otherwise its pump and reap
		// goroutines would outlive the registry entry.
		_ = old.Proc.CloseInput()
		if old.Proc.IsRunning() {
			_ = old.Proc.Kill()
			s.log.Warn("session %q ignored quit; killed pid=%d", name, old.Proc.PID())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.Remove(name)
	return s.spawnLocked(name, spec)
}

// Send writes text plus a line terminator to the named session's
// input. When echo is true the text is mirrored to the Sink before
// transmission. Returns ErrNoSession when no live session exists.
//
// The frame is a single write: a failed send never partially reaches
// the subprocess.
func (s *Supervisor) Send(name, text string, echo bool) error {
	sess, ok := s.registry.Get(name)
	if !ok {
		return ErrNoSession
	}

	if echo {
		s.sink.Write(text + "\n")
	}

	return sess.Proc.WriteLine(text)
}

// SendDirective validates and frames a REPL directive, then sends it
// silently. A ValidationError is returned before any I/O occurs.
func (s *Supervisor) SendDirective(name, directive, arg string) error {
	text, err := command.FrameDirective(directive, arg)
	if err != nil {
		return err
	}
	return s.Send(name, text, false)
}

// SendRegion sends selected source text verbatim, unechoed.
func (s *Supervisor) SendRegion(name, text string) error {
	return s.Send(name, command.FrameRegion(text), false)
}

// Terminate delivers the quit directive to the named session.
//
// It does not kill the subprocess; the REPL is expected to honor its
// own quit directive. The registry entry is reaped once the process
// exits. Returns ErrNoSession when no live session exists.
func (s *Supervisor) Terminate(name string) error {
	sess, ok := s.registry.Get(name)
	if !ok {
		return ErrNoSession
	}
	return sess.Proc.WriteLine(command.Quit())
}

// Interrupt forwards an interrupt signal to the named session's
// subprocess so the REPL cancels its current evaluation. The session
// itself stays registered. Returns ErrNoSession when no live session
// exists.
func (s *Supervisor) Interrupt(name string) error {
	sess, ok := s.registry.Get(name)
	if !ok {
		return ErrNoSession
	}
	return sess.Proc.Interrupt()
}

// Session returns the live session registered under name.
func (s *Supervisor) Session(name string) (*session.Session, bool) {
	return s.registry.Get(name)
}

// Close quits every session, waits up to timeout for subprocesses to
// exit, and kills the stragglers. The wait for output pumps to drain
// is bounded by the same timeout, so Close always returns. Further
// supervisor calls return ErrSupervisorClosed.
func (s *Supervisor) Close(timeout time.Duration) {
	if s.closed.Swap(true) {
		return
	}

	// The sweep holds the spawn lock so a racing EnsureSession cannot
	// register a session behind it.
	s.mu.Lock()
	var procs []*process.Process
	for _, name := range s.registry.Names() {
		sess, ok := s.registry.Get(name)
		if !ok {
			s.registry.Remove(name)
			continue
		}
		if err := sess.Proc.WriteLine(command.Quit()); err != nil {
			s.log.Debug("quit delivery failed for %q: %v", name, err)
		}
		_ = sess.Proc.CloseInput()
		procs = append(procs, sess.Proc)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, p := range procs {
			<-p.Done()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		for _, p := range procs {
			if p.IsRunning() {
				_ = p.Kill()
			}
		}
		<-done
	}

	// Pumps drain to EOF once their processes die; bound the wait so a
	// wedged stream cannot hang shutdown.
	pumps := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(pumps)
	}()
	select {
	case <-pumps:
	case <-time.After(timeout):
		s.log.Warn("output pumps still draining at close")
	}
}

// spawnLocked launches a subprocess for name and registers the new
// session. Caller must hold s.mu.
func (s *Supervisor) spawnLocked(name string, spec session.LaunchSpec) (*session.Session, error) {
	// Re-checked under the lock: Close may have swept between the
	// caller's fast-path check and lock acquisition.
	if s.closed.Load() {
		return nil, ErrSupervisorClosed
	}

	norm, err := normalize.New(spec.PromptPattern)
	if err != nil {
		return nil, err
	}

	path, err := exec.LookPath(spec.Program)
	if err != nil {
		return nil, &SpawnError{Program: spec.Program, Err: err}
	}

	proc, err := process.Spawn(exec.Command(path, spec.CommandArgs()...))
	if err != nil {
		return nil, &SpawnError{Program: spec.Program, Err: err}
	}

	sess := &session.Session{
		Name: name,
		Proc: proc,
		Spec: spec,
	}

	if err := s.registry.Put(sess); err != nil {
		// Registry invariant violated; do not leak the child.
		_ = proc.Kill()
		return nil, err
	}

	s.log.Info("session %q started: %s pid=%d", name, spec.Program, proc.PID())

	pump := &outputPump{
		sink:    s.sink,
		norm:    norm,
		bufSize: s.readBufSize,
	}
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		pump.run(proc.Stdout)
	}()
	go func() {
		defer s.wg.Done()
		pump.run(proc.Stderr)
	}()

	go s.reap(sess)

	return sess, nil
}

// reap removes the session from the registry once its process exits,
// unless a replacement has already been registered under the name.
func (s *Supervisor) reap(sess *session.Session) {
	<-sess.Proc.Done()

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.registry.Get(sess.Name); ok && current != sess {
		return
	}
	s.registry.Remove(sess.Name)
	s.log.Info("session %q exited: code=%d runtime=%s",
		sess.Name, sess.Proc.ExitCode(), sess.Proc.Runtime().Round(time.Millisecond))
	if err := sess.Proc.ExitError(); err != nil {
		s.log.Debug("session %q wait: %v", sess.Name, err)
	}
}

// outputPump moves one session's output to the sink in arrival order.
type outputPump struct {
	// mu serializes the read-state/write pair across the stdout and
	// stderr pumps so the at-line-start fact stays consistent.
	mu      sync.Mutex
	sink    Sink
	norm    *normalize.Normalizer
	bufSize int
}

// run reads r until EOF, normalizing each chunk before display.
func (p *outputPump) run(r io.Reader) {
	buf := make([]byte, p.bufSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			p.emit(string(buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

// emit normalizes one chunk against the current display position and
// writes it.
func (p *outputPump) emit(chunk string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.norm.Normalize(chunk, p.sink.AtLineStart())
	p.sink.Write(out)
}
