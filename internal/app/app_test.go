package app

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a concurrency-safe output buffer.
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

func waitForOutput(t *testing.T, buf *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("output %q not observed; got %q", want, buf.String())
}

func newTestApp(t *testing.T, input string, opts Options) (*App, *syncBuffer) {
	t.Helper()

	var buf syncBuffer
	opts.Program = "cat"
	opts.Args = []string{}
	opts.Input = strings.NewReader(input)
	opts.Output = &buf
	opts.LogLevel = "error"

	a, err := New(opts)
	if err != nil {
		t.Fatalf("new app failed: %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a, &buf
}

func TestRun_SendsRawLines(t *testing.T) {
	a, buf := newTestApp(t, "x := 1\n", Options{})

	if err := a.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	waitForOutput(t, buf, "x := 1\n")
}

func TestRun_QuitReturnsErrQuit(t *testing.T) {
	a, _ := newTestApp(t, ":quit\n", Options{})

	if err := a.Run(); !errors.Is(err, ErrQuit) {
		t.Errorf("expected ErrQuit, got %v", err)
	}
}

func TestRun_DirectiveForwarded(t *testing.T) {
	a, buf := newTestApp(t, ":import fmt\n", Options{})

	if err := a.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// cat echoes the framed directive back.
	waitForOutput(t, buf, ":import fmt\n")
}

func TestRun_InvalidDirectiveReported(t *testing.T) {
	a, buf := newTestApp(t, ":import fmt strings\n", Options{})

	if err := a.Run(); err != nil {
		t.Fatalf("run should survive a validation failure: %v", err)
	}

	waitForOutput(t, buf, "error:")
}

func TestRun_CompletionHelper(t *testing.T) {
	a, buf := newTestApp(t, ":? imp\n", Options{})

	if err := a.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	waitForOutput(t, buf, "import")
}

func TestShutdown_PersistsHistory(t *testing.T) {
	histPath := filepath.Join(t.TempDir(), "history")
	t.Setenv("GOREBRIDGE_HISTORY_FILE", histPath)

	a, _ := newTestApp(t, "x := 1\n:import fmt\n", Options{})

	if err := a.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	a.Shutdown()

	seeded, err := a.hist.Load()
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(seeded) != 1 || seeded[0] != "x := 1" {
		t.Errorf("expected only the raw command persisted, got %v", seeded)
	}
}

func TestShutdown_ConcurrentCallsRunOnce(t *testing.T) {
	histPath := filepath.Join(t.TempDir(), "history")
	t.Setenv("GOREBRIDGE_HISTORY_FILE", histPath)

	a, _ := newTestApp(t, "x := 1\n", Options{})
	if err := a.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// Signal handler and deferred cleanup may race on Shutdown.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Shutdown()
		}()
	}
	wg.Wait()

	lines, err := a.hist.Load()
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(lines) != 1 || lines[0] != "x := 1" {
		t.Errorf("expected history written exactly once, got %v", lines)
	}
}

func TestInterrupt_NoSession(t *testing.T) {
	a, _ := newTestApp(t, "", Options{})

	if err := a.Interrupt(); err == nil {
		t.Error("expected error before any session exists")
	}
}

func TestRestart(t *testing.T) {
	a, _ := newTestApp(t, "", Options{})

	sess, err := a.Supervisor().EnsureSession("main", a.cfg.LaunchSpec())
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	firstPID := sess.Proc.PID()

	if err := a.Restart(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}

	current, ok := a.Supervisor().Session("main")
	if !ok {
		t.Fatal("expected live session after restart")
	}
	if current.Proc.PID() == firstPID {
		t.Error("expected a fresh subprocess after restart")
	}
}
