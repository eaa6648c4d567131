// Package bridge supervises external REPL subprocesses for named sessions.
//
// The bridge is the core of the session layer. It owns:
//
//   - Session resolution: EnsureSession returns the live session for a
//     name or spawns a fresh subprocess from a LaunchSpec
//   - Command dispatch: Send, SendDirective, and SendRegion frame text
//     onto the subprocess's input as atomic line writes
//   - Restart sequencing: RestartSession quits, waits a fixed grace
//     period, and respawns under the same name
//   - Output delivery: one pump per output stream normalizes chunks
//     (prompt-run collapse, newline resync) and writes them to the
//     caller-supplied Sink in arrival order
//
// # Usage
//
//	registry := session.NewRegistry()
//	sink := bridge.NewWriterSink(os.Stdout)
//	sup := bridge.NewSupervisor(registry, sink)
//	defer sup.Close(5 * time.Second)
//
//	spec := session.LaunchSpec{Program: "gore", Args: []string{"-autoimport"}}
//	if _, err := sup.EnsureSession("main", spec); err != nil {
//	    return err
//	}
//	sup.Send("main", "x := 1", false)
//	sup.SendDirective("main", command.DirectiveImport, "fmt")
//
// # Error Handling
//
// Spawn failures surface as *SpawnError and are never retried.
// Operations that need a live session return ErrNoSession. Directive
// validation failures are returned before any byte reaches the
// subprocess. The supervisor never restarts a session on its own; a
// restart is always an explicit caller decision.
//
// # Thread Safety
//
// Supervisor is safe for concurrent use. The check-then-spawn path is
// atomic per supervisor, so concurrent EnsureSession calls for one
// name resolve to a single subprocess.
package bridge
