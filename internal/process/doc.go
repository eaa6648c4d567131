// Package process wraps a spawned REPL subprocess with lifecycle tracking.
//
// Each Process owns an exec.Cmd whose stdin, stdout, and stderr are
// piped. Input is line-oriented: WriteLine frames one command per call
// as a single atomic write. A background goroutine reaps the child and
// records its exit state; Done() signals completion.
//
//	cmd := exec.Command("gore", "-autoimport")
//	proc, err := process.Spawn(cmd)
//	if err != nil {
//	    return err
//	}
//
//	proc.WriteLine("x := 1")
//	<-proc.Done()
//	fmt.Printf("exit code: %d\n", proc.ExitCode())
//
// # Thread Safety
//
// Process is safe for concurrent use. Concurrent WriteLine calls are
// serialized so frames never interleave.
package process
