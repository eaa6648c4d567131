// Package session tracks named REPL sessions and their subprocesses.
//
// A Session pairs a name with exactly one spawned subprocess and the
// launch configuration it was started from. The Registry enforces the
// core invariant: at most one live session per name at any time. A
// dead session may be silently replaced; a live one may not.
package session

import (
	"errors"
	"sync"

	"github.com/dshills/gorebridge/internal/process"
)

// Sentinel errors for the session package.
var (
	// ErrSessionExists is returned when Put would replace a live session.
	ErrSessionExists = errors.New("live session already registered under this name")
)

// LaunchSpec describes how to start a REPL subprocess.
type LaunchSpec struct {
	// Program is the REPL executable path or name.
	Program string

	// Args are the flags passed to the program.
	Args []string

	// ContextFile, when non-empty, is appended to the argument list as
	// "-context <file>" so the REPL loads it at startup.
	ContextFile string

	// PromptPattern is a regular expression matching one prompt token.
	// Empty selects the default pattern.
	PromptPattern string

	// HistoryFile, when non-empty, is the append-only command history
	// file loaded at session start and appended to at session end.
	HistoryFile string
}

// CommandArgs returns the full argument vector for the subprocess,
// with the context-file flag appended when configured.
func (s LaunchSpec) CommandArgs() []string {
	args := make([]string, 0, len(s.Args)+2)
	args = append(args, s.Args...)
	if s.ContextFile != "" {
		args = append(args, "-context", s.ContextFile)
	}
	return args
}

// Session is one supervised REPL subprocess and its configuration.
// All fields are fixed at creation; liveness is delegated to Proc.
type Session struct {
	// Name is the registry key for this session.
	Name string

	// Proc is the underlying subprocess handle.
	Proc *process.Process

	// Spec is the launch configuration the subprocess was started
	// from, including the prompt pattern and history file.
	Spec LaunchSpec
}

// Live reports whether the session's subprocess is still running.
func (s *Session) Live() bool {
	return s != nil && s.Proc != nil && s.Proc.IsRunning()
}

// Registry tracks at most one live session per name.
//
// All mutation is serialized by an internal mutex; the check-then-act
// spawn path in the supervisor holds its own lock around Get and Put
// for the same name.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Get returns the live session registered under name.
// A dead or missing session yields ok == false.
func (r *Registry) Get(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[name]
	if !ok || !s.Live() {
		return nil, false
	}
	return s, true
}

// Put registers a session under its name.
//
// A missing or dead entry is replaced silently. Replacing a live entry
// is a caller logic error and returns ErrSessionExists.
func (r *Registry) Put(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[s.Name]; ok && existing.Live() {
		return ErrSessionExists
	}
	r.sessions[s.Name] = s
	return nil
}

// Remove deletes the session registered under name, live or not.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, name)
}

// Names returns the names of all registered sessions, live or not.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered sessions, live or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
