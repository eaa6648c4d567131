// Package history persists raw REPL commands to an append-only file.
//
// The history file is line-oriented: one previously sent raw command
// per line. Directive lines (those beginning with the directive marker)
// are never persisted; they are structured instructions to the REPL
// rather than source text worth recalling.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/gorebridge/internal/command"
)

// History reads and appends a session's command history file.
type History struct {
	path string
}

// New creates a History backed by the given file path.
// The file need not exist yet.
func New(path string) *History {
	return &History{path: path}
}

// Path returns the backing file path.
func (h *History) Path() string {
	return h.path
}

// Load reads all persisted commands in file order.
// A missing file yields an empty history, not an error.
func (h *History) Load() ([]string, error) {
	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history %s: %w", h.path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history %s: %w", h.path, err)
	}

	return lines, nil
}

// Append writes the given commands to the end of the history file,
// creating it (and its parent directory) if needed. Lines beginning
// with the directive marker are skipped.
func (h *History) Append(lines []string) error {
	kept := lines[:0:0]
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, command.Marker) {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return nil
	}

	if dir := filepath.Dir(h.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history %s: %w", h.path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, line := range kept {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	if _, err := f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("append history %s: %w", h.path, err)
	}

	return nil
}

// Candidates returns up to limit unique commands, most recent first,
// for seeding completion. A limit of 0 means no limit.
func (h *History) Candidates(limit int) ([]string, error) {
	lines, err := h.Load()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(lines))
	var out []string
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out, nil
}
