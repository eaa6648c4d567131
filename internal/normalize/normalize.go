// Package normalize cleans REPL output chunks before display.
//
// When several commands are pipelined into a REPL before it has printed
// any intervening output, the prompt token accumulates: the subprocess
// emits runs like "gore> gore> gore> x=1". The Normalizer collapses
// such runs down to the single trailing token and re-synchronizes a
// chunk that starts with a prompt onto a fresh line.
//
// The Normalizer is stateless across chunks. The one piece of display
// state it needs, whether the write position is at the start of a line,
// is supplied by the caller on every chunk.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPromptPattern matches the gore REPL's ready prompt.
const DefaultPromptPattern = `gore> `

// Normalizer rewrites raw output chunks for display.
type Normalizer struct {
	// startRe matches a single prompt token anchored at position zero.
	startRe *regexp.Regexp
}

// New creates a Normalizer for the given prompt pattern.
// The pattern is a regular expression matching one prompt token.
func New(pattern string) (*Normalizer, error) {
	if pattern == "" {
		pattern = DefaultPromptPattern
	}

	startRe, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile prompt pattern %q: %w", pattern, err)
	}

	return &Normalizer{startRe: startRe}, nil
}

// MustNew is like New but panics on an invalid pattern.
// Intended for compile-time-constant patterns.
func MustNew(pattern string) *Normalizer {
	n, err := New(pattern)
	if err != nil {
		panic(err)
	}
	return n
}

// Normalize transforms one output chunk into display text.
//
// atLineStart reports whether the display's current write position is
// at the beginning of a line. An empty chunk is returned unchanged.
func (n *Normalizer) Normalize(chunk string, atLineStart bool) string {
	if chunk == "" {
		return ""
	}

	lines := strings.Split(chunk, "\n")
	for i, line := range lines {
		lines[i] = n.collapseLine(line)
	}
	out := strings.Join(lines, "\n")

	// A chunk that opens with a prompt must not glue onto the tail of
	// the previous line's output.
	if !atLineStart && n.startRe.MatchString(out) {
		out = "\n" + out
	}

	return out
}

// collapseLine reduces a leading run of prompt tokens to its last token.
func (n *Normalizer) collapseLine(line string) string {
	for {
		loc := n.startRe.FindStringIndex(line)
		if loc == nil || loc[1] == 0 {
			return line
		}
		rest := line[loc[1]:]
		if !n.startRe.MatchString(rest) {
			return line
		}
		line = rest
	}
}
