// Package complete offers candidate completions for REPL directive input.
//
// Completion triggers only when the cursor sits immediately after the
// directive marker at the start of an input line. The base candidate
// set is the fixed directive keyword list; a Provider may additionally
// be seeded with candidates mined from session history.
package complete

import (
	"sort"
	"strings"

	"github.com/dshills/gorebridge/internal/command"
)

// keywords is the fixed directive keyword set, in display order.
var keywords = []string{
	command.DirectiveHelp,
	command.DirectiveImport,
	command.DirectiveType,
	command.DirectivePrint,
	command.DirectiveWrite,
	command.DirectiveClear,
	command.DirectiveDoc,
	command.DirectiveQuit,
}

// Keywords returns the fixed directive keyword set.
// The returned slice is a copy and may be modified by the caller.
func Keywords() []string {
	out := make([]string, len(keywords))
	copy(out, keywords)
	return out
}

// Provider computes completions over the keyword set plus optional
// history-derived candidates.
type Provider struct {
	extra []string
}

// NewProvider creates a completion provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Seed adds history-derived candidates to the provider.
// Duplicates of built-in keywords are ignored.
func (p *Provider) Seed(candidates []string) {
	known := make(map[string]bool, len(keywords)+len(p.extra))
	for _, k := range keywords {
		known[k] = true
	}
	for _, k := range p.extra {
		known[k] = true
	}

	for _, c := range candidates {
		if c == "" || known[c] {
			continue
		}
		known[c] = true
		p.extra = append(p.extra, c)
	}
}

// Complete returns the keywords starting with prefix, sorted.
// An empty prefix matches every keyword.
func (p *Provider) Complete(prefix string) []string {
	var out []string
	for _, k := range keywords {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	for _, k := range p.extra {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// CompleteLine completes an input line.
//
// It returns candidates only when the line is the directive marker
// followed by a partial keyword with no intervening text before the
// marker; anything else returns nil.
func (p *Provider) CompleteLine(line string) []string {
	if !strings.HasPrefix(line, command.Marker) {
		return nil
	}

	prefix := line[len(command.Marker):]
	if containsSpace(prefix) {
		return nil
	}

	return p.Complete(prefix)
}

func containsSpace(s string) bool {
	return strings.ContainsAny(s, " \t")
}
