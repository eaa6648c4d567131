// Package command builds the literal text sent to an external REPL.
//
// The command package maps validated user intent onto the REPL's wire
// form: raw source text is forwarded verbatim, while structured
// directives are framed as ":<keyword> [<argument>]". Validation happens
// before any I/O so a rejected command never reaches the subprocess.
package command

import (
	"fmt"
	"strings"
	"unicode"
)

// Marker is the prefix the external REPL uses to recognize directives.
const Marker = ":"

// Directive names understood by the external REPL.
const (
	DirectiveHelp   = "help"
	DirectiveImport = "import"
	DirectiveType   = "type"
	DirectivePrint  = "print"
	DirectiveWrite  = "write"
	DirectiveClear  = "clear"
	DirectiveDoc    = "doc"
	DirectiveQuit   = "quit"
)

// singleToken lists directives whose argument must be a single token.
var singleToken = map[string]bool{
	DirectiveImport: true,
	DirectiveWrite:  true,
}

// ValidationError reports a directive argument that violates a framing rule.
type ValidationError struct {
	// Directive is the directive name being framed.
	Directive string

	// Arg is the offending argument.
	Arg string

	// Reason describes the violated rule.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q for directive %q: %s", e.Arg, e.Directive, e.Reason)
}

// FrameDirective produces the wire form of a REPL directive.
//
// The result is Marker + name, followed by a single space and the
// argument when the argument is non-empty. Directives that take a
// single token (import, write) reject arguments containing whitespace.
func FrameDirective(name, arg string) (string, error) {
	if arg == "" {
		return Marker + name, nil
	}

	if singleToken[name] && containsSpace(arg) {
		return "", &ValidationError{
			Directive: name,
			Arg:       arg,
			Reason:    "argument must be a single token",
		}
	}

	return Marker + name + " " + arg, nil
}

// FrameRegion returns the selected source text exactly as given.
//
// No trimming or re-indentation is applied; the external REPL owns
// parsing of the region.
func FrameRegion(text string) string {
	return text
}

// Quit returns the framed quit directive.
func Quit() string {
	return Marker + DirectiveQuit
}

// containsSpace reports whether s contains any whitespace rune.
func containsSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
