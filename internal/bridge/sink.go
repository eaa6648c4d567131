package bridge

import (
	"io"
	"strings"
	"sync"
)

// Sink is the display capability handed to the supervisor by its
// caller. Output reaches the display only through this interface; the
// supervisor never infers a destination from ambient state.
type Sink interface {
	// Write appends text to the display.
	Write(text string)

	// AtLineStart reports whether the display's current write position
	// is at the beginning of a line.
	AtLineStart() bool
}

// WriterSink adapts an io.Writer into a Sink, tracking the
// at-line-start fact from the bytes it has written. A fresh WriterSink
// starts at the beginning of a line.
//
// WriterSink is safe for concurrent use.
type WriterSink struct {
	mu      sync.Mutex
	w       io.Writer
	midLine bool
}

// NewWriterSink creates a Sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Write appends text to the underlying writer.
// Write errors are ignored; the display is best-effort.
func (s *WriterSink) Write(text string) {
	if text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = io.WriteString(s.w, text)
	s.midLine = !strings.HasSuffix(text, "\n")
}

// AtLineStart reports whether the last written byte ended a line.
func (s *WriterSink) AtLineStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.midLine
}
