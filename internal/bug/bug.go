// Package bug reports internal compiler errors.
//
// An ICE means the compiler found its own data in a shape that cannot happen
// for well-formed input: an indexing invariant broke, or a provider reached a
// node kind it does not handle. ICEs are raised by panicking with *ICE and are
// never retried, since the inputs are immutable and retrying cannot change the
// outcome. The driver recovers them with Catch and reports them separately
// from user errors.
package bug

import (
	"fmt"
	"strings"

	"hirindex/internal/source"
)

// ICE carries the diagnostic context of an internal compiler error.
type ICE struct {
	Span    source.Span
	Message string
	// Frames lists the queries that were executing, innermost first.
	Frames []string
}

func (e *ICE) Error() string {
	var sb strings.Builder
	sb.WriteString("internal compiler error: ")
	if !e.Span.IsDummy() {
		sb.WriteString(e.Span.String())
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	for _, f := range e.Frames {
		sb.WriteString("\n  while computing ")
		sb.WriteString(f)
	}
	return sb.String()
}

// Bugf panics with an ICE that has no source location.
func Bugf(format string, args ...any) {
	panic(&ICE{Span: source.DummySpan, Message: fmt.Sprintf(format, args...)})
}

// SpanBugf panics with an ICE pointing at sp.
func SpanBugf(sp source.Span, format string, args ...any) {
	panic(&ICE{Span: sp, Message: fmt.Sprintf(format, args...)})
}

// WithFrame runs fn and, if it raises an ICE, appends frame to the ICE's query
// stack before re-raising. Other panics pass through untouched.
func WithFrame(frame string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if ice, ok := asICE(r); ok {
				// the ICE may be shared with other waiters of the same query
				frames := make([]string, 0, len(ice.Frames)+1)
				frames = append(frames, ice.Frames...)
				panic(&ICE{Span: ice.Span, Message: ice.Message, Frames: append(frames, frame)})
			}
			panic(r)
		}
	}()
	fn()
}

// Catch runs fn and returns the ICE it raised, if any.
// Panics that are not ICEs are re-raised.
func Catch(fn func()) (ice *ICE) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := asICE(r); ok {
			ice = e
			return
		}
		panic(r)
	}()
	fn()
	return nil
}

// asICE unwraps values that carry an ICE. singleflight re-raises panics from
// shared computations wrapped in its own error type, which unwraps to the
// original value.
func asICE(r any) (*ICE, bool) {
	switch v := r.(type) {
	case *ICE:
		return v, true
	case interface{ Unwrap() error }:
		if e, ok := v.Unwrap().(*ICE); ok {
			return e, true
		}
	}
	return nil, false
}
