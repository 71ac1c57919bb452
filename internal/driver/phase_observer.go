package driver

import (
	"time"

	"hirindex/internal/trace"
)

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a driver phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a phase boundary. Count is set on PhaseEnd.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	Count   int
}

// PhaseObserver receives phase events emitted by the session.
type PhaseObserver func(PhaseEvent)

// phase starts a timed, traced phase and returns the function that ends it.
func (s *Session) phase(name string) func(count int) {
	start := time.Now()
	endTimer := s.Timer.Begin(name)
	span := trace.Begin(s.tracer, trace.ScopePass, name, s.rootSpan.ID())
	if s.Observer != nil {
		s.Observer(PhaseEvent{Name: name, Status: PhaseStart})
	}
	return func(count int) {
		endTimer(count)
		span.End("")
		if s.Observer != nil {
			s.Observer(PhaseEvent{Name: name, Status: PhaseEnd, Elapsed: time.Since(start), Count: count})
		}
	}
}
