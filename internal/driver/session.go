// Package driver runs the indexing pipeline for one crate: it lowers the
// input, indexes every owner in parallel, and persists fingerprints so the
// next run can report what changed.
package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"hirindex/internal/bug"
	"hirindex/internal/config"
	"hirindex/internal/diag"
	"hirindex/internal/hir"
	"hirindex/internal/hirmap"
	"hirindex/internal/lowerfile"
	"hirindex/internal/observ"
	"hirindex/internal/query"
	"hirindex/internal/source"
	"hirindex/internal/trace"
)

var (
	// ErrNoCrate is returned by operations that need a loaded crate.
	ErrNoCrate = errors.New("no crate loaded")
	// ErrUnknownPath is returned when a def path names no definition.
	ErrUnknownPath = errors.New("unknown def path")
)

// Session holds the state of one run. Load a crate before querying it.
type Session struct {
	Config config.Config
	ID     uuid.UUID
	Files  *source.FileSet
	Bag    *diag.Bag
	Timer  *observ.Timer

	// Observer, when set, receives phase boundaries.
	Observer PhaseObserver
	// Progress, when set, receives per-owner indexing events.
	Progress ProgressSink

	rep      *diag.BagReporter
	tracer   trace.Tracer
	rootSpan *trace.Span

	crate *hir.Crate
	q     *query.Ctx
}

// NewSession creates a session. The tracer is taken from ctx.
func NewSession(ctx context.Context, cfg config.Config) *Session {
	s := &Session{
		Config: cfg,
		ID:     uuid.New(),
		Files:  source.NewFileSet(),
		Bag:    diag.NewBag(0),
		Timer:  observ.NewTimer(),
		tracer: trace.FromContext(ctx),
	}
	s.rep = &diag.BagReporter{Bag: s.Bag}
	s.rootSpan = trace.Begin(s.tracer, trace.ScopeSession, "session", trace.CurrentSpan(ctx)).
		WithExtra("id", s.ID.String())
	return s
}

// Close ends the session span.
func (s *Session) Close() {
	s.rootSpan.End("")
}

// Crate returns the loaded crate, or nil.
func (s *Session) Crate() *hir.Crate { return s.crate }

// Query returns the query context of the loaded crate, or nil.
func (s *Session) Query() *query.Ctx { return s.q }

// Map returns the HIR map over the loaded crate.
func (s *Session) Map() hirmap.Map { return hirmap.New(s.q) }

// LoadCrate lowers the fixture at path.
func (s *Session) LoadCrate(ctx context.Context, path string) error {
	done := s.phase("load")
	crate, err := lowerfile.LowerFile(s.Files, path, s.rep)
	if err != nil {
		done(0)
		return fmt.Errorf("%s: %w", path, err)
	}
	s.setCrate(ctx, crate)
	done(len(crate.OwnerDefs()))
	return nil
}

// LoadSource lowers content registered under name.
func (s *Session) LoadSource(ctx context.Context, name string, content []byte) error {
	done := s.phase("load")
	crate, err := lowerfile.LowerSource(s.Files, name, content, s.rep)
	if err != nil {
		done(0)
		return fmt.Errorf("%s: %w", name, err)
	}
	s.setCrate(ctx, crate)
	done(len(crate.OwnerDefs()))
	return nil
}

func (s *Session) setCrate(ctx context.Context, crate *hir.Crate) {
	p := &query.Providers{}
	hirmap.Provide(p)
	hcx := crate.HashingContext(s.Config.Hashing.Spans, s.Config.PathRemaps())
	qctx := trace.WithSpan(trace.WithTracer(ctx, s.tracer), s.rootSpan)
	s.crate = crate
	s.q = query.NewCtx(qctx, p, crate, hcx)
}

// Resolve looks up a def path such as "demo::geo::Point".
func (s *Session) Resolve(path string) (hir.DefID, error) {
	if s.crate == nil {
		return 0, ErrNoCrate
	}
	def, ok := s.crate.Defs.Lookup(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	return def, nil
}

// Guard runs fn and turns an ICE it raises into an error. The ICE is also
// recorded in the session bag.
func (s *Session) Guard(fn func()) error {
	if s.crate == nil {
		return ErrNoCrate
	}
	if ice := bug.Catch(fn); ice != nil {
		s.ReportICE(ice)
		return ice
	}
	return nil
}

// ReportICE records ice in the session bag.
func (s *Session) ReportICE(ice *bug.ICE) {
	d := diag.NewError(diag.InternalCompilerError, ice.Span, ice.Message)
	for _, f := range ice.Frames {
		d = d.WithNote(source.DummySpan, "while computing "+f)
	}
	s.rep.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	trace.Point(s.tracer, trace.ScopeSession, "ice", ice.Message, s.rootSpan.ID())
}
