// Package trace is the logging layer of hirindex.
//
// Events are grouped into spans and tagged with a scope:
//
//   - ScopeSession: CLI command and driver operations
//   - ScopePass: whole-crate passes (lowering, indexing, partitioning)
//   - ScopeQuery: one provider computation in the query engine
//   - ScopeOwner: per-owner indexing work
//
// Verbosity is chosen by Level. LevelPhase shows session and pass spans,
// LevelDetail adds queries, LevelDebug shows everything.
//
// Tracers are attached to a context.Context with WithTracer and recovered
// with FromContext; code that has no tracer gets Nop, which costs nothing.
//
//	hirindex index --trace=- --trace-level=detail crate.yaml
package trace
