// Package diag defines the diagnostic model shared by the lowering adapter,
// the driver and the CLI.
//
// Diagnostic is the central record: Severity, a compact numeric Code with a
// stable string form, a short Message, a Primary span and optional Notes.
// Producers emit through a Reporter; BagReporter collects into a Bag which
// supports sorting, deduplication and merging.
//
// Internal compiler errors raised by the HIR core (see internal/bug) are turned
// into diagnostics with the InternalCompilerError code by the driver. They are
// kept apart from ordinary user errors: a user error is a problem in the input,
// an ICE is a bug in the compiler.
package diag
