package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hirindex/internal/config"
	"hirindex/internal/trace"
)

// setupTracing builds the tracer from the config (already merged with the
// trace flags) and attaches it to the command context. It returns a
// cleanup function and the ring buffer, if the mode keeps one.
func setupTracing(cmd *cobra.Command, cfg config.Config) (func(), *trace.RingTracer, error) {
	tcfg, err := cfg.TracerConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trace config: %w", err)
	}
	ringSize, err := cmd.Flags().GetInt("trace-ring-size")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	tcfg.RingSize = ringSize

	if tcfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil, nil
	}

	tracer, err := trace.New(tcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	var ring *trace.RingTracer
	switch t := tracer.(type) {
	case *trace.RingTracer:
		ring = t
	case *trace.MultiTracer:
		ring, _ = t.Ring()
	}

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, ring, nil
}

// dumpRing writes the buffered trace after an internal compiler error.
func dumpRing(w io.Writer, ring *trace.RingTracer) {
	if ring == nil {
		return
	}
	fmt.Fprintln(w, "trace before the internal compiler error:")
	if err := ring.Dump(w, trace.FormatText); err != nil {
		fmt.Fprintf(w, "trace: dump error: %v\n", err)
	}
}
