package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"strbuf/internal/trace"
)

// setupTracing creates the tracer described by the session configuration
// and attaches it to the command context.
func (s *session) setupTracing(cmd *cobra.Command) error {
	level, err := trace.ParseLevel(s.cfg.Trace.Level)
	if err != nil {
		return fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}

	mode, err := trace.ParseMode(s.cfg.Trace.Mode)
	if err != nil {
		return fmt.Errorf("invalid trace mode: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: s.cfg.Trace.Output,
		RingSize:   s.cfg.Trace.RingSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	s.tracer = tracer
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return nil
}

// dumpRing writes the in-memory trace to stderr after a failure when the
// tracer keeps one.
func (s *session) dumpRing(cmd *cobra.Command) {
	var ring *trace.RingTracer
	switch t := s.tracer.(type) {
	case *trace.RingTracer:
		ring = t
	case *trace.MultiTracer:
		ring = t.Ring()
	}
	if ring == nil {
		return
	}
	if err := ring.Dump(cmd.ErrOrStderr(), trace.FormatText); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
	}
}
