package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"strbuf/internal/config"
	"strbuf/internal/mem"
	"strbuf/internal/observ"
	"strbuf/internal/prof"
	"strbuf/internal/strbuf"
	"strbuf/internal/trace"
)

// session holds what every command shares: resolved configuration, the
// tracer, the root span and the optional timer.
type session struct {
	cfg       config.Config
	failAfter int
	color     bool

	tracer trace.Tracer
	span   *trace.Span
	timer  *observ.Timer
	prof   *prof.Session
}

var active *session

// openSession resolves configuration and tracing before any command runs.
func openSession(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s := &session{cfg: cfg, tracer: trace.Nop}

	flags := cmd.Root().PersistentFlags()
	if s.failAfter, err = flags.GetInt("fail-after"); err != nil {
		return fmt.Errorf("failed to get fail-after flag: %w", err)
	}
	if s.color, err = colorEnabled(cmd); err != nil {
		return err
	}
	color.NoColor = !s.color

	timings, err := flags.GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	if timings {
		s.timer = observ.NewTimer()
	}

	var paths prof.Paths
	for flag, dst := range map[string]*string{
		"cpu-profile":   &paths.CPU,
		"mem-profile":   &paths.Mem,
		"runtime-trace": &paths.Trace,
	} {
		if *dst, err = flags.GetString(flag); err != nil {
			return fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
	}
	if s.prof, err = prof.Start(paths); err != nil {
		return err
	}

	if err := s.setupTracing(cmd); err != nil {
		_ = s.prof.Stop()
		return err
	}
	s.span = trace.Begin(s.tracer, trace.ScopeCommand, cmd.Name(), 0)
	active = s
	return nil
}

// closeSession ends the command span, prints timings, stops profiles and
// flushes the tracer.
// A failed command also gets the ring buffer dumped, if there is one.
func closeSession(cmd *cobra.Command, cmdErr error) error {
	s := active
	if s == nil {
		return nil
	}
	active = nil
	if cmdErr != nil {
		s.span.WithExtra("code", strbuf.CodeOf(cmdErr).String()).End("failed")
		s.dumpRing(cmd)
	} else {
		s.span.End("")
	}
	if s.timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
	}
	return errors.Join(s.prof.Stop(), s.tracer.Flush(), s.tracer.Close())
}

func currentSession() *session {
	if active == nil {
		return &session{cfg: config.Default(), failAfter: -1, tracer: trace.Nop}
	}
	return active
}

// loadConfig reads strbuf.toml (explicit or discovered) and applies the
// flags the user set on top of it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return config.Config{}, err
	}

	for _, o := range []struct {
		flag string
		dst  *int
	}{
		{"chunk", &cfg.Heap.Chunk},
		{"max-length", &cfg.Heap.MaxLength},
		{"max-bytes", &cfg.Heap.MaxBytes},
	} {
		if !flags.Changed(o.flag) {
			continue
		}
		if *o.dst, err = flags.GetInt(o.flag); err != nil {
			return config.Config{}, fmt.Errorf("failed to get %s flag: %w", o.flag, err)
		}
	}
	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{"allocator", &cfg.Heap.Allocator},
		{"trace", &cfg.Trace.Output},
		{"trace-level", &cfg.Trace.Level},
		{"trace-mode", &cfg.Trace.Mode},
	} {
		if !flags.Changed(o.flag) {
			continue
		}
		v, err := flags.GetString(o.flag)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to get %s flag: %w", o.flag, err)
		}
		*o.dst = strings.ToLower(strings.TrimSpace(v))
	}
	// an explicit trace file without a level means "trace operations"
	if flags.Changed("trace") && !flags.Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "op"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func colorEnabled(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(mode) {
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	case "auto", "":
		return isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("invalid color mode %q (expected auto|on|off)", mode)
	}
}

// newHeap builds a heap from the session settings. Each call gets its own
// allocator stack: base allocator, optional byte budget, optional fault
// injection.
func (s *session) newHeap() *strbuf.Heap {
	var a mem.Allocator
	switch s.cfg.Heap.Allocator {
	case config.AllocatorMmap:
		a = mem.NewMmap()
	default:
		a = mem.NewGoHeap()
	}
	if s.cfg.Heap.MaxBytes > 0 {
		a = mem.NewBudget(a, s.cfg.Heap.MaxBytes)
	}
	if s.failAfter >= 0 {
		a = mem.NewFaults(a).FailAfter(s.failAfter)
	}
	return strbuf.NewHeap(
		strbuf.WithAllocator(a),
		strbuf.WithChunk(s.cfg.Heap.Chunk),
		strbuf.WithMaxLength(s.cfg.Heap.MaxLength),
		strbuf.WithTracer(s.tracer),
	)
}

// withHeap runs fn on a fresh heap and reports strings fn leaked.
func (s *session) withHeap(fn func(h *strbuf.Heap) error) error {
	h := s.newHeap()
	err := fn(h)
	if cerr := h.Close(); cerr != nil && err == nil {
		return cerr
	}
	return err
}

// phase times fn when --timings is set.
func (s *session) phase(name string, fn func() error) error {
	idx := s.timer.Begin(name)
	err := fn()
	note := ""
	if err != nil {
		note = "failed"
	}
	s.timer.End(idx, note)
	return err
}
