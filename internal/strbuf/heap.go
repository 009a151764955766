package strbuf

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"

	"strbuf/internal/mem"
	"strbuf/internal/trace"
)

const (
	// DefaultChunk is the allocation granularity of owned storage, in elements.
	DefaultChunk = 32
	// MaxLength is the largest length the 16-bit length field can hold.
	MaxLength = 65535
)

// Heap creates strings and owns the allocator their storage comes from.
// A Heap and the strings it created are not safe for concurrent use.
type Heap struct {
	alloc  mem.Allocator
	chunk  int
	maxLen int
	tracer trace.Tracer

	live map[*String]struct{}
}

// Option configures a Heap.
type Option func(*Heap)

// WithAllocator sets the storage allocator. The default is a Go heap allocator.
func WithAllocator(a mem.Allocator) Option {
	return func(h *Heap) {
		if a != nil {
			h.alloc = a
		}
	}
}

// WithChunk sets the allocation granularity. Values < 1 keep the default.
func WithChunk(n int) Option {
	return func(h *Heap) {
		if n > 0 && n <= MaxLength+1 {
			h.chunk = n
		}
	}
}

// WithMaxLength lowers the longest length any string may reach.
// It can not be raised past MaxLength.
func WithMaxLength(n int) Option {
	return func(h *Heap) {
		if n >= 0 && n <= MaxLength {
			h.maxLen = n
		}
	}
}

// WithTracer routes heap and operation events to t.
func WithTracer(t trace.Tracer) Option {
	return func(h *Heap) {
		if t != nil {
			h.tracer = t
		}
	}
}

// NewHeap returns a heap configured by opts.
func NewHeap(opts ...Option) *Heap {
	h := &Heap{
		chunk:  DefaultChunk,
		maxLen: MaxLength,
		tracer: trace.Nop,
		live:   make(map[*String]struct{}, 16),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.alloc == nil {
		h.alloc = mem.NewGoHeap()
	}
	return h
}

var (
	defaultHeap     *Heap
	defaultHeapOnce sync.Once
)

// Default returns a shared Go heap backed Heap. Like every Heap it must not
// be used from several goroutines at once.
func Default() *Heap {
	defaultHeapOnce.Do(func() {
		defaultHeap = NewHeap()
	})
	return defaultHeap
}

// Chunk returns the allocation granularity.
func (h *Heap) Chunk() int { return h.chunk }

// MaxLength returns the longest length a string may reach on this heap.
func (h *Heap) MaxLength() int { return h.maxLen }

// Allocator returns the storage allocator.
func (h *Heap) Allocator() mem.Allocator { return h.alloc }

// Live returns how many strings were created and not yet destroyed.
func (h *Heap) Live() int { return len(h.live) }

// Stats returns allocator counters when the allocator keeps them.
func (h *Heap) Stats() mem.Stats {
	if r, ok := h.alloc.(mem.StatsReporter); ok {
		return r.Stats()
	}
	return mem.Stats{}
}

// CheckLeaks reports strings that were never destroyed.
func (h *Heap) CheckLeaks() error {
	if len(h.live) == 0 {
		return nil
	}
	counts := make(map[Kind]int, 3)
	for s := range h.live {
		counts[s.kind]++
	}
	parts := make([]string, 0, len(counts))
	for k, n := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", k, n))
	}
	slices.Sort(parts)
	return fmt.Errorf("heap leak detected: %d strings still alive (%s)", len(h.live), strings.Join(parts, ", "))
}

// Close reports leaks and closes the allocator when it holds resources.
// Storage of leaked strings is released by the allocator's Close, so they
// must not be used afterwards.
func (h *Heap) Close() error {
	leakErr := h.CheckLeaks()
	if c, ok := h.alloc.(mem.Closer); ok {
		if err := c.Close(); err != nil && leakErr == nil {
			return err
		}
	}
	return leakErr
}

// chunkFor is the storage size that fits n elements plus the terminator:
// the smallest chunk multiple strictly greater than n.
func (h *Heap) chunkFor(n int) int {
	if n == 0 {
		return h.chunk
	}
	return (n/h.chunk + 1) * h.chunk
}

// bound converts a prospective length, refusing anything above the heap maximum.
func (h *Heap) bound(op string, n int) (uint16, error) {
	if n < 0 {
		return 0, usage(op, fmt.Errorf("negative length %d", n))
	}
	if n > h.maxLen {
		return 0, safety(op, "length %d exceeds maximum %d", n, h.maxLen)
	}
	l, err := safecast.Conv[uint16](n)
	if err != nil {
		return 0, safety(op, "length %d: %v", n, err)
	}
	return l, nil
}

func (h *Heap) track(s *String) {
	h.live[s] = struct{}{}
}

func (h *Heap) untrack(s *String) {
	delete(h.live, s)
}

func (h *Heap) traceHeap(name string, kv ...string) {
	trace.Point(h.tracer, trace.ScopeHeap, name, "", kv...)
}

func (h *Heap) traceOp(op string, s *String) {
	if !h.tracer.Enabled() {
		return
	}
	trace.Point(h.tracer, trace.ScopeOp, op, s.kind.String(),
		"len", strconv.Itoa(int(s.length)),
		"cap", strconv.Itoa(s.cap))
}

func (h *Heap) traceFailure(op string, err error) {
	trace.Error(h.tracer, trace.ScopeOp, op, err.Error(), "code", CodeOf(err).String())
}
