package mem

import "fmt"

// Faults wraps an allocator and fails chosen calls on purpose. Call numbers
// are relative to the moment a failure is scheduled: 1 is the next call.
type Faults struct {
	next Allocator

	mallocs  int
	reallocs int
	calls    int

	failMalloc  map[int]bool
	failRealloc map[int]bool
	failAfter   int // fail every call once calls exceeds it; -1 disables
}

// NewFaults wraps a with no failures scheduled.
func NewFaults(a Allocator) *Faults {
	return &Faults{
		next:        a,
		failMalloc:  make(map[int]bool),
		failRealloc: make(map[int]bool),
		failAfter:   -1,
	}
}

// FailMalloc schedules the nth upcoming Malloc calls to fail.
func (f *Faults) FailMalloc(nth ...int) *Faults {
	for _, n := range nth {
		f.failMalloc[f.mallocs+n] = true
	}
	return f
}

// FailRealloc schedules the nth upcoming Realloc calls to fail.
func (f *Faults) FailRealloc(nth ...int) *Faults {
	for _, n := range nth {
		f.failRealloc[f.reallocs+n] = true
	}
	return f
}

// FailAfter lets n more Malloc or Realloc calls through and fails every later one.
func (f *Faults) FailAfter(n int) *Faults {
	f.failAfter = f.calls + n
	return f
}

// Reset clears every scheduled failure.
func (f *Faults) Reset() {
	clear(f.failMalloc)
	clear(f.failRealloc)
	f.failAfter = -1
}

func (f *Faults) Malloc(size int) ([]byte, error) {
	f.mallocs++
	f.calls++
	if f.failMalloc[f.mallocs] || f.exhausted() {
		delete(f.failMalloc, f.mallocs)
		return nil, fmt.Errorf("%w: injected malloc failure #%d", ErrOutOfMemory, f.mallocs)
	}
	return f.next.Malloc(size)
}

func (f *Faults) Realloc(b []byte, size int) ([]byte, error) {
	f.reallocs++
	f.calls++
	if f.failRealloc[f.reallocs] || f.exhausted() {
		delete(f.failRealloc, f.reallocs)
		return nil, fmt.Errorf("%w: injected realloc failure #%d", ErrOutOfMemory, f.reallocs)
	}
	return f.next.Realloc(b, size)
}

func (f *Faults) Free(b []byte) error {
	return f.next.Free(b)
}

func (f *Faults) Stats() Stats {
	if r, ok := f.next.(StatsReporter); ok {
		return r.Stats()
	}
	return Stats{}
}

func (f *Faults) Close() error {
	if c, ok := f.next.(Closer); ok {
		return c.Close()
	}
	return nil
}

func (f *Faults) exhausted() bool {
	return f.failAfter >= 0 && f.calls > f.failAfter
}
