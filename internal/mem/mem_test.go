package mem

import (
	"errors"
	"testing"
)

func allocators() map[string]func() Allocator {
	return map[string]func() Allocator{
		"mmap":   func() Allocator { return NewMmap() },
		"goheap": func() Allocator { return NewGoHeap() },
	}
}

func closeAlloc(t *testing.T, a Allocator) {
	t.Helper()
	if c, ok := a.(Closer); ok {
		if err := c.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestAllocatorsMallocReallocFree(t *testing.T) {
	for name, mk := range allocators() {
		t.Run(name, func(t *testing.T) {
			a := mk()
			defer closeAlloc(t, a)

			b, err := a.Malloc(32)
			if err != nil {
				t.Fatalf("malloc: %v", err)
			}
			if len(b) != 32 || cap(b) != 32 {
				t.Fatalf("len/cap = %d/%d, want 32/32", len(b), cap(b))
			}
			copy(b, "hello")

			nb, err := a.Realloc(b, 64)
			if err != nil {
				t.Fatalf("realloc: %v", err)
			}
			if len(nb) != 64 || string(nb[:5]) != "hello" {
				t.Fatalf("realloc lost prefix: %q", nb[:5])
			}

			small, err := a.Realloc(nb, 6)
			if err != nil {
				t.Fatalf("shrink: %v", err)
			}
			if len(small) != 6 || string(small[:5]) != "hello" {
				t.Fatalf("shrink lost prefix: %q", small)
			}

			if err := a.Free(small); err != nil {
				t.Fatalf("free: %v", err)
			}
			if err := a.Free(small); !errors.Is(err, ErrDoubleFree) {
				t.Fatalf("second free: got %v, want ErrDoubleFree", err)
			}

			st := a.(StatsReporter).Stats()
			if st.Mallocs != 1 || st.Reallocs != 2 || st.Frees != 1 {
				t.Fatalf("unexpected stats: %s", st)
			}
			if st.LiveBytes != 0 || st.PeakBytes != 64 {
				t.Fatalf("live/peak = %d/%d, want 0/64", st.LiveBytes, st.PeakBytes)
			}
		})
	}
}

func TestAllocatorsRejectForeignBlocks(t *testing.T) {
	for name, mk := range allocators() {
		t.Run(name, func(t *testing.T) {
			a := mk()
			defer closeAlloc(t, a)
			foreign := make([]byte, 8)
			if err := a.Free(foreign); !errors.Is(err, ErrInvalidBlock) {
				t.Fatalf("free foreign: got %v", err)
			}
			if _, err := a.Realloc(foreign, 16); !errors.Is(err, ErrInvalidBlock) {
				t.Fatalf("realloc foreign: got %v", err)
			}
			if _, err := a.Malloc(0); !errors.Is(err, ErrInvalidSize) {
				t.Fatalf("malloc(0): got %v", err)
			}
		})
	}
}

func TestMmapCloseReportsLeaks(t *testing.T) {
	m := NewMmap()
	if _, err := m.Malloc(10); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err == nil {
		t.Fatal("expected leak report on close")
	}
	if _, err := m.Malloc(10); err == nil {
		t.Fatal("malloc after close should fail")
	}
}

func TestBudgetRefusesOverLimit(t *testing.T) {
	b := NewBudget(NewGoHeap(), 64)
	p, err := b.Malloc(32)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Malloc(40); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("got %v, want ErrOutOfMemory", err)
	}
	if _, err := b.Realloc(p, 96); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("got %v, want ErrOutOfMemory", err)
	}
	if len(p) != 32 {
		t.Fatal("failed realloc touched the block")
	}
	p, err = b.Realloc(p, 64)
	if err != nil {
		t.Fatal(err)
	}
	if b.Used() != 64 {
		t.Fatalf("used = %d, want 64", b.Used())
	}
	if err := b.Free(p); err != nil {
		t.Fatal(err)
	}
	if b.Used() != 0 {
		t.Fatalf("used = %d after free", b.Used())
	}
}

func TestFaultsScheduling(t *testing.T) {
	f := NewFaults(NewGoHeap())
	f.FailMalloc(2)

	if _, err := f.Malloc(8); err != nil {
		t.Fatalf("first malloc: %v", err)
	}
	if _, err := f.Malloc(8); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("second malloc: got %v", err)
	}
	p, err := f.Malloc(8)
	if err != nil {
		t.Fatalf("third malloc: %v", err)
	}

	f.FailRealloc(1)
	if _, err := f.Realloc(p, 16); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("realloc: got %v", err)
	}
	if _, err := f.Realloc(p, 16); err != nil {
		t.Fatalf("realloc retry: %v", err)
	}

	f.FailAfter(1)
	if _, err := f.Malloc(8); err != nil {
		t.Fatalf("malloc within allowance: %v", err)
	}
	if _, err := f.Malloc(8); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("malloc past allowance: got %v", err)
	}
	f.Reset()
	if _, err := f.Malloc(8); err != nil {
		t.Fatalf("malloc after reset: %v", err)
	}
}
