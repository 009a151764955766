package mem

import "fmt"

// Budget caps the bytes outstanding through an allocator. Requests that would
// cross Limit fail with ErrOutOfMemory before reaching the wrapped allocator.
type Budget struct {
	next  Allocator
	Limit int
	used  int
}

// NewBudget wraps a with a ceiling of limit bytes.
func NewBudget(a Allocator, limit int) *Budget {
	return &Budget{next: a, Limit: limit}
}

// Used reports the bytes currently charged to the budget.
func (b *Budget) Used() int {
	return b.used
}

func (b *Budget) Malloc(size int) ([]byte, error) {
	if b.used+size > b.Limit {
		return nil, b.exceeded(size)
	}
	p, err := b.next.Malloc(size)
	if err != nil {
		return nil, err
	}
	b.used += size
	return p, nil
}

func (b *Budget) Realloc(p []byte, size int) ([]byte, error) {
	old := cap(p)
	if b.used-old+size > b.Limit {
		return nil, b.exceeded(size)
	}
	np, err := b.next.Realloc(p, size)
	if err != nil {
		return nil, err
	}
	b.used += size - old
	return np, nil
}

func (b *Budget) Free(p []byte) error {
	if err := b.next.Free(p); err != nil {
		return err
	}
	b.used -= cap(p)
	return nil
}

// Stats forwards the wrapped allocator's counters when it keeps any.
func (b *Budget) Stats() Stats {
	if r, ok := b.next.(StatsReporter); ok {
		return r.Stats()
	}
	return Stats{LiveBytes: b.used}
}

// Close closes the wrapped allocator when it holds resources.
func (b *Budget) Close() error {
	if c, ok := b.next.(Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *Budget) exceeded(size int) error {
	return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, size, b.used, b.Limit)
}
