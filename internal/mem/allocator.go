package mem

import (
	"errors"
	"fmt"
)

// Allocator hands out element storage for owned strings.
//
// Realloc must leave b untouched when it fails: callers rely on the old
// block staying valid so a failed growth is never destructive.
type Allocator interface {
	Malloc(size int) ([]byte, error)
	Realloc(b []byte, size int) ([]byte, error)
	Free(b []byte) error
}

// Closer is implemented by allocators that hold resources outside the Go heap.
type Closer interface {
	Close() error
}

// StatsReporter is implemented by allocators that keep counters.
type StatsReporter interface {
	Stats() Stats
}

var (
	// ErrOutOfMemory reports that a request could not be satisfied.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrInvalidBlock reports a free or realloc of a block this allocator does not own.
	ErrInvalidBlock = errors.New("invalid block")
	// ErrDoubleFree reports a second free of the same block.
	ErrDoubleFree = errors.New("double free")
	// ErrInvalidSize reports a non-positive request.
	ErrInvalidSize = errors.New("invalid size")
)

// Stats are cumulative allocator counters.
type Stats struct {
	Mallocs   uint64
	Reallocs  uint64
	Frees     uint64
	Failures  uint64
	LiveBytes int
	PeakBytes int
}

// LiveBlocks is the number of blocks handed out and not yet freed.
func (s Stats) LiveBlocks() int {
	return int(s.Mallocs) - int(s.Frees)
}

func (s Stats) String() string {
	return fmt.Sprintf("mallocs=%d reallocs=%d frees=%d failures=%d live=%dB peak=%dB",
		s.Mallocs, s.Reallocs, s.Frees, s.Failures, s.LiveBytes, s.PeakBytes)
}

type counters struct {
	stats Stats
}

func (c *counters) onMalloc(size int) {
	c.stats.Mallocs++
	c.grow(size)
}

func (c *counters) onRealloc(oldSize, newSize int) {
	c.stats.Reallocs++
	c.grow(newSize - oldSize)
}

func (c *counters) onFree(size int) {
	c.stats.Frees++
	c.stats.LiveBytes -= size
}

func (c *counters) onFailure() {
	c.stats.Failures++
}

func (c *counters) grow(delta int) {
	c.stats.LiveBytes += delta
	if c.stats.LiveBytes > c.stats.PeakBytes {
		c.stats.PeakBytes = c.stats.LiveBytes
	}
}

// Stats returns a copy of the counters.
func (c *counters) Stats() Stats {
	return c.stats
}

func checkSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return nil
}
