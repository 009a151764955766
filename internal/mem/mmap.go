package mem

import (
	"fmt"

	"modernc.org/memory"
)

// Mmap allocates storage outside the Go heap with modernc.org/memory.
// Blocks stay valid until freed or until Close; nothing is collected.
// Not safe for concurrent use.
type Mmap struct {
	counters
	a      memory.Allocator
	blocks blockTable
	closed bool
}

// NewMmap returns an empty off-heap allocator.
func NewMmap() *Mmap {
	return &Mmap{blocks: newBlockTable()}
}

// Malloc returns a zeroed block of exactly size bytes.
func (m *Mmap) Malloc(size int) ([]byte, error) {
	if err := m.usable(); err != nil {
		return nil, err
	}
	if err := checkSize(size); err != nil {
		m.onFailure()
		return nil, err
	}
	b, err := m.a.Calloc(size)
	if err != nil {
		m.onFailure()
		return nil, fmt.Errorf("%w: %d bytes: %v", ErrOutOfMemory, size, err)
	}
	b = b[:size:size]
	m.blocks.add(b)
	m.onMalloc(size)
	return b, nil
}

// Realloc moves b into a block of size bytes, preserving the common prefix.
// The new block is obtained before b is released, so a failure leaves b valid.
func (m *Mmap) Realloc(b []byte, size int) ([]byte, error) {
	if cap(b) == 0 {
		return m.Malloc(size)
	}
	if err := m.usable(); err != nil {
		return nil, err
	}
	old, oldSize, err := m.blocks.full(b)
	if err != nil {
		m.onFailure()
		return nil, err
	}
	if err := checkSize(size); err != nil {
		m.onFailure()
		return nil, err
	}
	nb, err := m.a.Calloc(size)
	if err != nil {
		m.onFailure()
		return nil, fmt.Errorf("%w: %d bytes: %v", ErrOutOfMemory, size, err)
	}
	nb = nb[:size:size]
	copy(nb, old)
	if err := m.a.Free(old); err != nil {
		_ = m.a.Free(nb)
		m.onFailure()
		return nil, fmt.Errorf("release old block: %w", err)
	}
	m.blocks.remove(old)
	m.blocks.add(nb)
	m.onRealloc(oldSize, size)
	return nb, nil
}

// Free releases b. Freeing a block twice or a block from elsewhere is an error.
func (m *Mmap) Free(b []byte) error {
	if err := m.usable(); err != nil {
		return err
	}
	old, size, err := m.blocks.full(b)
	if err != nil {
		return err
	}
	if err := m.a.Free(old); err != nil {
		return err
	}
	m.blocks.remove(old)
	m.onFree(size)
	return nil
}

// Close unmaps every page. Blocks still live at this point are reported as a
// leak; their memory is released regardless.
func (m *Mmap) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	leaked := m.blocks.count()
	if err := m.a.Close(); err != nil {
		return err
	}
	if leaked > 0 {
		return fmt.Errorf("allocator closed with %d live blocks (%d bytes)", leaked, m.stats.LiveBytes)
	}
	return nil
}

func (m *Mmap) usable() error {
	if m.closed {
		return fmt.Errorf("%w: allocator closed", ErrInvalidBlock)
	}
	return nil
}
