package mem

import (
	"fmt"
	"unsafe"
)

// blockTable remembers every block handed out, keyed by its first element.
// Freed addresses are kept until the allocator reuses them so a second free
// can be told apart from a foreign pointer. They are stored as plain
// addresses so the table does not keep released Go memory reachable.
type blockTable struct {
	live  map[*byte]int
	freed map[uintptr]struct{}
}

func newBlockTable() blockTable {
	return blockTable{
		live:  make(map[*byte]int, 64),
		freed: make(map[uintptr]struct{}, 64),
	}
}

func (t *blockTable) add(b []byte) {
	p := unsafe.SliceData(b)
	delete(t.freed, uintptr(unsafe.Pointer(p)))
	t.live[p] = len(b)
}

// lookup returns the recorded size of b.
func (t *blockTable) lookup(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: empty block", ErrInvalidBlock)
	}
	p := unsafe.SliceData(b)
	size, ok := t.live[p]
	if ok {
		return size, nil
	}
	if _, gone := t.freed[uintptr(unsafe.Pointer(p))]; gone {
		return 0, fmt.Errorf("%w: block %p", ErrDoubleFree, p)
	}
	return 0, fmt.Errorf("%w: block %p", ErrInvalidBlock, p)
}

func (t *blockTable) remove(b []byte) {
	p := unsafe.SliceData(b)
	delete(t.live, p)
	t.freed[uintptr(unsafe.Pointer(p))] = struct{}{}
}

func (t *blockTable) count() int {
	return len(t.live)
}

// full re-extends b to the size it was allocated with; callers may hold a
// shorter slice of the same block.
func (t *blockTable) full(b []byte) ([]byte, int, error) {
	if cap(b) == 0 {
		return nil, 0, fmt.Errorf("%w: empty block", ErrInvalidBlock)
	}
	b = b[:cap(b)]
	size, err := t.lookup(b)
	if err != nil {
		return nil, 0, err
	}
	return b[:size], size, nil
}
