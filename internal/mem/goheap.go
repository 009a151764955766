package mem

// GoHeap allocates storage on the Go heap. Freed blocks are dropped for the
// garbage collector; the table still catches double frees.
type GoHeap struct {
	counters
	blocks blockTable
}

// NewGoHeap returns an empty Go heap allocator.
func NewGoHeap() *GoHeap {
	return &GoHeap{blocks: newBlockTable()}
}

func (g *GoHeap) Malloc(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		g.onFailure()
		return nil, err
	}
	b := make([]byte, size)
	g.blocks.add(b)
	g.onMalloc(size)
	return b, nil
}

func (g *GoHeap) Realloc(b []byte, size int) ([]byte, error) {
	if cap(b) == 0 {
		return g.Malloc(size)
	}
	old, oldSize, err := g.blocks.full(b)
	if err != nil {
		g.onFailure()
		return nil, err
	}
	if err := checkSize(size); err != nil {
		g.onFailure()
		return nil, err
	}
	nb := make([]byte, size)
	copy(nb, old)
	g.blocks.remove(old)
	g.blocks.add(nb)
	g.onRealloc(oldSize, size)
	return nb, nil
}

func (g *GoHeap) Free(b []byte) error {
	old, size, err := g.blocks.full(b)
	if err != nil {
		return err
	}
	g.blocks.remove(old)
	g.onFree(size)
	return nil
}
