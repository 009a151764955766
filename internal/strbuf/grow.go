package strbuf

import "strconv"

// ensure makes room for n elements plus the terminator in an Owned string.
//
// Storage grows to the next chunk multiple rather than doubling: overhead
// stays under one chunk per string, paid for with a reallocation every chunk
// when a string keeps growing. On failure s is left exactly as it was.
func (s *String) ensure(op string, n int) error {
	if _, err := s.heap.bound(op, n); err != nil {
		return err
	}
	if s.cap >= n+1 {
		return nil
	}

	h := s.heap
	size := h.chunkFor(n)
	var (
		data []byte
		err  error
	)
	if s.data == nil {
		data, err = h.alloc.Malloc(size)
	} else {
		data, err = h.alloc.Realloc(s.data, size)
	}
	if err != nil {
		call := "malloc"
		if s.data != nil {
			call = "realloc"
		}
		h.traceHeap(call+"-failed", "size", strconv.Itoa(size))
		return allocFailed(op, err)
	}

	if s.data == nil {
		h.traceHeap("malloc", "size", strconv.Itoa(size))
	} else {
		h.traceHeap("realloc", "from", strconv.Itoa(s.cap), "to", strconv.Itoa(size))
	}
	s.data = data[:size]
	s.cap = size
	s.gen++
	return nil
}

// Minimize shrinks an Owned string's storage to exactly Len()+1 slots and
// returns the new capacity. The result is no longer a chunk multiple; the
// next growth rounds up again. If the allocator refuses, the old storage is
// kept and stays valid.
func (s *String) Minimize() (int, error) {
	const op = "minimize"
	if err := s.guard(op); err != nil {
		return 0, s.fail(op, err)
	}
	size := int(s.length) + 1
	if size == s.cap {
		return s.cap, nil
	}
	data, err := s.heap.alloc.Realloc(s.data, size)
	if err != nil {
		s.heap.traceHeap("realloc-failed", "size", strconv.Itoa(size))
		return 0, s.fail(op, allocFailed(op, err))
	}
	s.heap.traceHeap("realloc", "from", strconv.Itoa(s.cap), "to", strconv.Itoa(size))
	s.data = data[:size]
	s.cap = size
	s.gen++
	s.data[s.length] = 0
	s.heap.traceOp(op, s)
	return s.cap, nil
}
