package strbuf

import "strconv"

// String is a character buffer in one of three ownership kinds.
//
// Owned strings keep storage[length] == 0 so CString can hand the storage to
// code expecting NUL-terminated text. Constant and View strings never write
// to their storage and report capacity 0.
//
// A View reads through its source. It records the storage generation it was
// cut from; once the source reallocates or is destroyed the view is stale and
// every use reports ErrStale instead of touching released memory.
type String struct {
	heap   *Heap
	kind   Kind
	length uint16
	cap    int
	data   []byte // Owned: the whole block; Constant: the borrowed text

	src    *String // View: storage holder, never itself a View
	base   int
	srcGen uint32

	gen  uint32 // bumped whenever data is replaced or released
	dead bool
}

// Kind returns the ownership kind. A nil string reports Invalid.
func (s *String) Kind() Kind {
	if s == nil {
		return Invalid
	}
	return s.kind
}

// Len returns the number of live elements. Unusable strings report 0.
func (s *String) Len() int {
	if s.check("len") != nil {
		return 0
	}
	return int(s.length)
}

// Cap returns the reserved storage slots, including the terminator slot.
// It is always 0 for Constant and View strings.
func (s *String) Cap() int {
	if s == nil || s.dead {
		return 0
	}
	return s.cap
}

// Bytes returns the live elements. The slice aliases the storage: it is only
// valid until the next mutation of s (or of a view's source) and must not be
// written to unless s is Owned. Unusable strings return nil.
func (s *String) Bytes() []byte {
	if s.check("bytes") != nil {
		return nil
	}
	return s.elems()
}

// String returns a copy of the live elements.
func (s *String) String() string {
	return string(s.Bytes())
}

// GoString shows the kind and content, for %#v.
func (s *String) GoString() string {
	if s == nil {
		return "strbuf.String(nil)"
	}
	return "strbuf." + s.kind.String() + "(" + strconv.Quote(s.String()) + ")"
}

// CString returns the storage up to and including the terminator. Owned
// strings always have one; a Constant has one only if the borrowed text
// carried a NUL right after the live elements. Otherwise it returns nil.
func (s *String) CString() []byte {
	if s.check("cstring") != nil {
		return nil
	}
	switch s.kind {
	case Owned:
		return s.data[:int(s.length)+1]
	case Constant:
		if int(s.length) < len(s.data) && s.data[s.length] == 0 {
			return s.data[:int(s.length)+1]
		}
	}
	return nil
}

// Valid reports why s can not be used, or nil.
func (s *String) Valid() error {
	return s.check("valid")
}

// Destroy releases the string. Owned storage goes back to the allocator;
// borrowed storage is left alone. Destroying nil or an already destroyed
// string does nothing.
func (s *String) Destroy() error {
	if s == nil || s.dead {
		return nil
	}
	s.dead = true
	s.gen++
	h := s.heap
	h.untrack(s)
	if s.kind != Owned || s.data == nil {
		s.data, s.src = nil, nil
		return nil
	}
	size := s.cap
	err := h.alloc.Free(s.data)
	s.data = nil
	s.cap = 0
	if err != nil {
		err = allocFailed("destroy", err)
		h.traceFailure("destroy", err)
		return err
	}
	h.traceHeap("free", "size", strconv.Itoa(size))
	return nil
}

// check reports whether s can be read at all.
func (s *String) check(op string) error {
	switch {
	case s == nil:
		return usage(op, ErrNil)
	case s.dead:
		return usage(op, ErrDestroyed)
	case s.kind == View && (s.src.dead || s.src.gen != s.srcGen):
		return usage(op, ErrStale)
	}
	return nil
}

// guard is the single mutation check: s must be usable and Owned. It runs
// before any allocation is attempted.
func (s *String) guard(op string) error {
	if err := s.check(op); err != nil {
		return err
	}
	if !s.kind.Mutable() {
		return kindMismatch(op, s.kind)
	}
	return nil
}

// elems returns the live elements of a checked string.
func (s *String) elems() []byte {
	if s.kind == View {
		return s.src.data[s.base : s.base+int(s.length)]
	}
	return s.data[:s.length]
}

// fail traces a failed operation and returns its error.
func (s *String) fail(op string, err error) error {
	if s != nil && s.heap != nil {
		s.heap.traceFailure(op, err)
	}
	return err
}
