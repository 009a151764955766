package strbuf

import (
	"bytes"
	"fmt"
	"unsafe"
)

// New creates an empty Owned string with room for at least n elements.
// n == 0 still reserves one full chunk.
func (h *Heap) New(n int) (*String, error) {
	const op = "new"
	s := &String{heap: h, kind: Owned}
	if err := s.ensure(op, n); err != nil {
		h.traceFailure(op, err)
		return nil, err
	}
	s.data[0] = 0
	h.track(s)
	h.traceOp(op, s)
	return s, nil
}

// FromText creates an Owned copy of external text. The text ends at its first
// NUL or at the end of the slice, whichever comes first. On failure nothing
// is left allocated.
func (h *Heap) FromText(text []byte) (*String, error) {
	const op = "from-text"
	n := textLen(text, len(text))
	l, err := h.bound(op, n)
	if err != nil {
		h.traceFailure(op, err)
		return nil, err
	}
	s, err := h.New(n)
	if err != nil {
		return nil, err
	}
	copy(s.data, text[:n])
	s.length = l
	s.data[l] = 0
	return s, nil
}

// FromString is FromText for a Go string.
func (h *Heap) FromString(text string) (*String, error) {
	return h.FromText(borrow(text))
}

// Const wraps external text without copying it. The caller keeps ownership
// and must keep the text unchanged and alive for the string's lifetime.
func (h *Heap) Const(text []byte) (*String, error) {
	const op = "const"
	l, err := h.bound(op, textLen(text, len(text)))
	if err != nil {
		h.traceFailure(op, err)
		return nil, err
	}
	s := &String{heap: h, kind: Constant, length: l, data: text}
	h.track(s)
	h.traceOp(op, s)
	return s, nil
}

// ConstString wraps a Go string. The bytes are borrowed from the string's
// read-only backing array.
func (h *Heap) ConstString(text string) (*String, error) {
	return h.Const(borrow(text))
}

// View returns a read-only window of n elements starting at base. It requires
// base <= Len() and n <= Len()-base; nothing is copied. Views of views share
// the original storage holder.
//
// The view does not keep s alive: once s reallocates or is destroyed the view
// reports ErrStale.
func (s *String) View(base, n int) (*String, error) {
	const op = "view"
	if err := s.check(op); err != nil {
		return nil, s.fail(op, err)
	}
	total := int(s.length)
	if base < 0 || n < 0 || base > total || n > total-base {
		err := usage(op, fmt.Errorf("%w: [%d, %d) of length %d", ErrInvalidRange, base, base+n, total))
		return nil, s.fail(op, err)
	}
	l, err := s.heap.bound(op, n)
	if err != nil {
		return nil, s.fail(op, err)
	}

	v := &String{heap: s.heap, kind: View, length: l}
	if s.kind == View {
		v.src, v.base, v.srcGen = s.src, s.base+base, s.srcGen
	} else {
		v.src, v.base, v.srcGen = s, base, s.gen
	}
	s.heap.track(v)
	s.heap.traceOp(op, v)
	return v, nil
}

// textLen is the length of external text: up to the first NUL, scanning at
// most limit elements.
func textLen(text []byte, limit int) int {
	if limit < len(text) {
		text = text[:limit]
	}
	if i := bytes.IndexByte(text, 0); i >= 0 {
		return i
	}
	return len(text)
}

// borrow exposes the bytes of a string without copying. The result must never
// be written to.
func borrow(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
