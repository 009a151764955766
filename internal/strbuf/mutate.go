package strbuf

import "fmt"

// source is the element range an operation reads. It is resolved again after
// the target grew, so a string may be concatenated or copied onto itself or
// from one of its own views.
type source struct {
	owner *String
	base  int
	n     int
	ext   []byte
}

func sourceOf(op string, src *String) (source, error) {
	if err := src.check(op); err != nil {
		return source{}, err
	}
	if src.kind == View {
		return source{owner: src.src, base: src.base, n: int(src.length)}, nil
	}
	return source{owner: src, n: int(src.length)}, nil
}

func external(text []byte) source {
	return source{ext: text, n: textLen(text, len(text))}
}

func (r source) bytes() []byte {
	if r.owner == nil {
		return r.ext[:r.n]
	}
	return r.owner.data[r.base : r.base+r.n]
}

// Append adds one element and returns the new length.
func (s *String) Append(c byte) (int, error) {
	const op = "append"
	if err := s.guard(op); err != nil {
		return 0, s.fail(op, err)
	}
	n := int(s.length) + 1
	l, err := s.heap.bound(op, n)
	if err != nil {
		return 0, s.fail(op, err)
	}
	if err := s.ensure(op, n); err != nil {
		return 0, s.fail(op, err)
	}
	s.data[s.length] = c
	s.length = l
	s.data[l] = 0
	s.heap.traceOp(op, s)
	return n, nil
}

// Cat appends the elements of src and returns the new length.
func (s *String) Cat(src *String) (int, error) {
	const op = "cat"
	if err := s.guard(op); err != nil {
		return 0, s.fail(op, err)
	}
	r, err := sourceOf(op, src)
	if err != nil {
		return 0, s.fail(op, err)
	}
	return s.splice(op, int(s.length), r)
}

// CatText appends external text, up to its first NUL.
func (s *String) CatText(text []byte) (int, error) {
	const op = "cat-text"
	if err := s.guard(op); err != nil {
		return 0, s.fail(op, err)
	}
	return s.splice(op, int(s.length), external(text))
}

// CatString appends a Go string.
func (s *String) CatString(text string) (int, error) {
	return s.CatText(borrow(text))
}

// Copy replaces the content of s with the elements of src.
func (s *String) Copy(src *String) (int, error) {
	const op = "copy"
	if err := s.guard(op); err != nil {
		return 0, s.fail(op, err)
	}
	r, err := sourceOf(op, src)
	if err != nil {
		return 0, s.fail(op, err)
	}
	return s.splice(op, 0, r)
}

// CopyText replaces the content of s with external text, up to its first NUL.
func (s *String) CopyText(text []byte) (int, error) {
	const op = "copy-text"
	if err := s.guard(op); err != nil {
		return 0, s.fail(op, err)
	}
	return s.splice(op, 0, external(text))
}

// Import copies untrusted text into s only if it holds at most maxLen
// elements. Longer input is rejected with a safety error before anything is
// allocated or written; the scan stops after maxLen+1 elements.
func (s *String) Import(text []byte, maxLen int) (int, error) {
	const op = "import"
	if err := s.guard(op); err != nil {
		return 0, s.fail(op, err)
	}
	if maxLen < 0 {
		return 0, s.fail(op, usage(op, fmt.Errorf("negative bound %d", maxLen)))
	}
	n := textLen(text, min(maxLen, s.heap.maxLen)+1)
	if n > maxLen {
		return 0, s.fail(op, safety(op, "input longer than %d elements", maxLen))
	}
	return s.splice(op, 0, source{ext: text, n: n})
}

// splice writes r at offset at (0 to replace, Len() to append), then
// terminates. Nothing changes unless the storage could be reserved.
func (s *String) splice(op string, at int, r source) (int, error) {
	n := at + r.n
	l, err := s.heap.bound(op, n)
	if err != nil {
		return 0, s.fail(op, err)
	}
	if err := s.ensure(op, n); err != nil {
		return 0, s.fail(op, err)
	}
	copy(s.data[at:], r.bytes())
	s.length = l
	s.data[l] = 0
	s.heap.traceOp(op, s)
	return n, nil
}

// Printf replaces the content of s with formatted output and returns the new
// length.
func (s *String) Printf(format string, args ...any) (int, error) {
	const op = "printf"
	if err := s.guard(op); err != nil {
		return 0, s.fail(op, err)
	}
	out := fmt.Appendf(nil, format, args...)
	return s.splice(op, 0, source{ext: out, n: len(out)})
}

// Trim removes leading and trailing elements <= ' ' in place and returns the
// new length. Trailing ones are zeroed, the rest is shifted to the front.
func (s *String) Trim() (int, error) {
	const op = "trim"
	if err := s.guard(op); err != nil {
		return 0, s.fail(op, err)
	}
	b := s.data
	end := int(s.length)
	for end > 0 && b[end-1] <= ' ' {
		b[end-1] = 0
		end--
	}
	start := 0
	for start < end && b[start] <= ' ' {
		start++
	}
	n := end - start
	if start > 0 {
		copy(b, b[start:end])
		clear(b[n:end])
	}
	s.length = uint16(n) // n never exceeds the old length
	s.data[n] = 0
	s.heap.traceOp(op, s)
	return n, nil
}

// ToLower maps 'A'..'Z' to 'a'..'z' in place; other elements are untouched.
func (s *String) ToLower() (int, error) {
	return s.remap("lower", 'A', 'Z', 'a'-'A')
}

// ToUpper maps 'a'..'z' to 'A'..'Z' in place; other elements are untouched.
func (s *String) ToUpper() (int, error) {
	return s.remap("upper", 'a', 'z', 'A'-'a')
}

func (s *String) remap(op string, lo, hi byte, delta int) (int, error) {
	if err := s.guard(op); err != nil {
		return 0, s.fail(op, err)
	}
	b := s.data[:s.length]
	for i, c := range b {
		if c >= lo && c <= hi {
			b[i] = byte(int(c) + delta)
		}
	}
	s.heap.traceOp(op, s)
	return len(b), nil
}
