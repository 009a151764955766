package strbuf

import "bytes"

// NotFound is returned by IndexByte when the element does not occur.
const NotFound = -1

// IndexByte returns the position of the first c in s, or NotFound.
// Nil, destroyed and stale strings report a usage error instead.
func (s *String) IndexByte(c byte) (int, error) {
	const op = "index"
	if err := s.check(op); err != nil {
		return NotFound, s.fail(op, err)
	}
	return bytes.IndexByte(s.elems(), c), nil
}

// Compare walks a element by element and returns the difference of the first
// mismatching pair, or 0. Only a's length is scanned: elements of b past its
// end read as the terminator 0, and a proper prefix of b compares equal.
func Compare(a, b *String) (int, error) {
	x, y, err := operands("compare", a, b)
	if err != nil {
		return 0, err
	}
	for i, c := range x {
		var d byte
		if i < len(y) {
			d = y[i]
		}
		if c != d {
			return int(c) - int(d), nil
		}
	}
	return 0, nil
}

// Equal reports whether a and b hold the same elements.
func Equal(a, b *String) (bool, error) {
	x, y, err := operands("equal", a, b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(x, y), nil
}

func operands(op string, a, b *String) ([]byte, []byte, error) {
	if err := a.check(op); err != nil {
		return nil, nil, a.fail(op, err)
	}
	if err := b.check(op); err != nil {
		return nil, nil, b.fail(op, err)
	}
	return a.elems(), b.elems(), nil
}
