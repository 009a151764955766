package strbuf

import (
	"errors"
	"strings"
	"testing"

	"strbuf/internal/mem"
)

func newTestHeap(t *testing.T, opts ...Option) *Heap {
	t.Helper()
	h := NewHeap(opts...)
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Errorf("heap close: %v", err)
		}
	})
	return h
}

func mustOwned(t *testing.T, h *Heap, text string) *String {
	t.Helper()
	s, err := h.FromString(text)
	if err != nil {
		t.Fatalf("FromString(%q): %v", text, err)
	}
	t.Cleanup(func() { _ = s.Destroy() })
	return s
}

func mustConst(t *testing.T, h *Heap, text string) *String {
	t.Helper()
	s, err := h.ConstString(text)
	if err != nil {
		t.Fatalf("ConstString(%q): %v", text, err)
	}
	t.Cleanup(func() { _ = s.Destroy() })
	return s
}

func mustView(t *testing.T, s *String, base, n int) *String {
	t.Helper()
	v, err := s.View(base, n)
	if err != nil {
		t.Fatalf("View(%d, %d): %v", base, n, err)
	}
	t.Cleanup(func() { _ = v.Destroy() })
	return v
}

func wantCode(t *testing.T, err error, want Code) {
	t.Helper()
	if got := CodeOf(err); got != want {
		t.Fatalf("code = %s (%v), want %s", got, err, want)
	}
}

func wantContent(t *testing.T, s *String, want string) {
	t.Helper()
	if got := s.String(); got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
	if s.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", s.Len(), len(want))
	}
	if s.Kind() == Owned {
		if c := s.CString(); c == nil || c[len(c)-1] != 0 {
			t.Fatalf("owned string lost its terminator: %q", c)
		}
	}
}

func TestNewReservesOneChunk(t *testing.T) {
	h := newTestHeap(t)
	for _, n := range []int{0, 1, 31} {
		s, err := h.New(n)
		if err != nil {
			t.Fatalf("New(%d): %v", n, err)
		}
		if s.Kind() != Owned || s.Len() != 0 || s.Cap() != DefaultChunk {
			t.Fatalf("New(%d) = kind %s len %d cap %d", n, s.Kind(), s.Len(), s.Cap())
		}
		if err := s.Destroy(); err != nil {
			t.Fatalf("destroy: %v", err)
		}
	}
	s, err := h.New(32)
	if err != nil {
		t.Fatalf("New(32): %v", err)
	}
	defer s.Destroy()
	if s.Cap() != 64 {
		t.Fatalf("New(32) cap = %d, want 64", s.Cap())
	}
}

func TestFromTextStopsAtNUL(t *testing.T) {
	h := newTestHeap(t)
	s, err := h.FromText([]byte("abc\x00def"))
	if err != nil {
		t.Fatalf("FromText: %v", err)
	}
	defer s.Destroy()
	wantContent(t, s, "abc")
}

func TestFromTextCopies(t *testing.T) {
	h := newTestHeap(t)
	text := []byte("Hello")
	s, err := h.FromText(text)
	if err != nil {
		t.Fatalf("FromText: %v", err)
	}
	defer s.Destroy()
	text[0] = 'J'
	wantContent(t, s, "Hello")
}

func TestConstBorrows(t *testing.T) {
	h := newTestHeap(t)
	text := []byte("Hello\x00")
	s, err := h.Const(text)
	if err != nil {
		t.Fatalf("Const: %v", err)
	}
	defer s.Destroy()
	if s.Kind() != Constant || s.Len() != 5 || s.Cap() != 0 {
		t.Fatalf("const = kind %s len %d cap %d", s.Kind(), s.Len(), s.Cap())
	}
	if c := s.CString(); string(c) != "Hello\x00" {
		t.Fatalf("CString = %q", c)
	}
	text[0] = 'J'
	if s.String() != "Jello" {
		t.Fatalf("constant does not alias caller text: %q", s.String())
	}

	bare := mustConst(t, h, "Hi")
	if bare.CString() != nil {
		t.Fatalf("CString of unterminated constant should be nil")
	}
}

func TestMaxLength(t *testing.T) {
	h := newTestHeap(t, WithMaxLength(8))
	if _, err := h.FromString("123456789"); !errors.Is(err, ErrSafety) {
		t.Fatalf("FromString past max: got %v, want safety error", err)
	}
	if _, err := h.ConstString("123456789"); !errors.Is(err, ErrSafety) {
		t.Fatalf("ConstString past max: got %v, want safety error", err)
	}

	s := mustOwned(t, h, "12345678")
	_, err := s.Append('9')
	wantCode(t, err, CodeSafety)
	wantContent(t, s, "12345678")
}

func TestDefaultHeapIsShared(t *testing.T) {
	if Default() != Default() {
		t.Fatalf("Default returned different heaps")
	}
	if Default().Chunk() != DefaultChunk || Default().MaxLength() != MaxLength {
		t.Fatalf("Default heap not configured with defaults")
	}
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	h := NewHeap(WithChunk(0), WithMaxLength(MaxLength+1), WithAllocator(nil), WithTracer(nil))
	if h.Chunk() != DefaultChunk || h.MaxLength() != MaxLength || h.Allocator() == nil {
		t.Fatalf("invalid options changed the heap: chunk %d max %d", h.Chunk(), h.MaxLength())
	}
}

func TestChunkOption(t *testing.T) {
	h := newTestHeap(t, WithChunk(8))
	s := mustOwned(t, h, "1234567")
	if s.Cap() != 8 {
		t.Fatalf("cap = %d, want 8", s.Cap())
	}
	if _, err := s.Append('8'); err != nil {
		t.Fatalf("append: %v", err)
	}
	if s.Cap() != 16 {
		t.Fatalf("cap after crossing chunk = %d, want 16", s.Cap())
	}
}

func TestDestroy(t *testing.T) {
	h := newTestHeap(t)
	s, err := h.FromString("Hello")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if h.Live() != 1 {
		t.Fatalf("Live = %d, want 1", h.Live())
	}
	if err := s.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := s.Destroy(); err != nil {
		t.Fatalf("second destroy: %v", err)
	}
	var nilString *String
	if err := nilString.Destroy(); err != nil {
		t.Fatalf("destroy nil: %v", err)
	}
	if h.Live() != 0 || s.Len() != 0 || s.Cap() != 0 {
		t.Fatalf("destroyed string still visible: live %d len %d cap %d", h.Live(), s.Len(), s.Cap())
	}
	_, err = s.Append('x')
	wantCode(t, err, CodeUsage)
	if !errors.Is(err, ErrDestroyed) {
		t.Fatalf("append after destroy: got %v, want ErrDestroyed", err)
	}
}

func TestNilString(t *testing.T) {
	var s *String
	_, err := s.Append('x')
	wantCode(t, err, CodeUsage)
	if !errors.Is(err, ErrNil) {
		t.Fatalf("got %v, want ErrNil", err)
	}
	if s.Kind() != Invalid || s.Len() != 0 || s.Bytes() != nil || s.Valid() == nil {
		t.Fatalf("nil string should be empty and invalid")
	}
	if got := s.GoString(); got != "strbuf.String(nil)" {
		t.Fatalf("GoString = %q", got)
	}
}

func TestCheckLeaks(t *testing.T) {
	h := NewHeap()
	a, _ := h.FromString("a")
	c, _ := h.ConstString("c")
	v, _ := a.View(0, 1)

	err := h.CheckLeaks()
	if err == nil {
		t.Fatalf("expected leak report")
	}
	for _, part := range []string{"3 strings", "constant=1", "owned=1", "view=1"} {
		if !strings.Contains(err.Error(), part) {
			t.Fatalf("leak report %q lacks %q", err, part)
		}
	}

	for _, s := range []*String{v, c, a} {
		if err := s.Destroy(); err != nil {
			t.Fatalf("destroy: %v", err)
		}
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close after cleanup: %v", err)
	}
}

func TestMmapHeap(t *testing.T) {
	a := mem.NewMmap()
	h := NewHeap(WithAllocator(a))
	s, err := h.FromString("Hello ")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if _, err := s.CatString(strings.Repeat("x", 100)); err != nil {
		t.Fatalf("cat: %v", err)
	}
	if s.Len() != 106 || s.Cap() != 128 {
		t.Fatalf("len/cap = %d/%d, want 106/128", s.Len(), s.Cap())
	}
	st := h.Stats()
	if st.Mallocs != 1 || st.Reallocs != 1 || st.LiveBlocks() != 1 {
		t.Fatalf("stats = %s", st)
	}
	if err := s.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestMmapHeapCloseReportsLeak(t *testing.T) {
	h := NewHeap(WithAllocator(mem.NewMmap()))
	if _, err := h.FromString("leaked"); err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if err := h.Close(); err == nil {
		t.Fatalf("expected leak error from Close")
	}
}

func TestResult(t *testing.T) {
	h := newTestHeap(t)
	c := mustConst(t, h, "ro")
	if got := Result(c.Append('x')); got != int(CodeKind) {
		t.Fatalf("Result = %d, want %d", got, CodeKind)
	}
	s := mustOwned(t, h, "rw")
	if got := Result(s.Append('x')); got != 3 {
		t.Fatalf("Result = %d, want 3", got)
	}
	if CodeOf(errors.New("foreign")) != CodeUsage {
		t.Fatalf("foreign errors should map to usage")
	}
}

func TestCodeValues(t *testing.T) {
	tests := []struct {
		code Code
		want int
		name string
	}{
		{CodeUsage, -99, "usage"},
		{CodeKind, -98, "kind"},
		{CodeSafety, -97, "safety"},
		{CodeAlloc, -89, "alloc"},
	}
	for _, tt := range tests {
		if int(tt.code) != tt.want || tt.code.String() != tt.name {
			t.Errorf("%s = %d, want %d", tt.code, int(tt.code), tt.want)
		}
	}
}
