// Package strbuf implements managed character buffers.
//
// A String is one of three kinds:
//
//   - Constant wraps external text the caller keeps alive
//   - View is a read-only window into another String
//   - Owned holds storage allocated from its Heap and may be mutated
//
// Owned storage grows in chunk multiples (32 elements by default) and always
// keeps a 0 terminator after the live elements. Every mutating operation
// first checks the kind, then reserves storage, and only then writes: a
// failure of any step leaves the string untouched.
//
// Operations return (int, error). Result folds that pair into the signed
// convention used by callers that want a single value: the new length on
// success, or one of CodeUsage, CodeKind, CodeSafety, CodeAlloc.
//
//	h := strbuf.NewHeap(strbuf.WithAllocator(mem.NewMmap()))
//	defer h.Close()
//	s, _ := h.FromString("Hello ")
//	defer s.Destroy()
//	s.Append('W')
package strbuf
