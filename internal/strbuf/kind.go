package strbuf

// Kind identifies who owns a string's storage. It is fixed at construction.
type Kind uint8

const (
	Constant Kind = iota // borrowed external text
	View                 // borrowed window into another string
	Owned                // storage allocated and released by the heap

	Invalid Kind = 0xff // reported by a nil string; never stored
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case View:
		return "view"
	case Owned:
		return "owned"
	case Invalid:
		return "invalid"
	default:
		return "kind?"
	}
}

// Mutable reports whether strings of this kind accept writes.
func (k Kind) Mutable() bool {
	return k == Owned
}
