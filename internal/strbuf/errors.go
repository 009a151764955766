package strbuf

import (
	"errors"
	"fmt"
)

// Code is the signed result code of a failed operation.
type Code int

// Stable result codes - do not change values.
const (
	CodeOK     Code = 0
	CodeUsage  Code = -99 // invalid argument, nil, destroyed or stale string
	CodeKind   Code = -98 // operation needs an Owned string
	CodeSafety Code = -97 // input exceeds a declared bound
	CodeAlloc  Code = -89 // storage could not be allocated
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeUsage:
		return "usage"
	case CodeKind:
		return "kind"
	case CodeSafety:
		return "safety"
	case CodeAlloc:
		return "alloc"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error is returned by every fallible operation.
type Error struct {
	Code Code
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return "strbuf: " + e.Code.String()
	case e.Err == nil:
		return fmt.Sprintf("strbuf: %s: %s", e.Op, e.Code)
	default:
		return fmt.Sprintf("strbuf: %s: %s: %v", e.Op, e.Code, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the code sentinels (ErrUsage, ErrKind, ...) by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrUsage  = &Error{Code: CodeUsage}
	ErrKind   = &Error{Code: CodeKind}
	ErrSafety = &Error{Code: CodeSafety}
	ErrAlloc  = &Error{Code: CodeAlloc}
)

// Causes wrapped by usage errors.
var (
	ErrNil          = errors.New("nil string")
	ErrDestroyed    = errors.New("string already destroyed")
	ErrStale        = errors.New("view outlived its source storage")
	ErrInvalidRange = errors.New("invalid range")
)

// CodeOf extracts the result code of err. Errors from outside the package
// count as usage errors.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUsage
}

// Result folds a Go-style result into the signed convention: n on success,
// the negative code otherwise.
func Result(n int, err error) int {
	if err != nil {
		return int(CodeOf(err))
	}
	return n
}

func usage(op string, cause error) error {
	return &Error{Code: CodeUsage, Op: op, Err: cause}
}

func kindMismatch(op string, k Kind) error {
	return &Error{Code: CodeKind, Op: op, Err: fmt.Errorf("%s string is read-only", k)}
}

func safety(op string, format string, args ...any) error {
	return &Error{Code: CodeSafety, Op: op, Err: fmt.Errorf(format, args...)}
}

func allocFailed(op string, cause error) error {
	return &Error{Code: CodeAlloc, Op: op, Err: cause}
}
