package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff   Level = iota // no tracing
	LevelError              // failed operations only
	LevelOp                 // commands + string operations
	LevelHeap               // everything including storage traffic
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelOp:
		return "op"
	case LevelHeap:
		return "heap"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "op":
		return LevelOp, nil
	case "heap", "debug":
		return LevelHeap, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|op|heap)", s)
	}
}

// ShouldEmit reports whether an event of the given kind and scope passes this level.
func (l Level) ShouldEmit(kind Kind, scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return kind == KindError
	case LevelOp:
		return kind == KindError || scope <= ScopeOp
	case LevelHeap:
		return true
	}
	return false
}
