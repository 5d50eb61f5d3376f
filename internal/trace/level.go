package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff   Level = iota // no tracing
	LevelError              // warnings and failures only
	LevelStage              // driver and stage boundaries
	LevelFile               // one span per reviewed file
	LevelDebug              // every rg record and decision
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelStage:
		return "stage"
	case LevelFile:
		return "file"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "stage":
		return LevelStage, nil
	case "file":
		return LevelFile, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|stage|file|debug)", s)
	}
}

// ShouldEmit reports whether an event of the given kind and scope passes
// this level. Warnings pass every level except off.
func (l Level) ShouldEmit(kind Kind, scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return kind == KindWarn
	case LevelStage:
		return kind == KindWarn || kind == KindHeartbeat || scope <= ScopeStage
	case LevelFile:
		return kind == KindWarn || kind == KindHeartbeat || scope <= ScopeFile
	case LevelDebug:
		return true
	}
	return false
}
