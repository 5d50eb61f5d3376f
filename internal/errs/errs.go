// Package errs defines the error taxonomy shared by the rgr pipeline.
//
// Every fatal condition is an *Error carrying a Kind; callers wrap it with
// fmt.Errorf("...: %w", err) on the way up and main maps the kind to an exit
// status. Operator abort is not an error and has no kind here.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal condition.
type Kind uint8

const (
	// KindUsage is an invalid flag combination, reported before rg runs.
	KindUsage Kind = iota + 1
	// KindToolNotFound means the rg binary could not be launched.
	KindToolNotFound
	// KindInvocation means rg ran but failed.
	KindInvocation
	// KindParse is a record that does not fit the rg JSON schema.
	KindParse
	// KindProtocol is an event sequence that violates the file-group state machine.
	KindProtocol
	// KindIO covers reading and writing user files, diffs and journals.
	KindIO
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindToolNotFound:
		return "tool not found"
	case KindInvocation:
		return "invocation"
	case KindParse:
		return "parse"
	case KindProtocol:
		return "protocol"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Op   string // e.g. "decode", "aggregate", "substitute"
	Path string // file the failure belongs to, if any
	Line int    // input record or file line, 0 when unknown
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithPath attaches the file path.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithLine attaches a line number.
func (e *Error) WithLine(line int) *Error {
	e.Line = line
	return e
}

// New creates a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Usagef reports an invalid flag combination.
func Usagef(format string, args ...any) *Error {
	return &Error{Kind: KindUsage, Err: fmt.Errorf(format, args...)}
}

// Parsef reports a malformed rg record.
func Parsef(format string, args ...any) *Error {
	return &Error{Kind: KindParse, Op: "decode", Err: fmt.Errorf(format, args...)}
}

// Protocolf reports an event stream that breaks the group state machine.
func Protocolf(op, format string, args ...any) *Error {
	return &Error{Kind: KindProtocol, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ExitCode maps an error to the process exit status.
// Usage errors exit with 2, every other failure with 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if IsKind(err, KindUsage) {
		return 2
	}
	return 1
}
