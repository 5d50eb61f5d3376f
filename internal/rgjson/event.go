// Package rgjson decodes the newline-delimited JSON event stream that
// `rg --json` writes, one record per line.
package rgjson

// Kind is the discriminator of an rg record.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindMatch
	KindContext
	KindEnd
	KindSummary
)

// String returns the wire tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindMatch:
		return "match"
	case KindContext:
		return "context"
	case KindEnd:
		return "end"
	case KindSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// Event is one decoded record. The concrete types are Begin, Match,
// Context, End and Summary.
type Event interface {
	Kind() Kind
}

// Range is a half-open byte range [Start, End) into a line's text.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (r Range) Len() int { return r.End - r.Start }

// Begin opens a file.
type Begin struct {
	Path string
}

// Match is a line containing at least one submatch.
type Match struct {
	Path           string // empty when rg omitted it
	LineNumber     int
	AbsoluteOffset int64
	Text           string // raw line bytes, including the terminator
	Submatches     []Range
}

// Context is a line printed around a match.
type Context struct {
	Path       string
	LineNumber int
	Text       string
}

// End closes a file.
type End struct {
	Path string
}

// Summary is rg's trailer; it carries no line data.
type Summary struct {
	Matches           int64
	MatchedLines      int64
	SearchesWithMatch int64
	BytesSearched     int64
}

func (Begin) Kind() Kind   { return KindBegin }
func (Match) Kind() Kind   { return KindMatch }
func (Context) Kind() Kind { return KindContext }
func (End) Kind() Kind     { return KindEnd }
func (Summary) Kind() Kind { return KindSummary }
