package rgjson

import (
	"bufio"
	"errors"
	"io"

	"rgr/internal/errs"
)

// Decoder reads records incrementally so rg's output is never buffered whole.
type Decoder struct {
	r    *bufio.Reader
	line int
}

// NewDecoder wraps r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Line returns the number of input records consumed so far.
func (d *Decoder) Line() int { return d.line }

// Next returns the next event, or io.EOF once the input is exhausted.
// Parse errors carry the input record number.
func (d *Decoder) Next() (Event, error) {
	// bufio.Reader has no token limit, unlike bufio.Scanner; matched lines in
	// minified files can be megabytes long.
	raw, err := d.r.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.New(errs.KindIO, "read", err)
	}
	if len(raw) == 0 && errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	d.line++

	ev, perr := Parse(raw)
	if perr != nil {
		var e *errs.Error
		if errors.As(perr, &e) {
			return nil, e.WithLine(d.line)
		}
		return nil, perr
	}
	return ev, nil
}
