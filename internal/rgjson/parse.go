package rgjson

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"fortio.org/safecast"

	"rgr/internal/errs"
)

type wireRecord struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// wireText is rg's "arbitrary data": UTF-8 text, or base64 bytes when the
// underlying data is not valid UTF-8.
type wireText struct {
	Text  *string `json:"text"`
	Bytes *string `json:"bytes"`
}

type wireSubmatch struct {
	Start *uint64 `json:"start"`
	End   *uint64 `json:"end"`
}

type wireStats struct {
	Matches           uint64 `json:"matches"`
	MatchedLines      uint64 `json:"matched_lines"`
	SearchesWithMatch uint64 `json:"searches_with_match"`
	BytesSearched     uint64 `json:"bytes_searched"`
}

type wireData struct {
	Path           *wireText      `json:"path"`
	Lines          *wireText      `json:"lines"`
	LineNumber     *uint64        `json:"line_number"`
	AbsoluteOffset *uint64        `json:"absolute_offset"`
	Submatches     []wireSubmatch `json:"submatches"`
	Stats          *wireStats     `json:"stats"`
}

// Parse decodes a single record. It fails rather than guesses: an unknown
// tag, a missing required field, a null line_number or a submatch outside
// the line are all parse errors.
func Parse(line []byte) (Event, error) {
	line = bytes.TrimRight(line, "\r\n")
	if !utf8.Valid(line) {
		return nil, errs.Parsef("record is not valid UTF-8")
	}

	var rec wireRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, errs.Parsef("malformed record: %w", err)
	}
	if rec.Type == "" {
		return nil, errs.Parsef("record has no type")
	}
	var data wireData
	if len(rec.Data) == 0 || bytes.Equal(rec.Data, []byte("null")) {
		return nil, errs.Parsef("%s record has no data", rec.Type)
	}
	if err := json.Unmarshal(rec.Data, &data); err != nil {
		return nil, errs.Parsef("malformed %s data: %w", rec.Type, err)
	}

	switch rec.Type {
	case "begin":
		path, err := data.Path.require(rec.Type, "path")
		if err != nil {
			return nil, err
		}
		return Begin{Path: path}, nil
	case "end":
		path, err := data.Path.require(rec.Type, "path")
		if err != nil {
			return nil, err
		}
		return End{Path: path}, nil
	case "match":
		return parseMatch(&data)
	case "context":
		return parseContext(&data)
	case "summary":
		return parseSummary(&data)
	default:
		return nil, errs.Parsef("unknown record type %q", rec.Type)
	}
}

func parseMatch(data *wireData) (Event, error) {
	path, err := data.Path.optional("match", "path")
	if err != nil {
		return nil, err
	}
	text, err := data.Lines.require("match", "lines")
	if err != nil {
		return nil, err
	}
	lineNumber, err := requireLineNumber("match", data.LineNumber)
	if err != nil {
		return nil, err
	}
	if data.AbsoluteOffset == nil {
		return nil, errs.Parsef("match record has no absolute_offset")
	}
	offset, err := safecast.Conv[int64](*data.AbsoluteOffset)
	if err != nil {
		return nil, errs.Parsef("match absolute_offset: %w", err)
	}
	ranges, err := convertSubmatches(data.Submatches, len(text))
	if err != nil {
		return nil, err
	}
	return Match{
		Path:           path,
		LineNumber:     lineNumber,
		AbsoluteOffset: offset,
		Text:           text,
		Submatches:     ranges,
	}, nil
}

func parseContext(data *wireData) (Event, error) {
	path, err := data.Path.optional("context", "path")
	if err != nil {
		return nil, err
	}
	text, err := data.Lines.require("context", "lines")
	if err != nil {
		return nil, err
	}
	lineNumber, err := requireLineNumber("context", data.LineNumber)
	if err != nil {
		return nil, err
	}
	return Context{Path: path, LineNumber: lineNumber, Text: text}, nil
}

func parseSummary(data *wireData) (Event, error) {
	var s Summary
	if data.Stats == nil {
		return s, nil
	}
	fields := []struct {
		dst *int64
		src uint64
	}{
		{&s.Matches, data.Stats.Matches},
		{&s.MatchedLines, data.Stats.MatchedLines},
		{&s.SearchesWithMatch, data.Stats.SearchesWithMatch},
		{&s.BytesSearched, data.Stats.BytesSearched},
	}
	for _, f := range fields {
		v, err := safecast.Conv[int64](f.src)
		if err != nil {
			return nil, errs.Parsef("summary stats: %w", err)
		}
		*f.dst = v
	}
	return s, nil
}

// requireLineNumber treats a missing line_number as a protocol violation:
// rg always runs with --line-number under rgr.
func requireLineNumber(tag string, n *uint64) (int, error) {
	if n == nil {
		return 0, errs.Parsef("%s record has no line_number (was rg run without --line-number?)", tag)
	}
	if *n == 0 {
		return 0, errs.Parsef("%s record has line_number 0", tag)
	}
	v, err := safecast.Conv[int](*n)
	if err != nil {
		return 0, errs.Parsef("%s line_number: %w", tag, err)
	}
	return v, nil
}

func convertSubmatches(in []wireSubmatch, textLen int) ([]Range, error) {
	out := make([]Range, 0, len(in))
	for i, sm := range in {
		if sm.Start == nil || sm.End == nil {
			return nil, errs.Parsef("submatch %d is missing start or end", i)
		}
		start, err := safecast.Conv[int](*sm.Start)
		if err != nil {
			return nil, errs.Parsef("submatch %d start: %w", i, err)
		}
		end, err := safecast.Conv[int](*sm.End)
		if err != nil {
			return nil, errs.Parsef("submatch %d end: %w", i, err)
		}
		if start > end || end > textLen {
			return nil, errs.Parsef("submatch %d [%d,%d) outside line of %d bytes", i, start, end, textLen)
		}
		out = append(out, Range{Start: start, End: end})
	}
	return out, nil
}

func (t *wireText) require(tag, field string) (string, error) {
	if t == nil {
		return "", errs.Parsef("%s record has no %s", tag, field)
	}
	return t.decode(tag, field)
}

func (t *wireText) optional(tag, field string) (string, error) {
	if t == nil {
		return "", nil
	}
	return t.decode(tag, field)
}

func (t *wireText) decode(tag, field string) (string, error) {
	switch {
	case t.Text != nil:
		return *t.Text, nil
	case t.Bytes != nil:
		raw, err := base64.StdEncoding.DecodeString(*t.Bytes)
		if err != nil {
			return "", errs.Parsef("%s %s bytes: %w", tag, field, err)
		}
		return string(raw), nil
	default:
		return "", errs.Parsef("%s %s has neither text nor bytes", tag, field)
	}
}

// String renders the event compactly for traces.
func String(ev Event) string {
	switch e := ev.(type) {
	case Begin:
		return fmt.Sprintf("begin %s", e.Path)
	case End:
		return fmt.Sprintf("end %s", e.Path)
	case Match:
		return fmt.Sprintf("match %d (%d submatches)", e.LineNumber, len(e.Submatches))
	case Context:
		return fmt.Sprintf("context %d", e.LineNumber)
	case Summary:
		return fmt.Sprintf("summary %d matches", e.Matches)
	default:
		return "unknown"
	}
}
