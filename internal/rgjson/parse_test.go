package rgjson

import (
	"errors"
	"io"
	"strings"
	"testing"

	"rgr/internal/errs"
)

const sampleStream = `{"type":"begin","data":{"path":{"text":"a.txt"}}}
{"type":"context","data":{"path":{"text":"a.txt"},"lines":{"text":"before\n"},"line_number":1,"absolute_offset":0,"submatches":[]}}
{"type":"match","data":{"path":{"text":"a.txt"},"lines":{"text":"fooBARbaz\n"},"line_number":2,"absolute_offset":7,"submatches":[{"match":{"text":"BAR"},"start":3,"end":6}]}}
{"type":"end","data":{"path":{"text":"a.txt"},"binary_offset":null,"stats":{"elapsed":{"secs":0,"nanos":1,"human":"0s"},"searches":1,"searches_with_match":1,"bytes_searched":17,"bytes_printed":0,"matched_lines":1,"matches":1}}}
{"data":{"elapsed_total":{"human":"0.001s","nanos":1,"secs":0},"stats":{"bytes_printed":0,"bytes_searched":17,"elapsed":{"human":"0s","nanos":1,"secs":0},"matched_lines":1,"matches":1,"searches":1,"searches_with_match":1}},"type":"summary"}
`

func TestDecoderReadsWholeStream(t *testing.T) {
	dec := NewDecoder(strings.NewReader(sampleStream))
	var kinds []Kind
	var match Match
	var summary Summary
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		kinds = append(kinds, ev.Kind())
		switch e := ev.(type) {
		case Match:
			match = e
		case Summary:
			summary = e
		}
	}

	want := []Kind{KindBegin, KindContext, KindMatch, KindEnd, KindSummary}
	if len(kinds) != len(want) {
		t.Fatalf("got kinds %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kind[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
	if match.LineNumber != 2 || match.AbsoluteOffset != 7 || match.Text != "fooBARbaz\n" {
		t.Fatalf("unexpected match payload: %+v", match)
	}
	if len(match.Submatches) != 1 || match.Submatches[0] != (Range{Start: 3, End: 6}) {
		t.Fatalf("unexpected submatches: %+v", match.Submatches)
	}
	if summary.Matches != 1 || summary.BytesSearched != 17 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestParseDecodesBase64Bytes(t *testing.T) {
	// "caf\xe9\n" is latin-1, not UTF-8
	ev, err := Parse([]byte(`{"type":"match","data":{"path":{"bytes":"bGF0aW4udHh0"},"lines":{"bytes":"Y2Fm6Qo="},"line_number":1,"absolute_offset":0,"submatches":[{"start":0,"end":3}]}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := ev.(Match)
	if m.Path != "latin.txt" {
		t.Fatalf("path = %q", m.Path)
	}
	if m.Text != "caf\xe9\n" {
		t.Fatalf("text = %q", m.Text)
	}
}

func TestParseFailures(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"not json", `{"type":`},
		{"no type", `{"data":{}}`},
		{"unknown type", `{"type":"frobnicate","data":{}}`},
		{"begin without path", `{"type":"begin","data":{}}`},
		{"null data", `{"type":"end","data":null}`},
		{"match without line number", `{"type":"match","data":{"lines":{"text":"x\n"},"line_number":null,"absolute_offset":0,"submatches":[]}}`},
		{"context without line number", `{"type":"context","data":{"lines":{"text":"x\n"},"absolute_offset":0,"submatches":[]}}`},
		{"match without lines", `{"type":"match","data":{"line_number":1,"absolute_offset":0,"submatches":[]}}`},
		{"submatch out of bounds", `{"type":"match","data":{"lines":{"text":"ab"},"line_number":1,"absolute_offset":0,"submatches":[{"start":1,"end":5}]}}`},
		{"inverted submatch", `{"type":"match","data":{"lines":{"text":"abcd"},"line_number":1,"absolute_offset":0,"submatches":[{"start":3,"end":1}]}}`},
		{"bad base64", `{"type":"begin","data":{"path":{"bytes":"!!"}}}`},
		{"empty arbitrary data", `{"type":"begin","data":{"path":{}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.line))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errs.IsKind(err, errs.KindParse) {
				t.Fatalf("expected parse error, got %v", err)
			}
		})
	}
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	_, err := Parse([]byte("{\"type\":\"begin\",\"data\":{\"path\":{\"text\":\"\xff\"}}}"))
	if !errs.IsKind(err, errs.KindParse) {
		t.Fatalf("expected parse error for invalid UTF-8, got %v", err)
	}
}

func TestDecoderStampsRecordNumber(t *testing.T) {
	dec := NewDecoder(strings.NewReader("{\"type\":\"begin\",\"data\":{\"path\":{\"text\":\"a\"}}}\n\n"))
	if _, err := dec.Next(); err != nil {
		t.Fatalf("first record: %v", err)
	}
	_, err := dec.Next()
	var e *errs.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *errs.Error, got %v", err)
	}
	if e.Kind != errs.KindParse || e.Line != 2 {
		t.Fatalf("got kind %v line %d, want parse at line 2", e.Kind, e.Line)
	}
}
