package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/goleak"

	"rgr/internal/filegroup"
	"rgr/internal/replay"
	"rgr/internal/rgjson"
)

func samplePrompt() replay.Prompt {
	line := filegroup.Line{
		Kind:       filegroup.LineMatched,
		Number:     12,
		Text:       "call foo()\n",
		Submatches: []rgjson.Range{{Start: 5, End: 8}},
	}
	return replay.Prompt{
		Path:        "src/main.go",
		Line:        line,
		Replaced:    "call bar()\n",
		Replacement: "bar",
		Gutter:      2,
		Index:       1,
		Total:       3,
		Context: []filegroup.Line{
			{Kind: filegroup.LineContext, Number: 11, Text: "before\n"},
			{Kind: filegroup.LineContext, Number: 13, Text: "after\n"},
		},
	}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestReviewModelAnswersKeys(t *testing.T) {
	cases := []struct {
		key  tea.KeyMsg
		want replay.Action
	}{
		{runeKey('y'), replay.ActionAccept},
		{runeKey('n'), replay.ActionSkip},
		{runeKey('a'), replay.ActionAcceptFile},
		{runeKey('d'), replay.ActionSkipFile},
		{runeKey('q'), replay.ActionAbort},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, replay.ActionAbort},
	}
	for _, tc := range cases {
		t.Run(tc.key.String(), func(t *testing.T) {
			m := NewReviewModel("rgr", NewDecider()).(*reviewModel)
			reply := make(chan replay.Action, 1)
			m.Update(requestMsg(request{prompt: samplePrompt(), reply: reply}))

			m.Update(tc.key)
			select {
			case got := <-reply:
				if got != tc.want {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			default:
				t.Fatalf("no answer sent")
			}
			if m.current != nil {
				t.Fatalf("prompt still pending after answer")
			}
		})
	}
}

func TestReviewModelIgnoresKeysWithoutPrompt(t *testing.T) {
	m := NewReviewModel("rgr", NewDecider()).(*reviewModel)
	if _, cmd := m.Update(runeKey('y')); cmd != nil {
		t.Fatalf("expected no command")
	}
	if m.accepted != 0 {
		t.Fatalf("counted an answer without a prompt")
	}
	m.Update(runeKey('?'))
	if !m.help.ShowAll {
		t.Fatalf("help toggle ignored")
	}
}

func TestReviewModelView(t *testing.T) {
	m := NewReviewModel("rgr: foo -> bar", NewDecider()).(*reviewModel)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(requestMsg(request{prompt: samplePrompt(), reply: make(chan replay.Action, 1)}))

	view := m.View()
	for _, want := range []string{"src/main.go", "match 1 of 3", "11-", "12:", "call ", "13-", "+", "bar"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
	if strings.Index(view, "before") > strings.Index(view, "after") {
		t.Fatalf("context out of order:\n%s", view)
	}
}

func TestRenderLineClipsToWidth(t *testing.T) {
	m := &reviewModel{width: 10}
	var b strings.Builder
	m.renderLine(&b, "1:", strings.Repeat("x", 40)+"\n", []rgjson.Range{{Start: 30, End: 35}}, matchStyle)
	if strings.Count(b.String(), "x") > 8 {
		t.Fatalf("line not clipped: %q", b.String())
	}
}

func TestDeciderRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDecider()
	done := make(chan replay.Action, 1)
	go func() {
		a, _ := d.Decide(context.Background(), samplePrompt())
		done <- a
	}()

	req := <-d.requests
	req.reply <- replay.ActionSkip
	if got := <-done; got != replay.ActionSkip {
		t.Fatalf("got %v", got)
	}

	d.Finish()
	d.Finish()
	if _, ok := <-d.requests; ok {
		t.Fatalf("requests not closed by Finish")
	}
}

func TestDeciderStopAbortsPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := NewDecider()
	done := make(chan replay.Action, 1)
	go func() {
		a, _ := d.Decide(context.Background(), samplePrompt())
		done <- a
	}()
	<-d.requests // the program received the prompt, then exited
	d.Stop()
	d.Stop()

	select {
	case got := <-done:
		if got != replay.ActionAbort {
			t.Fatalf("got %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Decide still blocked after Stop")
	}

	if a, err := d.Decide(context.Background(), samplePrompt()); err != nil || a != replay.ActionAbort {
		t.Fatalf("Decide after Stop = %v, %v", a, err)
	}
}

func TestDeciderHonoursContext(t *testing.T) {
	d := NewDecider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if a, err := d.Decide(ctx, samplePrompt()); err == nil || a != replay.ActionAbort {
		t.Fatalf("Decide on cancelled ctx = %v, %v", a, err)
	}
}
