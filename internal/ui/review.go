package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"rgr/internal/replay"
	"rgr/internal/rgjson"
)

type keyMap struct {
	Yes      key.Binding
	No       key.Binding
	All      key.Binding
	SkipFile key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Yes, k.No}, {k.All, k.SkipFile}, {k.Quit, k.Help}}
}

var defaultKeys = keyMap{
	Yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "replace")),
	No:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "skip")),
	All:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "replace rest of file")),
	SkipFile: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "skip rest of file")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	pathStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	gutterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	matchStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	addedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	counterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

type reviewModel struct {
	title    string
	requests <-chan request
	current  *request
	keys     keyMap
	help     help.Model
	width    int
	accepted int
	skipped  int
	quit     bool
	done     bool
}

type requestMsg request
type finishedMsg struct{}

// NewReviewModel returns a Bubble Tea model that shows each prompt sent to
// d and answers it from the keyboard.
func NewReviewModel(title string, d *Decider) tea.Model {
	return &reviewModel{
		title:    title,
		requests: d.requests,
		keys:     defaultKeys,
		help:     help.New(),
		width:    80,
	}
}

func (m *reviewModel) Init() tea.Cmd {
	return m.listen()
}

func (m *reviewModel) listen() tea.Cmd {
	return func() tea.Msg {
		req, ok := <-m.requests
		if !ok {
			return finishedMsg{}
		}
		return requestMsg(req)
	}
}

func (m *reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case requestMsg:
		req := request(msg)
		m.current = &req
		return m, nil
	case finishedMsg:
		m.done = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.help.Width = msg.Width
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *reviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		m.quit = true
		if m.current != nil {
			m.current.reply <- replay.ActionAbort
			m.current = nil
		}
		return m, tea.Quit
	}
	if m.current == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Yes):
		return m.answer(replay.ActionAccept)
	case key.Matches(msg, m.keys.No):
		return m.answer(replay.ActionSkip)
	case key.Matches(msg, m.keys.All):
		return m.answer(replay.ActionAcceptFile)
	case key.Matches(msg, m.keys.SkipFile):
		return m.answer(replay.ActionSkipFile)
	}
	return m, nil
}

func (m *reviewModel) answer(a replay.Action) (tea.Model, tea.Cmd) {
	switch a {
	case replay.ActionAccept, replay.ActionAcceptFile:
		m.accepted++
	case replay.ActionSkip, replay.ActionSkipFile:
		m.skipped++
	}
	m.current.reply <- a
	m.current = nil
	return m, m.listen()
}

func (m *reviewModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	switch {
	case m.current != nil:
		m.renderPrompt(&b, m.current.prompt)
	case m.done || m.quit:
		b.WriteString(dimStyle.Render("done"))
		b.WriteString("\n")
	default:
		b.WriteString(dimStyle.Render("searching..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(counterStyle.Render(fmt.Sprintf("replaced %d, skipped %d", m.accepted, m.skipped)))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m *reviewModel) renderPrompt(b *strings.Builder, p replay.Prompt) {
	b.WriteString(pathStyle.Render(truncate(p.Path, m.width-16)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  match %d of %d", p.Index, p.Total)))
	b.WriteString("\n")

	for _, l := range p.Context {
		if l.Number < p.Line.Number {
			m.renderLine(b, gutter(p.Gutter, l.Number, "-"), l.Text, nil, matchStyle)
		}
	}
	m.renderLine(b, gutter(p.Gutter, p.Line.Number, ":"), p.Line.Text, p.Line.Submatches, matchStyle)
	plus := strings.Repeat(" ", p.Gutter) + "+"
	m.renderLine(b, plus, p.Replaced, replay.ReplacedRanges(p.Line.Submatches, p.Replacement), addedStyle)
	for _, l := range p.Context {
		if l.Number > p.Line.Number {
			m.renderLine(b, gutter(p.Gutter, l.Number, "-"), l.Text, nil, matchStyle)
		}
	}
}

func gutter(width, n int, sep string) string {
	return fmt.Sprintf("%*d%s", width, n, sep)
}

// renderLine writes one line clipped to the terminal width, emphasising
// ranges with emph.
func (m *reviewModel) renderLine(b *strings.Builder, prefix, text string, ranges []rgjson.Range, emph lipgloss.Style) {
	text = strings.TrimRight(text, "\r\n")
	budget := m.width - runewidth.StringWidth(prefix)
	clipped := text
	if budget > 0 && runewidth.StringWidth(text) > budget {
		clipped = runewidth.Truncate(text, budget-1, "")
	}
	b.WriteString(gutterStyle.Render(prefix))

	clippedRanges := make([]rgjson.Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Start >= len(clipped) {
			continue
		}
		clippedRanges = append(clippedRanges, rgjson.Range{Start: r.Start, End: min(r.End, len(clipped))})
	}
	segments, err := replay.Segments(clipped, clippedRanges)
	if err != nil {
		segments = []replay.Segment{{Text: clipped}}
	}
	for _, seg := range segments {
		if seg.Emphasis {
			b.WriteString(emph.Render(seg.Text))
		} else {
			b.WriteString(seg.Text)
		}
	}
	if len(clipped) < len(text) {
		b.WriteString(dimStyle.Render("…"))
	}
	b.WriteString("\n")
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
