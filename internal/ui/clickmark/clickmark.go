// Package clickmark draws short-lived rings where the pointer was clicked.
//
// Layer implements recorder.MarkerSink. ShowMarker only records the marker;
// the owning bubbletea model collects the expiry timers with Flush after each
// update so the click path never blocks on rendering.
package clickmark

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Glyph is the ring drawn at a click position
const Glyph = "◯"

// Marker is a ring visible until Expires
type Marker struct {
	ID      uint64
	X, Y    int
	Expires time.Time
}

// ExpiredMsg removes the marker with the given ID
type ExpiredMsg struct {
	ID uint64
}

type timer struct {
	id       uint64
	lifetime time.Duration
}

// Layer holds the live markers
type Layer struct {
	style   lipgloss.Style
	now     func() time.Time
	next    uint64
	markers []Marker
	pending []timer
}

// New creates an empty marker layer
func New(style lipgloss.Style) *Layer {
	return &Layer{style: style, now: time.Now}
}

// ShowMarker adds a ring at x,y that disappears after lifetime
func (l *Layer) ShowMarker(x, y int, lifetime time.Duration) {
	l.next++
	l.markers = append(l.markers, Marker{
		ID:      l.next,
		X:       x,
		Y:       y,
		Expires: l.now().Add(lifetime),
	})
	l.pending = append(l.pending, timer{id: l.next, lifetime: lifetime})
}

// Flush returns the expiry timers for markers added since the last call
func (l *Layer) Flush() tea.Cmd {
	if len(l.pending) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(l.pending))
	for _, p := range l.pending {
		id := p.id
		cmds = append(cmds, tea.Tick(p.lifetime, func(time.Time) tea.Msg {
			return ExpiredMsg{ID: id}
		}))
	}
	l.pending = nil
	return tea.Batch(cmds...)
}

// Expire removes the marker. Unknown IDs are ignored.
func (l *Layer) Expire(id uint64) bool {
	for i, m := range l.markers {
		if m.ID == id {
			l.markers = append(l.markers[:i], l.markers[i+1:]...)
			return true
		}
	}
	return false
}

// Markers returns the live markers, oldest first
func (l *Layer) Markers() []Marker {
	return append([]Marker(nil), l.markers...)
}

// Len returns the number of live markers
func (l *Layer) Len() int {
	return len(l.markers)
}

// Render draws the live markers over a rendered screen. Lines carrying a
// marker lose their styling so the ring lands on the right cell.
func (l *Layer) Render(screen string) string {
	if len(l.markers) == 0 {
		return screen
	}

	lines := strings.Split(screen, "\n")
	touched := make(map[int][]rune)
	for _, m := range l.markers {
		if m.Y < 0 || m.Y >= len(lines) || m.X < 0 {
			continue
		}
		row, ok := touched[m.Y]
		if !ok {
			row = cells(ansi.Strip(lines[m.Y]))
		}
		for len(row) <= m.X {
			row = append(row, ' ')
		}
		// Never leave half of a wide rune behind
		if row[m.X] == padCell && m.X > 0 {
			row[m.X-1] = ' '
		}
		if m.X+1 < len(row) && row[m.X+1] == padCell {
			row[m.X+1] = ' '
		}
		row[m.X] = markerCell
		touched[m.Y] = row
	}

	ring := l.style.Render(Glyph)
	for y, row := range touched {
		var b strings.Builder
		for _, r := range row {
			switch r {
			case markerCell:
				b.WriteString(ring)
			case padCell:
			default:
				b.WriteRune(r)
			}
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

// Private-use runes stand in for a ring and for the trailing half of a wide rune
const (
	markerCell = '\uE000'
	padCell    = '\uE001'
)

// cells lays a plain line out one rune per terminal column
func cells(line string) []rune {
	out := make([]rune, 0, len(line))
	for _, r := range line {
		out = append(out, r)
		for w := runewidth.RuneWidth(r); w > 1; w-- {
			out = append(out, padCell)
		}
	}
	return out
}
