package clickmark

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLayer() *Layer {
	l := New(lipgloss.NewStyle())
	l.now = func() time.Time { return time.Unix(100, 0) }
	return l
}

func TestLayer_ShowAndExpire(t *testing.T) {
	l := newTestLayer()

	l.ShowMarker(3, 1, 600*time.Millisecond)
	l.ShowMarker(5, 2, 600*time.Millisecond)

	markers := l.Markers()
	require.Len(t, markers, 2)
	assert.Equal(t, Marker{ID: 1, X: 3, Y: 1, Expires: time.Unix(100, 0).Add(600 * time.Millisecond)}, markers[0])

	assert.True(t, l.Expire(1))
	assert.False(t, l.Expire(1), "already removed")
	assert.False(t, l.Expire(99))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, uint64(2), l.Markers()[0].ID)
}

func TestLayer_FlushSchedulesExpiry(t *testing.T) {
	l := newTestLayer()
	assert.Nil(t, l.Flush(), "nothing pending")

	l.ShowMarker(0, 0, time.Millisecond)
	cmd := l.Flush()
	require.NotNil(t, cmd)
	assert.Nil(t, l.Flush(), "timers are handed out once")

	msg := cmd()
	// A single timer is still wrapped in a batch
	if batch, ok := msg.(tea.BatchMsg); ok {
		require.Len(t, batch, 1)
		msg = batch[0]()
	}
	assert.Equal(t, ExpiredMsg{ID: 1}, msg)
}

func TestLayer_Render(t *testing.T) {
	l := newTestLayer()
	screen := "abcdef\nghijkl\nmnopqr"

	assert.Equal(t, screen, l.Render(screen), "no markers leaves the screen untouched")

	l.ShowMarker(2, 1, time.Second)
	assert.Equal(t, "abcdef\ngh◯jkl\nmnopqr", l.Render(screen))
}

func TestLayer_RenderPadsShortLines(t *testing.T) {
	l := newTestLayer()
	l.ShowMarker(4, 0, time.Second)

	assert.Equal(t, "ab  ◯", l.Render("ab"))
}

func TestLayer_RenderIgnoresOffscreen(t *testing.T) {
	l := newTestLayer()
	l.ShowMarker(1, 5, time.Second)
	l.ShowMarker(-1, 0, time.Second)

	assert.Equal(t, "abc", l.Render("abc"))
}

func TestLayer_RenderStripsStyling(t *testing.T) {
	l := newTestLayer()
	l.ShowMarker(1, 0, time.Second)

	assert.Equal(t, "a◯c", l.Render("\x1b[31mabc\x1b[0m"))
}

func TestLayer_RenderWideRunes(t *testing.T) {
	l := newTestLayer()
	// 日 and 本 each take two columns
	l.ShowMarker(1, 0, time.Second)

	assert.Equal(t, " ◯本", l.Render("日本"))
}

func TestLayer_RenderMultipleOnOneLine(t *testing.T) {
	l := newTestLayer()
	l.ShowMarker(0, 0, time.Second)
	l.ShowMarker(4, 0, time.Second)

	assert.Equal(t, "◯bcd◯f", l.Render("abcdef"))
}
