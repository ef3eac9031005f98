package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/riordanpawley/clickrec/internal/capture/capturetest"
	"github.com/riordanpawley/clickrec/internal/types"
	"github.com/riordanpawley/clickrec/internal/ui/clickmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewHeight(t *testing.T) {
	m, _ := newTestModel(t)

	assertFits := func(t *testing.T, m Model) {
		t.Helper()
		assert.LessOrEqual(t, lipgloss.Height(m.View()), m.height)
	}

	t.Run("idle", func(t *testing.T) {
		assertFits(t, m)
	})

	t.Run("recording", func(t *testing.T) {
		assertFits(t, startRecording(t, m))
	})

	t.Run("with overlay", func(t *testing.T) {
		m.overlayStack.Push(&testOverlay{})
		defer m.overlayStack.Pop()
		assertFits(t, m)
	})

	t.Run("with toasts", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			m.addToast(types.Toast{Message: "test toast", Expires: time.Now().Add(time.Hour)})
		}
		assertFits(t, m)
	})
}

func TestViewBeforeResize(t *testing.T) {
	m, _ := newTestModel(t)
	m.width, m.height = 0, 0
	assert.Equal(t, "Loading...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 90, Height: 25})
	assert.Equal(t, 90, m.width)
	assert.Contains(t, ansi.Strip(m.View()), "clickrec")
}

func TestViewReadout(t *testing.T) {
	m, platform := newTestModel(t)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Ready")
	assert.Contains(t, view, "00:00")
	assert.Contains(t, view, "0 clicks tracked")
	assert.Contains(t, view, "Start recording")

	m = startRecording(t, m)
	gen := m.ctrl.Generation()
	for i := 0; i < 65; i++ {
		m, _ = update(t, m, timerTickMsg{gen: gen})
	}
	m, _ = update(t, m, leftClick(70, 20))

	view = ansi.Strip(m.View())
	assert.Contains(t, view, "REC 01:05")
	assert.Contains(t, view, "1 clicks tracked")
	assert.Contains(t, view, "Pause")
	assert.Contains(t, view, "Stop")

	platform.LastRecorder().Emit(make([]byte, 2048))
	m, _ = update(t, m, chunkReadyMsg{gen: gen})
	m, cmd := update(t, m, keyMsg("x"))

	view = ansi.Strip(m.View())
	assert.Contains(t, view, "Finalizing")
	assert.NotContains(t, view, "New recording")

	m, _ = update(t, m, finalized(t, cmd))
	view = ansi.Strip(m.View())
	assert.Contains(t, view, "Stopped")
	assert.Contains(t, view, "2.0 KiB ready")
	assert.Contains(t, view, "New recording")
	assert.Contains(t, view, "Save")
}

func TestViewPending(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, keyMsg("s"))

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Waiting for screen capture")
	assert.Contains(t, view, "Starting…")
}

func TestViewDrawsMarkers(t *testing.T) {
	m, _ := newTestModel(t)
	m = startRecording(t, m)

	m, _ = update(t, m, leftClick(70, 20))

	lines := strings.Split(ansi.Strip(m.View()), "\n")
	require.Greater(t, len(lines), 20)
	assert.Contains(t, lines[20], clickmark.Glyph)
}

func TestViewUnsupported(t *testing.T) {
	platform := capturetest.NewPlatform()
	platform.SupportErr = errors.New("no display server")
	m, _ := newTestModelWith(t, platform)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "not supported")
	assert.Contains(t, view, "no display server")
	assert.Contains(t, view, "clickrec doctor")
	assert.Contains(t, view, "UNSUPPORTED")
	assert.NotContains(t, view, "Start recording")
}

type testOverlay struct{}

func (o *testOverlay) View() string                            { return "test overlay" }
func (o *testOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return o, nil }
func (o *testOverlay) Init() tea.Cmd                           { return nil }
func (o *testOverlay) Title() string                           { return "Test" }
func (o *testOverlay) Size() (int, int)                        { return 20, 10 }
