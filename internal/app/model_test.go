package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/clickrec/internal/capture/capturetest"
	"github.com/riordanpawley/clickrec/internal/config"
	"github.com/riordanpawley/clickrec/internal/domain"
	"github.com/riordanpawley/clickrec/internal/types"
	"github.com/riordanpawley/clickrec/internal/ui/clickmark"
	"github.com/riordanpawley/clickrec/internal/ui/controls"
	"github.com/riordanpawley/clickrec/internal/ui/overlay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestModel creates a sized model backed by a fake capture platform
func newTestModel(t *testing.T) (Model, *capturetest.Platform) {
	t.Helper()
	return newTestModelWith(t, capturetest.NewPlatform())
}

func newTestModelWith(t *testing.T, platform *capturetest.Platform) (Model, *capturetest.Platform) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()

	m := New(cfg, platform, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.width = 100
	m.height = 30
	return m, platform
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func leftClick(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// startRecording presses s and completes the capture request in-line
func startRecording(t *testing.T, m Model) Model {
	t.Helper()

	m, cmd := update(t, m, keyMsg("s"))
	require.NotNil(t, cmd)
	require.True(t, m.ctrl.Pending())

	stream, rec, err := m.ctrl.Acquire(context.Background())
	require.NoError(t, err)

	m, cmd = update(t, m, captureAcquiredMsg{gen: m.ctrl.Generation(), stream: stream, rec: rec})
	require.NotNil(t, cmd)
	require.Equal(t, domain.SessionRecording, m.ctrl.State())
	return m
}

// buttonAt finds the screen position of the control performing action
func buttonAt(t *testing.T, m Model, action controls.Action) (int, int) {
	t.Helper()
	l := m.layout()
	for x := 0; x < m.width; x++ {
		if btn, ok := l.bar.HitTest(x, 1); ok && btn.Action == action {
			return x + l.controlsX, 1 + l.controlsY
		}
	}
	t.Fatalf("no %s button on screen", action)
	return 0, 0
}

// finalized runs cmd until it yields the finalizer's result
func finalized(t *testing.T, cmd tea.Cmd) finalizedMsg {
	t.Helper()
	msg, ok := findFinalized(cmd)
	require.True(t, ok, "no finalize command")
	return msg
}

// findFinalized walks batches from the back so timers queued ahead of
// the finalizer are never waited on
func findFinalized(cmd tea.Cmd) (finalizedMsg, bool) {
	if cmd == nil {
		return finalizedMsg{}, false
	}
	switch msg := cmd().(type) {
	case finalizedMsg:
		return msg, true
	case tea.BatchMsg:
		for i := len(msg) - 1; i >= 0; i-- {
			if f, ok := findFinalized(msg[i]); ok {
				return f, true
			}
		}
	}
	return finalizedMsg{}, false
}

// stop presses x and applies the finalizer's result
func stop(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := update(t, m, keyMsg("x"))
	m, _ = update(t, m, finalized(t, cmd))
	return m
}

func lastToast(t *testing.T, m Model) types.Toast {
	t.Helper()
	require.NotEmpty(t, m.toasts)
	return m.toasts[len(m.toasts)-1]
}

func TestStartFlow(t *testing.T) {
	m, platform := newTestModel(t)
	m = startRecording(t, m)

	assert.False(t, m.ctrl.Pending())
	assert.True(t, m.ctrl.Tracking())
	require.Len(t, platform.Requests(), 1)
	assert.Equal(t, 1920, platform.Requests()[0].Video.IdealWidth)
}

func TestStartWhilePendingIsIgnored(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, keyMsg("s"))
	gen := m.ctrl.Generation()

	m, cmd := update(t, m, keyMsg("s"))
	assert.Nil(t, cmd)
	assert.Equal(t, gen, m.ctrl.Generation())
	assert.Empty(t, m.toasts)
}

func TestAcquireCommandDeliversGrant(t *testing.T) {
	m, platform := newTestModel(t)

	m, _ = update(t, m, keyMsg("s"))
	msg := m.acquireCmd(context.Background(), m.ctrl.Generation())()

	acquired, ok := msg.(captureAcquiredMsg)
	require.True(t, ok)
	assert.Equal(t, m.ctrl.Generation(), acquired.gen)
	assert.Same(t, platform.LastStream(), acquired.stream)
}

func TestCaptureFailure(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, keyMsg("s"))
	m, _ = update(t, m, captureFailedMsg{gen: m.ctrl.Generation(), err: domain.ErrPermissionDenied})

	assert.Equal(t, domain.SessionIdle, m.ctrl.State())
	assert.False(t, m.ctrl.Pending())
	assert.Nil(t, m.cancelAcquire)
	toast := lastToast(t, m)
	assert.Equal(t, types.ToastError, toast.Level)
	assert.Contains(t, toast.Message, "denied")

	// A refused request can be retried
	m = startRecording(t, m)
	assert.Equal(t, domain.SessionRecording, m.ctrl.State())
}

func TestCaptureFailureRetryHint(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"denied", domain.ErrPermissionDenied, true},
		{"generic", errors.New("device busy"), true},
		{"unsupported", &domain.CaptureError{Op: "request", Err: domain.ErrUnsupportedEnvironment}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			m, _ = update(t, m, keyMsg("s"))
			m, _ = update(t, m, captureFailedMsg{gen: m.ctrl.Generation(), err: tt.err})

			msg := lastToast(t, m).Message
			if tt.retry {
				assert.Contains(t, msg, "Press s to try again")
			} else {
				assert.NotContains(t, msg, "try again")
			}
		})
	}
}

func TestCaptureSelectionCancelledIsWarning(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, keyMsg("s"))
	m, _ = update(t, m, captureFailedMsg{gen: m.ctrl.Generation(), err: domain.ErrSelectionCancelled})

	assert.Equal(t, types.ToastWarning, lastToast(t, m).Level)
}

func TestStaleGrantIsReleased(t *testing.T) {
	m, platform := newTestModel(t)

	stream, err := platform.RequestDisplay(context.Background(), m.config.RecorderOptions().Constraints)
	require.NoError(t, err)
	rec, err := platform.NewRecorder(stream, m.config.RecorderOptions().Recorder)
	require.NoError(t, err)

	m, cmd := update(t, m, captureAcquiredMsg{gen: 42, stream: stream, rec: rec})
	assert.Nil(t, cmd)
	assert.Equal(t, domain.SessionIdle, m.ctrl.State())
	assert.True(t, platform.LastStream().Released())
	assert.Empty(t, m.toasts)
}

func TestPauseResumeStop(t *testing.T) {
	m, platform := newTestModel(t)
	m = startRecording(t, m)
	gen := m.ctrl.Generation()

	platform.LastRecorder().Emit([]byte("0123456789"))
	m, _ = update(t, m, chunkReadyMsg{gen: gen})
	m, _ = update(t, m, timerTickMsg{gen: gen})

	m, _ = update(t, m, keyMsg(" "))
	assert.Equal(t, domain.SessionPaused, m.ctrl.State())

	// Paused time is not counted
	m, cmd := update(t, m, timerTickMsg{gen: gen})
	assert.NotNil(t, cmd)
	assert.Equal(t, "00:01", m.ctrl.Snapshot().Elapsed)

	m, _ = update(t, m, keyMsg("p"))
	assert.Equal(t, domain.SessionRecording, m.ctrl.State())

	m, cmd = update(t, m, keyMsg("x"))
	assert.Equal(t, domain.SessionStopped, m.ctrl.State())
	assert.True(t, m.ctrl.Finalizing())

	m, _ = update(t, m, finalized(t, cmd))
	assert.False(t, m.ctrl.Finalizing())
	assert.Equal(t, 10, m.ctrl.Snapshot().ArtifactSize)
	assert.True(t, platform.LastStream().Released())

	// Ticks stop once the session is over
	_, cmd = update(t, m, timerTickMsg{gen: gen})
	assert.Nil(t, cmd)
}

func TestWatchCommand(t *testing.T) {
	m, platform := newTestModel(t)

	assert.Nil(t, m.watchCmd(m.ctrl.Generation()), "nothing to watch while idle")

	m = startRecording(t, m)
	gen := m.ctrl.Generation()

	platform.LastRecorder().Emit([]byte("abc"))
	msg := m.watchCmd(gen)()
	assert.Equal(t, chunkReadyMsg{gen: gen}, msg)

	m, cmd := update(t, m, msg)
	require.NotNil(t, cmd)

	platform.LastStream().EndByHost()
	msg = cmd()
	assert.Equal(t, streamEndedMsg{gen: gen}, msg)

	m, cmd = update(t, m, msg)
	assert.Equal(t, domain.SessionStopped, m.ctrl.State())
	m, _ = update(t, m, finalized(t, cmd))
	assert.Equal(t, 3, m.ctrl.Snapshot().ArtifactSize)
	assert.True(t, platform.LastStream().Released())
	assert.Equal(t, types.ToastWarning, lastToast(t, m).Level)

	assert.Nil(t, m.watchCmd(gen), "no watch after the session ended")
}

func TestStopFinalizesOffTheLoop(t *testing.T) {
	m, platform := newTestModel(t)
	m = startRecording(t, m)
	rec := platform.LastRecorder()
	rec.Emit([]byte("body"))
	rec.Tail = []byte("tail")

	m, cmd := update(t, m, keyMsg("x"))
	require.NotNil(t, cmd)
	_, _, stopped := rec.State()
	assert.False(t, stopped, "the recorder is stopped by the command")
	assert.Nil(t, m.ctrl.Artifact())

	// Neither start nor save act until the artifact exists
	m, again := update(t, m, keyMsg("s"))
	assert.Nil(t, again)
	assert.False(t, m.ctrl.Pending())
	assert.Empty(t, m.toasts)
	m, again = update(t, m, keyMsg("d"))
	assert.Nil(t, again)

	// The spinner keeps turning while the encoder flushes
	_, spin := update(t, m, m.spinner.Tick())
	assert.NotNil(t, spin)

	m, _ = update(t, m, finalized(t, cmd))
	assert.Equal(t, []byte("bodytail"), m.ctrl.Artifact().Data)
	assert.True(t, platform.LastStream().Released())

	_, spin = update(t, m, m.spinner.Tick())
	assert.Nil(t, spin)
}

func TestStaleStreamEndIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m = startRecording(t, m)

	m, _ = update(t, m, streamEndedMsg{gen: m.ctrl.Generation() - 1})
	assert.Equal(t, domain.SessionRecording, m.ctrl.State())
	assert.Empty(t, m.toasts)
}

func TestMouseClickRecordsAndMarks(t *testing.T) {
	m, _ := newTestModel(t)

	// Not tracked while idle
	m, _ = update(t, m, leftClick(70, 20))
	assert.Empty(t, m.ctrl.Clicks())
	assert.Equal(t, 0, m.markers.Len())

	m = startRecording(t, m)

	m, cmd := update(t, m, leftClick(70, 20))
	require.Len(t, m.ctrl.Clicks(), 1)
	assert.Equal(t, 70, m.ctrl.Clicks()[0].X)
	assert.Equal(t, 20, m.ctrl.Clicks()[0].Y)
	require.Equal(t, 1, m.markers.Len())
	assert.NotNil(t, cmd, "marker expiry timer")

	// Only left presses count
	m, _ = update(t, m, tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	m, _ = update(t, m, tea.MouseMsg{X: 1, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	assert.Len(t, m.ctrl.Clicks(), 1)

	id := m.markers.Markers()[0].ID
	m, _ = update(t, m, clickmark.ExpiredMsg{ID: id})
	assert.Equal(t, 0, m.markers.Len())
}

func TestClickStartButton(t *testing.T) {
	m, _ := newTestModel(t)

	x, y := buttonAt(t, m, controls.ActionStart)
	m, cmd := update(t, m, leftClick(x, y))

	assert.NotNil(t, cmd)
	assert.True(t, m.ctrl.Pending())
}

func TestClickStopButtonIsTrackedFirst(t *testing.T) {
	m, _ := newTestModel(t)
	m = startRecording(t, m)

	x, y := buttonAt(t, m, controls.ActionStop)
	m, cmd := update(t, m, leftClick(x, y))
	m, _ = update(t, m, finalized(t, cmd))

	assert.Equal(t, domain.SessionStopped, m.ctrl.State())
	assert.NotNil(t, m.ctrl.Artifact())
	require.Len(t, m.ctrl.Clicks(), 1)
	assert.Equal(t, x, m.ctrl.Clicks()[0].X)
}

func TestClicksIgnoredWhilePaused(t *testing.T) {
	m, _ := newTestModel(t)
	m = startRecording(t, m)

	m, _ = update(t, m, leftClick(70, 20))
	m, _ = update(t, m, keyMsg(" "))
	m, _ = update(t, m, leftClick(71, 21))
	m, _ = update(t, m, keyMsg(" "))
	m, _ = update(t, m, leftClick(72, 22))

	assert.Len(t, m.ctrl.Clicks(), 2)
}

func TestSaveArtifact(t *testing.T) {
	m, platform := newTestModel(t)

	// Nothing to save yet
	_, cmd := update(t, m, keyMsg("d"))
	assert.Nil(t, cmd)

	m = startRecording(t, m)
	platform.LastRecorder().Emit([]byte("webm-bytes"))
	m, _ = update(t, m, leftClick(70, 20))
	m = stop(t, m)

	m, cmd = update(t, m, keyMsg("d"))
	require.NotNil(t, cmd)
	assert.True(t, m.saving)

	// A second save while one is running is ignored
	_, again := update(t, m, keyMsg("d"))
	assert.Nil(t, again)

	msg := m.saveCmd(m.ctrl.Artifact(), m.ctrl.Clicks())()
	saved, ok := msg.(artifactSavedMsg)
	require.True(t, ok, "got %T", msg)

	m, _ = update(t, m, saved)
	assert.False(t, m.saving)
	require.NotNil(t, m.lastSaved)
	assert.Equal(t, 1, m.lastSaved.Clicks)

	data, err := os.ReadFile(m.lastSaved.Path)
	require.NoError(t, err)
	assert.Equal(t, "webm-bytes", string(data))
	assert.Equal(t, types.ToastSuccess, lastToast(t, m).Level)
}

func TestSaveFailure(t *testing.T) {
	m, _ := newTestModel(t)
	m.saving = true

	m, _ = update(t, m, artifactSaveFailedMsg{err: errors.New("disk full")})
	assert.False(t, m.saving)
	assert.Contains(t, lastToast(t, m).Message, "disk full")
}

func TestQuit(t *testing.T) {
	t.Run("idle quits immediately", func(t *testing.T) {
		m, _ := newTestModel(t)
		_, cmd := update(t, m, keyMsg("q"))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("active asks first", func(t *testing.T) {
		m, platform := newTestModel(t)
		m = startRecording(t, m)

		m, cmd := update(t, m, keyMsg("q"))
		assert.Nil(t, cmd)
		require.False(t, m.overlayStack.IsEmpty())
		assert.Equal(t, domain.SessionRecording, m.ctrl.State())

		m, cmd = update(t, m, keyMsg("y"))
		require.NotNil(t, cmd)
		m, cmd = update(t, m, cmd())
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())

		assert.True(t, m.overlayStack.IsEmpty())
		assert.Equal(t, domain.SessionStopped, m.ctrl.State())
		assert.True(t, platform.LastStream().Released())
	})

	t.Run("declined keeps recording", func(t *testing.T) {
		m, _ := newTestModel(t)
		m = startRecording(t, m)

		m, _ = update(t, m, keyMsg("q"))
		m, cmd := update(t, m, keyMsg("n"))
		require.NotNil(t, cmd)
		m, cmd = update(t, m, cmd())

		assert.Nil(t, cmd)
		assert.True(t, m.overlayStack.IsEmpty())
		assert.Equal(t, domain.SessionRecording, m.ctrl.State())
	})

	t.Run("ctrl+c bypasses the dialog", func(t *testing.T) {
		m, _ := newTestModel(t)
		m = startRecording(t, m)

		m, _ = update(t, m, keyMsg("q"))
		m, cmd := update(t, m, keyMsg("ctrl+c"))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Equal(t, domain.SessionStopped, m.ctrl.State())
	})

	t.Run("pending request is cancelled", func(t *testing.T) {
		m, platform := newTestModel(t)

		m, _ = update(t, m, keyMsg("s"))
		gen := m.ctrl.Generation()
		require.NotNil(t, m.cancelAcquire)

		m, cmd := update(t, m, keyMsg("q"))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Nil(t, m.cancelAcquire)
		assert.False(t, m.ctrl.Pending())

		// A grant arriving after teardown is released
		stream, rec, err := m.ctrl.Acquire(context.Background())
		require.NoError(t, err)
		m, _ = update(t, m, captureAcquiredMsg{gen: gen, stream: stream, rec: rec})
		assert.Equal(t, domain.SessionIdle, m.ctrl.State())
		assert.True(t, platform.LastStream().Released())
	})
}

func TestOverlayCapturesKeys(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, keyMsg("?"))
	require.False(t, m.overlayStack.IsEmpty())

	// s goes to the help overlay, not the recorder
	m, _ = update(t, m, keyMsg("s"))
	assert.False(t, m.ctrl.Pending())

	m, cmd := update(t, m, keyMsg("?"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.True(t, m.overlayStack.IsEmpty())
}

func TestClicksOverOverlayDoNotPressButtons(t *testing.T) {
	m, _ := newTestModel(t)
	x, y := buttonAt(t, m, controls.ActionStart)

	m.overlayStack.Push(overlay.NewConfirmDialog("test", "Test", "?"))
	m, _ = update(t, m, leftClick(x, y))
	assert.False(t, m.ctrl.Pending())
}

func TestUnsupportedEnvironment(t *testing.T) {
	platform := capturetest.NewPlatform()
	platform.SupportErr = errors.New("no display server")
	m, _ := newTestModelWith(t, platform)

	m, cmd := update(t, m, keyMsg("s"))
	assert.Nil(t, cmd)
	assert.False(t, m.ctrl.Pending())
	assert.Contains(t, lastToast(t, m).Message, "not supported")
	assert.Empty(t, platform.Requests())
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrUnsupportedEnvironment, "not supported"},
		{&domain.CaptureError{Op: "request", Err: domain.ErrPermissionDenied}, "denied"},
		{domain.ErrSelectionCancelled, "cancelled"},
		{errors.New("boom"), "Recording failed: boom"},
	}
	for _, tt := range tests {
		assert.Contains(t, describeError(tt.err), tt.want)
	}
}

func TestToastExpiry(t *testing.T) {
	m, _ := newTestModel(t)
	m.addToast(types.Toast{Message: "old", Expires: m.now().Add(-1)})
	m.addToast(types.NewToast(types.ToastInfo, "fresh", m.now()))

	m, cmd := update(t, m, tickMsg(m.now()))
	assert.NotNil(t, cmd)
	require.Len(t, m.toasts, 1)
	assert.Equal(t, "fresh", m.toasts[0].Message)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "45 B", formatBytes(45))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "2.0 MiB", formatBytes(2*1024*1024))
}

func TestCloseReleasesCapture(t *testing.T) {
	m, platform := newTestModel(t)
	m = startRecording(t, m)

	m.Close()
	assert.Equal(t, domain.SessionStopped, m.ctrl.State())
	assert.True(t, platform.LastStream().Released())

	// Idempotent
	m.Close()
	assert.Equal(t, domain.SessionStopped, m.ctrl.State())
}
