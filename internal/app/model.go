// Package app contains the main application model and TEA implementation.
//
// The bubbletea update loop is the recorder's event loop: platform
// notifications, timer ticks, key presses and mouse clicks all arrive as
// messages and are applied to the controller one at a time.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/clickrec/internal/capture"
	"github.com/riordanpawley/clickrec/internal/config"
	"github.com/riordanpawley/clickrec/internal/domain"
	"github.com/riordanpawley/clickrec/internal/pointer"
	"github.com/riordanpawley/clickrec/internal/recorder"
	"github.com/riordanpawley/clickrec/internal/services/export"
	"github.com/riordanpawley/clickrec/internal/types"
	"github.com/riordanpawley/clickrec/internal/ui/clickmark"
	"github.com/riordanpawley/clickrec/internal/ui/controls"
	"github.com/riordanpawley/clickrec/internal/ui/overlay"
	"github.com/riordanpawley/clickrec/internal/ui/statusbar"
	"github.com/riordanpawley/clickrec/internal/ui/styles"
	"github.com/riordanpawley/clickrec/internal/ui/toast"
)

// Re-export Toast type and constants for convenience
type Toast = types.Toast
type ToastLevel = types.ToastLevel

const (
	ToastInfo    = types.ToastInfo
	ToastSuccess = types.ToastSuccess
	ToastWarning = types.ToastWarning
	ToastError   = types.ToastError
)

const quitAction = "quit"

// Model is the main application state
type Model struct {
	ctrl     *recorder.Controller
	bus      *pointer.Bus
	markers  *clickmark.Layer
	exporter *export.Service

	// UI state
	overlayStack  *overlay.Stack
	toasts        []Toast
	keys          keyMap
	spinner       spinner.Model
	styles        *styles.Styles
	overlayStyles *overlay.Styles

	// Terminal size
	width  int
	height int

	// cancelAcquire aborts an outstanding capture request
	cancelAcquire context.CancelFunc
	saving        bool
	lastSaved     *export.Recording

	config *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a new application model. The platform's capability probe runs here.
func New(cfg *config.Config, platform capture.Platform, logger *slog.Logger) Model {
	st := styles.New()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	bus := pointer.NewBus()
	markers := clickmark.New(st.Marker)

	return Model{
		ctrl:          recorder.New(platform, bus, markers, cfg.RecorderOptions(), logger),
		bus:           bus,
		markers:       markers,
		exporter:      export.NewService(cfg.Output.Dir, logger),
		overlayStack:  overlay.NewStack(),
		keys:          defaultKeyMap(),
		spinner:       s,
		styles:        st,
		overlayStyles: overlay.New(),
		config:        cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// Init returns the initial command for the application
func (m Model) Init() tea.Cmd {
	return tickEvery(time.Second)
}

// Update handles incoming messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Pending() && !m.ctrl.Finalizing() && !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if !m.overlayStack.IsEmpty() {
			if msg.String() == "ctrl+c" {
				return m.shutdown()
			}
			return m, m.overlayStack.Update(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case overlay.CloseOverlayMsg:
		m.overlayStack.Pop()
		return m, nil

	case overlay.SelectionMsg:
		return m.handleSelection(msg)

	// Capture lifecycle
	case captureAcquiredMsg:
		return m.handleAcquired(msg)

	case captureFailedMsg:
		return m.handleAcquireFailed(msg)

	case chunkReadyMsg:
		m.ctrl.ChunksReady(msg.gen)
		return m, m.watchCmd(msg.gen)

	case streamEndedMsg:
		fin, ok := m.ctrl.BeginHostStop(msg.gen)
		if !ok {
			return m, nil
		}
		m.addToast(types.NewToast(ToastWarning, "Capture ended by the system", m.now()))
		return m, tea.Batch(m.spinner.Tick, finalizeCmd(fin))

	case finalizedMsg:
		m.ctrl.CompleteStop(msg.fin)
		return m, nil

	case timerTickMsg:
		if m.ctrl.Tick(msg.gen) {
			return m, timerTick(msg.gen)
		}
		return m, nil

	case clickmark.ExpiredMsg:
		m.markers.Expire(msg.ID)
		return m, nil

	// Export
	case artifactSavedMsg:
		m.saving = false
		m.lastSaved = msg.rec
		m.addToast(types.NewToast(ToastSuccess, "Saved "+msg.rec.Filename, m.now()))
		return m, nil

	case artifactSaveFailedMsg:
		m.saving = false
		m.addToast(types.NewToast(ToastError, "Save failed: "+msg.err.Error(), m.now()))
		return m, nil

	case pathCopiedMsg:
		if msg.err != nil {
			m.addToast(types.NewToast(ToastWarning, "Copy failed: "+msg.err.Error(), m.now()))
		} else {
			m.addToast(types.NewToast(ToastInfo, "Path copied", m.now()))
		}
		return m, nil

	case tickMsg:
		m.expireToasts()
		return m, tickEvery(time.Second)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.ctrl.State().Active() {
			dialog := overlay.NewConfirmDialog(quitAction, "Quit", "A recording is in progress. Stop it and quit?")
			return m, m.overlayStack.Push(dialog)
		}
		return m.shutdown()

	case key.Matches(msg, m.keys.Help):
		return m, m.overlayStack.Push(overlay.NewHelpOverlay(m.keys.helpCategories()))

	case key.Matches(msg, m.keys.Start):
		return m.perform(controls.ActionStart)

	case key.Matches(msg, m.keys.Toggle):
		if m.ctrl.State() == domain.SessionPaused {
			return m.perform(controls.ActionResume)
		}
		return m.perform(controls.ActionPause)

	case key.Matches(msg, m.keys.Stop):
		return m.perform(controls.ActionStop)

	case key.Matches(msg, m.keys.Save):
		return m.perform(controls.ActionSave)

	case key.Matches(msg, m.keys.Copy):
		if m.lastSaved == nil {
			return m, nil
		}
		return m, copyPathCmd(m.lastSaved.Path)
	}

	return m, nil
}

// handleMouse publishes the click to observers first, then lets the
// control under the pointer react to it
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	m.bus.Publish(pointer.Event{X: msg.X, Y: msg.Y})
	markerCmd := m.markers.Flush()

	if !m.overlayStack.IsEmpty() {
		return m, markerCmd
	}

	l := m.layout()
	btn, ok := l.bar.HitTest(msg.X-l.controlsX, msg.Y-l.controlsY)
	if !ok {
		return m, markerCmd
	}

	next, cmd := m.perform(btn.Action)
	return next, tea.Batch(markerCmd, cmd)
}

// perform applies a control action to the session
func (m Model) perform(action controls.Action) (tea.Model, tea.Cmd) {
	switch action {
	case controls.ActionStart:
		return m.startRecording()

	case controls.ActionPause:
		m.ctrl.Pause()

	case controls.ActionResume:
		m.ctrl.Resume()

	case controls.ActionStop:
		if fin, ok := m.ctrl.BeginStop(); ok {
			return m, tea.Batch(m.spinner.Tick, finalizeCmd(fin))
		}

	case controls.ActionSave:
		artifact := m.ctrl.Artifact()
		if artifact == nil || m.saving {
			return m, nil
		}
		m.saving = true
		return m, tea.Batch(m.spinner.Tick, m.saveCmd(artifact, m.ctrl.Clicks()))
	}

	return m, nil
}

func (m Model) startRecording() (tea.Model, tea.Cmd) {
	gen, err := m.ctrl.BeginStart()
	if err != nil {
		if errors.Is(err, domain.ErrStartPending) || errors.Is(err, domain.ErrSessionActive) || errors.Is(err, domain.ErrFinalizing) {
			return m, nil
		}
		m.addToast(types.NewToast(ToastError, describeError(err), m.now()))
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelAcquire = cancel
	return m, tea.Batch(m.spinner.Tick, m.acquireCmd(ctx, gen))
}

func (m Model) handleAcquired(msg captureAcquiredMsg) (tea.Model, tea.Cmd) {
	m.clearAcquire()

	if err := m.ctrl.CompleteStart(msg.gen, msg.stream, msg.rec); err != nil {
		if !errors.Is(err, domain.ErrStaleSession) {
			m.addToast(types.NewToast(ToastError, describeError(err), m.now()))
		}
		return m, nil
	}

	return m, tea.Batch(m.watchCmd(msg.gen), timerTick(msg.gen))
}

func (m Model) handleAcquireFailed(msg captureFailedMsg) (tea.Model, tea.Cmd) {
	err := m.ctrl.FailStart(msg.gen, msg.err)
	if errors.Is(err, domain.ErrStaleSession) {
		return m, nil
	}
	m.clearAcquire()

	if errors.Is(err, context.Canceled) {
		return m, nil
	}
	text := describeError(err)
	if domain.IsRetryable(err) {
		text += ". Press s to try again"
	}
	if errors.Is(err, domain.ErrSelectionCancelled) {
		m.addToast(types.NewToast(ToastWarning, text, m.now()))
	} else {
		m.addToast(types.NewToast(ToastError, text, m.now()))
	}
	return m, nil
}

func (m Model) handleSelection(msg overlay.SelectionMsg) (tea.Model, tea.Cmd) {
	m.overlayStack.Pop()

	result, ok := msg.Value.(overlay.ConfirmResult)
	if !ok {
		return m, nil
	}
	if result.Action == quitAction && result.Confirmed {
		return m.shutdown()
	}
	return m, nil
}

// shutdown releases the capture before the program exits
func (m Model) shutdown() (tea.Model, tea.Cmd) {
	m.clearAcquire()
	m.ctrl.Close()
	m.logger.Info("shutting down", "state", m.ctrl.State())
	return m, tea.Quit
}

// Close releases any capture the model still holds. Safe to call after shutdown.
func (m Model) Close() {
	m.clearAcquire()
	m.ctrl.Close()
}

func (m *Model) clearAcquire() {
	if m.cancelAcquire != nil {
		m.cancelAcquire()
		m.cancelAcquire = nil
	}
}

// describeError turns a capture failure into a user-facing sentence
func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedEnvironment):
		return "Screen recording is not supported here"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "Screen capture permission was denied"
	case errors.Is(err, domain.ErrSelectionCancelled):
		return "Screen selection was cancelled"
	default:
		return fmt.Sprintf("Recording failed: %v", err)
	}
}

// Message types for async operations

type captureAcquiredMsg struct {
	gen    uint64
	stream capture.Stream
	rec    capture.MediaRecorder
}

type captureFailedMsg struct {
	gen uint64
	err error
}

type chunkReadyMsg struct {
	gen uint64
}

type streamEndedMsg struct {
	gen uint64
}

// finalizedMsg reports that a stopped session's recorder has flushed
type finalizedMsg struct {
	fin *recorder.Finalizer
}

type timerTickMsg struct {
	gen uint64
}

type artifactSavedMsg struct {
	rec *export.Recording
}

type artifactSaveFailedMsg struct {
	err error
}

type pathCopiedMsg struct {
	err error
}

type tickMsg time.Time

// Commands

// acquireCmd requests a capture off the event loop
func (m Model) acquireCmd(ctx context.Context, gen uint64) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		stream, rec, err := ctrl.Acquire(ctx)
		if err != nil {
			return captureFailedMsg{gen: gen, err: err}
		}
		return captureAcquiredMsg{gen: gen, stream: stream, rec: rec}
	}
}

// watchCmd waits for the next platform notification of the live session
func (m Model) watchCmd(gen uint64) tea.Cmd {
	if gen != m.ctrl.Generation() || !m.ctrl.State().Active() {
		return nil
	}
	ready, ended := m.ctrl.Watch()
	if ready == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ended:
			return streamEndedMsg{gen: gen}
		case <-ready:
			return chunkReadyMsg{gen: gen}
		}
	}
}

// finalizeCmd waits for the encoder to flush off the event loop
func finalizeCmd(fin *recorder.Finalizer) tea.Cmd {
	return func() tea.Msg {
		fin.Run()
		return finalizedMsg{fin: fin}
	}
}

func timerTick(gen uint64) tea.Cmd {
	return tea.Tick(recorder.TickInterval, func(time.Time) tea.Msg {
		return timerTickMsg{gen: gen}
	})
}

func tickEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) saveCmd(artifact *domain.Artifact, clicks []domain.ClickEvent) tea.Cmd {
	exporter := m.exporter
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		rec, err := exporter.Save(ctx, artifact, clicks)
		if err != nil {
			return artifactSaveFailedMsg{err: err}
		}
		return artifactSavedMsg{rec: rec}
	}
}

func copyPathCmd(path string) tea.Cmd {
	return func() tea.Msg {
		return pathCopiedMsg{err: export.CopyPath(path)}
	}
}

// addToast adds a toast notification to the list
func (m *Model) addToast(t Toast) {
	m.toasts = append(m.toasts, t)
}

// expireToasts removes expired toasts from the list
func (m *Model) expireToasts() {
	m.toasts = toast.Prune(m.toasts, m.now())
}

// View

// screenLayout is the recorder panel plus where its controls landed
type screenLayout struct {
	body      string
	bar       controls.Bar
	controlsX int
	controlsY int
}

// layout renders the main panel. Mouse hit-testing uses the same layout so
// the clickable area always matches what is drawn.
func (m Model) layout() screenLayout {
	view := m.ctrl.Snapshot()
	bar := controls.New(view, m.styles)

	var sections []string
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		m.styles.Title.Render("clickrec"),
		"  ",
		m.styles.StateBadge(view.State).Render(view.State.Icon()+" "+view.State.Label()),
	)
	sections = append(sections, header, "")

	if !view.Supported {
		sections = append(sections, m.renderUnsupported())
		return m.frame(sections, bar, -1)
	}

	sections = append(sections, m.renderReadout(view), "")
	controlsRow := len(strings.Split(strings.Join(sections, "\n"), "\n"))
	sections = append(sections, bar.Render(), "")

	if view.Pending {
		sections = append(sections, m.spinner.View()+" Waiting for screen capture…")
	} else if view.Finalizing {
		sections = append(sections, m.spinner.View()+" Finalizing recording…")
	} else if m.saving {
		sections = append(sections, m.spinner.View()+" Saving…")
	} else if m.lastSaved != nil {
		sections = append(sections, m.styles.StatusInfo.Render("Last saved: "+m.lastSaved.Path))
	}

	return m.frame(sections, bar, controlsRow)
}

func (m Model) frame(sections []string, bar controls.Bar, controlsRow int) screenLayout {
	pt, _, _, pl := m.styles.App.GetPadding()
	return screenLayout{
		body:      m.styles.App.Render(strings.Join(sections, "\n")),
		bar:       bar,
		controlsX: pl,
		controlsY: pt + controlsRow,
	}
}

func (m Model) renderReadout(view recorder.ReadModel) string {
	timer := m.styles.Timer
	prefix := ""
	if view.State == domain.SessionRecording {
		timer = m.styles.TimerLive
		prefix = "REC "
	}

	parts := []string{
		timer.Render(prefix + view.Elapsed),
		m.styles.Clicks.Render(fmt.Sprintf("%d clicks tracked", view.ClickCount)),
	}
	if view.HasArtifact {
		parts = append(parts, m.styles.Artifact.Render(fmt.Sprintf("%s ready", formatBytes(view.ArtifactSize))))
	}
	return strings.Join(parts, m.styles.StatusHint.Render("  •  "))
}

func (m Model) renderUnsupported() string {
	reason := "Screen recording is not supported in this environment."
	if err := m.ctrl.Supported(); err != nil {
		reason += "\n" + err.Error()
	}
	reason += "\n\nRun `clickrec doctor` for details."
	return m.styles.Notice.Render(reason)
}

// View renders the whole screen
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	sb := statusbar.New(m.ctrl.Snapshot(), m.width, m.styles).Render()
	mainHeight := max(m.height-lipgloss.Height(sb), 1)

	var main string
	if !m.overlayStack.IsEmpty() {
		main = overlay.Frame(m.overlayStack.Current(), m.overlayStyles, m.width, mainHeight)
	} else {
		body := m.layout().body
		toastView := toast.New(m.styles).Render(m.toasts, m.width)
		if toastView != "" {
			bodyHeight := max(mainHeight-lipgloss.Height(toastView), 0)
			main = lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.Place(m.width, bodyHeight, lipgloss.Left, lipgloss.Top, body),
				lipgloss.PlaceHorizontal(m.width, lipgloss.Right, toastView),
			)
		} else {
			main = lipgloss.Place(m.width, mainHeight, lipgloss.Left, lipgloss.Top, body)
		}
	}

	view := lipgloss.JoinVertical(lipgloss.Left, main, sb)
	return m.markers.Render(view)
}

func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := int64(n) / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
