// Package controls renders the recorder's button row and maps mouse
// positions back to the button under them.
package controls

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/clickrec/internal/domain"
	"github.com/riordanpawley/clickrec/internal/recorder"
	"github.com/riordanpawley/clickrec/internal/ui/styles"
)

// Action is what a button does when pressed
type Action string

const (
	ActionStart  Action = "start"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionStop   Action = "stop"
	ActionSave   Action = "save"
)

// Button is one control in the row
type Button struct {
	Action  Action
	Key     string
	Label   string
	Enabled bool
}

// gap is the number of columns between buttons
const gap = 1

// Bar is the button row for one session view
type Bar struct {
	buttons []Button
	styles  *styles.Styles
}

// New builds the buttons that apply to the session view
func New(view recorder.ReadModel, s *styles.Styles) Bar {
	return Bar{buttons: Buttons(view), styles: s}
}

// Buttons returns the controls offered in the given session view
func Buttons(view recorder.ReadModel) []Button {
	if !view.Supported {
		return nil
	}
	if view.Pending {
		return []Button{{Action: ActionStart, Key: "s", Label: "Starting…"}}
	}
	if view.Finalizing {
		return []Button{{Action: ActionStart, Key: "s", Label: "Finalizing…"}}
	}

	switch view.State {
	case domain.SessionRecording:
		return []Button{
			{Action: ActionPause, Key: "space", Label: "Pause", Enabled: true},
			{Action: ActionStop, Key: "x", Label: "Stop", Enabled: true},
		}
	case domain.SessionPaused:
		return []Button{
			{Action: ActionResume, Key: "space", Label: "Resume", Enabled: true},
			{Action: ActionStop, Key: "x", Label: "Stop", Enabled: true},
		}
	case domain.SessionStopped:
		buttons := []Button{{Action: ActionStart, Key: "s", Label: "New recording", Enabled: true}}
		if view.HasArtifact {
			buttons = append(buttons, Button{Action: ActionSave, Key: "d", Label: "Save", Enabled: true})
		}
		return buttons
	default:
		return []Button{{Action: ActionStart, Key: "s", Label: "Start recording", Enabled: true}}
	}
}

// Buttons returns the row's buttons in display order
func (b Bar) Buttons() []Button {
	return b.buttons
}

func (b Bar) renderButton(btn Button) string {
	style := b.styles.Button
	switch {
	case !btn.Enabled:
		style = b.styles.ButtonDisabled
	case btn.Action == ActionStop:
		style = b.styles.ButtonDanger
	case btn.Action == ActionStart || btn.Action == ActionSave:
		style = b.styles.ButtonPrimary
	}
	return style.Render(b.styles.ButtonKey.Render(btn.Key) + " " + btn.Label)
}

// Render draws the buttons side by side
func (b Bar) Render() string {
	if len(b.buttons) == 0 {
		return ""
	}
	parts := make([]string, 0, len(b.buttons)*2)
	for i, btn := range b.buttons {
		if i > 0 {
			parts = append(parts, strings.Repeat(" ", gap))
		}
		parts = append(parts, b.renderButton(btn))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// HitTest returns the enabled button covering x,y, relative to the top-left
// of the rendered row
func (b Bar) HitTest(x, y int) (Button, bool) {
	if x < 0 || y < 0 {
		return Button{}, false
	}
	left := 0
	for _, btn := range b.buttons {
		rendered := b.renderButton(btn)
		w, h := lipgloss.Width(rendered), lipgloss.Height(rendered)
		if x >= left && x < left+w && y < h {
			return btn, btn.Enabled
		}
		left += w + gap
	}
	return Button{}, false
}
