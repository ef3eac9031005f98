package statusbar

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/clickrec/internal/recorder"
	"github.com/riordanpawley/clickrec/internal/ui/styles"
)

// StatusBar represents the status bar at the bottom of the TUI
type StatusBar struct {
	view   recorder.ReadModel
	width  int
	styles *styles.Styles
}

// New creates a new StatusBar for the given session view, width, and styles
func New(view recorder.ReadModel, width int, styles *styles.Styles) StatusBar {
	return StatusBar{
		view:   view,
		width:  width,
		styles: styles,
	}
}

// Render renders the status bar as a string
func (sb StatusBar) Render() string {
	badge := sb.styles.StatusMode.
		Background(styles.StateColors[sb.view.State]).
		Render(" " + sb.label() + " ")

	hints := GetHints(sb.view)
	hintsRendered := sb.styles.StatusHint.Render(hints)

	var content string
	if hints != "" {
		separator := sb.styles.StatusHint.Render(" │ ")
		content = lipgloss.JoinHorizontal(lipgloss.Left, badge, separator, hintsRendered)
	} else {
		content = badge
	}

	return sb.styles.StatusBar.Width(sb.width).Render(content)
}

func (sb StatusBar) label() string {
	switch {
	case !sb.view.Supported:
		return "UNSUPPORTED"
	case sb.view.Pending:
		return "WAITING"
	default:
		return sb.view.State.Label()
	}
}
