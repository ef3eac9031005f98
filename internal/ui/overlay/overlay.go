// Package overlay provides modal dialogs drawn on top of the recorder view.
package overlay

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Overlay represents a modal overlay component
type Overlay interface {
	tea.Model
	Title() string
	Size() (width, height int)
}

// CloseOverlayMsg signals that the overlay should be closed
type CloseOverlayMsg struct{}

// SelectionMsg is sent when a choice is made in an overlay
type SelectionMsg struct {
	Key   string
	Value any
}

// Frame renders an overlay's title and body inside the overlay border,
// centered in a width x height area
func Frame(o Overlay, s *Styles, width, height int) string {
	w, _ := o.Size()
	if width > 0 && w > width-2 {
		w = width - 2
	}

	body := o.View()
	if title := o.Title(); title != "" {
		body = s.Title.Render(title) + "\n" + body
	}
	box := s.Overlay.Width(w).Render(body)

	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
