package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/clickrec/internal/domain"
)

// Styles holds all the UI styles
type Styles struct {
	// Frame
	App    lipgloss.Style
	Title  lipgloss.Style
	Notice lipgloss.Style

	// Session readout
	StateBadge func(state domain.SessionState) lipgloss.Style
	Timer      lipgloss.Style
	TimerLive  lipgloss.Style
	Clicks     lipgloss.Style
	Artifact   lipgloss.Style

	// Control buttons
	Button         lipgloss.Style
	ButtonPrimary  lipgloss.Style
	ButtonDanger   lipgloss.Style
	ButtonDisabled lipgloss.Style
	ButtonKey      lipgloss.Style

	// Click markers
	Marker lipgloss.Style

	// Status bar
	StatusBar  lipgloss.Style
	StatusMode lipgloss.Style
	StatusHint lipgloss.Style
	StatusInfo lipgloss.Style

	// Overlays
	Overlay          lipgloss.Style
	OverlayTitle     lipgloss.Style
	MenuItem         lipgloss.Style
	MenuItemActive   lipgloss.Style
	MenuItemDisabled lipgloss.Style
	MenuKey          lipgloss.Style
	Separator        lipgloss.Style

	// Toasts
	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastWarning lipgloss.Style
	ToastError   lipgloss.Style
}

// New creates a new Styles instance with Catppuccin Macchiato theme
func New() *Styles {
	button := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface2).
		Foreground(Text).
		Padding(0, 1)

	return &Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Foreground(Mauve).
			Bold(true),

		Notice: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Foreground(Text).
			Padding(1, 2),

		StateBadge: func(state domain.SessionState) lipgloss.Style {
			color, ok := StateColors[state]
			if !ok {
				color = Overlay0
			}
			return lipgloss.NewStyle().
				Foreground(Base).
				Background(color).
				Padding(0, 1).
				Bold(true)
		},

		Timer: lipgloss.NewStyle().
			Foreground(Subtext1).
			Bold(true),

		TimerLive: lipgloss.NewStyle().
			Foreground(Red).
			Bold(true),

		Clicks: lipgloss.NewStyle().
			Foreground(Sky),

		Artifact: lipgloss.NewStyle().
			Foreground(Green),

		Button: button,

		ButtonPrimary: button.
			BorderForeground(Blue).
			Foreground(Blue),

		ButtonDanger: button.
			BorderForeground(Red).
			Foreground(Red),

		ButtonDisabled: button.
			BorderForeground(Surface1).
			Foreground(Overlay0),

		ButtonKey: lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true),

		Marker: lipgloss.NewStyle().
			Foreground(Peach).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Background(Surface0).
			Foreground(Subtext0).
			Padding(0, 1),

		StatusMode: lipgloss.NewStyle().
			Background(Blue).
			Foreground(Base).
			Bold(true).
			Padding(0, 1),

		StatusHint: lipgloss.NewStyle().
			Foreground(Overlay1),

		StatusInfo: lipgloss.NewStyle().
			Foreground(Subtext0),

		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Background(Base).
			Padding(1, 2),

		OverlayTitle: lipgloss.NewStyle().
			Foreground(Text).
			Bold(true).
			MarginBottom(1),

		MenuItem: lipgloss.NewStyle().
			Foreground(Text),

		MenuItemActive: lipgloss.NewStyle().
			Foreground(Blue).
			Bold(true),

		MenuItemDisabled: lipgloss.NewStyle().
			Foreground(Overlay0),

		MenuKey: lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true),

		Separator: lipgloss.NewStyle().
			Foreground(Surface1),

		ToastInfo: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Blue).
			Foreground(Blue).
			Padding(0, 1),

		ToastSuccess: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Green).
			Foreground(Green).
			Padding(0, 1),

		ToastWarning: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Yellow).
			Foreground(Yellow).
			Padding(0, 1),

		ToastError: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Foreground(Red).
			Padding(0, 1),
	}
}

// SessionState returns the foreground style for a session state
func (s *Styles) SessionState(state domain.SessionState) lipgloss.Style {
	color, ok := StateColors[state]
	if !ok {
		color = Overlay0
	}
	return lipgloss.NewStyle().Foreground(color)
}
