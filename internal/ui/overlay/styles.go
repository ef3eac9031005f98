package overlay

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/riordanpawley/clickrec/internal/ui/styles"
)

// Styles holds all overlay-specific styles
type Styles struct {
	Overlay          lipgloss.Style
	Title            lipgloss.Style
	MenuItem         lipgloss.Style
	MenuItemActive   lipgloss.Style
	MenuItemDisabled lipgloss.Style
	MenuKey          lipgloss.Style
	Separator        lipgloss.Style
	// Footer is the style for overlay footer text
	Footer lipgloss.Style
	// MenuHeader is the style for section headers
	MenuHeader lipgloss.Style
}

// New derives overlay styles from the shared theme
func New() *Styles {
	base := styles.New()
	return &Styles{
		Overlay:          base.Overlay,
		Title:            base.OverlayTitle,
		MenuItem:         base.MenuItem,
		MenuItemActive:   base.MenuItemActive,
		MenuItemDisabled: base.MenuItemDisabled,
		MenuKey:          base.MenuKey,
		Separator:        base.Separator,

		Footer: lipgloss.NewStyle().
			Foreground(styles.Subtext0).
			MarginTop(1),

		MenuHeader: lipgloss.NewStyle().
			Foreground(styles.Sapphire).
			Bold(true),
	}
}
