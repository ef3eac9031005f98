package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// KeyBinding represents a single keybinding entry
type KeyBinding struct {
	Key         string
	Description string
}

// KeyCategory represents a category of keybindings
type KeyCategory struct {
	Name     string
	Bindings []KeyBinding
}

// HelpOverlay displays a keybinding reference
type HelpOverlay struct {
	styles     *Styles
	categories []KeyCategory
	scroll     int
	viewHeight int
}

// NewHelpOverlay creates a help overlay listing categories
func NewHelpOverlay(categories []KeyCategory) *HelpOverlay {
	return &HelpOverlay{
		styles:     New(),
		categories: categories,
		viewHeight: 16,
	}
}

func (h *HelpOverlay) Init() tea.Cmd {
	return nil
}

func (h *HelpOverlay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return h, nil
	}

	switch key.String() {
	case "esc", "q", "?":
		return h, func() tea.Msg { return CloseOverlayMsg{} }
	case "j", "down":
		h.scroll = min(h.scroll+1, h.maxScroll())
	case "k", "up":
		h.scroll = max(h.scroll-1, 0)
	case "g":
		h.scroll = 0
	case "G":
		h.scroll = h.maxScroll()
	}
	return h, nil
}

func (h *HelpOverlay) lines() []string {
	var lines []string
	for i, cat := range h.categories {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, h.styles.MenuHeader.Render(cat.Name+":"))
		for _, b := range cat.Bindings {
			lines = append(lines, "  "+h.styles.MenuKey.Render(b.Key)+"  "+h.styles.MenuItem.Render(b.Description))
		}
	}
	return lines
}

func (h *HelpOverlay) maxScroll() int {
	return max(0, len(h.lines())-h.viewHeight)
}

func (h *HelpOverlay) View() string {
	lines := h.lines()
	start := min(h.scroll, h.maxScroll())
	end := min(start+h.viewHeight, len(lines))

	result := strings.Join(lines[start:end], "\n")
	if h.maxScroll() > 0 {
		result += "\n" + h.styles.Footer.Render("[j/k to scroll, g/G to jump]")
	}
	return result
}

func (h *HelpOverlay) Title() string {
	return "Help"
}

func (h *HelpOverlay) Size() (width, height int) {
	return 48, h.viewHeight + 4
}
