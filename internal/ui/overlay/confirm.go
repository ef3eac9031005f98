package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmDialog is a Yes/No dialog. The answer is delivered as a
// SelectionMsg carrying a ConfirmResult tagged with the dialog's action.
type ConfirmDialog struct {
	action   string
	title    string
	message  string
	styles   *Styles
	selected bool // true = Yes
}

// ConfirmResult is the answer to a ConfirmDialog
type ConfirmResult struct {
	Action    string
	Confirmed bool
}

// NewConfirmDialog creates a dialog for action, defaulting to No
func NewConfirmDialog(action, title, message string) *ConfirmDialog {
	return &ConfirmDialog{
		action:  action,
		title:   title,
		message: message,
		styles:  New(),
	}
}

func (c *ConfirmDialog) Init() tea.Cmd {
	return nil
}

func (c *ConfirmDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	switch key.String() {
	case "y", "Y":
		return c, c.answer(true)
	case "n", "N", "esc":
		return c, c.answer(false)
	case "enter":
		return c, c.answer(c.selected)
	case "left", "h":
		c.selected = true
	case "right", "l", "tab":
		c.selected = false
	}
	return c, nil
}

func (c *ConfirmDialog) answer(yes bool) tea.Cmd {
	key := "no"
	if yes {
		key = "yes"
	}
	result := ConfirmResult{Action: c.action, Confirmed: yes}
	return func() tea.Msg {
		return SelectionMsg{Key: key, Value: result}
	}
}

func (c *ConfirmDialog) View() string {
	var b strings.Builder

	if c.message != "" {
		b.WriteString(c.styles.MenuItem.Render(c.message))
		b.WriteString("\n\n")
	}

	yesStyle, noStyle := c.styles.MenuItem, c.styles.MenuItemActive
	if c.selected {
		yesStyle, noStyle = c.styles.MenuItemActive, c.styles.MenuItem
	}
	b.WriteString(yesStyle.Render("[Y] Yes"))
	b.WriteString("    ")
	b.WriteString(noStyle.Render("[N] No"))
	b.WriteString("\n")

	b.WriteString(c.styles.Footer.Render("← →: Switch • Enter: Confirm • Esc: Cancel"))

	return b.String()
}

func (c *ConfirmDialog) Title() string {
	return c.title
}

func (c *ConfirmDialog) Size() (width, height int) {
	messageLines := len(strings.Split(c.message, "\n"))
	return 50, messageLines + 6
}
