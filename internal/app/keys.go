package app

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/riordanpawley/clickrec/internal/ui/overlay"
)

type keyMap struct {
	Start  key.Binding
	Toggle key.Binding
	Stop   key.Binding
	Save   key.Binding
	Copy   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start a new recording"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space/p", "pause or resume"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop and finalize"),
		),
		Save: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "save recording to the output dir"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy last saved path"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// helpCategories lists the bindings for the help overlay
func (k keyMap) helpCategories() []overlay.KeyCategory {
	group := func(name string, bindings ...key.Binding) overlay.KeyCategory {
		cat := overlay.KeyCategory{Name: name}
		for _, b := range bindings {
			h := b.Help()
			cat.Bindings = append(cat.Bindings, overlay.KeyBinding{Key: h.Key, Description: h.Desc})
		}
		return cat
	}

	return []overlay.KeyCategory{
		group("Recording", k.Start, k.Toggle, k.Stop),
		group("Output", k.Save, k.Copy),
		{
			Name: "Mouse",
			Bindings: []overlay.KeyBinding{
				{Key: "click", Description: "mark a click while recording"},
				{Key: "click button", Description: "press an on-screen control"},
			},
		},
		group("Other", k.Help, k.Quit),
	}
}
