package statusbar

import (
	"github.com/riordanpawley/clickrec/internal/domain"
	"github.com/riordanpawley/clickrec/internal/recorder"
)

// GetHints returns the keybinding hints for the given session view
func GetHints(view recorder.ReadModel) string {
	if !view.Supported {
		return "?: help  q: quit"
	}
	if view.Pending {
		return "Waiting for capture permission…  q: quit"
	}
	if view.Finalizing {
		return "Finalizing recording…  q: quit"
	}

	switch view.State {
	case domain.SessionIdle:
		return "s: start  ?: help  q: quit"
	case domain.SessionRecording:
		return "Space: pause  x: stop  click: mark  ?: help"
	case domain.SessionPaused:
		return "Space: resume  x: stop  ?: help"
	case domain.SessionStopped:
		if view.HasArtifact {
			return "d: save  s: new recording  ?: help  q: quit"
		}
		return "s: new recording  ?: help  q: quit"
	default:
		return ""
	}
}
