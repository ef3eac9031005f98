// Package domain holds the recording session vocabulary shared by the controller,
// the capture backends and the UI.
package domain

// SessionState represents the lifecycle state of a recording session
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionRecording SessionState = "recording"
	SessionPaused    SessionState = "paused"
	SessionStopped   SessionState = "stopped"
)

// Icon returns a unicode icon for the state
func (s SessionState) Icon() string {
	switch s {
	case SessionIdle:
		return "○"
	case SessionRecording:
		return "●"
	case SessionPaused:
		return "⏸"
	case SessionStopped:
		return "■"
	default:
		return "?"
	}
}

// Label returns the human-facing name shown in the status line
func (s SessionState) Label() string {
	switch s {
	case SessionIdle:
		return "Ready"
	case SessionRecording:
		return "Recording"
	case SessionPaused:
		return "Paused"
	case SessionStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Active reports whether the session owns a live capture stream
func (s SessionState) Active() bool {
	return s == SessionRecording || s == SessionPaused
}

// String returns the display string
func (s SessionState) String() string {
	return string(s)
}
