package recorder

import (
	"fmt"
	"time"
)

// TickInterval is the wall-clock period of one elapsed-time step
const TickInterval = time.Second

// SessionTimer counts whole seconds spent recording
type SessionTimer struct {
	elapsed int
}

// Advance adds one second
func (t *SessionTimer) Advance() {
	t.elapsed++
}

// Reset zeroes the counter for a new session
func (t *SessionTimer) Reset() {
	t.elapsed = 0
}

// Seconds returns the elapsed whole seconds
func (t *SessionTimer) Seconds() int {
	return t.elapsed
}

// FormatElapsed renders seconds as mm:ss. Minutes are not wrapped into hours.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
