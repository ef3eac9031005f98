package domain

// ClickEvent is a pointer click observed while a session was recording.
// Timestamp is wall-clock unix milliseconds at arrival.
type ClickEvent struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Timestamp int64  `json:"timestamp"`
	ID        string `json:"id"`
}
