package domain

import (
	"fmt"
	"time"
)

// WebMType is the media type of every finalized recording
const WebMType = "video/webm"

// Artifact is the finalized recording produced when a session stops
type Artifact struct {
	Data      []byte
	MimeType  string
	CreatedAt time.Time
}

// Size returns the artifact length in bytes
func (a *Artifact) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// Filename returns the name the artifact is offered under
func (a *Artifact) Filename() string {
	return fmt.Sprintf("screen-recording-%d.webm", a.CreatedAt.UnixMilli())
}
