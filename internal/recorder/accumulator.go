package recorder

import (
	"time"

	"github.com/riordanpawley/clickrec/internal/domain"
)

// Accumulator collects recorder chunks in arrival order until finalized
type Accumulator struct {
	chunks [][]byte
	size   int
}

// Append adds a chunk. Zero-length chunks are ignored.
func (a *Accumulator) Append(chunk []byte) bool {
	if len(chunk) == 0 {
		return false
	}
	a.chunks = append(a.chunks, chunk)
	a.size += len(chunk)
	return true
}

// Len returns the number of chunks held
func (a *Accumulator) Len() int {
	return len(a.chunks)
}

// Size returns the total bytes held
func (a *Accumulator) Size() int {
	return a.size
}

// Finalize concatenates the held chunks into an artifact and drains the accumulator.
// Returns nil when nothing was accumulated.
func (a *Accumulator) Finalize(mimeType string, at time.Time) *domain.Artifact {
	if len(a.chunks) == 0 {
		return nil
	}

	data := make([]byte, 0, a.size)
	for _, c := range a.chunks {
		data = append(data, c...)
	}
	a.Reset()

	return &domain.Artifact{
		Data:      data,
		MimeType:  mimeType,
		CreatedAt: at,
	}
}

// Reset drops everything held
func (a *Accumulator) Reset() {
	a.chunks = nil
	a.size = 0
}
