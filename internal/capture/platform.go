// Package capture abstracts the platform screen-capture and media-recording
// primitives the recording controller drives.
//
// A Platform hands out a Stream (the live capture handle) and a MediaRecorder
// that encodes that stream into chunks. Callbacks from the platform are exposed
// as channels so the caller can fold them into a single-threaded event loop.
package capture

import (
	"context"
	"time"
)

// Track kinds
const (
	KindVideo = "video"
	KindAudio = "audio"
)

// VideoConstraints bounds the captured video surface
type VideoConstraints struct {
	IdealWidth     int `json:"idealWidth"`
	MaxWidth       int `json:"maxWidth"`
	IdealHeight    int `json:"idealHeight"`
	MaxHeight      int `json:"maxHeight"`
	IdealFrameRate int `json:"idealFrameRate"`
	MaxFrameRate   int `json:"maxFrameRate"`
}

// AudioConstraints configures the captured audio track
type AudioConstraints struct {
	EchoCancellation bool `json:"echoCancellation"`
	NoiseSuppression bool `json:"noiseSuppression"`
	SampleRate       int  `json:"sampleRate"`
}

// Constraints is the display capture request
type Constraints struct {
	Video VideoConstraints `json:"video"`
	Audio AudioConstraints `json:"audio"`
}

// DefaultConstraints returns a 1080p30 request with unprocessed 44.1kHz audio
func DefaultConstraints() Constraints {
	return Constraints{
		Video: VideoConstraints{
			IdealWidth:     1920,
			MaxWidth:       1920,
			IdealHeight:    1080,
			MaxHeight:      1080,
			IdealFrameRate: 30,
			MaxFrameRate:   30,
		},
		Audio: AudioConstraints{
			EchoCancellation: false,
			NoiseSuppression: false,
			SampleRate:       44100,
		},
	}
}

// RecorderOptions selects the container/codec and chunk cadence
type RecorderOptions struct {
	MimeType  string
	Timeslice time.Duration
}

// DefaultRecorderOptions returns webm/vp9 with 100ms chunks
func DefaultRecorderOptions() RecorderOptions {
	return RecorderOptions{
		MimeType:  "video/webm; codecs=vp9",
		Timeslice: 100 * time.Millisecond,
	}
}

// Track is one media track of a capture stream
type Track interface {
	Kind() string
	Stop()
	Stopped() bool
}

// Stream is an active capture handle. Stop releases every track and is idempotent.
// Ended is closed when capture ends for any reason, including the host revoking it.
type Stream interface {
	ID() string
	Tracks() []Track
	Ended() <-chan struct{}
	Stop()
}

// MediaRecorder encodes a stream into chunks.
//
// Ready is signalled whenever chunks are queued; TakeChunks drains the queue in
// arrival order. Pause queues what was encoded before it. Stop blocks until
// the final chunk has been queued, even when called while paused.
type MediaRecorder interface {
	Start() error
	Pause()
	Resume()
	Stop() error
	Ready() <-chan struct{}
	TakeChunks() [][]byte
	MimeType() string
}

// Platform provides display capture and recording
type Platform interface {
	// Supported returns nil when display capture is available at all
	Supported() error
	RequestDisplay(ctx context.Context, c Constraints) (Stream, error)
	NewRecorder(s Stream, opts RecorderOptions) (MediaRecorder, error)
}
