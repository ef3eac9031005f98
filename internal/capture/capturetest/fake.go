// Package capturetest provides a scriptable in-memory capture platform for tests.
package capturetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/riordanpawley/clickrec/internal/capture"
)

// Platform is a fake capture.Platform
type Platform struct {
	SupportErr error
	RequestErr error
	// Gate, when set, blocks RequestDisplay until it is closed
	Gate chan struct{}

	mu          sync.Mutex
	constraints []capture.Constraints
	streams     []*Stream
	recorders   []*Recorder
}

// NewPlatform creates a fake platform that grants every request
func NewPlatform() *Platform {
	return &Platform{}
}

func (p *Platform) Supported() error {
	return p.SupportErr
}

func (p *Platform) RequestDisplay(ctx context.Context, c capture.Constraints) (capture.Stream, error) {
	p.mu.Lock()
	p.constraints = append(p.constraints, c)
	gate := p.Gate
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.RequestErr != nil {
		return nil, p.RequestErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	s := &Stream{
		id:    fmt.Sprintf("stream-%d", len(p.streams)+1),
		ended: make(chan struct{}),
	}
	s.tracks = []*Track{{kind: capture.KindVideo}, {kind: capture.KindAudio}}
	p.streams = append(p.streams, s)
	return s, nil
}

func (p *Platform) NewRecorder(s capture.Stream, opts capture.RecorderOptions) (capture.MediaRecorder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := &Recorder{
		mimeType: opts.MimeType,
		ready:    make(chan struct{}, 1),
	}
	p.recorders = append(p.recorders, r)
	return r, nil
}

// Requests returns every constraint set passed to RequestDisplay
func (p *Platform) Requests() []capture.Constraints {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]capture.Constraints(nil), p.constraints...)
}

// LastStream returns the most recently granted stream, or nil
func (p *Platform) LastStream() *Stream {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.streams) == 0 {
		return nil
	}
	return p.streams[len(p.streams)-1]
}

// LastRecorder returns the most recently created recorder, or nil
func (p *Platform) LastRecorder() *Recorder {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.recorders) == 0 {
		return nil
	}
	return p.recorders[len(p.recorders)-1]
}

// Track is a fake media track
type Track struct {
	mu      sync.Mutex
	kind    string
	stopped bool
}

func (t *Track) Kind() string { return t.kind }

func (t *Track) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Stream is a fake capture.Stream
type Stream struct {
	id      string
	tracks  []*Track
	ended   chan struct{}
	endOnce sync.Once
}

func (s *Stream) ID() string { return s.id }

func (s *Stream) Tracks() []capture.Track {
	out := make([]capture.Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

func (s *Stream) Ended() <-chan struct{} { return s.ended }

func (s *Stream) Stop() {
	for _, t := range s.tracks {
		t.Stop()
	}
	s.endOnce.Do(func() { close(s.ended) })
}

// EndByHost simulates the host revoking capture: Ended fires, tracks are left for the owner to stop
func (s *Stream) EndByHost() {
	s.endOnce.Do(func() { close(s.ended) })
}

// Released reports whether every track has been stopped
func (s *Stream) Released() bool {
	for _, t := range s.tracks {
		if !t.Stopped() {
			return false
		}
	}
	return true
}

// Recorder is a fake capture.MediaRecorder driven by Emit
type Recorder struct {
	// Tail is queued when Stop is called, like a final dataavailable event
	Tail []byte
	// Buffered is encoded data not yet handed over; Pause queues it
	Buffered []byte
	StopErr  error

	mu       sync.Mutex
	mimeType string
	started  bool
	paused   bool
	stopped  bool
	queue    [][]byte
	ready    chan struct{}
}

func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("recorder already started")
	}
	r.started = true
	return nil
}

func (r *Recorder) Pause() {
	r.mu.Lock()
	r.paused = true
	if len(r.Buffered) > 0 {
		r.queue = append(r.queue, r.Buffered)
		r.Buffered = nil
	}
	r.mu.Unlock()
}

func (r *Recorder) Resume() {
	r.mu.Lock()
	r.paused = false
	r.mu.Unlock()
}

func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Tail) > 0 && !r.stopped {
		r.queue = append(r.queue, r.Tail)
	}
	r.stopped = true
	return r.StopErr
}

func (r *Recorder) Ready() <-chan struct{} { return r.ready }

func (r *Recorder) TakeChunks() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queue
	r.queue = nil
	return q
}

func (r *Recorder) MimeType() string { return r.mimeType }

// Emit queues a chunk as if the encoder produced it, regardless of pause state
func (r *Recorder) Emit(chunk []byte) {
	r.mu.Lock()
	r.queue = append(r.queue, chunk)
	r.mu.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// State reports the recorder's lifecycle flags
func (r *Recorder) State() (started, paused, stopped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started, r.paused, r.stopped
}
