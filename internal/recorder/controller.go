// Package recorder implements the recording session controller: capture
// lifecycle, chunk accumulation, click correlation and the session timer.
//
// The controller is driven from a single event loop. Only Acquire and
// Finalizer.Run may run off-loop; they touch nothing the loop still owns.
// Every platform notification carries the session generation it belongs to so
// that late results from a superseded session are discarded.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/riordanpawley/clickrec/internal/capture"
	"github.com/riordanpawley/clickrec/internal/domain"
	"github.com/riordanpawley/clickrec/internal/pointer"
)

// DefaultMarkerLifetime is how long a click ring stays on screen
const DefaultMarkerLifetime = 600 * time.Millisecond

// Options configures a Controller
type Options struct {
	Constraints    capture.Constraints
	Recorder       capture.RecorderOptions
	MarkerLifetime time.Duration
}

// DefaultOptions returns 1080p30 webm/vp9 capture with 100ms chunks
func DefaultOptions() Options {
	return Options{
		Constraints:    capture.DefaultConstraints(),
		Recorder:       capture.DefaultRecorderOptions(),
		MarkerLifetime: DefaultMarkerLifetime,
	}
}

// ReadModel is the UI-facing view of the session
type ReadModel struct {
	State          domain.SessionState
	Elapsed        string
	ElapsedSeconds int
	ClickCount     int
	HasArtifact    bool
	ArtifactSize   int
	Pending        bool
	Finalizing     bool
	Supported      bool
}

// Controller owns the single recording session
type Controller struct {
	platform   capture.Platform
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
	supportErr error

	state   domain.SessionState
	gen     uint64
	pending bool

	stream     capture.Stream
	rec        capture.MediaRecorder
	finalizing *Finalizer
	timer      SessionTimer
	chunks     Accumulator
	clicks     *Correlator
	artifact   *domain.Artifact
}

// New creates a controller. Platform support is probed once here and never again.
func New(platform capture.Platform, bus *pointer.Bus, markers MarkerSink, opts Options, logger *slog.Logger) *Controller {
	if opts.MarkerLifetime <= 0 {
		opts.MarkerLifetime = DefaultMarkerLifetime
	}

	c := &Controller{
		platform: platform,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		state:    domain.SessionIdle,
		clicks:   NewCorrelator(bus, markers, opts.MarkerLifetime),
	}

	if err := platform.Supported(); err != nil {
		if !errors.Is(err, domain.ErrUnsupportedEnvironment) {
			err = fmt.Errorf("%w: %v", domain.ErrUnsupportedEnvironment, err)
		}
		c.supportErr = err
		logger.Warn("screen capture unavailable", "error", err)
	}

	return c
}

// Supported returns the result of the startup capability probe
func (c *Controller) Supported() error {
	return c.supportErr
}

// BeginStart reserves a new session generation for an outgoing capture request
func (c *Controller) BeginStart() (uint64, error) {
	switch {
	case c.supportErr != nil:
		return 0, c.supportErr
	case c.pending:
		return 0, domain.ErrStartPending
	case c.finalizing != nil:
		return 0, domain.ErrFinalizing
	case c.state.Active():
		return 0, domain.ErrSessionActive
	}

	c.gen++
	c.pending = true
	c.logger.Debug("capture requested", "gen", c.gen)
	return c.gen, nil
}

// Acquire asks the platform for a stream and a recorder. It does not touch
// controller state and is meant to run outside the event loop.
func (c *Controller) Acquire(ctx context.Context) (capture.Stream, capture.MediaRecorder, error) {
	stream, err := c.platform.RequestDisplay(ctx, c.opts.Constraints)
	if err != nil {
		return nil, nil, err
	}

	rec, err := c.platform.NewRecorder(stream, c.opts.Recorder)
	if err != nil {
		stream.Stop()
		return nil, nil, &domain.CaptureError{Op: "record", Message: "creating recorder", Err: err}
	}
	return stream, rec, nil
}

// CompleteStart applies a granted capture to the session reserved by gen.
// A stale grant is released and ErrStaleSession returned.
func (c *Controller) CompleteStart(gen uint64, stream capture.Stream, rec capture.MediaRecorder) error {
	if gen != c.gen || !c.pending {
		releaseStream(stream)
		c.logger.Debug("discarding stale capture", "gen", gen, "current", c.gen)
		return domain.ErrStaleSession
	}
	c.pending = false

	if err := rec.Start(); err != nil {
		releaseStream(stream)
		return &domain.CaptureError{Op: "record", Message: "starting recorder", Err: err}
	}

	c.timer.Reset()
	c.clicks.Reset()
	c.chunks.Reset()
	c.artifact = nil

	c.stream = stream
	c.rec = rec
	c.state = domain.SessionRecording
	c.clicks.Attach()

	c.logger.Info("recording started", "gen", gen, "stream", stream.ID())
	return nil
}

// FailStart records that the request reserved by gen was refused.
// The session keeps whatever state it had before the request.
func (c *Controller) FailStart(gen uint64, err error) error {
	if gen != c.gen || !c.pending {
		return domain.ErrStaleSession
	}
	c.pending = false

	var capErr *domain.CaptureError
	if !errors.As(err, &capErr) && !errors.Is(err, context.Canceled) {
		err = &domain.CaptureError{Op: "request", Err: err}
	}
	c.logger.Warn("capture request failed", "gen", gen, "error", err)
	return err
}

// Pause stops accepting chunks and clicks. The stream stays open.
func (c *Controller) Pause() bool {
	if c.state != domain.SessionRecording {
		return false
	}

	// The recorder hands over what it buffered before the pause
	c.rec.Pause()
	c.collect()
	c.clicks.Detach()
	c.state = domain.SessionPaused

	c.logger.Debug("recording paused", "gen", c.gen, "elapsed", c.timer.Seconds())
	return true
}

// Resume returns to recording after a pause
func (c *Controller) Resume() bool {
	if c.state != domain.SessionPaused {
		return false
	}

	// Anything queued while paused is not part of the recording
	c.rec.TakeChunks()
	c.rec.Resume()
	c.clicks.Attach()
	c.state = domain.SessionRecording

	c.logger.Debug("recording resumed", "gen", c.gen)
	return true
}

// BeginStop ends the session and hands the recorder to a Finalizer.
// The session is Stopped on return; its artifact appears once the
// finalizer has run and CompleteStop has applied it.
func (c *Controller) BeginStop() (*Finalizer, bool) {
	if !c.state.Active() {
		return nil, false
	}
	return c.beginFinish("user"), true
}

// BeginHostStop is BeginStop for a capture the platform ended on its own
// in the session identified by gen.
func (c *Controller) BeginHostStop(gen uint64) (*Finalizer, bool) {
	if gen != c.gen || !c.state.Active() {
		return nil, false
	}
	return c.beginFinish("host"), true
}

// CompleteStop appends the recorder's tail and finalizes the artifact.
// It returns false for a finalizer that is not the one in flight.
func (c *Controller) CompleteStop(f *Finalizer) bool {
	if f == nil || f != c.finalizing {
		return false
	}
	<-f.done
	c.finalizing = nil

	if f.err != nil {
		c.logger.Warn("recorder stop failed", "gen", f.gen, "error", f.err)
	}
	// The finalize flush is accepted even after a pause
	for _, chunk := range f.tail {
		c.chunks.Append(chunk)
	}
	c.artifact = c.chunks.Finalize(domain.WebMType, c.now())

	c.logger.Info("recording stopped",
		"gen", f.gen,
		"reason", f.reason,
		"elapsed", c.timer.Seconds(),
		"clicks", c.clicks.Count(),
		"bytes", c.artifact.Size(),
	)
	return true
}

// Stop finalizes the artifact and releases the stream before returning
func (c *Controller) Stop() bool {
	f, ok := c.BeginStop()
	if !ok {
		return false
	}
	f.Run()
	return c.CompleteStop(f)
}

// HostTerminated handles the platform ending capture on its own.
// It behaves exactly like Stop for the session identified by gen.
func (c *Controller) HostTerminated(gen uint64) bool {
	f, ok := c.BeginHostStop(gen)
	if !ok {
		return false
	}
	f.Run()
	return c.CompleteStop(f)
}

// Close tears everything down when the hosting view goes away. Any pending
// request is invalidated so its result will be released on arrival, and a
// finalizer already running is waited for.
func (c *Controller) Close() {
	if c.pending {
		c.pending = false
		c.gen++
	}
	if c.state.Active() {
		f := c.beginFinish("teardown")
		f.Run()
		c.CompleteStop(f)
	}
	if f := c.finalizing; f != nil {
		f.Run()
		c.CompleteStop(f)
	}
}

// ChunksReady drains the recorder queue for the session identified by gen.
// Returns the number of chunks accepted.
func (c *Controller) ChunksReady(gen uint64) int {
	if gen != c.gen || c.rec == nil {
		return 0
	}
	if c.state != domain.SessionRecording {
		c.rec.TakeChunks()
		return 0
	}
	return c.collect()
}

// Tick advances the session timer. It returns false once the session
// identified by gen is over, so the caller can stop scheduling ticks.
func (c *Controller) Tick(gen uint64) bool {
	if gen != c.gen || !c.state.Active() {
		return false
	}
	if c.state == domain.SessionRecording {
		c.timer.Advance()
	}
	return true
}

// Watch returns the chunk-ready and stream-ended channels of the live session
func (c *Controller) Watch() (ready <-chan struct{}, ended <-chan struct{}) {
	if c.rec == nil || c.stream == nil {
		return nil, nil
	}
	return c.rec.Ready(), c.stream.Ended()
}

// State returns the session state
func (c *Controller) State() domain.SessionState { return c.state }

// Generation returns the current session generation
func (c *Controller) Generation() uint64 { return c.gen }

// Pending reports whether a capture request is outstanding
func (c *Controller) Pending() bool { return c.pending }

// Finalizing reports whether a stopped session is still flushing its recorder
func (c *Controller) Finalizing() bool { return c.finalizing != nil }

// Elapsed returns the whole seconds spent recording
func (c *Controller) Elapsed() int { return c.timer.Seconds() }

// Clicks returns the tracked clicks in arrival order
func (c *Controller) Clicks() []domain.ClickEvent { return c.clicks.Clicks() }

// Tracking reports whether the click listener is installed
func (c *Controller) Tracking() bool { return c.clicks.Attached() }

// Artifact returns the finalized recording, or nil
func (c *Controller) Artifact() *domain.Artifact { return c.artifact }

// Snapshot computes the read model
func (c *Controller) Snapshot() ReadModel {
	return ReadModel{
		State:          c.state,
		Elapsed:        FormatElapsed(c.timer.Seconds()),
		ElapsedSeconds: c.timer.Seconds(),
		ClickCount:     c.clicks.Count(),
		HasArtifact:    c.artifact != nil,
		ArtifactSize:   c.artifact.Size(),
		Pending:        c.pending,
		Finalizing:     c.finalizing != nil,
		Supported:      c.supportErr == nil,
	}
}

// collect moves queued recorder chunks into the accumulator
func (c *Controller) collect() int {
	accepted := 0
	for _, chunk := range c.rec.TakeChunks() {
		if c.chunks.Append(chunk) {
			accepted++
		}
	}
	return accepted
}

// beginFinish closes the session on the loop and detaches the recorder
// and stream for the finalizer
func (c *Controller) beginFinish(reason string) *Finalizer {
	c.clicks.Detach()

	if c.state == domain.SessionPaused {
		c.rec.TakeChunks()
	} else {
		c.collect()
	}

	f := &Finalizer{
		gen:    c.gen,
		reason: reason,
		rec:    c.rec,
		stream: c.stream,
		done:   make(chan struct{}),
	}
	c.finalizing = f
	c.state = domain.SessionStopped
	c.stream = nil
	c.rec = nil

	c.logger.Debug("finalizing recording", "gen", c.gen, "reason", reason)
	return f
}

// Finalizer stops a session's recorder and releases its stream. Run blocks
// until the encoder has flushed, so it is meant to run off the event loop.
type Finalizer struct {
	gen    uint64
	reason string
	rec    capture.MediaRecorder
	stream capture.Stream

	tail [][]byte
	err  error
	done chan struct{}
	once sync.Once
}

// Run stops the recorder and collects its tail. Only the first call does anything.
func (f *Finalizer) Run() {
	f.once.Do(func() {
		defer close(f.done)
		f.err = f.rec.Stop()
		f.tail = f.rec.TakeChunks()
		releaseStream(f.stream)
	})
}

// Generation returns the session the finalizer belongs to
func (f *Finalizer) Generation() uint64 { return f.gen }

func releaseStream(s capture.Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
	s.Stop()
}
