package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/riordanpawley/clickrec/internal/domain"
)

// FFmpegPlatform captures the desktop by running ffmpeg and encoding webm/vp9
// to a pipe. The capture and the encoder share one process, so stopping the
// recorder also ends the stream.
type FFmpegPlatform struct {
	Path         string
	GOOS         string
	StartupGrace time.Duration
	StopTimeout  time.Duration

	logger   *slog.Logger
	lookPath func(string) (string, error)
	getenv   func(string) string
}

// NewFFmpegPlatform creates a platform for the running OS
func NewFFmpegPlatform(path string, logger *slog.Logger) *FFmpegPlatform {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegPlatform{
		Path:         path,
		GOOS:         runtime.GOOS,
		StartupGrace: 1500 * time.Millisecond,
		StopTimeout:  3 * time.Second,
		logger:       logger,
		lookPath:     exec.LookPath,
		getenv:       os.Getenv,
	}
}

// Supported checks the OS, the ffmpeg binary and (on linux) the X display
func (p *FFmpegPlatform) Supported() error {
	for _, check := range p.Diagnose() {
		if !check.OK {
			return fmt.Errorf("%w: %s %s", domain.ErrUnsupportedEnvironment, check.Name, check.Detail)
		}
	}
	return nil
}

// Check is one line of the capability report
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Diagnose reports every capability the platform depends on
func (p *FFmpegPlatform) Diagnose() []Check {
	var checks []Check

	switch p.GOOS {
	case "linux", "darwin", "windows":
		checks = append(checks, Check{Name: "platform", OK: true, Detail: p.GOOS})
	default:
		checks = append(checks, Check{Name: "platform", OK: false, Detail: p.GOOS + " has no supported screen grabber"})
	}

	if resolved, err := p.lookPath(p.Path); err != nil {
		checks = append(checks, Check{Name: "ffmpeg", OK: false, Detail: "not found on PATH"})
	} else {
		checks = append(checks, Check{Name: "ffmpeg", OK: true, Detail: resolved})
	}

	if p.GOOS == "linux" {
		if display := p.getenv("DISPLAY"); display == "" {
			checks = append(checks, Check{Name: "display", OK: false, Detail: "DISPLAY is not set"})
		} else {
			checks = append(checks, Check{Name: "display", OK: true, Detail: display})
		}
	}

	return checks
}

// RequestDisplay starts ffmpeg and waits out the startup grace period so that
// permission and device failures surface here rather than mid-recording.
func (p *FFmpegPlatform) RequestDisplay(ctx context.Context, c Constraints) (Stream, error) {
	args := buildArgs(p.GOOS, c, p.getenv("DISPLAY"))
	p.logger.Debug("requesting display capture", "ffmpeg", p.Path, "args", strings.Join(args, " "))

	r, w, err := os.Pipe()
	if err != nil {
		return nil, &domain.CaptureError{Op: "request", Message: "creating pipe", Err: err}
	}

	stderr := &lockedBuffer{}
	cmd := exec.Command(p.Path, args...)
	cmd.Stdout = w
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &domain.CaptureError{Op: "request", Err: domain.ErrUnsupportedEnvironment}
		}
		return nil, &domain.CaptureError{Op: "request", Message: "starting ffmpeg", Err: err}
	}
	// The child owns the write end now; EOF on r means the process exited.
	w.Close()

	s := &ffmpegStream{
		id:          uuid.NewString(),
		cmd:         cmd,
		stdout:      r,
		stderr:      stderr,
		ended:       make(chan struct{}),
		stopTimeout: p.StopTimeout,
		logger:      p.logger,
	}
	s.tracks = []Track{&processTrack{kind: KindVideo, stream: s}}
	if hasAudio(p.GOOS) {
		s.tracks = append(s.tracks, &processTrack{kind: KindAudio, stream: s})
	}
	go s.waitExit()

	grace := time.NewTimer(p.StartupGrace)
	defer grace.Stop()

	select {
	case <-s.ended:
		r.Close()
		return nil, classifyStartupFailure(stderr.String(), s.exitErr)
	case <-ctx.Done():
		s.Stop()
		return nil, ctx.Err()
	case <-grace.C:
		p.logger.Info("display capture started", "stream", s.id, "pid", cmd.Process.Pid)
		return s, nil
	}
}

// NewRecorder attaches a chunking recorder to an ffmpeg stream
func (p *FFmpegPlatform) NewRecorder(s Stream, opts RecorderOptions) (MediaRecorder, error) {
	fs, ok := s.(*ffmpegStream)
	if !ok {
		return nil, fmt.Errorf("ffmpeg recorder cannot record a %T", s)
	}
	if opts.MimeType != "" && !strings.HasPrefix(opts.MimeType, domain.WebMType) {
		return nil, fmt.Errorf("unsupported recording type %q", opts.MimeType)
	}
	return &ffmpegRecorder{
		chunker: newChunker(fs.stdout, opts.Timeslice, opts.MimeType),
		stream:  fs,
	}, nil
}

type ffmpegStream struct {
	id          string
	cmd         *exec.Cmd
	stdout      *os.File
	stderr      *lockedBuffer
	tracks      []Track
	ended       chan struct{}
	exitErr     error
	stopTimeout time.Duration
	logger      *slog.Logger

	stopOnce sync.Once
	mu       sync.Mutex
	stopped  bool
	// reading is set once a recorder pumps stdout; that recorder closes it
	reading bool
}

func (s *ffmpegStream) ID() string             { return s.id }
func (s *ffmpegStream) Tracks() []Track        { return s.tracks }
func (s *ffmpegStream) Ended() <-chan struct{} { return s.ended }

func (s *ffmpegStream) waitExit() {
	s.exitErr = s.cmd.Wait()
	close(s.ended)
}

// Stop asks ffmpeg to finish the file, then kills it if it lingers
func (s *ffmpegStream) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()

		defer s.closeUnread()

		select {
		case <-s.ended:
			return
		default:
		}

		if err := s.cmd.Process.Signal(os.Interrupt); err != nil {
			_ = s.cmd.Process.Kill()
		}

		timer := time.NewTimer(s.stopTimeout)
		defer timer.Stop()
		select {
		case <-s.ended:
		case <-timer.C:
			s.logger.Warn("ffmpeg did not exit after interrupt, killing", "stream", s.id)
			_ = s.cmd.Process.Kill()
			<-s.ended
		}
	})
}

// closeUnread releases the pipe when no recorder is reading it
func (s *ffmpegStream) closeUnread() {
	s.mu.Lock()
	reading := s.reading
	s.mu.Unlock()
	if !reading {
		s.stdout.Close()
	}
}

func (s *ffmpegStream) markReading() {
	s.mu.Lock()
	s.reading = true
	s.mu.Unlock()
}

func (s *ffmpegStream) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type processTrack struct {
	kind   string
	stream *ffmpegStream
}

func (t *processTrack) Kind() string  { return t.kind }
func (t *processTrack) Stop()         { t.stream.Stop() }
func (t *processTrack) Stopped() bool { return t.stream.isStopped() }

type ffmpegRecorder struct {
	*chunker
	stream *ffmpegStream
}

// Start begins pumping the encoder output; the recorder now owns the pipe
func (r *ffmpegRecorder) Start() error {
	if err := r.chunker.Start(); err != nil {
		return err
	}
	r.stream.markReading()
	return nil
}

// Stop finalizes the encoder and waits for the tail chunk
func (r *ffmpegRecorder) Stop() error {
	r.chunker.finishing()
	r.stream.Stop()
	err := r.chunker.wait()
	r.stream.stdout.Close()
	return err
}

func hasAudio(goos string) bool {
	return goos == "linux" || goos == "darwin"
}

// buildArgs maps capture constraints onto an ffmpeg command line.
// Ideal values drive the grabber, max values clamp the encoder output.
func buildArgs(goos string, c Constraints, display string) []string {
	v := c.Video
	args := []string{"-hide_banner", "-nostats", "-loglevel", "warning"}

	switch goos {
	case "linux":
		if display == "" {
			display = ":0"
		}
		args = append(args,
			"-f", "x11grab",
			"-framerate", fmt.Sprint(v.IdealFrameRate),
			"-video_size", fmt.Sprintf("%dx%d", v.IdealWidth, v.IdealHeight),
			"-i", display,
			"-f", "pulse",
			"-sample_rate", fmt.Sprint(c.Audio.SampleRate),
			"-i", "default",
		)
	case "darwin":
		args = append(args,
			"-f", "avfoundation",
			"-framerate", fmt.Sprint(v.IdealFrameRate),
			"-capture_cursor", "1",
			"-capture_mouse_clicks", "0",
			"-i", "1:0",
		)
	case "windows":
		args = append(args,
			"-f", "gdigrab",
			"-framerate", fmt.Sprint(v.IdealFrameRate),
			"-i", "desktop",
		)
	}

	args = append(args,
		"-vf", fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease", v.MaxWidth, v.MaxHeight),
		"-r", fmt.Sprint(v.MaxFrameRate),
		"-c:v", "libvpx-vp9",
		"-deadline", "realtime",
		"-cpu-used", "8",
	)

	if hasAudio(goos) {
		var filters []string
		if c.Audio.NoiseSuppression {
			filters = append(filters, "afftdn")
		}
		if c.Audio.EchoCancellation {
			// ffmpeg has no AEC; a gate keeps speaker bleed down
			filters = append(filters, "agate")
		}
		if len(filters) > 0 {
			args = append(args, "-af", strings.Join(filters, ","))
		}
		args = append(args, "-c:a", "libopus")
	}

	return append(args, "-f", "webm", "pipe:1")
}

// classifyStartupFailure maps an early ffmpeg exit to the capture error taxonomy
func classifyStartupFailure(stderr string, exitErr error) error {
	lower := strings.ToLower(stderr)

	switch {
	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "not permitted"),
		strings.Contains(lower, "not authorized"),
		strings.Contains(lower, "cannot open display"),
		strings.Contains(lower, "can't open display"):
		return &domain.CaptureError{Op: "request", Message: lastLine(stderr), Err: domain.ErrPermissionDenied}
	case strings.Contains(lower, "immediate exit requested"),
		strings.Contains(lower, "exiting normally, received signal"),
		strings.Contains(lower, "selection cancelled"):
		return &domain.CaptureError{Op: "request", Err: domain.ErrSelectionCancelled}
	}

	if exitErr == nil {
		exitErr = errors.New("ffmpeg exited during startup")
	}
	return &domain.CaptureError{Op: "request", Message: lastLine(stderr), Err: exitErr}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Only the most recent output matters for classification
	if b.buf.Len() > 64*1024 {
		b.buf.Reset()
	}
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
