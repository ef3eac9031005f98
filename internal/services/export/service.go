// Package export writes finished recordings to disk and lists saved ones.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/riordanpawley/clickrec/internal/domain"
)

const (
	recordingPrefix = "screen-recording-"
	videoExt        = ".webm"
	clicksExt       = ".clicks.json"
)

// Service saves recording artifacts into an output directory
type Service struct {
	dir    string
	logger *slog.Logger
}

// Recording describes a saved recording
type Recording struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	ClicksPath string    `json:"clicks_path,omitempty"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	Clicks     int       `json:"clicks"`
	Created    time.Time `json:"created"`
}

// clickLog is the sidecar written next to each recording
type clickLog struct {
	Recording string              `json:"recording"`
	CreatedAt time.Time           `json:"createdAt"`
	Clicks    []domain.ClickEvent `json:"clicks"`
}

// NewService creates a new export service rooted at dir
func NewService(dir string, logger *slog.Logger) *Service {
	return &Service{
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the output directory
func (s *Service) Dir() string {
	return s.dir
}

// Save writes the artifact and its click log. The video file name is
// derived from the artifact's creation time.
func (s *Service) Save(ctx context.Context, artifact *domain.Artifact, clicks []domain.ClickEvent) (*Recording, error) {
	if artifact.Size() == 0 {
		return nil, domain.ErrEmptyArtifact
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := artifact.Filename()
	destPath := filepath.Join(s.dir, filename)
	s.logger.Debug("saving recording", "path", destPath, "bytes", artifact.Size())

	if err := writeFileAtomic(s.dir, destPath, artifact.Data); err != nil {
		return nil, fmt.Errorf("failed to write recording: %w", err)
	}

	if clicks == nil {
		clicks = []domain.ClickEvent{}
	}
	sidecar, err := json.MarshalIndent(clickLog{
		Recording: filename,
		CreatedAt: artifact.CreatedAt,
		Clicks:    clicks,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode click log: %w", err)
	}
	clicksPath := sidecarPath(destPath)
	if err := writeFileAtomic(s.dir, clicksPath, sidecar); err != nil {
		return nil, fmt.Errorf("failed to write click log: %w", err)
	}

	rec := &Recording{
		Filename:   filename,
		Path:       destPath,
		ClicksPath: clicksPath,
		MimeType:   artifact.MimeType,
		Size:       int64(artifact.Size()),
		Clicks:     len(clicks),
		Created:    artifact.CreatedAt,
	}

	s.logger.Info("recording saved", "path", destPath, "bytes", rec.Size, "clicks", rec.Clicks)
	return rec, nil
}

// List returns saved recordings, newest first
func (s *Service) List(ctx context.Context) ([]Recording, error) {
	s.logger.Debug("listing recordings", "dir", s.dir)

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []Recording{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	recordings := make([]Recording, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, recordingPrefix) || !strings.HasSuffix(name, videoExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to get file info", "file", name, "error", err)
			continue
		}

		fullPath := filepath.Join(s.dir, name)
		rec := Recording{
			Filename: name,
			Path:     fullPath,
			MimeType: domain.WebMType,
			Size:     info.Size(),
			Created:  createdAt(name, info.ModTime()),
		}
		if n, ok := s.countClicks(sidecarPath(fullPath)); ok {
			rec.ClicksPath = sidecarPath(fullPath)
			rec.Clicks = n
		}
		recordings = append(recordings, rec)
	}

	sort.SliceStable(recordings, func(i, j int) bool {
		return recordings[i].Created.After(recordings[j].Created)
	})

	s.logger.Debug("found recordings", "count", len(recordings))
	return recordings, nil
}

func (s *Service) countClicks(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	var log clickLog
	if err := json.Unmarshal(data, &log); err != nil {
		s.logger.Warn("unreadable click log", "file", path, "error", err)
		return 0, false
	}
	return len(log.Clicks), true
}

// createdAt recovers the capture time from the file name, falling back to mtime
func createdAt(name string, modTime time.Time) time.Time {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, recordingPrefix), videoExt)
	ms, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return modTime
	}
	return time.UnixMilli(ms)
}

func sidecarPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, videoExt) + clicksExt
}

// writeFileAtomic writes through a temp file so a crash never leaves a truncated recording
func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".clickrec-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
