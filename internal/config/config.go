package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/riordanpawley/clickrec/internal/capture"
	"github.com/riordanpawley/clickrec/internal/recorder"
)

// FileName is the per-directory config file
const FileName = ".clickrec.json"

// Config represents the full clickrec configuration
type Config struct {
	Capture  capture.Constraints `json:"capture"`
	Recorder RecorderConfig      `json:"recorder"`
	Clicks   ClicksConfig        `json:"clicks"`
	Output   OutputConfig        `json:"output"`
	Logging  LoggingConfig       `json:"logging"`
}

// RecorderConfig contains encoder settings
type RecorderConfig struct {
	MimeType    string `json:"mimeType"`
	TimesliceMs int    `json:"timesliceMs"`
	FFmpegPath  string `json:"ffmpegPath"`
}

// ClicksConfig contains click tracking settings
type ClicksConfig struct {
	MarkerMs int `json:"markerMs"`
}

// OutputConfig controls where saved recordings go
type OutputConfig struct {
	Dir string `json:"dir"`
}

// LoggingConfig contains log file settings
type LoggingConfig struct {
	Path  string `json:"path"`
	Level string `json:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	recOpts := capture.DefaultRecorderOptions()

	return &Config{
		Capture: capture.DefaultConstraints(),
		Recorder: RecorderConfig{
			MimeType:    recOpts.MimeType,
			TimesliceMs: int(recOpts.Timeslice / time.Millisecond),
			FFmpegPath:  "ffmpeg",
		},
		Clicks: ClicksConfig{
			MarkerMs: int(recorder.DefaultMarkerLifetime / time.Millisecond),
		},
		Output: OutputConfig{
			Dir: filepath.Join(homeDir, "Videos", "clickrec"),
		},
		Logging: LoggingConfig{
			Path:  filepath.Join(homeDir, ".clickrec", "clickrec.log"),
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from project path with priority:
// 1. CLI flags (applied by the caller)
// 2. .clickrec.json in the project directory
// 3. ~/.clickrec/config.json
// 4. Defaults
func LoadConfig(projectPath string) (*Config, error) {
	candidates := []string{filepath.Join(projectPath, FileName)}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".clickrec", "config.json"))
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		cfg, err := ParseVersionedConfig(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return MergeWithDefaults(cfg), nil
	}

	return DefaultConfig(), nil
}

// SaveConfig saves configuration to the specified path with version information
func SaveConfig(cfg *Config, path string) error {
	data, err := MarshalVersionedConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeWithDefaults fills in missing values with defaults
func MergeWithDefaults(cfg *Config) *Config {
	defaults := DefaultConfig()

	// Merge capture constraints. Audio flags default to false so they need no merge.
	v, dv := &cfg.Capture.Video, defaults.Capture.Video
	if v.IdealWidth == 0 {
		v.IdealWidth = dv.IdealWidth
	}
	if v.MaxWidth == 0 {
		v.MaxWidth = dv.MaxWidth
	}
	if v.IdealHeight == 0 {
		v.IdealHeight = dv.IdealHeight
	}
	if v.MaxHeight == 0 {
		v.MaxHeight = dv.MaxHeight
	}
	if v.IdealFrameRate == 0 {
		v.IdealFrameRate = dv.IdealFrameRate
	}
	if v.MaxFrameRate == 0 {
		v.MaxFrameRate = dv.MaxFrameRate
	}
	if cfg.Capture.Audio.SampleRate == 0 {
		cfg.Capture.Audio.SampleRate = defaults.Capture.Audio.SampleRate
	}

	// Merge Recorder config
	if cfg.Recorder.MimeType == "" {
		cfg.Recorder.MimeType = defaults.Recorder.MimeType
	}
	if cfg.Recorder.TimesliceMs <= 0 {
		cfg.Recorder.TimesliceMs = defaults.Recorder.TimesliceMs
	}
	if cfg.Recorder.FFmpegPath == "" {
		cfg.Recorder.FFmpegPath = defaults.Recorder.FFmpegPath
	}

	if cfg.Clicks.MarkerMs <= 0 {
		cfg.Clicks.MarkerMs = defaults.Clicks.MarkerMs
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaults.Output.Dir
	}

	// Merge Logging config
	if cfg.Logging.Path == "" {
		cfg.Logging.Path = defaults.Logging.Path
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}

	return cfg
}

// Load is a convenience function that loads config from current directory
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadConfig(cwd)
}

// RecorderOptions converts the config into controller options
func (c *Config) RecorderOptions() recorder.Options {
	return recorder.Options{
		Constraints: c.Capture,
		Recorder: capture.RecorderOptions{
			MimeType:  c.Recorder.MimeType,
			Timeslice: time.Duration(c.Recorder.TimesliceMs) * time.Millisecond,
		},
		MarkerLifetime: time.Duration(c.Clicks.MarkerMs) * time.Millisecond,
	}
}

// SlogLevel parses the configured level, falling back to info
func (l LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}
