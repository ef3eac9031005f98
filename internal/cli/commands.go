package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/riordanpawley/clickrec/internal/capture"
	"github.com/riordanpawley/clickrec/internal/config"
	"github.com/riordanpawley/clickrec/internal/services/export"
)

// Diagnoser reports the capture capabilities of the host
type Diagnoser interface {
	capture.Platform
	Diagnose() []capture.Check
}

// Dependencies holds all the services needed for CLI commands
type Dependencies struct {
	Config   *config.Config
	Platform Diagnoser
	Exporter *export.Service
	Logger   *slog.Logger
	Out      io.Writer
}

// NewDependencies wires the ffmpeg capture backend and the exporter from cfg
func NewDependencies(cfg *config.Config, logger *slog.Logger, out io.Writer) *Dependencies {
	return &Dependencies{
		Config:   cfg,
		Platform: capture.NewFFmpegPlatform(cfg.Recorder.FFmpegPath, logger),
		Exporter: export.NewService(cfg.Output.Dir, logger),
		Logger:   logger,
		Out:      out,
	}
}

// DoctorCommand prints the capability probe. It returns an error when
// recording would not be possible.
func DoctorCommand(deps *Dependencies) error {
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintln(deps.Out, "Screen capture")
	failed := 0
	for _, c := range deps.Platform.Diagnose() {
		if c.OK {
			green.Fprint(deps.Out, "  ✓ ")
		} else {
			red.Fprint(deps.Out, "  ✗ ")
			failed++
		}
		fmt.Fprintf(deps.Out, "%-10s %s\n", c.Name, c.Detail)
	}

	fmt.Fprintln(deps.Out)
	cyan.Fprintln(deps.Out, "Output")
	fmt.Fprintf(deps.Out, "  %-10s %s\n", "dir", deps.Exporter.Dir())
	fmt.Fprintf(deps.Out, "  %-10s %s\n", "log", deps.Config.Logging.Path)
	fmt.Fprintln(deps.Out)

	if err := deps.Platform.Supported(); err != nil || failed > 0 {
		red.Fprintln(deps.Out, "Screen recording is not available.")
		if err == nil {
			err = fmt.Errorf("%d checks failed", failed)
		}
		return err
	}
	green.Fprintln(deps.Out, "Ready to record.")
	return nil
}

// ListCommand prints the saved recordings, newest first
func ListCommand(ctx context.Context, deps *Dependencies) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	recordings, err := deps.Exporter.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}

	if len(recordings) == 0 {
		fmt.Fprintf(deps.Out, "No recordings in %s\n", deps.Exporter.Dir())
		return nil
	}

	fmt.Fprintf(deps.Out, "Recordings (%d) in %s:\n\n", len(recordings), deps.Exporter.Dir())

	w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tSIZE\tCLICKS\tFILE")
	fmt.Fprintln(w, "-------\t----\t------\t----")
	for _, r := range recordings {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			r.Created.Local().Format("2006-01-02 15:04:05"),
			formatSize(r.Size),
			r.Clicks,
			r.Filename,
		)
	}
	return w.Flush()
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
