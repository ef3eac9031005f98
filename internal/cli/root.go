// Package cli wires configuration, logging and the capture backend into
// the clickrec commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riordanpawley/clickrec/internal/app"
	"github.com/riordanpawley/clickrec/internal/config"
	"github.com/spf13/cobra"
)

// Build information, set with -ldflags
var (
	Version = "dev"
	Commit  = "none"
)

// Options are the global flags
type Options struct {
	OutputDir string
	LogLevel  string
}

// NewRootCmd builds the command tree. Running the root command opens the recorder.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:           "clickrec",
		Short:         "Record the screen and track where you click",
		Long:          "clickrec records the screen to a webm file while tracking the mouse clicks made during the recording.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd, opts, runRecorder)
		},
	}

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("clickrec %s, commit %s\n", Version, Commit))

	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output", "o", "", "directory recordings are saved to")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check that screen recording is possible here",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd, opts, func(cmd *cobra.Command, deps *Dependencies) error {
				return DoctorCommand(deps)
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd, opts, func(cmd *cobra.Command, deps *Dependencies) error {
				return ListCommand(cmd.Context(), deps)
			})
		},
	})

	return rootCmd
}

// withDependencies loads config, applies flags and opens the log file
func withDependencies(cmd *cobra.Command, opts *Options, fn func(*cobra.Command, *Dependencies) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyOptions(cfg, opts)

	logger, closer, err := NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer closer.Close()

	return fn(cmd, NewDependencies(cfg, logger, cmd.OutOrStdout()))
}

func applyOptions(cfg *config.Config, opts *Options) {
	if opts.OutputDir != "" {
		cfg.Output.Dir = opts.OutputDir
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
}

// NewLogger returns a text logger appending to the configured log file.
// The terminal belongs to the TUI, so nothing is logged to stderr.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	return slog.New(handler), f, nil
}

func runRecorder(cmd *cobra.Command, deps *Dependencies) error {
	deps.Logger.Info("starting clickrec", "version", Version, "output", deps.Config.Output.Dir)

	model := app.New(deps.Config, deps.Platform, deps.Logger)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
	)

	final, err := program.Run()
	if m, ok := final.(app.Model); ok {
		m.Close()
	}
	if err != nil {
		return fmt.Errorf("running recorder: %w", err)
	}
	return nil
}
