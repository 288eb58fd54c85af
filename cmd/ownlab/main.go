package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ownlab/internal/project"
	"ownlab/internal/trace"
	"ownlab/internal/version"
)

// errRejected signals a script that stopped with diagnostics. The details
// were already printed, so main only sets the exit status.
var errRejected = errors.New("rejected")

// session is the state every subcommand shares after PersistentPreRunE.
type session struct {
	manifest *project.Manifest
	log      *zap.Logger
	ring     *trace.RingTracer
	cleanup  func()
}

var current = &session{log: zap.NewNop(), cleanup: func() {}}

var rootCmd = &cobra.Command{
	Use:   "ownlab",
	Short: "Ownership and borrowing playground",
	Long: `ownlab runs small Rust-flavoured scripts on a runtime that tracks
ownership: moves, clones, shared and exclusive borrows, scope release.
Violations stop the program with a diagnostic that points at the offending
use and at the event that made it invalid.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return current.setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		current.close()
	},
}

// main registers subcommands and global flags and executes the root command.
// Rejected scripts exit with status 1, tool failures with status 2.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String(project.FlagColor, "auto", "colorize output (auto|on|off)")
	flags.Int(project.FlagMaxDiagnostics, 100, "maximum number of diagnostics to keep per script")
	flags.Bool("timings", false, "show timing information")
	flags.String("log-level", "warn", "log level for the tool itself (debug|info|warn|error)")
	flags.String(project.FlagTrace, "off", "trace level (off|error|phase|detail|debug)")
	flags.String(project.FlagTraceOutput, "", "trace output file (- for stderr)")
	flags.String(project.FlagTraceFormat, "auto", "trace format (auto|text|ndjson)")
	flags.String("trace-mode", "stream", "trace storage mode (stream|ring|both|log)")
	flags.Int("trace-ring-size", 4096, "ring buffer size for ring and both modes")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat trace events at this interval")
	flags.String(project.FlagLessonsDir, "", "directory with additional lessons")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")

	err := rootCmd.Execute()
	if err != nil {
		current.dumpTrace()
	}
	current.close()
	switch {
	case err == nil:
	case errors.Is(err, errRejected):
		os.Exit(1)
	default:
		rootCmd.PrintErrln("error:", err)
		os.Exit(2)
	}
}

func (s *session) setup(cmd *cobra.Command) error {
	manifest, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	s.manifest = manifest

	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	s.log, err = newLogger(level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if manifest.Path != "" {
		s.log.Debug("manifest loaded", zap.String("path", manifest.Path))
	}

	stopProfiling, err := setupProfiling(cmd, s.log)
	if err != nil {
		return err
	}
	stopTracing, ring, err := setupTracing(cmd, manifest.Config.Trace, s.log)
	if err != nil {
		stopProfiling()
		return err
	}
	s.ring = ring
	s.cleanup = func() {
		stopTracing()
		stopProfiling()
	}
	return nil
}

// dumpTrace prints the ring buffer after a failed command.
func (s *session) dumpTrace() {
	if s.ring == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "trace (most recent events):")
	if err := s.ring.Dump(os.Stderr, trace.FormatText); err != nil {
		s.log.Warn("trace dump failed", zap.Error(err))
	}
}

func (s *session) close() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	if s.log != nil {
		_ = s.log.Sync()
	}
}
