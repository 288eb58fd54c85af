package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ownlab/internal/diag"
	"ownlab/internal/diagfmt"
	"ownlab/internal/driver"
	"ownlab/internal/lesson"
	"ownlab/internal/project"
	"ownlab/internal/replay"
	"ownlab/internal/trace"
	"ownlab/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <script.own | lesson>",
	Short: "Run a script and enforce ownership rules",
	Long: `Run interprets a script with ownership tracking. Program output goes to
stdout; an ownership violation stops the program and is reported on stderr.
With --lesson the argument names a built-in or configured lesson.`,
	Args: cobra.ExactArgs(1),
	RunE: runExecution,
}

func init() {
	runCmd.Flags().Bool("lesson", false, "treat the argument as a lesson name")
	runCmd.Flags().Bool("events", false, "print the ownership event log after the program output")
	runCmd.Flags().Bool("sites", false, "include source positions in the event log")
	runCmd.Flags().Bool("reads", false, "include read events in the event log")
	runCmd.Flags().Bool("heap", false, "print the heap, bindings and borrows left after the run")
	runCmd.Flags().String(project.FlagUI, "off", "step through events interactively (auto|on|off)")
	runCmd.Flags().String(project.FlagRecord, "", "directory to write a replay recording to")
	runCmd.Flags().String(project.FlagEntry, "main", "function to start execution at")
	runCmd.Flags().Int(project.FlagMaxDepth, 256, "maximum call depth")
	runCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|short)")
	runCmd.Flags().String("path-mode", "auto", "path display (auto|absolute|relative|basename)")
	runCmd.Flags().Bool("timings-json", false, "print timings as JSON")
}

func runExecution(cmd *cobra.Command, args []string) error {
	cfg := current.manifest.Config
	flags := cmd.Flags()

	asLesson, err := flags.GetBool("lesson")
	if err != nil {
		return err
	}
	showEvents, err := flags.GetBool("events")
	if err != nil {
		return err
	}
	sites, err := flags.GetBool("sites")
	if err != nil {
		return err
	}
	reads, err := flags.GetBool("reads")
	if err != nil {
		return err
	}
	showHeap, err := flags.GetBool("heap")
	if err != nil {
		return err
	}
	formatStr, err := flags.GetString("format")
	if err != nil {
		return err
	}
	format, err := readFormat(formatStr)
	if err != nil {
		return err
	}
	pathModeStr, err := flags.GetString("path-mode")
	if err != nil {
		return err
	}
	pathMode, ok := diagfmt.ParsePathMode(pathModeStr)
	if !ok {
		return fmt.Errorf("invalid --path-mode value %q", pathModeStr)
	}
	showTimings, err := flags.GetBool("timings")
	if err != nil {
		return err
	}
	timingsJSON, err := flags.GetBool("timings-json")
	if err != nil {
		return err
	}
	stepper, err := useTUI(cfg.Run.UI)
	if err != nil {
		return err
	}
	recordDir := current.manifest.RecordDir()

	ctx := cmd.Context()
	d := driver.New(current.log, trace.FromContext(ctx))
	req := driver.Request{
		Entry:          cfg.Run.Entry,
		MaxDepth:       cfg.Run.MaxDepth,
		MaxDiagnostics: cfg.Run.MaxDiagnostics,
		Record:         recordDir != "",
	}
	if !stepper {
		req.Stdout = cmd.OutOrStdout()
	}

	var res *driver.Result
	if asLesson {
		lessons, err := loadLessons(current.manifest)
		if err != nil {
			return err
		}
		l, found := lesson.Find(lessons, args[0])
		if !found {
			return fmt.Errorf("unknown lesson %q (see 'ownlab lessons list')", args[0])
		}
		res, err = d.RunLesson(ctx, l, req)
		if err != nil {
			return err
		}
	} else {
		req.Path = args[0]
		res, err = d.Run(ctx, req)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if stepper {
		fmt.Fprint(out, res.Output)
	}
	if showEvents {
		fmt.Fprintln(out, "-- ownership events --")
		diagfmt.Events(out, res.Events, res.FileSet, diagfmt.EventOpts{
			Color:    useColor(cfg.Run.Color, os.Stdout),
			PathMode: pathMode,
			Sites:    sites,
			Reads:    reads,
		})
	}
	if showHeap {
		if err := printState(out, res.State); err != nil {
			return err
		}
	}
	if err := printDiagnostics(cmd.ErrOrStderr(), res.Bag, res.FileSet, diagOptions{
		format:   format,
		color:    stderrColor(cfg.Run.Color),
		pathMode: pathMode,
		notes:    true,
	}); err != nil {
		return err
	}
	if res.Recording != nil {
		if err := writeRecording(cmd.ErrOrStderr(), recordDir, res.Recording); err != nil {
			return err
		}
	}
	if stepper {
		outcome := ""
		if res.Err != nil {
			outcome = res.Err.Error()
		}
		model := ui.NewStepperModel(res.File.Path, res.Events, res.FileSet, outcome)
		if _, err := tea.NewProgram(model, tea.WithOutput(os.Stdout)).Run(); err != nil {
			return fmt.Errorf("event stepper: %w", err)
		}
	}
	if showTimings || timingsJSON {
		if err := printTimings(cmd.ErrOrStderr(), "run", res.File.Path, res.Timing, timingsJSON); err != nil {
			return err
		}
	}
	if res.Failed() {
		return errRejected
	}
	return nil
}

func writeRecording(w io.Writer, dir string, rec *replay.Recording) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("record dir: %w", err)
	}
	path := filepath.Join(dir, rec.Header.Session+replay.Ext)
	if err := replay.Write(path, rec); err != nil {
		return fmt.Errorf("write recording: %w", err)
	}
	current.log.Info("recording written",
		zap.String("path", path),
		zap.Int("events", len(rec.Events)),
		zap.String("outcome", rec.Header.Outcome),
	)
	fmt.Fprintf(w, "recording: %s (%s)\n", path, outcomeLabel(rec.Header.Outcome))
	return nil
}

func outcomeLabel(outcome string) string {
	if code, ok := diag.ParseCode(outcome); ok {
		return outcome + " " + code.Title()
	}
	return outcome
}
