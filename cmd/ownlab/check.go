package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ownlab/internal/diag"
	"ownlab/internal/diagfmt"
	"ownlab/internal/driver"
	"ownlab/internal/lesson"
	"ownlab/internal/project"
	"ownlab/internal/source"
	"ownlab/internal/trace"
	"ownlab/internal/ui"
	"ownlab/internal/watch"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <path>...",
	Short: "Run scripts and report ownership violations",
	Long: `Check runs every script under the given files and directories in parallel,
discarding program output, and reports the diagnostics of each. The exit
status is 1 when any script was rejected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|short)")
	checkCmd.Flags().String("path-mode", "auto", "path display (auto|absolute|relative|basename)")
	checkCmd.Flags().IntP("jobs", "j", 0, "max parallel scripts (0=auto)")
	checkCmd.Flags().Bool("cache", false, "reuse results for unchanged scripts")
	checkCmd.Flags().Bool("no-notes", false, "omit notes pointing at the earlier event")
	checkCmd.Flags().Bool("watch", false, "re-check scripts when they change")
	checkCmd.Flags().String(project.FlagUI, "off", "show a progress view (auto|on|off)")
	checkCmd.Flags().String(project.FlagEntry, "main", "function to start execution at")
	checkCmd.Flags().Int(project.FlagMaxDepth, 256, "maximum call depth")
}

type checkConfig struct {
	paths   []string
	opts    driver.CheckOptions
	diag    diagOptions
	tui     bool
	timings bool
}

func runCheck(cmd *cobra.Command, args []string) error {
	cc, err := readCheckConfig(cmd, args)
	if err != nil {
		return err
	}
	watchMode, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	d := driver.New(current.log, trace.FromContext(ctx))
	rejected, err := checkOnce(ctx, cmd, d, cc)
	if err != nil {
		return err
	}
	if !watchMode {
		if rejected {
			return errRejected
		}
		return nil
	}

	w, err := watch.New(cc.paths, lesson.Ext, watch.DefaultDebounce, current.log)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes, press Ctrl+C to stop")
	err = w.Run(ctx, func(changed []string) {
		current.log.Debug("re-checking", zap.Strings("changed", changed))
		fmt.Fprintf(cmd.ErrOrStderr(), "\n-- %d script(s) changed --\n", len(changed))
		watched := cc
		watched.tui = false
		if _, err := checkOnce(ctx, cmd, d, watched); err != nil {
			current.log.Error("check failed", zap.Error(err))
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func readCheckConfig(cmd *cobra.Command, args []string) (checkConfig, error) {
	cfg := current.manifest.Config
	flags := cmd.Flags()
	cc := checkConfig{paths: args}

	formatStr, err := flags.GetString("format")
	if err != nil {
		return cc, err
	}
	if cc.diag.format, err = readFormat(formatStr); err != nil {
		return cc, err
	}
	pathModeStr, err := flags.GetString("path-mode")
	if err != nil {
		return cc, err
	}
	var ok bool
	if cc.diag.pathMode, ok = diagfmt.ParsePathMode(pathModeStr); !ok {
		return cc, fmt.Errorf("invalid --path-mode value %q", pathModeStr)
	}
	noNotes, err := flags.GetBool("no-notes")
	if err != nil {
		return cc, err
	}
	cc.diag.notes = !noNotes
	cc.diag.color = stderrColor(cfg.Run.Color)

	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return cc, err
	}
	useCache, err := flags.GetBool("cache")
	if err != nil {
		return cc, err
	}
	if cc.timings, err = flags.GetBool("timings"); err != nil {
		return cc, err
	}
	tui, err := useTUI(cfg.Run.UI)
	if err != nil {
		return cc, err
	}
	cc.tui = tui && cc.diag.format == formatPretty

	cc.opts = driver.CheckOptions{
		Jobs:           jobs,
		MaxDiagnostics: cfg.Run.MaxDiagnostics,
		Entry:          cfg.Run.Entry,
		MaxDepth:       cfg.Run.MaxDepth,
	}
	if useCache {
		cache, err := driver.OpenDiskCache("ownlab")
		if err != nil {
			current.log.Warn("cache disabled", zap.Error(err))
		} else {
			cc.opts.Cache = cache
		}
	}
	return cc, nil
}

// checkOnce checks all scripts and prints their diagnostics. It reports
// whether any script was rejected.
func checkOnce(ctx context.Context, cmd *cobra.Command, d *driver.Driver, cc checkConfig) (bool, error) {
	var (
		fs      *source.FileSet
		results []driver.CheckResult
		err     error
	)
	if cc.tui {
		fs, results, err = checkWithUI(ctx, d, cc)
	} else {
		fs, results, err = d.CheckAll(ctx, cc.paths, cc.opts)
	}
	if err != nil {
		return false, err
	}

	errOut := cmd.ErrOrStderr()
	combined := diag.NewBag(0)
	rejected := 0
	for i := range results {
		r := &results[i]
		if r.Bag != nil && r.Bag.HasErrors() {
			rejected++
		}
		combined.Merge(r.Bag)
		if cc.timings && !r.Cached {
			if err := printTimings(errOut, "check", r.Path, r.Timing, false); err != nil {
				return false, err
			}
		}
	}
	out := errOut
	if cc.diag.format == formatJSON {
		out = cmd.OutOrStdout()
	}
	if err := printDiagnostics(out, combined, fs, cc.diag); err != nil {
		return false, err
	}
	if cc.diag.format == formatPretty {
		printCheckSummary(errOut, results, rejected)
	}
	return rejected > 0, nil
}

func printCheckSummary(w io.Writer, results []driver.CheckResult, rejected int) {
	cached := 0
	for _, r := range results {
		if r.Cached {
			cached++
		}
	}
	msg := fmt.Sprintf("checked %d script(s): %d ok, %d rejected", len(results), len(results)-rejected, rejected)
	if cached > 0 {
		msg += fmt.Sprintf(" (%d cached)", cached)
	}
	fmt.Fprintln(w, msg)
}

type checkOutcome struct {
	fs      *source.FileSet
	results []driver.CheckResult
	err     error
}

// checkWithUI runs CheckAll while a progress view consumes phase events.
func checkWithUI(ctx context.Context, d *driver.Driver, cc checkConfig) (*source.FileSet, []driver.CheckResult, error) {
	files, err := driver.ListScripts(cc.paths)
	if err != nil {
		return nil, nil, err
	}
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		opts := cc.opts
		opts.Observer = func(ev driver.PhaseEvent) {
			if !ev.Done {
				events <- ui.Event{File: ev.Path, Phase: ev.Name, Status: ui.StatusWorking}
			}
		}
		fs, results, err := d.CheckAll(ctx, cc.paths, opts)
		for _, r := range results {
			ev := ui.Event{File: r.Path, Status: ui.StatusOK}
			switch {
			case r.Cached:
				ev.Status = ui.StatusCached
			case r.Bag != nil && r.Bag.HasErrors():
				ev.Status = ui.StatusRejected
				ev.Code = r.Code().ID()
			}
			events <- ev
		}
		outcomeCh <- checkOutcome{fs: fs, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("checking", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Drain so the checking goroutine can finish.
		for range events {
		}
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fs, outcome.results, uiErr
	}
	return outcome.fs, outcome.results, outcome.err
}
