package main

import (
	"fmt"
	"os"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ownlab/internal/diagfmt"
	"ownlab/internal/own"
	"ownlab/internal/replay"
	"ownlab/internal/source"
	"ownlab/internal/ui"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Inspect recordings written by run --record",
}

var replaySummaryCmd = &cobra.Command{
	Use:   "summary <recording.mp>",
	Short: "Print the header and event counts of a recording",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplaySummary,
}

var replayEventsCmd = &cobra.Command{
	Use:   "events <recording.mp>",
	Short: "Print or step through the events of a recording",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplayEvents,
}

func init() {
	replayEventsCmd.Flags().Bool("reads", false, "include read events")
	replayEventsCmd.Flags().Bool("step", false, "step through events interactively")
	replayCmd.AddCommand(replaySummaryCmd, replayEventsCmd)
}

func runReplaySummary(cmd *cobra.Command, args []string) error {
	rec, err := replay.Read(args[0])
	if err != nil {
		return err
	}
	h := rec.Header
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session: %s\n", h.Session)
	fmt.Fprintf(out, "source:  %s (%x)\n", h.Source, h.SourceHash[:6])
	fmt.Fprintf(out, "tool:    %s\n", h.Tool)
	fmt.Fprintf(out, "created: %s\n", h.Created.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "outcome: %s\n", outcomeLabel(h.Outcome))

	s := replay.Summarize(rec)
	fmt.Fprintf(out, "events:  %d (live at end: %d, rejects: %d)\n", s.Events, s.Live, s.Rejects)
	kinds := make([]own.EventKind, 0, len(s.Counts))
	for k := range s.Counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Fprintf(out, "  %-13s %d\n", k, s.Counts[k])
	}
	return nil
}

// replayFileSet loads the recorded source when it is still on disk and
// unchanged, so that event sites can be resolved.
func replayFileSet(h replay.Header) *source.FileSet {
	fs := source.NewFileSet()
	id, err := fs.Load(h.Source)
	if err != nil {
		return fs
	}
	if fs.Get(id).Hash != h.SourceHash {
		return source.NewFileSet()
	}
	return fs
}

func runReplayEvents(cmd *cobra.Command, args []string) error {
	reads, err := cmd.Flags().GetBool("reads")
	if err != nil {
		return err
	}
	step, err := cmd.Flags().GetBool("step")
	if err != nil {
		return err
	}
	rec, err := replay.Read(args[0])
	if err != nil {
		return err
	}
	fs := replayFileSet(rec.Header)
	if step {
		outcome := ""
		if rec.Header.Outcome != "ok" {
			outcome = outcomeLabel(rec.Header.Outcome)
		}
		model := ui.NewStepperModel(rec.Header.Source, rec.Events, fs, outcome)
		_, err := tea.NewProgram(model, tea.WithOutput(os.Stdout)).Run()
		return err
	}
	diagfmt.Events(cmd.OutOrStdout(), rec.Events, fs, diagfmt.EventOpts{
		Color: useColor(current.manifest.Config.Run.Color, os.Stdout),
		Sites: fs.Len() > 0,
		Reads: reads,
	})
	return nil
}
