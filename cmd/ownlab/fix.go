package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ownlab/internal/driver"
	"ownlab/internal/fix"
	"ownlab/internal/trace"
)

// maxFixRounds bounds --all; each round fixes the violation that stopped
// the previous run.
const maxFixRounds = 32

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <script.own>",
	Short: "Apply suggested fixes to a script",
	Long: `Fix runs the script and applies the edit suggested by the diagnostic that
stopped it, such as adding a missing mut. With --all it re-runs the script
after each fix until it no longer stops on a fixable violation.`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "keep fixing until no fixable violation remains")
	fixCmd.Flags().Bool("dry-run", false, "print the fixed script instead of writing it")
}

func runFix(cmd *cobra.Command, args []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	cfg := current.manifest.Config
	ctx := cmd.Context()
	d := driver.New(current.log, trace.FromContext(ctx))
	out := cmd.OutOrStdout()

	req := driver.Request{
		Path:           args[0],
		Stdout:         io.Discard,
		Entry:          cfg.Run.Entry,
		MaxDepth:       cfg.Run.MaxDepth,
		MaxDiagnostics: cfg.Run.MaxDiagnostics,
	}
	applied := 0
	for round := 0; round < maxFixRounds; round++ {
		res, err := d.Run(ctx, req)
		if err != nil {
			return err
		}
		result, err := fix.Apply(res.FileSet, res.Bag.Items(), fix.ApplyOptions{Mode: fix.ApplyModeAll, DryRun: dryRun})
		if errors.Is(err, fix.ErrNoFixes) {
			break
		}
		if err != nil {
			return err
		}
		for _, a := range result.Applied {
			fmt.Fprintf(cmd.ErrOrStderr(), "fixed %s: %s (%s)\n", a.Code.ID(), a.Message, a.Title)
			applied++
		}
		if dryRun {
			// Later rounds would need the rewritten file on disk.
			for _, ch := range result.FileChanges {
				_, _ = out.Write(ch.Content)
			}
			return nil
		}
		if !all {
			break
		}
	}
	if applied == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no fixable violations")
	}
	return nil
}
