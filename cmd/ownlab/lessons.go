package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ownlab/internal/driver"
	"ownlab/internal/lesson"
	"ownlab/internal/trace"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List, read and verify the bundled lessons",
}

var lessonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available lessons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lessons, err := loadLessons(current.manifest)
		if err != nil {
			return err
		}
		printLessonList(cmd.OutOrStdout(), lessons)
		return nil
	},
}

var lessonsShowCmd = &cobra.Command{
	Use:   "show <lesson>",
	Short: "Show a lesson's notes and source",
	Args:  cobra.ExactArgs(1),
	RunE:  runLessonsShow,
}

var lessonsVerifyCmd = &cobra.Command{
	Use:   "verify [lesson]...",
	Short: "Check that lessons succeed or fail exactly as they declare",
	RunE:  runLessonsVerify,
}

func init() {
	lessonsShowCmd.Flags().Bool("raw", false, "print markdown without rendering")
	lessonsVerifyCmd.Flags().IntP("jobs", "j", 0, "max parallel lessons (0=auto)")
	lessonsCmd.AddCommand(lessonsListCmd, lessonsShowCmd, lessonsVerifyCmd)
}

func printLessonList(w io.Writer, lessons []lesson.Lesson) {
	width := 0
	for _, l := range lessons {
		width = max(width, runewidth.StringWidth(l.Name))
	}
	group := ""
	for _, l := range lessons {
		if g := l.Group(); g != group {
			if group != "" {
				fmt.Fprintln(w)
			}
			group = g
		}
		expect := "ok"
		if l.Rejected() {
			expect = l.Expect.ID()
		}
		fmt.Fprintf(w, "%s  %-8s %s\n", runewidth.FillRight(l.Name, width), expect, l.Title)
	}
}

func runLessonsShow(cmd *cobra.Command, args []string) error {
	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return err
	}
	lessons, err := loadLessons(current.manifest)
	if err != nil {
		return err
	}
	l, ok := lesson.Find(lessons, args[0])
	if !ok {
		return fmt.Errorf("unknown lesson %q", args[0])
	}

	doc := lessonMarkdown(l)
	out := cmd.OutOrStdout()
	if raw || !isTerminal(os.Stdout) {
		_, err := io.WriteString(out, doc)
		return err
	}
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = min(w, 100)
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	rendered, err := renderer.Render(doc)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, rendered)
	return err
}

// lessonMarkdown assembles the notes, the script and what running it
// should produce into one markdown document.
func lessonMarkdown(l lesson.Lesson) string {
	var b strings.Builder
	title := l.Title
	if title == "" {
		title = l.Name
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if notes := strings.TrimSpace(l.Notes); notes != "" {
		b.WriteString(notes)
		b.WriteString("\n\n")
	}
	b.WriteString("```rust\n")
	b.Write(l.Source)
	if !strings.HasSuffix(string(l.Source), "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
	switch {
	case l.Rejected():
		fmt.Fprintf(&b, "Expected to stop with **%s** (%s).\n", l.Expect.ID(), l.Expect.Title())
	case l.Output != "":
		b.WriteString("Expected output:\n\n```\n")
		b.WriteString(l.Output)
		b.WriteString("```\n")
	}
	return b.String()
}

func runLessonsVerify(cmd *cobra.Command, args []string) error {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	lessons, err := loadLessons(current.manifest)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		if lessons, err = lesson.Select(lessons, args...); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	d := driver.New(current.log, trace.FromContext(ctx))
	results, err := d.VerifyLessons(ctx, lessons, jobs)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i := range results {
		r := &results[i]
		status := "ok"
		if !r.OK() {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%-4s %s\n", status, r.Lesson.Name)
		if !r.OK() {
			fmt.Fprintf(out, "     %s\n", r.Problem)
		}
	}
	failed := lesson.Failed(results)
	fmt.Fprintf(out, "%d lesson(s), %d failed\n", len(results), len(failed))
	if len(failed) > 0 {
		return errRejected
	}
	return nil
}
