package lesson

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"ownlab/internal/diag"
)

// CheckFunc runs one lesson. code is the diagnostic that stopped it, or
// UnknownCode when it finished cleanly; err is reserved for tool failures.
type CheckFunc func(ctx context.Context, l Lesson) (output string, code diag.Code, err error)

// Result is the verdict for one lesson.
type Result struct {
	Lesson Lesson
	Code   diag.Code
	Output string
	Err    error
	// Problem is empty when the lesson behaved as declared.
	Problem string
}

func (r *Result) OK() bool { return r.Problem == "" }

// Verify runs lessons with at most jobs concurrent checks and reports, in
// input order, whether each one passed or failed as declared.
func Verify(ctx context.Context, lessons []Lesson, check CheckFunc, jobs int) ([]Result, error) {
	results := make([]Result, len(lessons))
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i := range lessons {
		l := lessons[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, code, err := check(gctx, l)
			results[i] = judge(l, out, code, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func judge(l Lesson, out string, code diag.Code, err error) Result {
	r := Result{Lesson: l, Code: code, Output: out, Err: err}
	switch {
	case err != nil:
		r.Problem = "run failed: " + err.Error()
	case l.Rejected() && code == diag.UnknownCode:
		r.Problem = fmt.Sprintf("expected %s, but the program ran to completion", l.Expect.ID())
	case l.Rejected() && code != l.Expect:
		r.Problem = fmt.Sprintf("expected %s, got %s", l.Expect.ID(), code.ID())
	case !l.Rejected() && code != diag.UnknownCode:
		r.Problem = fmt.Sprintf("expected success, got %s", code.ID())
	case !l.Rejected() && l.Output != "" && out != l.Output:
		r.Problem = outputMismatch(l.Output, out)
	}
	return r
}

func outputMismatch(want, got string) string {
	wl := strings.Split(strings.TrimSuffix(want, "\n"), "\n")
	gl := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	for i := range max(len(wl), len(gl)) {
		var w, g string
		if i < len(wl) {
			w = wl[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		if w != g {
			return fmt.Sprintf("output differs at line %d: want %q, got %q", i+1, w, g)
		}
	}
	return "output differs in trailing newline"
}

// Failed returns the results whose Problem is set.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
