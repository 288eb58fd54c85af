// Package fix applies the edits suggested by diagnostics to script files.
package fix

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"ownlab/internal/diag"
	"ownlab/internal/source"
)

// ErrNoFixes is returned when nothing could be applied.
var ErrNoFixes = errors.New("no applicable fixes found")

type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix in source order.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every fix that does not overlap an earlier one.
	ApplyModeAll
)

type ApplyOptions struct {
	Mode ApplyMode
	// DryRun computes FileChange.Content without touching the files.
	DryRun bool
}

type AppliedFix struct {
	Title     string
	Code      diag.Code
	Message   string
	Path      string
	EditCount int
}

type SkippedFix struct {
	Title  string
	Reason string
}

// FileChange is the new content of one edited file.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

// pending is a fix together with the diagnostic that suggested it.
type pending struct {
	d   diag.Diagnostic
	fix diag.Fix
}

// Apply picks fixes from diagnostics in source order and applies them.
// Every edit is expressed against the original file content; a fix whose
// edits overlap one already accepted is skipped as a whole.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	res := &ApplyResult{}
	if fs == nil {
		return res, errors.New("fix: nil FileSet")
	}

	var queue []pending
	for _, d := range diagnostics {
		for _, f := range d.Fixes {
			if len(f.Edits) == 0 {
				res.Skipped = append(res.Skipped, SkippedFix{Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			queue = append(queue, pending{d: d, fix: f})
		}
	}
	slices.SortStableFunc(queue, func(a, b pending) int {
		pa, pb := a.d.Primary, b.d.Primary
		return cmp.Or(cmp.Compare(pa.File, pb.File), cmp.Compare(pa.Start, pb.Start), cmp.Compare(pa.End, pb.End))
	})
	if opts.Mode == ApplyModeOnce && len(queue) > 1 {
		queue = queue[:1]
	}

	plan := &plan{fs: fs, dryRun: opts.DryRun, files: map[source.FileID]*fileEdits{}}
	for _, p := range queue {
		if reason := plan.accept(p.fix); reason != "" {
			res.Skipped = append(res.Skipped, SkippedFix{Title: p.fix.Title, Reason: reason})
			continue
		}
		var path string
		if f := fs.Get(p.d.Primary.File); f != nil {
			path = f.Path
		}
		res.Applied = append(res.Applied, AppliedFix{
			Title:     p.fix.Title,
			Code:      p.d.Code,
			Message:   p.d.Message,
			Path:      path,
			EditCount: len(p.fix.Edits),
		})
	}
	if len(res.Applied) == 0 {
		return res, ErrNoFixes
	}

	for _, fe := range plan.files {
		res.FileChanges = append(res.FileChanges, FileChange{Path: fe.file.Path, EditCount: len(fe.edits), Content: fe.render()})
	}
	slices.SortFunc(res.FileChanges, func(a, b FileChange) int { return cmp.Compare(a.Path, b.Path) })
	if !opts.DryRun {
		for _, ch := range res.FileChanges {
			if err := writeFile(ch.Path, ch.Content); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// plan collects the accepted edits of every touched file.
type plan struct {
	fs     *source.FileSet
	dryRun bool
	files  map[source.FileID]*fileEdits
}

type fileEdits struct {
	file  *source.File
	edits []diag.FixEdit
}

// accept records all edits of f, or none. It returns why f was refused.
func (p *plan) accept(f diag.Fix) string {
	staged := map[source.FileID][]diag.FixEdit{}
	for _, e := range f.Edits {
		file := p.fs.Get(e.Span.File)
		switch {
		case file == nil:
			return "edit targets an unknown file"
		case file.Flags.Has(source.FileVirtual) && !p.dryRun:
			return "target file is virtual"
		case e.Span.End < e.Span.Start || int(e.Span.End) > len(file.Content):
			return "edit span out of range"
		}
		var prev []diag.FixEdit
		if fe := p.files[file.ID]; fe != nil {
			prev = fe.edits
		}
		if conflicts(prev, e) || conflicts(staged[file.ID], e) {
			return "conflicts with previously applied edits in " + file.Path
		}
		staged[file.ID] = append(staged[file.ID], e)
	}
	for id, edits := range staged {
		fe := p.files[id]
		if fe == nil {
			fe = &fileEdits{file: p.fs.Get(id)}
			p.files[id] = fe
		}
		fe.edits = append(fe.edits, edits...)
	}
	return ""
}

func conflicts(accepted []diag.FixEdit, e diag.FixEdit) bool {
	return slices.ContainsFunc(accepted, func(a diag.FixEdit) bool { return spansConflict(a, e) })
}

// spansConflict reports whether two edits overlap. Spans are half-open;
// two insertions never conflict, an insertion conflicts with a replacement
// it falls inside of.
func spansConflict(a, b diag.FixEdit) bool {
	as, ae, bs, be := a.Span.Start, a.Span.End, b.Span.Start, b.Span.End
	switch {
	case as == ae && bs == be:
		return false
	case as == ae:
		return bs <= as && as < be
	case bs == be:
		return as <= bs && bs < ae
	}
	return as < be && bs < ae
}

// render splices the edits into the original content. Insertions at the
// same offset keep the order they were accepted in.
func (fe *fileEdits) render() []byte {
	edits := slices.Clone(fe.edits)
	slices.SortStableFunc(edits, func(a, b diag.FixEdit) int { return cmp.Compare(a.Span.Start, b.Span.Start) })
	src := fe.file.Content
	var out bytes.Buffer
	out.Grow(len(src))
	pos := uint32(0)
	for _, e := range edits {
		out.Write(src[pos:e.Span.Start])
		out.WriteString(e.NewText)
		pos = e.Span.End
	}
	out.Write(src[pos:])
	return out.Bytes()
}

// writeFile replaces path through a temp file, keeping its permissions.
func writeFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fix-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	_, err = tmp.Write(data)
	err = errors.Join(err, tmp.Close())
	if err == nil {
		err = os.Chmod(tmp.Name(), mode)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
