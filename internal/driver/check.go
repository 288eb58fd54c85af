package driver

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ownlab/internal/diag"
	"ownlab/internal/interp"
	"ownlab/internal/lesson"
	"ownlab/internal/observ"
	"ownlab/internal/source"
	"ownlab/internal/trace"
)

// CheckOptions configures CheckAll.
type CheckOptions struct {
	Jobs           int
	MaxDiagnostics int
	Entry          string
	MaxDepth       int
	// Cache skips scripts whose content and settings were checked before.
	Cache    *DiskCache
	Observer PhaseObserver
}

// CheckResult is the outcome of checking one script.
type CheckResult struct {
	Path   string
	FileID source.FileID
	Bag    *diag.Bag
	Cached bool
	Timing observ.Report
}

// Code returns the first error code of the script, or UnknownCode.
func (r *CheckResult) Code() diag.Code {
	res := Result{Bag: r.Bag}
	return res.Code()
}

// ListScripts expands directories into the *.own files below them. Plain
// files are kept whatever their extension. The result is sorted and
// free of duplicates.
func ListScripts(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == lesson.Ext {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// CheckAll runs every script under paths in parallel, one Tracker per
// script, and returns results in path order. Program output is discarded.
func (d *Driver) CheckAll(ctx context.Context, paths []string, opts CheckOptions) (*source.FileSet, []CheckResult, error) {
	files, err := ListScripts(paths)
	if err != nil {
		return nil, nil, err
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = DefaultMaxDiagnostics
	}
	span := trace.Begin(d.tracer, trace.ScopeDriver, "check", trace.CurrentSpan(ctx).SpanID)
	defer span.End(fmt.Sprintf("files=%d", len(files)))

	// FileSet не потокобезопасен на запись, поэтому все файлы грузим заранее.
	fileSet := source.NewFileSet()
	fileIDs := make([]source.FileID, len(files))
	loadErrors := make(map[int]error)
	for i, path := range files {
		fileID, err := fileSet.Load(path)
		if err != nil {
			loadErrors[i] = err
			continue
		}
		fileIDs[i] = fileID
	}
	if len(files) == 0 {
		return fileSet, nil, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Индексы уникальны для каждой горутины, мьютекс не нужен.
	results := make([]CheckResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = CheckResult{Path: path, FileID: fileIDs[i]}
			if loadErr, failed := loadErrors[i]; failed {
				bag := diag.NewBag(opts.MaxDiagnostics)
				bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+loadErr.Error()))
				results[i].Bag = bag
				return nil
			}
			return d.checkOne(gctx, fileSet, &results[i], opts, span.ID())
		})
	}
	if err := g.Wait(); err != nil {
		return fileSet, results, err
	}
	return fileSet, results, nil
}

func (d *Driver) checkOne(ctx context.Context, fileSet *source.FileSet, out *CheckResult, opts CheckOptions, parent uint64) error {
	file := fileSet.Get(out.FileID)
	key := checkKey(file, opts.Entry, opts.MaxDepth)
	if opts.Cache != nil {
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		if err != nil {
			d.log.Warn("check cache read failed", zap.String("path", out.Path), zap.Error(err))
		}
		if hit && payload.ContentHash == file.Hash {
			out.Bag = payload.restore(out.FileID, opts.MaxDiagnostics)
			out.Cached = true
			d.log.Debug("check cached", zap.String("path", out.Path))
			return nil
		}
	}

	fileSpan := trace.Begin(d.tracer, trace.ScopeFile, "check "+out.Path, parent)
	defer fileSpan.End("")
	p := &pipeline{d: d, timer: observ.NewTimer(), observer: opts.Observer, path: out.Path, parent: fileSpan.ID()}
	res := &Result{FileSet: fileSet, File: file, Bag: diag.NewBag(opts.MaxDiagnostics)}
	err := p.run(ctx, res, out.FileID, interp.Options{
		Stdout:   io.Discard,
		Entry:    opts.Entry,
		MaxDepth: opts.MaxDepth,
	})
	out.Bag = res.Bag
	out.Timing = p.timer.Report()
	if err != nil {
		return err
	}
	d.log.Debug("checked",
		zap.String("path", out.Path),
		zap.String("code", res.Code().ID()),
		zap.Float64("total_ms", out.Timing.TotalMS),
	)
	if opts.Cache != nil {
		if err := opts.Cache.Put(key, newDiskPayload(file, res.Bag)); err != nil {
			d.log.Warn("check cache write failed", zap.String("path", out.Path), zap.Error(err))
		}
	}
	return nil
}
