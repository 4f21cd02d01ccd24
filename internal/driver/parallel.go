// Package driver runs the translator over a directory of bytecode files,
// bounded-parallel, and reports progress events a UI can render.
package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"silgen/internal/bcir"
	"silgen/internal/cache"
	"silgen/internal/config"
	"silgen/internal/diag"
	"silgen/internal/lower"
	"silgen/internal/sil"
)

// Stage describes a high-level translation phase, reported in Events so a
// UI can render per-file progress.
type Stage string

const (
	StageLoad      Stage = "load"
	StageTranslate Stage = "translate"
	StageCache     Stage = "cache"
)

// Status captures a file's progress within a Stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one file in a batch translation.
type Event struct {
	File   string
	Stage  Stage
	Status Status
	Err    error
}

// ProgressSink consumes progress events. A nil sink is legal everywhere an
// Options accepts one — events are only sent when it is non-nil, so
// callers pass a ChannelSink only when they want events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel, the way a bubbletea model
// drains them in internal/ui.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// Result is one file's outcome from a batch translation.
type Result struct {
	Path   string
	Module *sil.Module
	Diags  *diag.Bag
	Cached bool
	Err    error
}

// Options configures a batch translation run.
type Options struct {
	MaxDiagnostics int
	Jobs           int                   // <=0 means GOMAXPROCS
	Cache          *cache.Cache          // nil disables the result cache
	Progress       ProgressSink          // nil disables progress reporting
	Builtins       config.BuiltinsConfig // project manifest's builtin renames/extras
}

// listCodeFiles returns a sorted list of every .pyc file under dir, sorted
// for a deterministic translation order across runs.
func listCodeFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".pyc") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// TranslateDir loads and translates every .pyc file under dir, bounded by
// opts.Jobs concurrent workers, reporting each file's progress through
// opts.Progress if set. Results are returned in the same file order
// listCodeFiles produces, regardless of completion order.
func TranslateDir(ctx context.Context, dir string, opts Options) ([]Result, error) {
	files, err := listCodeFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("driver: listing %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	limit, err := safecast.Conv[int](jobs)
	if err != nil {
		return nil, fmt.Errorf("driver: job count overflow: %w", err)
	}
	if limit > len(files) {
		limit = len(files)
	}

	results := make([]Result, len(files))
	loader := bcir.MsgpackLoader{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range files {
		g.Go(func(i int, path string) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				results[i] = translateOne(loader, path, opts)
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func translateOne(loader bcir.Loader, path string, opts Options) Result {
	emit := func(stage Stage, status Status, err error) {
		if opts.Progress != nil {
			opts.Progress.OnEvent(Event{File: path, Stage: stage, Status: status, Err: err})
		}
	}

	emit(StageLoad, StatusWorking, nil)
	co, err := loader.Load(path)
	if err != nil {
		emit(StageLoad, StatusError, err)
		return Result{Path: path, Err: err}
	}
	emit(StageLoad, StatusDone, nil)

	var key string
	if opts.Cache != nil {
		emit(StageCache, StatusWorking, nil)
		key, err = cache.Key(co)
		if err == nil {
			if mod, ok, cerr := opts.Cache.Get(key); cerr == nil && ok {
				emit(StageCache, StatusDone, nil)
				return Result{Path: path, Module: mod, Cached: true}
			}
		}
		emit(StageCache, StatusDone, nil)
	}

	emit(StageTranslate, StatusWorking, nil)
	mod, bag, err := lower.ToModule(path, co, opts.MaxDiagnostics, opts.Builtins)
	if err != nil {
		emit(StageTranslate, StatusError, err)
		return Result{Path: path, Diags: bag, Err: err}
	}
	emit(StageTranslate, StatusDone, nil)

	if opts.Cache != nil && key != "" {
		_ = opts.Cache.Put(key, mod)
	}

	return Result{Path: path, Module: mod, Diags: bag}
}
