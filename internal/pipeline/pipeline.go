// Package pipeline resolves many world files concurrently. Each file gets
// its own FileSet, diagnostics bag and resolution session, so jobs share
// nothing but the plan cache.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"injekt/internal/diag"
	"injekt/internal/inject"
	"injekt/internal/manifest"
	"injekt/internal/plan"
	"injekt/internal/source"
	"injekt/internal/trace"
)

// DefaultMaxDiagnostics is the per-file diagnostics cap.
const DefaultMaxDiagnostics = 100

// Request configures Run.
type Request struct {
	Files   []string
	BaseDir string
	// Jobs bounds the files resolved at once; GOMAXPROCS when <= 0.
	Jobs int
	// MaxDiagnostics caps each file's bag; DefaultMaxDiagnostics when <= 0.
	MaxDiagnostics int
	// Cache stores plan sets of clean worlds; nil disables caching.
	Cache *plan.DiskCache
	// Keys returns the frameworkKey source of one session; nil selects UUIDs.
	Keys func() inject.KeySource
	// Warnings is applied to each bag before the cache sees it, so promoted
	// warnings keep a world out of the cache.
	Warnings diag.WarningPolicy
	Progress ProgressSink
}

// FileResult is the outcome for one world file.
type FileResult struct {
	Path    string
	Display string
	FileSet *source.FileSet
	Bag     *diag.Bag
	World   *manifest.World
	Plans   *plan.Set
	// Cached is set when Plans came from the cache; World is nil then.
	Cached  bool
	Timings Timings
}

// Result aggregates a run.
type Result struct {
	Files   []FileResult
	Timings Timings
	Elapsed time.Duration
}

// HasErrors reports whether any file produced an error diagnostic.
func (r Result) HasErrors() bool {
	for _, f := range r.Files {
		if f.Bag != nil && f.Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Run loads and resolves req.Files. Problems inside files are diagnostics
// in the file results; the error is non-nil only when ctx is cancelled.
func Run(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing pipeline request")
	}
	start := time.Now()
	files := dedupFiles(req.Files)
	display := displayPaths(files, req.BaseDir)
	emitQueued(req.Progress, display)

	tracer := trace.FromContext(ctx)
	parent := trace.ParentFrom(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "pipeline", parent)

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	result.Files = make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// индекс i уникален для горутины, мьютекс не нужен
			result.Files[i] = runFile(req, path, display[i], tracer, span.ID())
			return nil
		})
	}
	err := g.Wait()
	for _, f := range result.Files {
		result.Timings.Add(f.Timings)
	}
	result.Elapsed = time.Since(start)
	span.WithExtra("files", fmt.Sprint(len(files))).End("")
	if err != nil {
		return result, err
	}
	return result, nil
}

func runFile(req *Request, path, display string, tracer trace.Tracer, parent uint64) FileResult {
	limit := req.MaxDiagnostics
	if limit <= 0 {
		limit = DefaultMaxDiagnostics
	}
	out := FileResult{
		Path:    path,
		Display: display,
		FileSet: source.NewFileSet(req.BaseDir),
		Bag:     diag.NewBag(limit),
	}
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: out.Bag})

	stageStart := time.Now()
	emit(req.Progress, display, StageLoad, StatusWorking, nil)
	id, err := out.FileSet.Load(path)
	if err != nil {
		diag.ReportError(rep, diag.IOLoadFileError, source.NoSpan, fmt.Sprintf("load %s: %v", display, err)).Emit()
		emit(req.Progress, display, StageLoad, StatusError, err)
		return out
	}
	out.Timings.Set(StageLoad, time.Since(stageStart))

	key := plan.KeyFor(plan.Digest(out.FileSet.Get(id).Hash))
	if req.Cache != nil {
		stageStart = time.Now()
		set, ok, err := req.Cache.Get(key)
		out.Timings.Set(StageCache, time.Since(stageStart))
		if err != nil {
			diag.ReportWarning(rep, diag.IOCacheError, source.NoSpan, err.Error()).Emit()
		}
		if ok {
			out.Plans, out.Cached = set, true
			emit(req.Progress, display, StageCache, StatusDone, nil)
			return out
		}
	}

	stageStart = time.Now()
	doc, ok := manifest.Decode(out.FileSet, id, rep)
	if !ok {
		out.Bag.Apply(req.Warnings)
		emit(req.Progress, display, StageLoad, StatusError, fmt.Errorf("%s: invalid world", display))
		return out
	}
	out.World = manifest.Build(out.FileSet, id, doc, rep)
	out.Timings.Set(StageLoad, out.Timings.Duration(StageLoad)+time.Since(stageStart))

	emit(req.Progress, display, StageResolve, StatusWorking, nil)
	opts := SessionOptions{Tracer: tracer, Parent: parent, Timings: &out.Timings}
	if req.Keys != nil {
		opts.Keys = req.Keys()
	}
	out.Plans = ResolveWorld(out.World, opts, rep)
	out.Bag.Apply(req.Warnings)

	if req.Cache != nil && !out.Bag.HasErrors() {
		stageStart = time.Now()
		if err := req.Cache.Put(key, out.Plans); err != nil {
			diag.ReportWarning(rep, diag.IOCacheError, source.NoSpan, err.Error()).Emit()
		}
		out.Timings.Set(StageCache, out.Timings.Duration(StageCache)+time.Since(stageStart))
	}

	status := StatusDone
	var failure error
	if out.Bag.HasErrors() {
		status, failure = StatusError, fmt.Errorf("%s: %d errors", display, len(out.Bag.Errors()))
	}
	emit(req.Progress, display, StagePlan, status, failure)
	return out
}
