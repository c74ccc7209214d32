package indexer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"photo-index/internal/database"
	"photo-index/internal/lock"
	"photo-index/internal/logging"
	"photo-index/internal/mediatypes"
	"photo-index/internal/metrics"
	"photo-index/internal/resolver"
	"photo-index/internal/workers"
)

// Upper bound on parallel metadata extraction within one directory.
const maxExtractWorkers = 16

var (
	// ErrTargetNotFound means the path to reconcile does not exist or is not
	// a directory.
	ErrTargetNotFound = errors.New("target directory not found")

	// ErrOutsideRoot means the path to reconcile is not under the index root.
	ErrOutsideRoot = errors.New("target is outside the index root")

	// ErrDisjointSets means a photo was scheduled to be both added and
	// removed in one directory. The run stops rather than guess.
	ErrDisjointSets = errors.New("photo add and remove sets overlap")
)

// Store is the read side of the index the reconciler diffs against.
type Store interface {
	ListDirectoryPathsUnder(ctx context.Context, prefix string) (map[string]struct{}, error)
	ListPhotoModTimes(ctx context.Context, userPath string) (map[string]string, error)
}

// Throttle holds back extraction under memory pressure. *memory.Guard
// implements it.
type Throttle interface {
	// Run samples until ctx is done.
	Run(ctx context.Context)
	// Wait blocks while extraction should stay paused.
	Wait(ctx context.Context) error
}

// runRecorder is implemented by stores that remember the last committed run.
type runRecorder interface {
	SetLastRun(ctx context.Context, rec database.RunRecord) error
}

// Options tune a Reconciler.
type Options struct {
	// Force rebuilds every directory and photo under the target.
	Force bool
	// RefreshDirs rebuilds the record of an unchanged directory when its
	// photos or direct children changed.
	RefreshDirs bool
	// Workers caps parallel metadata extraction; 0 picks a value from the
	// CPU count and INDEX_WORKERS.
	Workers int
	// ReadRate limits metadata extraction to this many files per second;
	// 0 means unlimited.
	ReadRate float64
	// Memory, when set, holds back extraction while the heap is near its
	// limit. The reconciler samples it for the duration of each run.
	Memory Throttle
}

// SkippedFile is a photo that could not be indexed.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result summarizes one reconciliation pass.
type Result struct {
	RunID           string        `json:"run_id"`
	Target          string        `json:"target"`
	Mode            string        `json:"mode"`
	DirsAdded       int           `json:"dirs_added"`
	DirsRemoved     int           `json:"dirs_removed"`
	DirsRefreshed   int           `json:"dirs_refreshed"`
	PhotosAdded     int           `json:"photos_added"`
	PhotosReindexed int           `json:"photos_reindexed"`
	PhotosRemoved   int           `json:"photos_removed"`
	Skipped         []SkippedFile `json:"skipped,omitempty"`
	Duration        time.Duration `json:"duration"`
}

// Writes is the number of records written or deleted. A pass over an
// unchanged tree returns 0.
func (r *Result) Writes() int {
	return r.DirsAdded + r.DirsRemoved + r.DirsRefreshed +
		r.PhotosAdded + r.PhotosReindexed + r.PhotosRemoved
}

// Reconciler brings the index in line with a subtree on disk.
type Reconciler struct {
	store    Store
	resolver *resolver.Resolver
	walker   *Walker
	builder  *Builder
	locker   lock.Locker
	opts     Options
	workers  int
	limiter  *rate.Limiter
}

// New creates a Reconciler. A nil locker disables locking.
func New(store Store, res *resolver.Resolver, locker lock.Locker, opts Options) *Reconciler {
	if locker == nil {
		locker = lock.Noop{}
	}

	n := workers.Resolve(opts.Workers, maxExtractWorkers)

	limit := rate.Inf
	burst := 1
	if opts.ReadRate > 0 {
		limit = rate.Limit(opts.ReadRate)
		burst = max(1, int(opts.ReadRate))
	}

	return &Reconciler{
		store:    store,
		resolver: res,
		walker:   NewWalker(res),
		builder:  NewBuilder(res),
		locker:   locker,
		opts:     opts,
		workers:  n,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Run reconciles target, which must be the index root or lie beneath it.
// All writes go to sink, so a PlanSink turns the pass into a dry run.
// The index root stays locked for the whole pass.
func (r *Reconciler) Run(ctx context.Context, target string, sink Sink) (*Result, error) {
	start := time.Now()

	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", target, err)
	}

	result := &Result{
		RunID:  uuid.NewString(),
		Target: abs,
		Mode:   sink.Mode(),
	}

	if !r.resolver.Within(abs) {
		err = fmt.Errorf("%w: %s is not under %s", ErrOutsideRoot, abs, r.resolver.IndexRoot())
		r.finish(ctx, result, start, err)
		return result, err
	}

	lease, err := r.locker.Acquire(ctx, r.resolver.IndexRoot())
	if err != nil {
		err = fmt.Errorf("failed to lock %s: %w", r.resolver.IndexRoot(), err)
		r.finish(ctx, result, start, err)
		return result, err
	}
	defer func() {
		if relErr := lease.Release(context.Background()); relErr != nil {
			logging.Warn("Failed to release lock on %s: %v", r.resolver.IndexRoot(), relErr)
		}
	}()

	// Losing the lease cancels the pass. Both helpers are joined before the
	// lease is released.
	runCtx, cancelRun := context.WithCancelCause(ctx)
	var helpers sync.WaitGroup
	defer func() {
		cancelRun(nil)
		helpers.Wait()
	}()

	helpers.Add(1)
	go func() {
		defer helpers.Done()
		select {
		case <-lease.Lost():
			cancelRun(lock.ErrNotHeld)
		case <-runCtx.Done():
		}
	}()

	if r.opts.Memory != nil {
		helpers.Add(1)
		go func() {
			defer helpers.Done()
			r.opts.Memory.Run(runCtx)
		}()
	}

	logging.Info("Reconciling %s (run %s, mode %s, %d workers)", abs, result.RunID, result.Mode, r.workers)
	metrics.ReconcileWorkers.Set(float64(r.workers))

	err = r.reconcile(runCtx, abs, sink, result)
	if leaseLost(lease) {
		err = fmt.Errorf("lock on %s lost during the pass: %w", r.resolver.IndexRoot(), lock.ErrNotHeld)
	}
	r.finish(ctx, result, start, err)
	return result, err
}

func leaseLost(lease lock.Lease) bool {
	select {
	case <-lease.Lost():
		return true
	default:
		return false
	}
}

func (r *Reconciler) reconcile(ctx context.Context, target string, sink Sink, result *Result) error {
	local, err := r.walker.Walk(ctx, target)
	if err != nil {
		return err
	}

	stored, err := r.store.ListDirectoryPathsUnder(ctx, r.resolver.UserPath(target))
	if err != nil {
		return fmt.Errorf("failed to list indexed directories: %w", err)
	}

	plan := planDirectories(local, stored)
	logging.Info("Directories: %d to add, %d to remove, %d already indexed",
		len(plan.Add), len(plan.Remove), len(plan.Keep))

	for _, userPath := range plan.Add {
		if err := r.syncDirectory(ctx, sink, local[userPath], true, false, result); err != nil {
			return err
		}
	}

	for _, userPath := range plan.Remove {
		if err := r.removeDirectory(ctx, sink, userPath, result); err != nil {
			return err
		}
	}

	for _, userPath := range plan.Keep {
		if err := r.syncDirectory(ctx, sink, local[userPath], false, plan.ChildChanged[userPath], result); err != nil {
			return err
		}
	}

	return nil
}

// directoryPlan is the directory-level diff, each list sorted.
type directoryPlan struct {
	Add    []string
	Remove []string
	Keep   []string

	// ChildChanged marks directories whose direct children were added or
	// removed.
	ChildChanged map[string]bool
}

func planDirectories(local map[string]*LocalDir, stored map[string]struct{}) directoryPlan {
	plan := directoryPlan{ChildChanged: make(map[string]bool)}

	for userPath := range local {
		if _, ok := stored[userPath]; ok {
			plan.Keep = append(plan.Keep, userPath)
		} else {
			plan.Add = append(plan.Add, userPath)
		}
	}
	for userPath := range stored {
		if _, ok := local[userPath]; !ok {
			plan.Remove = append(plan.Remove, userPath)
		}
	}

	for _, list := range [][]string{plan.Add, plan.Remove} {
		for _, userPath := range list {
			if userPath != resolver.RootUserPath {
				plan.ChildChanged[path.Dir(userPath)] = true
			}
		}
	}

	sort.Strings(plan.Add)
	sort.Strings(plan.Remove)
	sort.Strings(plan.Keep)
	return plan
}

// diffPhotos compares one directory's files with its indexed photos. local
// maps each indexable file to its current modified time; files lists every
// file present. A photo is added when it is new, when its modified time
// changed, or always when rebuild is set. It is removed when its file is gone.
func diffPhotos(files []string, local, stored map[string]string, rebuild bool) (adds, removes []string, err error) {
	present := make(map[string]bool, len(files))
	for _, name := range files {
		if name != mediatypes.IconFile {
			present[name] = true
		}
	}

	for name, modified := range local {
		if prev, ok := stored[name]; rebuild || !ok || prev != modified {
			adds = append(adds, name)
		}
	}
	for name := range stored {
		if !present[name] {
			removes = append(removes, name)
		}
	}

	sort.Strings(adds)
	sort.Strings(removes)

	removing := make(map[string]bool, len(removes))
	for _, name := range removes {
		removing[name] = true
	}
	for _, name := range adds {
		if removing[name] {
			return nil, nil, fmt.Errorf("%w: %s", ErrDisjointSets, name)
		}
	}

	return adds, removes, nil
}

// syncDirectory applies the photo-level diff of one directory, and writes
// the directory record when it is new, forced, or due a refresh. All of it is
// flushed as one unit.
func (r *Reconciler) syncDirectory(ctx context.Context, sink Sink, dir *LocalDir, isNew, childChanged bool, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored, err := r.store.ListPhotoModTimes(ctx, dir.UserPath)
	if err != nil {
		return fmt.Errorf("failed to list photos of %s: %w", dir.UserPath, err)
	}

	local := make(map[string]string)
	for _, name := range dir.Files {
		if !mediatypes.IsIndexable(name) {
			continue
		}
		modified, err := r.builder.modifiedTime(dir, name)
		if err != nil {
			r.skip(result, filepath.Join(dir.DiskPath, name), err)
			continue
		}
		local[name] = modified
	}

	rebuild := isNew || r.opts.Force
	adds, removes, err := diffPhotos(dir.Files, local, stored, rebuild)
	if err != nil {
		return fmt.Errorf("directory %s: %w", dir.UserPath, err)
	}

	if len(adds) == 0 && len(removes) == 0 && !rebuild && !(r.opts.RefreshDirs && childChanged) {
		return nil
	}

	photos, err := r.buildPhotos(ctx, dir, adds, result)
	if err != nil {
		return err
	}

	// Decided after the build: a file that fails extraction on every pass
	// leaves the photo set unchanged.
	writeDir := rebuild || (r.opts.RefreshDirs && (len(photos) > 0 || len(removes) > 0 || childChanged))
	if len(photos) == 0 && len(removes) == 0 && !writeDir {
		return nil
	}

	var added, reindexed int
	apply := func() error {
		for _, photo := range photos {
			if err := sink.PutPhoto(ctx, photo); err != nil {
				return err
			}
			if _, ok := stored[photo.Filename]; ok {
				reindexed++
			} else {
				added++
			}
		}
		for _, name := range removes {
			if err := sink.DeletePhoto(ctx, dir.UserPath, name); err != nil {
				return err
			}
		}
		if writeDir {
			if err := sink.PutDirectory(ctx, r.builder.Directory(dir)); err != nil {
				return err
			}
		}
		return sink.Flush(ctx)
	}
	if err := apply(); err != nil {
		return sink.Abort(fmt.Errorf("failed to write %s: %w", dir.UserPath, err))
	}

	switch {
	case isNew:
		result.DirsAdded++
	case writeDir:
		result.DirsRefreshed++
	}
	result.PhotosAdded += added
	result.PhotosReindexed += reindexed
	result.PhotosRemoved += len(removes)

	logging.Debug("Synced %s: %d added, %d reindexed, %d removed", dir.UserPath, added, reindexed, len(removes))
	return nil
}

// removeDirectory deletes a directory record and purges its photos.
func (r *Reconciler) removeDirectory(ctx context.Context, sink Sink, userPath string, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	apply := func() error {
		if err := sink.DeleteDirectory(ctx, userPath); err != nil {
			return err
		}
		if err := sink.DeletePhotosIn(ctx, userPath); err != nil {
			return err
		}
		return sink.Flush(ctx)
	}
	if err := apply(); err != nil {
		return sink.Abort(fmt.Errorf("failed to remove %s: %w", userPath, err))
	}

	result.DirsRemoved++
	logging.Debug("Removed %s", userPath)
	return nil
}

// buildPhotos extracts metadata for names in parallel. The returned records
// keep the order of names; files that fail are reported in result.Skipped and
// left out.
func (r *Reconciler) buildPhotos(ctx context.Context, dir *LocalDir, names []string, result *Result) ([]*database.Photo, error) {
	built := make([]*database.Photo, len(names))
	failed := make([]error, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, name := range names {
		g.Go(func() error {
			if r.opts.Memory != nil {
				if err := r.opts.Memory.Wait(gctx); err != nil {
					return err
				}
			}
			if err := r.limiter.Wait(gctx); err != nil {
				return err
			}
			photo, err := r.builder.Photo(dir, name)
			if err != nil {
				failed[i] = err
				return nil
			}
			built[i] = photo
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	photos := make([]*database.Photo, 0, len(names))
	for i, name := range names {
		if failed[i] != nil {
			r.skip(result, filepath.Join(dir.DiskPath, name), failed[i])
			continue
		}
		photos = append(photos, built[i])
	}
	return photos, nil
}

func (r *Reconciler) skip(result *Result, path string, err error) {
	logging.Warn("Skipping %s: %v", path, err)
	metrics.ReconcileSkippedFiles.Inc()
	result.Skipped = append(result.Skipped, SkippedFile{Path: path, Reason: err.Error()})
}

// finish records metrics and the run summary.
func (r *Reconciler) finish(ctx context.Context, result *Result, start time.Time, err error) {
	result.Duration = time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		metrics.ReconcileErrors.Inc()
	}
	metrics.ReconcileRunsTotal.WithLabelValues(result.Mode, status).Inc()
	metrics.ReconcileLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.ReconcileLastRunDuration.Set(result.Duration.Seconds())

	if result.Mode == ModeCommit {
		metrics.ReconcileDirectoryOps.WithLabelValues("add").Add(float64(result.DirsAdded))
		metrics.ReconcileDirectoryOps.WithLabelValues("remove").Add(float64(result.DirsRemoved))
		metrics.ReconcileDirectoryOps.WithLabelValues("refresh").Add(float64(result.DirsRefreshed))
		metrics.ReconcilePhotoOps.WithLabelValues("add").Add(float64(result.PhotosAdded))
		metrics.ReconcilePhotoOps.WithLabelValues("reindex").Add(float64(result.PhotosReindexed))
		metrics.ReconcilePhotoOps.WithLabelValues("remove").Add(float64(result.PhotosRemoved))
	}

	if err != nil {
		logging.Error("Reconciliation of %s failed after %v: %v", result.Target, result.Duration, err)
		return
	}

	logging.Info("Reconciliation complete in %v: dirs +%d -%d ~%d, photos +%d ~%d -%d, %d skipped",
		result.Duration, result.DirsAdded, result.DirsRemoved, result.DirsRefreshed,
		result.PhotosAdded, result.PhotosReindexed, result.PhotosRemoved, len(result.Skipped))

	if result.Mode != ModeCommit {
		return
	}
	if rec, ok := r.store.(runRecorder); ok {
		err := rec.SetLastRun(ctx, database.RunRecord{
			RunID:         result.RunID,
			Target:        result.Target,
			FinishedAt:    time.Now().UTC(),
			DirsAdded:     result.DirsAdded,
			DirsRemoved:   result.DirsRemoved,
			PhotosAdded:   result.PhotosAdded + result.PhotosReindexed,
			PhotosRemoved: result.PhotosRemoved,
			Skipped:       len(result.Skipped),
		})
		if err != nil {
			logging.Warn("Failed to record run %s: %v", result.RunID, err)
		}
	}
}
