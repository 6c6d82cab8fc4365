/*
Package indexer builds a concurrent in-memory index of the files under a
root directory.

A single walker goroutine discovers regular files. Every file becomes one
task in a fixed-size worker pool; the task runs the caller's predicate and
key function and inserts the file into the shared index. Index returns once
every task has finished.

Basic usage:

	ix, err := indexer.New[string]("/path/to/root",
		indexer.WithStrategy(index.AllowDuplicates),
		indexer.WithWorkers(8),
	)
	if err != nil {
		return err
	}
	defer ix.Close()

	result, err := ix.Index(ctx, filter.Extensions(".go"), filter.ByName)
	files := ix.GetAll("main.go")
*/
package indexer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/sonemaro/fileindex/pkg/filter"
	"github.com/sonemaro/fileindex/pkg/index"
	"github.com/sonemaro/fileindex/pkg/logger"
	"github.com/sonemaro/fileindex/pkg/walker"
	"github.com/sonemaro/fileindex/pkg/worker"
)

// FileIndexer maps keys to the files found under its root.
type FileIndexer[K comparable] struct {
	root     string
	strategy index.Strategy
	log      logger.Logger
	walker   *walker.Walker
	pool     worker.Pool
	index    *index.Index[K]

	// serializes Index calls; the pool runs one batch at a time
	runMu  sync.Mutex
	closed atomic.Bool

	walked    atomic.Int64
	indexed   atomic.Int64
	skipped   atomic.Int64
	running   atomic.Bool
	startTime atomic.Int64
}

// New creates a FileIndexer for root. The worker pool is created here and
// reused by every Index call until Close.
func New[K comparable](root string, opts ...Option) (*FileIndexer[K], error) {
	if root == "" {
		return nil, fmt.Errorf("root path must not be empty")
	}

	o := options{
		strategy: index.NoDuplicates,
		workers:  runtime.NumCPU(),
		walk:     walker.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.log == nil {
		o.log = logger.NewLogger(logger.Config{Component: "indexer"})
	}

	pool, err := worker.NewPool(worker.Config{
		Workers:   o.workers,
		RateLimit: o.rateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &FileIndexer[K]{
		root:     root,
		strategy: o.strategy,
		log:      o.log,
		walker:   walker.New(o.fs, o.walk, o.log),
		pool:     pool,
		index:    index.New[K](index.ResolverFor[K](o.strategy)),
	}, nil
}

// Root returns the directory this indexer walks.
func (ix *FileIndexer[K]) Root() string {
	return ix.root
}

// Strategy returns the collision strategy fixed at construction.
func (ix *FileIndexer[K]) Strategy() index.Strategy {
	return ix.strategy
}

// Index walks the root and indexes every file accepted by shouldIndex under
// the key returned by extractKey. A nil shouldIndex accepts every file.
//
// Index blocks until every discovered file has been processed. The returned
// error joins all per-file failures; use errors.As to retrieve individual
// *index.DuplicateKeyError or *CallerFunctionError values. Files indexed
// before a failure stay in the index, and repeated calls add to it.
func (ix *FileIndexer[K]) Index(ctx context.Context, shouldIndex filter.Predicate, extractKey filter.KeyFunc[K]) (Result, error) {
	if extractKey == nil {
		return Result{}, fmt.Errorf("key function must not be nil")
	}
	if shouldIndex == nil {
		shouldIndex = filter.All
	}

	ix.runMu.Lock()
	defer ix.runMu.Unlock()

	if ix.closed.Load() {
		return Result{}, fmt.Errorf("indexer is closed")
	}

	ix.resetProgress()
	ix.running.Store(true)
	defer ix.running.Store(false)

	start := time.Now()
	ix.log.WithFields(logger.Fields{
		"root":     ix.root,
		"strategy": ix.strategy.String(),
	}).Info("Starting indexing")

	if err := ix.pool.Start(ctx); err != nil {
		return Result{}, fmt.Errorf("failed to start worker pool: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	stream, err := ix.walker.Walk(gctx, ix.root)
	if err != nil {
		_ = g.Wait()
		_, _ = ix.pool.Wait()
		ix.log.WithFields(logger.Fields{
			"root":  ix.root,
			"error": err,
		}).Error("Failed to walk root")
		return Result{}, err
	}

	g.Go(func() error {
		return ix.dispatch(stream, shouldIndex, extractKey)
	})

	dispatchErr := g.Wait()
	summary, taskErr := ix.pool.Wait()

	result := Result{
		Indexed:         ix.indexed.Load(),
		Skipped:         ix.skipped.Load(),
		Failed:          summary.Failed,
		Walked:          ix.walked.Load(),
		TraversalErrors: stream.Errors(),
		Duration:        time.Since(start),
	}

	fields := logger.Fields{
		"root":            ix.root,
		"indexed":         result.Indexed,
		"skipped":         result.Skipped,
		"failed":          result.Failed,
		"walked":          result.Walked,
		"traversalErrors": len(result.TraversalErrors),
		"duration":        result.Duration,
	}

	if dispatchErr != nil {
		err := errors.Join(dispatchErr, taskErr)
		fields["error"] = err
		ix.log.WithFields(fields).Error("Indexing interrupted")
		return result, fmt.Errorf("indexing interrupted: %w", err)
	}
	if taskErr != nil {
		fields["error"] = taskErr
		ix.log.WithFields(fields).Error("Indexing failed")
		return result, taskErr
	}

	ix.log.WithFields(fields).Info(fmt.Sprintf("Indexed %d files", result.Indexed))
	return result, nil
}

// dispatch submits one task per discovered file. It returns when the walk
// ends, the context is cancelled or the pool refuses a task.
func (ix *FileIndexer[K]) dispatch(stream *walker.Stream, shouldIndex filter.Predicate, extractKey filter.KeyFunc[K]) error {
	id := 0
	for file := range stream.Files() {
		ix.walked.Add(1)
		id++

		err := ix.pool.Submit(worker.Task{
			ID: id,
			Execute: func(context.Context) error {
				return ix.process(file, shouldIndex, extractKey)
			},
		})
		if err != nil {
			return fmt.Errorf("failed to submit %s: %w", file.Path, err)
		}
	}
	return stream.Err()
}

func (ix *FileIndexer[K]) process(file walker.FileRef, shouldIndex filter.Predicate, extractKey filter.KeyFunc[K]) error {
	ok, err := shouldIndex(file)
	if err != nil {
		return &CallerFunctionError{Path: file.Path, Stage: StageFilter, Err: err}
	}
	if !ok {
		ix.skipped.Add(1)
		ix.log.Trace("Skipped " + file.Path)
		return nil
	}

	key, err := extractKey(file)
	if err != nil {
		return &CallerFunctionError{Path: file.Path, Stage: StageKey, Err: err}
	}

	if err := ix.index.Insert(key, file); err != nil {
		return err
	}

	ix.indexed.Add(1)
	ix.log.Trace("Indexed " + file.Path)
	return nil
}

func (ix *FileIndexer[K]) resetProgress() {
	ix.walked.Store(0)
	ix.indexed.Store(0)
	ix.skipped.Store(0)
	ix.startTime.Store(time.Now().UnixNano())
}

// Add inserts file under key directly, applying the collision strategy.
func (ix *FileIndexer[K]) Add(key K, file walker.FileRef) error {
	return ix.index.Insert(key, file)
}

// Get returns the first file stored under key.
func (ix *FileIndexer[K]) Get(key K) (walker.FileRef, bool) {
	return ix.index.Get(key)
}

// GetAll returns every file stored under key, or nil.
func (ix *FileIndexer[K]) GetAll(key K) []walker.FileRef {
	return ix.index.GetAll(key)
}

// Keys returns the keys currently in the index.
func (ix *FileIndexer[K]) Keys() []K {
	return ix.index.Keys()
}

// Len returns the number of keys.
func (ix *FileIndexer[K]) Len() int {
	return ix.index.Len()
}

// Duplicates returns the keys that hold more than one file. Only
// AllowDuplicates can produce any.
func (ix *FileIndexer[K]) Duplicates() map[K][]walker.FileRef {
	dupes := make(map[K][]walker.FileRef)
	ix.index.Range(func(key K, files []walker.FileRef) bool {
		if len(files) > 1 {
			dupes[key] = files
		}
		return true
	})
	return dupes
}

// Progress reports the counters of the current or last Index run.
func (ix *FileIndexer[K]) Progress() Progress {
	var start time.Time
	if ns := ix.startTime.Load(); ns != 0 {
		start = time.Unix(0, ns)
	}
	return Progress{
		Walked:    ix.walked.Load(),
		Indexed:   ix.indexed.Load(),
		Skipped:   ix.skipped.Load(),
		Failed:    ix.pool.GetStats().FailedTasks,
		Running:   ix.running.Load(),
		StartTime: start,
	}
}

// Close stops the worker pool, waiting for an in-flight Index to return
// first. The index stays readable; further Index calls fail.
func (ix *FileIndexer[K]) Close() error {
	ix.runMu.Lock()
	defer ix.runMu.Unlock()

	if ix.closed.Swap(true) {
		return nil
	}
	return ix.pool.Stop()
}
