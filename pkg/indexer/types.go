package indexer

import (
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/sonemaro/fileindex/pkg/index"
	"github.com/sonemaro/fileindex/pkg/logger"
	"github.com/sonemaro/fileindex/pkg/walker"
)

// Result summarizes one Index run.
type Result struct {
	// Indexed is the number of files inserted into the index
	Indexed int64 `json:"indexed" yaml:"indexed"`

	// Skipped is the number of files rejected by the predicate
	Skipped int64 `json:"skipped" yaml:"skipped"`

	// Failed is the number of files whose unit of work returned an error
	Failed int64 `json:"failed" yaml:"failed"`

	// Walked is the number of regular files the walker discovered
	Walked int64 `json:"walked" yaml:"walked"`

	// TraversalErrors lists directories that could not be read
	TraversalErrors []error `json:"-" yaml:"-"`

	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Progress is a point-in-time view of the current or last Index run.
type Progress struct {
	Walked    int64
	Indexed   int64
	Skipped   int64
	Failed    int64
	Running   bool
	StartTime time.Time
}

// Stage names the caller function that failed.
type Stage string

const (
	StageFilter Stage = "filter"
	StageKey    Stage = "key"
)

// CallerFunctionError reports an error returned by the predicate or the key
// function for a single file. Only that file is affected.
type CallerFunctionError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *CallerFunctionError) Error() string {
	return fmt.Sprintf("%s function failed for %s: %v", e.Stage, e.Path, e.Err)
}

func (e *CallerFunctionError) Unwrap() error {
	return e.Err
}

// Option configures a FileIndexer.
type Option func(*options)

type options struct {
	strategy  index.Strategy
	workers   int
	rateLimit int
	fs        afero.Fs
	log       logger.Logger
	walk      walker.Config
}

// WithStrategy sets the collision strategy. Defaults to index.NoDuplicates.
func WithStrategy(s index.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithWorkers sets the number of concurrent workers. Defaults to the CPU count.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRateLimit caps how many files per second are processed. 0 is unlimited.
func WithRateLimit(n int) Option {
	return func(o *options) { o.rateLimit = n }
}

// WithFs sets the filesystem to index. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithWalker sets traversal depth and ignore patterns.
func WithWalker(c walker.Config) Option {
	return func(o *options) { o.walk = c }
}
