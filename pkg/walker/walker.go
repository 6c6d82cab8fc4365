/*
Package walker enumerates the regular files under a root on an afero.Fs.

A walk is lazy: a single producer goroutine reads one directory at a time and
hands files to the consumer over a small buffered channel, so memory stays
bounded no matter how large the tree is. Directories that cannot be read are
recorded and skipped; only a root that cannot be stat'ed fails the walk.

	w := walker.New(fs, walker.Config{MaxDepth: -1}, log)
	stream, err := w.Walk(ctx, "/srv/data")
	if err != nil {
		return err
	}
	for f := range stream.Files() {
		...
	}
	for _, err := range stream.Errors() {
		...
	}
*/
package walker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"

	"github.com/sonemaro/fileindex/pkg/logger"
)

const streamBuffer = 64

// Walker produces file streams. It holds no per-walk state and may start
// any number of walks.
type Walker struct {
	fs      afero.Fs
	config  Config
	log     logger.Logger
	ignorer *ignore.GitIgnore
}

// New creates a Walker. A nil logger discards output.
func New(fs afero.Fs, config Config, log logger.Logger) *Walker {
	if log == nil {
		log = logger.Nop()
	}

	w := &Walker{
		fs:     fs,
		config: config,
		log:    log,
	}
	if len(config.IgnorePatterns) > 0 {
		w.ignorer = ignore.CompileIgnoreLines(config.IgnorePatterns...)
	}

	return w
}

// Stream is one in-progress walk.
type Stream struct {
	files    chan FileRef
	counters counters

	mu   sync.Mutex
	errs []error
	err  error
}

// Files yields every regular file in traversal order and is closed when the
// walk ends.
func (s *Stream) Files() <-chan FileRef {
	return s.files
}

// Errors returns the directories skipped so far. Complete once Files is drained.
func (s *Stream) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]error, len(s.errs))
	copy(out, s.errs)
	return out
}

// Err reports why the walk stopped early, or nil if it ran to completion.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stats returns the current counters.
func (s *Stream) Stats() Stats {
	return s.counters.snapshot()
}

func (s *Stream) addError(err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
}

func (s *Stream) stop(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// Walk starts a traversal of root. The returned stream must be drained or
// ctx cancelled, otherwise the producer goroutine blocks forever.
func (w *Walker) Walk(ctx context.Context, root string) (*Stream, error) {
	info, err := w.fs.Stat(root)
	if err != nil {
		w.log.WithFields(logger.Fields{
			"error": err,
			"path":  root,
		}).Error("Failed to stat root")
		return nil, fmt.Errorf("failed to stat root: %w", &TraversalError{Path: root, Err: err})
	}

	s := &Stream{files: make(chan FileRef, streamBuffer)}

	w.log.WithFields(logger.Fields{
		"root":     root,
		"maxDepth": w.config.MaxDepth,
		"patterns": w.config.IgnorePatterns,
	}).Debug("Starting walk")

	go func() {
		defer close(s.files)

		switch {
		case info.IsDir():
			if err := w.walkDir(ctx, s, root, root, 0); err != nil {
				s.stop(err)
			}
		case info.Mode().IsRegular():
			if err := w.emit(ctx, s, newFileRef(root, info)); err != nil {
				s.stop(err)
			}
		default:
			w.log.WithFields(logger.Fields{
				"path": root,
				"mode": info.Mode().String(),
			}).Debug("Root is not a regular file or directory")
		}

		stats := s.Stats()
		w.log.WithFields(logger.Fields{
			"root":        root,
			"dirsRead":    stats.DirsRead,
			"dirsSkipped": stats.DirsSkipped,
			"files":       stats.FilesFound,
			"ignored":     stats.Ignored,
		}).Debug("Walk finished")
	}()

	return s, nil
}

// walkDir reads dir and recurses into its subdirectories. Only context
// cancellation is returned as an error; read failures are recorded.
func (w *Walker) walkDir(ctx context.Context, s *Stream, root, dir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.log.WithFields(logger.Fields{
		"path":  dir,
		"depth": depth,
	}).Trace("Reading directory")

	entries, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		w.log.WithFields(logger.Fields{
			"error": err,
			"path":  dir,
		}).Warn("Skipping unreadable directory")
		s.counters.dirsSkipped.Add(1)
		s.addError(&TraversalError{Path: dir, Err: err})
		return nil
	}
	s.counters.dirsRead.Add(1)

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		mode := entry.Mode()

		switch {
		case mode.IsDir():
			if w.ignored(root, path, true) {
				s.counters.ignored.Add(1)
				continue
			}
			if w.config.MaxDepth >= 0 && depth+1 > w.config.MaxDepth {
				continue
			}
			if err := w.walkDir(ctx, s, root, path, depth+1); err != nil {
				return err
			}

		case mode.IsRegular():
			if w.ignored(root, path, false) {
				s.counters.ignored.Add(1)
				continue
			}
			if err := w.emit(ctx, s, newFileRef(path, entry)); err != nil {
				return err
			}

		default:
			// symlinks, devices, sockets and pipes are not indexed
			w.log.WithFields(logger.Fields{
				"path": path,
				"mode": mode.String(),
			}).Trace("Skipping non-regular entry")
		}
	}

	return nil
}

func (w *Walker) emit(ctx context.Context, s *Stream, f FileRef) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.files <- f:
		s.counters.filesFound.Add(1)
		return nil
	}
}

func (w *Walker) ignored(root, path string, isDir bool) bool {
	if w.ignorer == nil {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if isDir && !strings.HasSuffix(rel, "/") {
		rel += "/"
	}

	if w.ignorer.MatchesPath(rel) {
		w.log.WithFields(logger.Fields{
			"path": path,
		}).Trace("Path ignored")
		return true
	}
	return false
}
