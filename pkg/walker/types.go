package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// FileRef identifies a regular file found during a walk. It is a value and
// never changes after discovery.
type FileRef struct {
	Path    string
	Name    string
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
}

// Ext returns the file extension including the leading dot.
func (f FileRef) Ext() string {
	return filepath.Ext(f.Name)
}

// Dir returns the directory portion of Path.
func (f FileRef) Dir() string {
	return filepath.Dir(f.Path)
}

func (f FileRef) String() string {
	return f.Path
}

func newFileRef(path string, info os.FileInfo) FileRef {
	return FileRef{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
}

// Config controls traversal.
type Config struct {
	// MaxDepth limits descent below the root. The root directory is depth 0
	// and is always read; -1 means unlimited.
	MaxDepth int

	// IgnorePatterns are gitignore-style patterns matched against the slash
	// separated path relative to the root.
	IgnorePatterns []string
}

// DefaultConfig walks everything.
func DefaultConfig() Config {
	return Config{MaxDepth: -1}
}

// TraversalError reports a directory that could not be read. The walk
// continues past it.
type TraversalError struct {
	Path string
	Err  error
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("traversal error: %s: %v", e.Path, e.Err)
}

func (e *TraversalError) Unwrap() error {
	return e.Err
}

// Stats is a snapshot of a walk's counters.
type Stats struct {
	DirsRead    int64
	DirsSkipped int64
	FilesFound  int64
	Ignored     int64
}

type counters struct {
	dirsRead    atomic.Int64
	dirsSkipped atomic.Int64
	filesFound  atomic.Int64
	ignored     atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		DirsRead:    c.dirsRead.Load(),
		DirsSkipped: c.dirsSkipped.Load(),
		FilesFound:  c.filesFound.Load(),
		Ignored:     c.ignored.Load(),
	}
}
