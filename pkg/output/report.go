package output

import (
	"errors"
	"sort"
	"time"

	"github.com/sonemaro/fileindex/pkg/index"
	"github.com/sonemaro/fileindex/pkg/indexer"
	"github.com/sonemaro/fileindex/pkg/walker"
)

// Report is everything a command prints: the run summary, the entries it
// looked up and the errors it hit.
type Report struct {
	Root     string
	Key      string
	Strategy index.Strategy
	Summary  Summary
	Entries  []Entry
	Errors   []string
}

// Summary mirrors indexer.Result in a printable shape.
type Summary struct {
	Walked          int64  `json:"walked" yaml:"walked"`
	Indexed         int64  `json:"indexed" yaml:"indexed"`
	Skipped         int64  `json:"skipped" yaml:"skipped"`
	Failed          int64  `json:"failed" yaml:"failed"`
	TraversalErrors int    `json:"traversalErrors" yaml:"traversalErrors"`
	Duration        string `json:"duration" yaml:"duration"`
}

// Entry is one key and the files stored under it.
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Found bool   `json:"found" yaml:"found"`
	Files []File `json:"files,omitempty" yaml:"files,omitempty"`
}

// File is the printable form of walker.FileRef.
type File struct {
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"modTime" yaml:"modTime"`
}

// NewReport builds a report from an Index result. err may join many
// failures; each one becomes a line in Errors, as do traversal errors.
func NewReport(root, key string, strategy index.Strategy, result indexer.Result, err error) *Report {
	r := &Report{
		Root:     root,
		Key:      key,
		Strategy: strategy,
		Summary: Summary{
			Walked:          result.Walked,
			Indexed:         result.Indexed,
			Skipped:         result.Skipped,
			Failed:          result.Failed,
			TraversalErrors: len(result.TraversalErrors),
			Duration:        result.Duration.Round(time.Millisecond).String(),
		},
	}

	for _, terr := range result.TraversalErrors {
		r.Errors = append(r.Errors, terr.Error())
	}
	for _, e := range flatten(err) {
		r.Errors = append(r.Errors, e.Error())
	}

	return r
}

// AddEntry appends key with its files, sorted by path.
func (r *Report) AddEntry(key string, files []walker.FileRef) {
	entry := Entry{Key: key, Found: len(files) > 0}
	for _, f := range files {
		entry.Files = append(entry.Files, File{Path: f.Path, Size: f.Size, ModTime: f.ModTime})
	}
	sort.Slice(entry.Files, func(i, j int) bool {
		return entry.Files[i].Path < entry.Files[j].Path
	})
	r.Entries = append(r.Entries, entry)
}

// SortEntries orders entries by key.
func (r *Report) SortEntries() {
	sort.Slice(r.Entries, func(i, j int) bool {
		return r.Entries[i].Key < r.Entries[j].Key
	})
}

// flatten expands errors built with errors.Join, recursively.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
