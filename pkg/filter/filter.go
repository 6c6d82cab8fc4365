// Package filter holds the caller-supplied functions the indexer runs on
// every discovered file: predicates that decide whether a file is indexed
// and key functions that derive its index key.
//
// All functions here are safe for concurrent use.
package filter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sonemaro/fileindex/pkg/walker"
)

// Predicate reports whether a file should be indexed.
type Predicate func(walker.FileRef) (bool, error)

// All accepts every file.
func All(walker.FileRef) (bool, error) {
	return true, nil
}

// Extensions accepts files whose extension matches one of exts,
// ignoring case. The leading dot is optional.
func Extensions(exts ...string) Predicate {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}

	return func(f walker.FileRef) (bool, error) {
		_, ok := set[strings.ToLower(f.Ext())]
		return ok, nil
	}
}

// Glob accepts files whose base name matches pattern (filepath.Match syntax).
func Glob(pattern string) (Predicate, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	return func(f walker.FileRef) (bool, error) {
		return filepath.Match(pattern, f.Name)
	}, nil
}

// MinSize accepts files of at least n bytes.
func MinSize(n int64) Predicate {
	return func(f walker.FileRef) (bool, error) {
		return f.Size >= n, nil
	}
}

// MaxSize accepts files of at most n bytes.
func MaxSize(n int64) Predicate {
	return func(f walker.FileRef) (bool, error) {
		return f.Size <= n, nil
	}
}

// And accepts a file when every predicate does. Evaluation stops at the
// first rejection or error. And() accepts everything.
func And(preds ...Predicate) Predicate {
	return func(f walker.FileRef) (bool, error) {
		for _, p := range preds {
			ok, err := p(f)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// Not inverts p. Errors pass through.
func Not(p Predicate) Predicate {
	return func(f walker.FileRef) (bool, error) {
		ok, err := p(f)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}
