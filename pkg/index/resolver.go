package index

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sonemaro/fileindex/pkg/walker"
)

// Strategy selects what happens when a key that already has files receives
// another one. It is fixed for the lifetime of an Index.
type Strategy int

const (
	// NoDuplicates fails the second insert for a key.
	NoDuplicates Strategy = iota
	// Replace keeps only the most recent file for a key.
	Replace
	// AllowDuplicates appends every file.
	AllowDuplicates
)

var strategyNames = map[Strategy]string{
	NoDuplicates:    "no-duplicates",
	Replace:         "replace",
	AllowDuplicates: "allow-duplicates",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts the names produced by Strategy.String, case-insensitively,
// with either dashes or underscores.
func ParseStrategy(s string) (Strategy, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for strategy, name := range strategyNames {
		if name == norm {
			return strategy, nil
		}
	}
	return NoDuplicates, fmt.Errorf("unknown collision strategy %q: must be one of [no-duplicates replace allow-duplicates]", s)
}

// MarshalText lets a Strategy appear in JSON and YAML output by name.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a strategy name.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ErrDuplicateKey matches any *DuplicateKeyError via errors.Is.
var ErrDuplicateKey = errors.New("duplicate key")

// DuplicateKeyError is returned under NoDuplicates when a file maps to a key
// that is already taken.
type DuplicateKeyError struct {
	Key      any
	File     walker.FileRef
	Existing []walker.FileRef
}

func (e *DuplicateKeyError) Error() string {
	existing := make([]string, len(e.Existing))
	for i, f := range e.Existing {
		existing[i] = f.Path
	}
	return fmt.Sprintf("duplicate key %v: %s conflicts with %s", e.Key, e.File.Path, strings.Join(existing, ", "))
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// Resolver decides the new file list for a key that already has files.
// existing is never empty and must not be modified.
type Resolver[K comparable] interface {
	Resolve(key K, incoming walker.FileRef, existing []walker.FileRef) ([]walker.FileRef, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc[K comparable] func(key K, incoming walker.FileRef, existing []walker.FileRef) ([]walker.FileRef, error)

func (f ResolverFunc[K]) Resolve(key K, incoming walker.FileRef, existing []walker.FileRef) ([]walker.FileRef, error) {
	return f(key, incoming, existing)
}

// ResolverFor returns the built-in resolver for s. Unknown strategies
// behave like NoDuplicates.
func ResolverFor[K comparable](s Strategy) Resolver[K] {
	switch s {
	case Replace:
		return ResolverFunc[K](replace[K])
	case AllowDuplicates:
		return ResolverFunc[K](appendFile[K])
	default:
		return ResolverFunc[K](reject[K])
	}
}

func reject[K comparable](key K, incoming walker.FileRef, existing []walker.FileRef) ([]walker.FileRef, error) {
	return nil, &DuplicateKeyError{
		Key:      key,
		File:     incoming,
		Existing: append([]walker.FileRef(nil), existing...),
	}
}

func replace[K comparable](_ K, incoming walker.FileRef, _ []walker.FileRef) ([]walker.FileRef, error) {
	return []walker.FileRef{incoming}, nil
}

func appendFile[K comparable](_ K, incoming walker.FileRef, existing []walker.FileRef) ([]walker.FileRef, error) {
	out := make([]walker.FileRef, len(existing), len(existing)+1)
	copy(out, existing)
	return append(out, incoming), nil
}
