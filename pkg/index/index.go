/*
Package index holds the key to file-list map shared by all indexing workers.

The map is split into shards, each guarded by its own RWMutex, so inserts for
different keys rarely contend. For a single key the existence check and the
collision resolution run inside one write-locked section, which makes every
insert linearizable per key. File lists are never mutated in place: an insert
stores a fresh slice, so readers always see a whole list.
*/
package index

import (
	"hash/maphash"
	"sync"

	"github.com/sonemaro/fileindex/pkg/walker"
)

// DefaultShards is the shard count used when none is configured.
const DefaultShards = 32

type shard[K comparable] struct {
	mu      sync.RWMutex
	entries map[K][]walker.FileRef
}

// Index is a concurrency-safe map from K to the files indexed under it.
type Index[K comparable] struct {
	seed     maphash.Seed
	mask     uint64
	shards   []*shard[K]
	resolver Resolver[K]
}

// Option configures an Index.
type Option func(*options)

type options struct {
	shards int
}

// WithShards sets the shard count, rounded up to a power of two.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// New creates an empty Index. A nil resolver means NoDuplicates.
func New[K comparable](resolver Resolver[K], opts ...Option) *Index[K] {
	o := options{shards: DefaultShards}
	for _, opt := range opts {
		opt(&o)
	}
	if resolver == nil {
		resolver = ResolverFor[K](NoDuplicates)
	}

	n := 1
	for n < o.shards {
		n <<= 1
	}

	idx := &Index[K]{
		seed:     maphash.MakeSeed(),
		mask:     uint64(n - 1),
		shards:   make([]*shard[K], n),
		resolver: resolver,
	}
	for i := range idx.shards {
		idx.shards[i] = &shard[K]{entries: make(map[K][]walker.FileRef)}
	}

	return idx
}

func (idx *Index[K]) shardFor(key K) *shard[K] {
	return idx.shards[maphash.Comparable(idx.seed, key)&idx.mask]
}

// Insert adds file under key, consulting the resolver if key already has
// files. When the resolver fails the stored list is left untouched.
func (idx *Index[K]) Insert(key K, file walker.FileRef) error {
	s := idx.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.entries[key]
	if len(existing) == 0 {
		s.entries[key] = []walker.FileRef{file}
		return nil
	}

	resolved, err := idx.resolver.Resolve(key, file, existing)
	if err != nil {
		return err
	}
	if len(resolved) == 0 {
		// a resolver may not empty a key
		return nil
	}
	s.entries[key] = resolved
	return nil
}

// Get returns the first file stored under key.
func (idx *Index[K]) Get(key K) (walker.FileRef, bool) {
	s := idx.shardFor(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	files := s.entries[key]
	if len(files) == 0 {
		return walker.FileRef{}, false
	}
	return files[0], true
}

// GetAll returns a copy of the files stored under key, or nil.
func (idx *Index[K]) GetAll(key K) []walker.FileRef {
	s := idx.shardFor(key)

	s.mu.RLock()
	files := s.entries[key]
	s.mu.RUnlock()

	if len(files) == 0 {
		return nil
	}
	out := make([]walker.FileRef, len(files))
	copy(out, files)
	return out
}

// Len returns the number of keys.
func (idx *Index[K]) Len() int {
	n := 0
	for _, s := range idx.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Files returns the number of stored file references across all keys.
func (idx *Index[K]) Files() int {
	n := 0
	for _, s := range idx.shards {
		s.mu.RLock()
		for _, files := range s.entries {
			n += len(files)
		}
		s.mu.RUnlock()
	}
	return n
}

// Keys returns the keys present at the time of the call, in no particular order.
func (idx *Index[K]) Keys() []K {
	var keys []K
	for _, s := range idx.shards {
		s.mu.RLock()
		for k := range s.entries {
			keys = append(keys, k)
		}
		s.mu.RUnlock()
	}
	return keys
}

// Range calls fn for every key until fn returns false. Each shard is
// snapshotted before fn runs, so fn may call back into the Index.
func (idx *Index[K]) Range(fn func(key K, files []walker.FileRef) bool) {
	type entry struct {
		key   K
		files []walker.FileRef
	}

	for _, s := range idx.shards {
		s.mu.RLock()
		snapshot := make([]entry, 0, len(s.entries))
		for k, files := range s.entries {
			snapshot = append(snapshot, entry{key: k, files: files})
		}
		s.mu.RUnlock()

		for _, e := range snapshot {
			files := make([]walker.FileRef, len(e.files))
			copy(files, e.files)
			if !fn(e.key, files) {
				return
			}
		}
	}
}
