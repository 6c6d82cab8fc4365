package walker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// denyFs refuses to open the listed directories, like a chmod 000 would.
type denyFs struct {
	afero.Fs
	denied map[string]bool
}

func (d *denyFs) Open(name string) (afero.File, error) {
	if d.denied[filepath.Clean(name)] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.Open(name)
}

func setupTestFS(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/root/file1.txt":              "content1",
		"/root/file2.log":              "content2",
		"/root/dir1/file3.txt":         "content3",
		"/root/dir1/file4.json":        `{"key": "value"}`,
		"/root/dir2/file5.txt":         "content5",
		"/root/dir2/subdir/file6.yaml": "key: value",
		"/root/.git/config":            "git config",
		"/root/node_modules/pkg.json":  "package",
	}
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}

	return fs
}

func collect(t *testing.T, s *Stream) []string {
	t.Helper()

	var paths []string
	for f := range s.Files() {
		paths = append(paths, filepath.ToSlash(f.Path))
	}
	sort.Strings(paths)
	return paths
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		root     string
		setup    func(afero.Fs) afero.Fs
		expected []string
		errPaths []string
	}{
		{
			name:   "all regular files",
			config: DefaultConfig(),
			root:   "/root",
			expected: []string{
				"/root/.git/config",
				"/root/dir1/file3.txt",
				"/root/dir1/file4.json",
				"/root/dir2/file5.txt",
				"/root/dir2/subdir/file6.yaml",
				"/root/file1.txt",
				"/root/file2.log",
				"/root/node_modules/pkg.json",
			},
		},
		{
			name:   "ignore patterns prune directories and files",
			config: Config{MaxDepth: -1, IgnorePatterns: []string{".git", "node_modules/", "*.log"}},
			root:   "/root",
			expected: []string{
				"/root/dir1/file3.txt",
				"/root/dir1/file4.json",
				"/root/dir2/file5.txt",
				"/root/dir2/subdir/file6.yaml",
				"/root/file1.txt",
			},
		},
		{
			name:     "depth zero reads only the root directory",
			config:   Config{MaxDepth: 0},
			root:     "/root",
			expected: []string{"/root/file1.txt", "/root/file2.log"},
		},
		{
			name:   "depth one stops above subdir",
			config: Config{MaxDepth: 1, IgnorePatterns: []string{".git", "node_modules"}},
			root:   "/root",
			expected: []string{
				"/root/dir1/file3.txt",
				"/root/dir1/file4.json",
				"/root/dir2/file5.txt",
				"/root/file1.txt",
				"/root/file2.log",
			},
		},
		{
			name:     "root is a file",
			config:   DefaultConfig(),
			root:     "/root/dir1/file3.txt",
			expected: []string{"/root/dir1/file3.txt"},
		},
		{
			name:   "unreadable directory is skipped",
			config: DefaultConfig(),
			root:   "/root",
			setup: func(fs afero.Fs) afero.Fs {
				return &denyFs{Fs: fs, denied: map[string]bool{"/root/dir2": true}}
			},
			expected: []string{
				"/root/.git/config",
				"/root/dir1/file3.txt",
				"/root/dir1/file4.json",
				"/root/file1.txt",
				"/root/file2.log",
				"/root/node_modules/pkg.json",
			},
			errPaths: []string{"/root/dir2"},
		},
		{
			name:   "unreadable root directory yields nothing",
			config: DefaultConfig(),
			root:   "/root",
			setup: func(fs afero.Fs) afero.Fs {
				return &denyFs{Fs: fs, denied: map[string]bool{"/root": true}}
			},
			expected: nil,
			errPaths: []string{"/root"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := setupTestFS(t)
			if tt.setup != nil {
				fs = tt.setup(fs)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			w := New(fs, tt.config, nil)
			stream, err := w.Walk(ctx, tt.root)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, collect(t, stream))
			assert.NoError(t, stream.Err())

			errs := stream.Errors()
			require.Len(t, errs, len(tt.errPaths))
			for i, p := range tt.errPaths {
				var terr *TraversalError
				require.ErrorAs(t, errs[i], &terr)
				assert.Equal(t, p, terr.Path)
				assert.ErrorIs(t, terr, os.ErrPermission)
			}

			stats := stream.Stats()
			assert.Equal(t, int64(len(tt.expected)), stats.FilesFound)
			assert.Equal(t, int64(len(tt.errPaths)), stats.DirsSkipped)
		})
	}
}

func TestWalkMissingRoot(t *testing.T) {
	w := New(afero.NewMemMapFs(), DefaultConfig(), nil)

	stream, err := w.Walk(context.Background(), "/does/not/exist")
	require.Error(t, err)
	assert.Nil(t, stream)

	var terr *TraversalError
	assert.True(t, errors.As(err, &terr))
	assert.Equal(t, "/does/not/exist", terr.Path)
}

func TestWalkCancellation(t *testing.T) {
	fs := afero.NewMemMapFs()
	for i := 0; i < 500; i++ {
		dir := fmt.Sprintf("/big/d%02d", i%20)
		require.NoError(t, fs.MkdirAll(dir, 0755))
		require.NoError(t, afero.WriteFile(fs, fmt.Sprintf("%s/f%03d", dir, i), []byte("x"), 0644))
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := New(fs, DefaultConfig(), nil)
	stream, err := w.Walk(ctx, "/big")
	require.NoError(t, err)

	// take one file then abandon the walk
	<-stream.Files()
	cancel()
	for range stream.Files() {
	}

	assert.ErrorIs(t, stream.Err(), context.Canceled)
	assert.Less(t, stream.Stats().FilesFound, int64(500))
}

func TestWalkTwiceSeesNewFiles(t *testing.T) {
	fs := setupTestFS(t)
	w := New(fs, Config{MaxDepth: 0}, nil)

	first, err := w.Walk(context.Background(), "/root")
	require.NoError(t, err)
	assert.Len(t, collect(t, first), 2)

	require.NoError(t, afero.WriteFile(fs, "/root/file3.md", []byte("new"), 0644))

	second, err := w.Walk(context.Background(), "/root")
	require.NoError(t, err)
	assert.Len(t, collect(t, second), 3)
}

func TestFileRef(t *testing.T) {
	fs := setupTestFS(t)
	info, err := fs.Stat("/root/dir1/file4.json")
	require.NoError(t, err)

	ref := newFileRef("/root/dir1/file4.json", info)
	assert.Equal(t, "file4.json", ref.Name)
	assert.Equal(t, ".json", ref.Ext())
	assert.Equal(t, "/root/dir1", filepath.ToSlash(ref.Dir()))
	assert.Equal(t, int64(len(`{"key": "value"}`)), ref.Size)
	assert.Equal(t, "/root/dir1/file4.json", ref.String())
}
