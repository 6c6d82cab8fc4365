package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonemaro/fileindex/cmd/fileindex/app"
	"github.com/sonemaro/fileindex/internal/version"
)

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for i, rel := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", i+1)), 0o644))
	}
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestIndexCommand(t *testing.T) {
	root := writeTree(t, "a.txt", "b.md", "sub/a.txt")

	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		want    []string
		wantErr error
	}{
		{
			name:    "collision under no-duplicates",
			args:    []string{"index", "--no-progress", "--no-color", root},
			want:    []string{"Indexed 2 files", "duplicate key a.txt"},
			wantErr: app.ErrIndexFailed,
		},
		{
			name: "path key",
			args: []string{"index", "--no-progress", "-k", "path", root},
			want: []string{"Indexed 3 files", "Key: path"},
		},
		{
			name: "allow duplicates",
			args: []string{"index", "--no-progress", "-s", "allow-duplicates", root},
			want: []string{"Indexed 3 files", "Strategy: allow-duplicates"},
		},
		{
			name: "extension filter",
			args: []string{"index", "--no-progress", "-e", ".md", root},
			want: []string{"Indexed 1 files", "Files Skipped: 2"},
		},
		{
			name: "strategy from environment",
			args: []string{"index", "--no-progress", root},
			env:  map[string]string{"FILEINDEX_STRATEGY": "replace"},
			want: []string{"Indexed 3 files", "Strategy: replace"},
		},
		{
			name: "flag overrides environment",
			args: []string{"index", "--no-progress", "-k", "path", root},
			env:  map[string]string{"FILEINDEX_KEY": "ext"},
			want: []string{"Key: path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			out, err := execute(t, tt.args...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestIndexCommandErrors(t *testing.T) {
	root := writeTree(t, "a.txt")

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{name: "missing root", args: []string{"index"}, errMsg: "accepts 1 arg(s)"},
		{name: "unknown key", args: []string{"index", "-k", "inode", root}, errMsg: "invalid key"},
		{name: "unknown strategy", args: []string{"index", "-s", "merge", root}, errMsg: "unknown collision strategy"},
		{name: "bad filter", args: []string{"index", "-F", "size >", root}, errMsg: "invalid filter expression"},
		{name: "bad output", args: []string{"index", "-o", "xml", root}, errMsg: "invalid output format"},
		{name: "negative depth", args: []string{"index", "-d=-3", root}, errMsg: "max depth"},
		{name: "lookup without keys", args: []string{"lookup", root}, errMsg: "requires at least 2 arg(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLookupCommand(t *testing.T) {
	root := writeTree(t, "a.txt", "b.md", "sub/a.txt")

	out, err := execute(t, "lookup", "--no-progress", "--no-color", "-s", "allow-duplicates", root, "a.txt", "c.txt")
	require.NoError(t, err)

	assert.Contains(t, out, filepath.Join(root, "a.txt"))
	assert.Contains(t, out, filepath.Join(root, "sub", "a.txt"))
	assert.Contains(t, out, "c.txt (not found)")
	assert.NotContains(t, out, "b.md")
}

func TestDupesCommand(t *testing.T) {
	root := writeTree(t, "a.txt", "b.md", "sub/a.txt", "sub/b.txt")

	out, err := execute(t, "dupes", "--no-progress", "-k", "ext", "-o", "json", root)
	require.NoError(t, err)

	var doc struct {
		Entries []struct {
			Key   string            `json:"key"`
			Files []json.RawMessage `json:"files"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Entries, 1)
	assert.Equal(t, ".txt", doc.Entries[0].Key)
	assert.Len(t, doc.Entries[0].Files, 3)
}

func TestDupesHasNoStrategyFlag(t *testing.T) {
	_, err := execute(t, "dupes", "-s", "replace", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown shorthand flag")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)

	out, err = execute(t, "version", "--full")
	require.NoError(t, err)
	assert.Contains(t, out, "fileindex "+version.Version)
}
