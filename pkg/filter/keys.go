package filter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/sonemaro/fileindex/pkg/walker"
)

// KeyFunc derives the index key for a file.
type KeyFunc[K comparable] func(walker.FileRef) (K, error)

// ByName keys a file by its base name.
func ByName(f walker.FileRef) (string, error) {
	return f.Name, nil
}

// ByPath keys a file by its full path, which is unique within a walk.
func ByPath(f walker.FileRef) (string, error) {
	return f.Path, nil
}

// ByExt keys a file by its lower-cased extension, including the dot.
// Files without an extension share the empty key.
func ByExt(f walker.FileRef) (string, error) {
	return strings.ToLower(f.Ext()), nil
}

// ByStem keys a file by its base name without the extension.
func ByStem(f walker.FileRef) (string, error) {
	return strings.TrimSuffix(f.Name, f.Ext()), nil
}

// BySize keys a file by its size in bytes.
func BySize(f walker.FileRef) (int64, error) {
	return f.Size, nil
}

// ByContentHash keys a file by the xxhash64 of its content read from fs.
func ByContentHash(fs afero.Fs) KeyFunc[uint64] {
	return func(f walker.FileRef) (uint64, error) {
		file, err := fs.Open(f.Path)
		if err != nil {
			return 0, fmt.Errorf("failed to open %s: %w", f.Path, err)
		}
		defer file.Close()

		h := xxhash.New()
		if _, err := io.Copy(h, file); err != nil {
			return 0, fmt.Errorf("failed to hash %s: %w", f.Path, err)
		}
		return h.Sum64(), nil
	}
}

// KeyNames lists the names accepted by KeyFuncByName.
var KeyNames = []string{"name", "path", "ext", "stem", "size", "hash"}

// KeyFuncByName returns the string-keyed extractor for a command-line key
// name. Size is formatted in decimal and hash as 16 hex digits.
func KeyFuncByName(name string, fs afero.Fs) (KeyFunc[string], error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "name":
		return ByName, nil
	case "path":
		return ByPath, nil
	case "ext":
		return ByExt, nil
	case "stem":
		return ByStem, nil
	case "size":
		return func(f walker.FileRef) (string, error) {
			return strconv.FormatInt(f.Size, 10), nil
		}, nil
	case "hash":
		if fs == nil {
			return nil, fmt.Errorf("hash key requires a filesystem")
		}
		hash := ByContentHash(fs)
		return func(f walker.FileRef) (string, error) {
			sum, err := hash(f)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%016x", sum), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown key %q: must be one of %v", name, KeyNames)
	}
}
