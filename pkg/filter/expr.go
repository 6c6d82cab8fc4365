package filter

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/sonemaro/fileindex/pkg/walker"
)

// fileEnv is the environment a filter expression is evaluated against.
type fileEnv struct {
	Name    string    `expr:"name"`
	Path    string    `expr:"path"`
	Ext     string    `expr:"ext"`
	Dir     string    `expr:"dir"`
	Size    int64     `expr:"size"`
	Mode    string    `expr:"mode"`
	ModTime time.Time `expr:"modTime"`
}

func envFor(f walker.FileRef) fileEnv {
	return fileEnv{
		Name:    f.Name,
		Path:    f.Path,
		Ext:     f.Ext(),
		Dir:     f.Dir(),
		Size:    f.Size,
		Mode:    f.Mode.String(),
		ModTime: f.ModTime,
	}
}

// Expr compiles a boolean expression over the variables name, path, ext,
// dir, size, mode and modTime, for example:
//
//	ext in [".go", ".md"] && size > 1024
//	name matches "^test_" || modTime > now() - duration("24h")
//
// The program is compiled once and can be evaluated from many goroutines.
func Expr(source string) (Predicate, error) {
	program, err := expr.Compile(source, expr.Env(fileEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	return func(f walker.FileRef) (bool, error) {
		return evalBool(program, envFor(f))
	}, nil
}

func evalBool(program *vm.Program, env fileEnv) (bool, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("filter expression: %w", err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("filter expression returned %T, want bool", out)
	}
	return ok, nil
}
