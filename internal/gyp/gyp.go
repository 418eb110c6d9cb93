// Package gyp fetches the gyp project generator and drives it to produce
// MSBuild solutions.
package gyp

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/rprichard/winpty-ship/internal/runner"
)

// Generator runs gyp_main.py from a local checkout.
type Generator struct {
	runner   runner.Runner
	python   string
	checkout string
}

// New returns a Generator that runs checkout/gyp_main.py with python.
func New(r runner.Runner, python, checkout string) *Generator {
	return &Generator{runner: r, python: python, checkout: checkout}
}

// Options selects what gyp generates.
type Options struct {
	Project     string            // .gyp file, relative to the source dir
	Includes    []string          // -I files
	MSVSVersion string            // -G msvs_version=
	Defines     map[string]string // -D key=value
}

// Generate runs gyp in srcDir. gyp writes project paths relative to the
// directory it is run from, so srcDir is also the working directory.
func (g *Generator) Generate(ctx context.Context, srcDir string, opts Options) error {
	args := []string{filepath.Join(g.checkout, "gyp_main.py"), opts.Project}
	for _, inc := range opts.Includes {
		args = append(args, "-I", inc)
	}
	if opts.MSVSVersion != "" {
		args = append(args, "-G", "msvs_version="+opts.MSVSVersion)
	}
	args = append(args, definesArgs(opts.Defines)...)
	return g.runner.Run(ctx, runner.Command(srcDir, g.python, args...))
}

func definesArgs(defines map[string]string) []string {
	if len(defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, "-D", k+"="+defines[k])
	}
	return args
}
