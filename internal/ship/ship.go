// Package ship assembles the winpty MSVC binary package: it builds every
// variant of the matrix, stages headers and documents next to the
// binaries, and compresses the result into a single zip file.
//
// Only one run may use a package root at a time; Run holds an exclusive
// lock on <package root>/.lock for its whole duration.
package ship

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/qiniu/x/log"
	"golang.org/x/mod/semver"

	"github.com/rprichard/winpty-ship/internal/archive"
	"github.com/rprichard/winpty-ship/internal/build"
	"github.com/rprichard/winpty-ship/internal/config"
	"github.com/rprichard/winpty-ship/internal/env"
	"github.com/rprichard/winpty-ship/internal/fsutil"
	"github.com/rprichard/winpty-ship/internal/gyp"
	"github.com/rprichard/winpty-ship/internal/lockedfile"
	"github.com/rprichard/winpty-ship/internal/profile"
	"github.com/rprichard/winpty-ship/internal/runner"
	"github.com/rprichard/winpty-ship/internal/vcs"
	"github.com/rprichard/winpty-ship/internal/workspace"
)

// Files copied verbatim into every package, relative to the checkout.
var (
	Headers = []string{"src/include/winpty.h", "src/include/winpty_constants.h"}
	Docs    = []string{"LICENSE", "README.md", "RELEASES.md"}
)

// Options configures an Assembler.
type Options struct {
	TopDir  string          // top of the winpty checkout
	Config  config.Config   // settings, not yet resolved against TopDir
	Version profile.Version // MSVC version to package
	Runner  runner.Runner

	// VCS overrides the git client built from the resolved Tools.VCS path.
	VCS vcs.VCS
}

// Assembler drives one packaging run.
type Assembler struct {
	top     string
	cfg     config.Config
	version profile.Version
	runner  runner.Runner
	vcs     vcs.VCS
}

// New returns an Assembler for opts.
func New(opts Options) *Assembler {
	return &Assembler{
		top:     opts.TopDir,
		cfg:     opts.Config.Resolve(opts.TopDir),
		version: opts.Version,
		runner:  opts.Runner,
		vcs:     opts.VCS,
	}
}

// Plan is what a run will produce, computed without touching the disk.
type Plan struct {
	Name        string // winpty-<version>-<msvc>
	StagingDir  string
	ArchivePath string
	Tools       map[string]string // resolved executable paths by configured name
	Toolchain   string            // VsDevCmd.bat
}

// InvalidVersionFileError reports an unreadable or malformed VERSION.txt.
type InvalidVersionFileError struct {
	Path    string
	Version string
	Err     error
}

func (e *InvalidVersionFileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("read package version: %v", e.Err)
	}
	return fmt.Sprintf("invalid package version %q in %s: want MAJOR.MINOR.PATCH[-prerelease]", e.Version, e.Path)
}

func (e *InvalidVersionFileError) Unwrap() error { return e.Err }

// PackageVersion reads the winpty version from the configured version file.
func (a *Assembler) PackageVersion() (string, error) {
	data, err := os.ReadFile(a.cfg.VersionFile)
	if err != nil {
		return "", &InvalidVersionFileError{Path: a.cfg.VersionFile, Err: err}
	}
	v := strings.TrimSpace(string(data))
	// semver accepts v0.4 as shorthand; a package version needs all three parts.
	if sv := "v" + v; !semver.IsValid(sv) || semver.Canonical(sv) != sv {
		return "", &InvalidVersionFileError{Path: a.cfg.VersionFile, Version: v}
	}
	return v, nil
}

// Preflight checks every configuration prerequisite and returns the plan.
// It does not modify the filesystem.
func (a *Assembler) Preflight() (*Plan, error) {
	tools, err := env.RequireExecutables(a.cfg.Tools.Archiver, a.cfg.Tools.VCS, a.cfg.Generator.Python)
	if err != nil {
		return nil, err
	}
	script, err := env.ToolchainScript(a.version)
	if err != nil {
		return nil, err
	}
	ver, err := a.PackageVersion()
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("winpty-%s-%s", ver, a.version.PackageName)
	staging := filepath.Join(a.cfg.PackageRoot, name)
	return &Plan{
		Name:        name,
		StagingDir:  staging,
		ArchivePath: staging + ".zip",
		Tools:       tools,
		Toolchain:   script,
	}, nil
}

// Run performs a full packaging run and returns the archive path. On
// failure no archive is left at the plan's ArchivePath.
func (a *Assembler) Run(ctx context.Context) (string, error) {
	plan, err := a.Preflight()
	if err != nil {
		return "", err
	}

	unlock, err := lockedfile.MutexAt(filepath.Join(a.cfg.PackageRoot, ".lock")).TryLock()
	if err != nil {
		if errors.Is(err, lockedfile.ErrLocked) {
			return "", fmt.Errorf("another packaging run is in progress: %w", err)
		}
		return "", err
	}
	defer unlock()

	log.Infof("packaging %s", plan.Name)
	if err := a.reset(plan); err != nil {
		return "", err
	}

	if err := a.fetchGenerator(ctx, plan); err != nil {
		return "", err
	}
	if err := a.buildMatrix(ctx, plan); err != nil {
		return "", err
	}
	if err := a.stageStatic(plan); err != nil {
		return "", err
	}

	z := archive.NewSevenZip(a.runner, plan.Tools[a.cfg.Tools.Archiver])
	if err := z.Create(ctx, plan.ArchivePath, plan.StagingDir); err != nil {
		return "", err
	}
	if err := archive.Verify(plan.ArchivePath, requiredMembers()); err != nil {
		os.Remove(plan.ArchivePath)
		return "", err
	}

	if err := os.RemoveAll(plan.StagingDir); err != nil {
		return "", fmt.Errorf("remove staging dir: %w", err)
	}
	log.Infof("wrote %s", plan.ArchivePath)
	return plan.ArchivePath, nil
}

// reset removes the output of any previous run and creates an empty
// staging directory.
func (a *Assembler) reset(plan *Plan) error {
	if err := os.RemoveAll(plan.StagingDir); err != nil {
		return fmt.Errorf("remove old staging dir: %w", err)
	}
	if err := os.Remove(plan.ArchivePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove old archive: %w", err)
	}
	return os.MkdirAll(plan.StagingDir, 0o755)
}

func (a *Assembler) fetchGenerator(ctx context.Context, plan *Plan) error {
	v := a.vcs
	if v == nil {
		v = vcs.NewGitVCS(vcs.WithGitPath(plan.Tools[a.cfg.Tools.VCS]))
	}
	f := &gyp.Fetcher{
		VCS:      v,
		Remote:   a.cfg.Generator.Remote,
		Dir:      a.cfg.Generator.Dir,
		Revision: a.cfg.Generator.Revision,
	}
	_, err := f.Ensure(ctx)
	return err
}

// buildMatrix builds every variant. Generated projects from one toolset
// must not leak into the other, so the workspace is cleaned whenever the
// toolset changes.
func (a *Assembler) buildMatrix(ctx context.Context, plan *Plan) error {
	gen := gyp.New(a.runner, plan.Tools[a.cfg.Generator.Python], a.cfg.Generator.Dir)
	b := build.NewBuilder(a.top, a.version, a.runner, gen)

	matrix := profile.Matrix()
	for i, variant := range matrix {
		if i == 0 || variant.Legacy != matrix[i-1].Legacy {
			removed, err := workspace.Clean(a.top)
			if err != nil {
				return err
			}
			log.Debugf("cleaned %d generated paths", len(removed))
		}
		if _, err := b.Build(ctx, variant.Arch, plan.StagingDir, variant.Legacy); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) stageStatic(plan *Plan) error {
	src := osfs.New(a.top)
	dst := osfs.New(plan.StagingDir)
	if err := fsutil.CopyInto(src, Headers, dst, "include"); err != nil {
		return fmt.Errorf("stage headers: %w", err)
	}
	if err := fsutil.CopyInto(src, Docs, dst, "."); err != nil {
		return fmt.Errorf("stage documents: %w", err)
	}
	return nil
}

func requiredMembers() []string {
	var names []string
	for _, v := range profile.Matrix() {
		names = append(names, v.DirName())
	}
	names = append(names, "include")
	return append(names, Docs...)
}
