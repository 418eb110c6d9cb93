// Package build compiles one winpty build variant and stages its binaries.
package build

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/qiniu/x/log"

	"github.com/rprichard/winpty-ship/internal/env"
	"github.com/rprichard/winpty-ship/internal/fsutil"
	"github.com/rprichard/winpty-ship/internal/gyp"
	"github.com/rprichard/winpty-ship/internal/msbuild"
	"github.com/rprichard/winpty-ship/internal/profile"
	"github.com/rprichard/winpty-ship/internal/runner"
)

const (
	// Project is the gyp project, relative to the source dir.
	Project = "winpty.gyp"
	// Includes are the gyp include files, relative to the source dir.
	Includes = "configurations.gypi"
	// Solution is the MSBuild solution gyp generates from Project.
	Solution = "winpty.sln"
	// ToolsetDefine is the gyp variable selecting the MSBuild platform toolset.
	ToolsetDefine = "WINPTY_MSBUILD_TOOLSET"
)

// Artifact is a compiler output copied into a package.
type Artifact struct {
	Name string // file name in the compiler output dir
	Dir  string // package subdirectory: "bin" or "lib"
}

// Artifacts are the outputs every variant must produce.
var Artifacts = []Artifact{
	{Name: "winpty.dll", Dir: "bin"},
	{Name: "winpty-agent.exe", Dir: "bin"},
	{Name: "winpty-debugserver.exe", Dir: "bin"},
	{Name: "winpty.lib", Dir: "lib"},
}

// MissingArtifactError reports an expected output absent after a build
// that exited successfully.
type MissingArtifactError struct {
	Variant string
	Path    string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("build %s: expected output %s is missing", e.Variant, e.Path)
}

// Builder builds variants of one MSVC version from a winpty checkout.
type Builder struct {
	topDir  string
	version profile.Version
	runner  runner.Runner
	gyp     *gyp.Generator
}

// NewBuilder returns a Builder for the checkout at topDir.
func NewBuilder(topDir string, v profile.Version, r runner.Runner, g *gyp.Generator) *Builder {
	return &Builder{topDir: topDir, version: v, runner: r, gyp: g}
}

// SourceDir returns the directory gyp and msbuild run in.
func (b *Builder) SourceDir() string {
	return filepath.Join(b.topDir, "src")
}

// OutputDir returns where msbuild leaves binaries for platform.
func (b *Builder) OutputDir(platform string) string {
	return filepath.Join(b.SourceDir(), "Release", platform)
}

// Build generates projects, compiles them for arch, and copies the
// artifacts into packageDir/<variant>/{bin,lib}. It returns the variant
// directory.
func (b *Builder) Build(ctx context.Context, arch profile.Arch, packageDir string, legacy bool) (string, error) {
	variant := profile.Variant{Arch: arch, Legacy: legacy}
	log.Infof("building %s with MSVC %s", variant, b.version.ID)

	opts := gyp.Options{
		Project:     Project,
		Includes:    []string{Includes},
		MSVSVersion: b.version.GypVersion,
	}
	if legacy {
		opts.Defines = map[string]string{ToolsetDefine: b.version.XPToolset}
	}
	if err := b.gyp.Generate(ctx, b.SourceDir(), opts); err != nil {
		return "", fmt.Errorf("generate %s: %w", variant, err)
	}

	script, err := env.ToolchainScript(b.version)
	if err != nil {
		return "", err
	}
	if err := msbuild.New(b.runner, script).Build(ctx, b.SourceDir(), Solution, arch.Platform); err != nil {
		return "", fmt.Errorf("compile %s: %w", variant, err)
	}

	variantDir := filepath.Join(packageDir, variant.DirName())
	if err := b.stage(variant, variantDir); err != nil {
		return "", err
	}
	return variantDir, nil
}

func (b *Builder) stage(variant profile.Variant, variantDir string) error {
	dst := osfs.New(variantDir)
	for _, dir := range []string{"bin", "lib"} {
		if err := dst.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	src := osfs.New(b.OutputDir(variant.Arch.Platform))
	for _, a := range Artifacts {
		err := fsutil.CopyFile(src, a.Name, dst, path.Join(a.Dir, a.Name))
		var notFound *fsutil.NotFoundError
		if errors.As(err, &notFound) {
			return &MissingArtifactError{Variant: variant.DirName(), Path: filepath.Join(b.OutputDir(variant.Arch.Platform), a.Name)}
		}
		if err != nil {
			return fmt.Errorf("stage %s: %w", variant, err)
		}
	}
	return nil
}
