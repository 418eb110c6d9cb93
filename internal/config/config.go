// Package config loads the optional TOML settings file of a packaging run.
//
// Every setting has a default matching the stock winpty layout, so the
// file only needs the keys being overridden:
//
//	package_root = "out/packages"
//
//	[generator]
//	revision = "4ec6c4e3a94bd04a6da2858163d40b2429b8aad1"
//
//	[tools]
//	archiver = "C:/Program Files/7-Zip/7z.exe"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"

	"github.com/rprichard/winpty-ship/internal/gyp"
)

// DefaultFile is the settings file consulted when none is named, relative
// to the top of the checkout.
const DefaultFile = "ship/msvc.toml"

// Config holds the packaging settings. Relative paths are relative to the
// top of the winpty checkout.
type Config struct {
	PackageRoot string    `toml:"package_root"`
	VersionFile string    `toml:"version_file"`
	Generator   Generator `toml:"generator"`
	Tools       Tools     `toml:"tools"`
}

// Generator configures the gyp checkout. Revision, when set, is a tag,
// branch or full commit hash.
type Generator struct {
	Remote   string `toml:"remote"`
	Dir      string `toml:"dir"`
	Revision string `toml:"revision"`
	Python   string `toml:"python"`
}

// Tools names the required external programs.
type Tools struct {
	Archiver string `toml:"archiver"`
	VCS      string `toml:"vcs"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		PackageRoot: "ship/packages",
		VersionFile: "VERSION.txt",
		Generator: Generator{
			Remote: gyp.DefaultRemote,
			Dir:    "build-gyp",
			Python: "python",
		},
		Tools: Tools{
			Archiver: "7z",
			VCS:      "git",
		},
	}
}

// Load reads path and fills unset keys from Default. A missing file is
// not an error when optional is true.
func Load(path string, optional bool) (Config, error) {
	data, err := os.ReadFile(path)
	if optional && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML data and fills unset keys from Default.
func Parse(data []byte) (Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	c.fill(Default())
	return c, nil
}

func (c *Config) fill(d Config) {
	set := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	set(&c.PackageRoot, d.PackageRoot)
	set(&c.VersionFile, d.VersionFile)
	set(&c.Generator.Remote, d.Generator.Remote)
	set(&c.Generator.Dir, d.Generator.Dir)
	set(&c.Generator.Python, d.Generator.Python)
	set(&c.Tools.Archiver, d.Tools.Archiver)
	set(&c.Tools.VCS, d.Tools.VCS)
}

// Resolve returns a copy of c with its directory settings made absolute
// against topDir.
func (c Config) Resolve(topDir string) Config {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(topDir, filepath.FromSlash(p))
	}
	c.PackageRoot = abs(c.PackageRoot)
	c.VersionFile = abs(c.VersionFile)
	c.Generator.Dir = abs(c.Generator.Dir)
	return c
}
