// Package profile holds the static MSVC version and architecture tables
// and the build matrix derived from them.
package profile

import (
	"fmt"
	"slices"
	"strings"
)

// Version describes how to build and name a package for one MSVC release.
type Version struct {
	ID          string // command-line identifier, e.g. "2015"
	PackageName string // package name fragment, e.g. "msvc2015"
	GypVersion  string // value of gyp's msvs_version generator flag
	ToolsEnv    string // env var naming the Common7\Tools directory
	XPToolset   string // MSBuild platform toolset targeting Windows XP
}

// Arch maps an architecture identifier to its MSBuild platform name.
type Arch struct {
	ID       string
	Platform string
}

var versions = map[string]Version{
	"2015": {
		ID:          "2015",
		PackageName: "msvc2015",
		GypVersion:  "2015",
		ToolsEnv:    "VS140COMNTOOLS",
		XPToolset:   "v140_xp",
	},
	"2013": {
		ID:          "2013",
		PackageName: "msvc2013",
		GypVersion:  "2013",
		ToolsEnv:    "VS120COMNTOOLS",
		XPToolset:   "v120_xp",
	},
}

// archs is kept in build order.
var archs = []Arch{
	{ID: "ia32", Platform: "Win32"},
	{ID: "x64", Platform: "x64"},
}

// UnknownVersionError is returned by Lookup for an unsupported identifier.
type UnknownVersionError struct {
	Version string
}

func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unrecognized version: %s. Versions: %s", e.Version, strings.Join(Versions(), " "))
}

// Versions returns the supported version identifiers in ascending order.
func Versions() []string {
	ids := make([]string, 0, len(versions))
	for id := range versions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Newest returns the identifier used when none is given on the command line.
func Newest() string {
	ids := Versions()
	return ids[len(ids)-1]
}

// Lookup returns the profile registered for id.
func Lookup(id string) (Version, error) {
	v, ok := versions[id]
	if !ok {
		return Version{}, &UnknownVersionError{Version: id}
	}
	return v, nil
}

// Architectures returns the supported architectures in build order.
func Architectures() []Arch {
	return slices.Clone(archs)
}

// Variant is one (architecture, legacy toolset) combination of the matrix.
type Variant struct {
	Arch   Arch
	Legacy bool
}

const legacySuffix = "_xp"

// DirName returns the package subdirectory holding this variant's output.
func (v Variant) DirName() string {
	if v.Legacy {
		return v.Arch.ID + legacySuffix
	}
	return v.Arch.ID
}

func (v Variant) String() string {
	return v.DirName()
}

// Matrix returns every variant in build order: the legacy pass for all
// architectures first, then the standard pass.
func Matrix() []Variant {
	ret := make([]Variant, 0, 2*len(archs))
	for _, legacy := range []bool{true, false} {
		for _, a := range archs {
			ret = append(ret, Variant{Arch: a, Legacy: legacy})
		}
	}
	return ret
}
