// Package msbuild runs MSBuild inside an MSVC developer environment.
package msbuild

import (
	"context"
	"strings"

	"github.com/rprichard/winpty-ship/internal/runner"
)

// MSBuild compiles solutions after sourcing an MSVC setup script.
type MSBuild struct {
	runner runner.Runner
	script string
}

// New returns an MSBuild that sources script (VsDevCmd.bat) before each build.
func New(r runner.Runner, script string) *MSBuild {
	return &MSBuild{runner: r, script: script}
}

// Build compiles solution for platform in dir. The setup script only
// exports its environment into the shell that runs it, so the script and
// msbuild share one command line.
func (m *MSBuild) Build(ctx context.Context, dir, solution, platform string, args ...string) error {
	return m.runner.Run(ctx, runner.Shell(dir, m.commandLine(solution, platform, args)))
}

func (m *MSBuild) commandLine(solution, platform string, args []string) string {
	parts := []string{"msbuild", solution, "/m", "/p:Platform=" + platform}
	parts = append(parts, args...)
	return `"` + m.script + `" && ` + strings.Join(parts, " ")
}
