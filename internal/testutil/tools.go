// Package testutil emulates the external build tools for tests.
package testutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/rprichard/winpty-ship/internal/runner"
)

// FakeTools stands in for gyp, msbuild and 7z. Use Run as the Handle of a
// runnertest.Recorder.
type FakeTools struct {
	// Fail, if set, is consulted first; a non-nil error fails the command.
	Fail func(c runner.Cmd) error
	// Skip names an artifact msbuild "forgets" to produce.
	Skip string

	mu       sync.Mutex
	toolset  string // toolset of the last gyp run, "" for default
	builds   []string
	archives int
}

// Run dispatches c to the emulated tool.
func (f *FakeTools) Run(c runner.Cmd) error {
	if f.Fail != nil {
		if err := f.Fail(c); err != nil {
			return err
		}
	}
	switch {
	case c.Line != "" && strings.Contains(c.Line, "msbuild"):
		return f.msbuild(c)
	case len(c.Args) > 0 && strings.HasSuffix(c.Args[0], "gyp_main.py"):
		return f.gyp(c)
	case len(c.Args) == 3 && c.Args[0] == "a":
		return f.sevenZip(c)
	}
	return fmt.Errorf("fake tools: unexpected command %s", c)
}

// Builds returns "<platform>/<toolset>" for each msbuild run, in order.
func (f *FakeTools) Builds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.builds...)
}

func (f *FakeTools) gyp(c runner.Cmd) error {
	toolset := ""
	for i, a := range c.Args {
		if a == "-D" && i+1 < len(c.Args) {
			if _, v, ok := strings.Cut(c.Args[i+1], "="); ok {
				toolset = v
			}
		}
	}
	f.mu.Lock()
	f.toolset = toolset
	f.mu.Unlock()
	for _, name := range []string{"winpty.sln", "winpty.vcxproj", "winpty.vcxproj.filters"} {
		if err := os.WriteFile(filepath.Join(c.Dir, name), []byte(toolset), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeTools) msbuild(c runner.Cmd) error {
	_, platform, ok := strings.Cut(c.Line, "/p:Platform=")
	if !ok {
		return fmt.Errorf("fake msbuild: no platform in %q", c.Line)
	}
	platform = strings.Fields(platform)[0]
	sln, err := os.ReadFile(filepath.Join(c.Dir, "winpty.sln"))
	if err != nil {
		return fmt.Errorf("fake msbuild: %w", err)
	}
	toolset := string(sln)

	out := filepath.Join(c.Dir, "Release", platform)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	for _, name := range []string{"winpty.dll", "winpty-agent.exe", "winpty-debugserver.exe", "winpty.lib"} {
		if name == f.Skip {
			continue
		}
		content := platform + "/" + toolset + "/" + name
		if err := os.WriteFile(filepath.Join(out, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.builds = append(f.builds, platform+"/"+toolset)
	f.mu.Unlock()
	return nil
}

// sevenZip handles "7z a <archive> ." by zipping c.Dir.
func (f *FakeTools) sevenZip(c runner.Cmd) error {
	archive := c.Args[1]
	if !filepath.IsAbs(archive) {
		archive = filepath.Join(c.Dir, archive)
	}
	out, err := os.Create(archive)
	if err != nil {
		return err
	}
	defer out.Close()

	w := zip.NewWriter(out)
	err = filepath.Walk(c.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == c.Dir {
			return err
		}
		rel, err := filepath.Rel(c.Dir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if info.IsDir() {
			_, err := w.Create(name + "/")
			return err
		}
		dst, err := w.Create(name)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.archives++
	f.mu.Unlock()
	return w.Close()
}

// Archives returns how many archives 7z was asked to create.
func (f *FakeTools) Archives() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.archives
}
