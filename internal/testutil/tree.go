package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SourceTree lists the files a winpty checkout must provide for packaging.
var SourceTree = map[string]string{
	"VERSION.txt":                    "0.4.4-dev\n",
	"LICENSE":                        "MIT\n",
	"README.md":                      "# winpty\n",
	"RELEASES.md":                    "# Releases\n",
	"src/winpty.gyp":                 "{}\n",
	"src/configurations.gypi":        "{}\n",
	"src/include/winpty.h":           "#pragma once\n",
	"src/include/winpty_constants.h": "#pragma once\n",
}

// NewSourceTree writes SourceTree under a temp dir and returns its path.
func NewSourceTree(t *testing.T) string {
	t.Helper()
	top := t.TempDir()
	for name, content := range SourceTree {
		p := filepath.Join(top, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return top
}

// NewToolchain creates a fake MSVC tools dir containing VsDevCmd.bat,
// points envVar at it, and returns the script path.
func NewToolchain(t *testing.T, envVar string) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "VsDevCmd.bat")
	if err := os.WriteFile(script, []byte("@echo off\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envVar, dir)
	return script
}
