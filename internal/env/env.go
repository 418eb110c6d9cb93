// Package env locates the external programs and the MSVC environment
// script a packaging run depends on.
package env

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rprichard/winpty-ship/internal/profile"
)

// ToolchainScriptName is the setup script found in each MSVC Common7\Tools directory.
const ToolchainScriptName = "VsDevCmd.bat"

// MissingToolchainError reports an MSVC setup script that could not be found.
type MissingToolchainError struct {
	Env  string // variable consulted
	Path string // attempted script path; empty if Env is unset
}

func (e *MissingToolchainError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("MSVC environment variable %s is not set", e.Env)
	}
	return fmt.Sprintf("MSVC environment script missing: %s (from %s)", e.Path, e.Env)
}

// MissingExecutableError reports a required program absent from PATH.
type MissingExecutableError struct {
	Name string
	Err  error
}

func (e *MissingExecutableError) Error() string {
	return fmt.Sprintf("required program %s not found in PATH", e.Name)
}

func (e *MissingExecutableError) Unwrap() error { return e.Err }

// ToolchainScript returns the path of v's VsDevCmd.bat.
func ToolchainScript(v profile.Version) (string, error) {
	dir, ok := os.LookupEnv(v.ToolsEnv)
	if !ok || dir == "" {
		return "", &MissingToolchainError{Env: v.ToolsEnv}
	}
	script := filepath.Join(dir, ToolchainScriptName)
	info, err := os.Stat(script)
	if err != nil || info.IsDir() {
		return "", &MissingToolchainError{Env: v.ToolsEnv, Path: script}
	}
	return script, nil
}

// RequireExecutables resolves every name on PATH, failing on the first
// one that is absent.
func RequireExecutables(names ...string) (map[string]string, error) {
	paths := make(map[string]string, len(names))
	for _, name := range names {
		p, err := exec.LookPath(name)
		if err != nil {
			return nil, &MissingExecutableError{Name: name, Err: err}
		}
		paths[name] = p
	}
	return paths, nil
}
