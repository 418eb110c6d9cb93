//go:build windows

package runner

import (
	"context"
	"os"
	"os/exec"
	"syscall"
)

// shellCommand hands line to cmd.exe verbatim. The command line is set
// directly because cmd.exe does not follow the argv quoting rules that
// exec applies to Args.
func shellCommand(ctx context.Context, line string) *exec.Cmd {
	comspec := os.Getenv("ComSpec")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	cmd := exec.CommandContext(ctx, comspec)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine: syscall.EscapeArg(comspec) + ` /d /s /c "` + line + `"`,
	}
	return cmd
}
