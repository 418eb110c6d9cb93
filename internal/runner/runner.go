// Package runner executes the external build tools a packaging run drives.
//
// Every command carries its own working directory; nothing here changes
// the process-wide current directory.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/qiniu/x/log"
)

// Cmd describes one blocking invocation of an external program.
type Cmd struct {
	Name string   // program name or path
	Args []string // arguments, not including Name
	Dir  string   // working directory; empty means inherit

	// Line, when non-empty, is run as a single command line by the platform
	// shell and Name/Args are ignored. Use it when one step must observe the
	// environment another step exports (e.g. a sourced setup script).
	Line string
}

// Command returns a Cmd running name with args in dir.
func Command(dir, name string, args ...string) Cmd {
	return Cmd{Name: name, Args: args, Dir: dir}
}

// Shell returns a Cmd running line through the platform shell in dir.
func Shell(dir, line string) Cmd {
	return Cmd{Dir: dir, Line: line}
}

func (c Cmd) String() string {
	if c.Line != "" {
		return c.Line
	}
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs commands to completion.
type Runner interface {
	// Run blocks until the command exits. A non-zero exit status is
	// reported as *ExitError.
	Run(ctx context.Context, c Cmd) error
}

// ExitError is returned when a command exits with a non-zero status.
type ExitError struct {
	Cmd  string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q failed with exit status %d", e.Cmd, e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Exec is a Runner backed by os/exec. Output is streamed, not captured.
type Exec struct {
	stdout io.Writer
	stderr io.Writer
}

// Option configures Exec.
type Option func(*Exec)

// WithOutput redirects the commands' stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Exec) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// New creates an Exec writing to the console.
func New(opts ...Option) *Exec {
	e := &Exec{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Exec) Run(ctx context.Context, c Cmd) error {
	var cmd *exec.Cmd
	if c.Line != "" {
		cmd = shellCommand(ctx, c.Line)
	} else {
		cmd = exec.CommandContext(ctx, c.Name, c.Args...)
	}
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	log.Debugf("run [%s]: %s", c.Dir, c)
	release, err := start(cmd)
	if err == nil {
		err = cmd.Wait()
		release()
	}
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Cmd: c.String(), Code: exitErr.ExitCode(), Err: err}
	}
	return fmt.Errorf("run %q: %w", c.String(), err)
}
