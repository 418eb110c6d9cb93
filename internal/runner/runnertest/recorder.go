// Package runnertest provides a recording runner.Runner for tests.
package runnertest

import (
	"context"
	"sync"

	"github.com/rprichard/winpty-ship/internal/runner"
)

// Recorder records every command and optionally delegates to Handle.
type Recorder struct {
	// Handle, if set, is called for each command; its error is returned.
	Handle func(c runner.Cmd) error

	mu   sync.Mutex
	cmds []runner.Cmd
}

func (r *Recorder) Run(ctx context.Context, c runner.Cmd) error {
	r.mu.Lock()
	r.cmds = append(r.cmds, c)
	r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Handle != nil {
		return r.Handle(c)
	}
	return nil
}

// Cmds returns the commands run so far.
func (r *Recorder) Cmds() []runner.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]runner.Cmd(nil), r.cmds...)
}
