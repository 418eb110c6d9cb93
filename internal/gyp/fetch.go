package gyp

import (
	"context"
	"fmt"
	"os"

	"github.com/qiniu/x/log"

	"github.com/rprichard/winpty-ship/internal/vcs"
)

// DefaultRemote is the upstream gyp repository.
const DefaultRemote = "https://chromium.googlesource.com/external/gyp"

// RevisionMismatchError reports a checkout that is not at the pinned revision.
type RevisionMismatchError struct {
	Dir      string
	Want     string // pinned revision as configured
	Resolved string // commit Want names in the checkout
	Got      string // commit checked out
}

func (e *RevisionMismatchError) Error() string {
	want := e.Want
	if e.Resolved != "" && e.Resolved != e.Want {
		want = fmt.Sprintf("%s (%s)", e.Want, e.Resolved)
	}
	return fmt.Sprintf("gyp checkout %s is at %s, want %s (remove it to re-fetch)", e.Dir, e.Got, want)
}

// Fetcher keeps a local gyp checkout available.
type Fetcher struct {
	VCS    vcs.VCS
	Remote string
	Dir    string

	// Revision optionally pins the checkout to a tag, branch or full
	// commit hash. When empty, any existing checkout is reused as is.
	Revision string
}

// Ensure clones gyp into f.Dir unless it is already there. It reports
// whether a clone happened.
func (f *Fetcher) Ensure(ctx context.Context) (bool, error) {
	info, err := os.Stat(f.Dir)
	switch {
	case err == nil && info.IsDir():
		return false, f.verify()
	case err == nil:
		return false, fmt.Errorf("gyp checkout path %s is not a directory", f.Dir)
	case !os.IsNotExist(err):
		return false, err
	}

	if f.Revision == "" {
		err = f.VCS.Clone(ctx, f.Remote, f.Dir)
	} else {
		log.Infof("fetching gyp %s at %s", f.Remote, f.Revision)
		err = f.VCS.Sync(ctx, f.Remote, f.Revision, f.Dir)
	}
	if err != nil {
		// A half-written checkout would be mistaken for a good one next run.
		os.RemoveAll(f.Dir)
		return false, fmt.Errorf("fetch gyp: %w", err)
	}
	if err := f.verify(); err != nil {
		os.RemoveAll(f.Dir)
		return false, err
	}
	return true, nil
}

func (f *Fetcher) verify() error {
	if f.Revision == "" {
		return nil
	}
	head, err := f.VCS.Head(f.Dir)
	if err != nil {
		return err
	}
	want, err := f.VCS.Resolve(f.Dir, f.Revision)
	if err != nil {
		return &RevisionMismatchError{Dir: f.Dir, Want: f.Revision, Got: head}
	}
	if head != want {
		return &RevisionMismatchError{Dir: f.Dir, Want: f.Revision, Resolved: want, Got: head}
	}
	return nil
}
