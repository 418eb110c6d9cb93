package gyp

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/go-cmp/cmp"

	"github.com/rprichard/winpty-ship/internal/runner"
	"github.com/rprichard/winpty-ship/internal/runner/runnertest"
	"github.com/rprichard/winpty-ship/internal/vcs"
)

func TestEnsureClonesWhenAbsent(t *testing.T) {
	m := &mockVCS{}
	f := &Fetcher{VCS: m, Remote: DefaultRemote, Dir: filepath.Join(t.TempDir(), "build-gyp")}

	cloned, err := f.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if !cloned {
		t.Error("Ensure reported no clone for a missing checkout")
	}
	if m.clones != 1 {
		t.Errorf("clones = %d, want 1", m.clones)
	}

	// Second call sees the checkout and leaves it alone.
	cloned, err = f.Ensure(context.Background())
	if err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}
	if cloned || m.clones != 1 {
		t.Errorf("second Ensure cloned again: cloned=%v clones=%d", cloned, m.clones)
	}
}

func TestEnsureSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	m := &mockVCS{}
	f := &Fetcher{VCS: m, Remote: DefaultRemote, Dir: dir}

	cloned, err := f.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if cloned || m.clones != 0 || m.syncs != 0 {
		t.Errorf("Ensure touched an existing checkout: cloned=%v clones=%d syncs=%d", cloned, m.clones, m.syncs)
	}
}

func TestEnsureCloneFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build-gyp")
	m := &mockVCS{
		cloneFunc: func(ctx context.Context, remote, dir string) error {
			os.MkdirAll(filepath.Join(dir, ".git"), 0o755)
			return errors.New("network unreachable")
		},
	}
	f := &Fetcher{VCS: m, Remote: DefaultRemote, Dir: dir}

	if _, err := f.Ensure(context.Background()); err == nil {
		t.Fatal("expected clone failure to propagate")
	}
	if m.clones != 1 {
		t.Errorf("clones = %d, want exactly 1 (no retry)", m.clones)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("partial checkout left behind: %v", err)
	}
}

func TestEnsurePinned(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build-gyp")
	m := &mockVCS{}
	f := &Fetcher{VCS: m, Remote: DefaultRemote, Dir: dir, Revision: "abc123"}

	if _, err := f.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if m.syncs != 1 || m.clones != 0 {
		t.Errorf("pinned fetch: syncs=%d clones=%d", m.syncs, m.clones)
	}

	m.head = "def456"
	_, err := f.Ensure(context.Background())
	var mismatch *RevisionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want *RevisionMismatchError", err)
	}
	if mismatch.Got != "def456" || mismatch.Want != "abc123" {
		t.Errorf("got %+v", mismatch)
	}
}

func TestEnsurePinnedTag(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build-gyp")
	const commit = "4ec6c4e3a94bd04a6da2858163d40b2429b8aad1"
	m := &mockVCS{
		syncFunc: func(ctx context.Context, remote, ref, dir string) error {
			return os.MkdirAll(dir, 0o755)
		},
		head:     commit,
		resolved: map[string]string{"v1": commit},
	}
	f := &Fetcher{VCS: m, Remote: DefaultRemote, Dir: dir, Revision: "v1"}

	for i := 0; i < 2; i++ {
		if _, err := f.Ensure(context.Background()); err != nil {
			t.Fatalf("Ensure #%d failed: %v", i+1, err)
		}
	}
	if m.syncs != 1 {
		t.Errorf("syncs = %d, want 1", m.syncs)
	}
}

func TestEnsurePinnedMismatchAfterFetch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build-gyp")
	m := &mockVCS{
		syncFunc: func(ctx context.Context, remote, ref, dir string) error {
			return os.MkdirAll(dir, 0o755)
		},
		head:     "def456",
		resolved: map[string]string{"v1": "abc123"},
	}
	f := &Fetcher{VCS: m, Remote: DefaultRemote, Dir: dir, Revision: "v1"}

	_, err := f.Ensure(context.Background())
	var mismatch *RevisionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want *RevisionMismatchError", err)
	}
	if mismatch.Resolved != "abc123" || mismatch.Got != "def456" {
		t.Errorf("got %+v", mismatch)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("mismatched checkout left behind: %v", err)
	}
}

// newTaggedUpstream creates a git repository with one commit tagged "v1"
// and returns its directory.
func newTaggedUpstream(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "upstream")
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "gyp_main.py"), []byte("print('gyp')\n"), 0644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("gyp_main.py"); err != nil {
		t.Fatal(err)
	}
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if _, err := repo.CreateTag("v1", hash, nil); err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	return dir
}

func TestEnsurePinnedTagGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	upstream := newTaggedUpstream(t)
	dir := filepath.Join(t.TempDir(), "build-gyp")
	f := &Fetcher{VCS: vcs.NewGitVCS(), Remote: "file://" + upstream, Dir: dir, Revision: "v1"}

	fetched, err := f.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if !fetched {
		t.Error("Ensure reported no fetch for a missing checkout")
	}
	// The existing checkout must still satisfy the tag pin.
	fetched, err = f.Ensure(context.Background())
	if err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}
	if fetched {
		t.Error("second Ensure fetched again")
	}
}

func TestEnsureNotDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build-gyp")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	m := &mockVCS{}
	f := &Fetcher{VCS: m, Remote: DefaultRemote, Dir: path}
	if _, err := f.Ensure(context.Background()); err == nil {
		t.Fatal("expected error for a file at the checkout path")
	}
	if m.clones != 0 {
		t.Errorf("clones = %d, want 0", m.clones)
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantArg []string
	}{
		{
			name: "standard",
			opts: Options{
				Project:     "winpty.gyp",
				Includes:    []string{"configurations.gypi"},
				MSVSVersion: "2015",
			},
			wantArg: []string{
				filepath.Join("/top/build-gyp", "gyp_main.py"), "winpty.gyp",
				"-I", "configurations.gypi", "-G", "msvs_version=2015",
			},
		},
		{
			name: "legacy toolset",
			opts: Options{
				Project:     "winpty.gyp",
				Includes:    []string{"configurations.gypi"},
				MSVSVersion: "2013",
				Defines:     map[string]string{"WINPTY_MSBUILD_TOOLSET": "v120_xp"},
			},
			wantArg: []string{
				filepath.Join("/top/build-gyp", "gyp_main.py"), "winpty.gyp",
				"-I", "configurations.gypi", "-G", "msvs_version=2013",
				"-D", "WINPTY_MSBUILD_TOOLSET=v120_xp",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &runnertest.Recorder{}
			g := New(rec, "python", "/top/build-gyp")
			if err := g.Generate(context.Background(), "/top/src", tt.opts); err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			want := []runner.Cmd{{Name: "python", Args: tt.wantArg, Dir: "/top/src"}}
			if diff := cmp.Diff(want, rec.Cmds()); diff != "" {
				t.Errorf("commands mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDefinesArgsSorted(t *testing.T) {
	got := definesArgs(map[string]string{"B": "2", "A": "1"})
	want := []string{"-D", "A=1", "-D", "B=2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("definesArgs mismatch (-want +got):\n%s", diff)
	}
}
