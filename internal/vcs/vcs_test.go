package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

// newUpstream creates a repository with a single commit tagged "r1" and
// returns its directory and commit hash.
func newUpstream(t *testing.T) (string, string) {
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
	if _, err := repo.CreateTag("r1", hash, nil); err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	return dir, hash.String()
}

func TestGitVCS_Clone(t *testing.T) {
	requireGit(t)
	upstream, hash := newUpstream(t)
	dir := filepath.Join(t.TempDir(), "build-gyp")

	v := NewGitVCS()
	if err := v.Clone(context.Background(), upstream, dir); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gyp_main.py")); err != nil {
		t.Errorf("cloned tree incomplete: %v", err)
	}

	head, err := v.Head(dir)
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if head != hash {
		t.Errorf("Head = %s, want %s", head, hash)
	}
}

func TestGitVCS_CloneFailure(t *testing.T) {
	requireGit(t)
	dir := filepath.Join(t.TempDir(), "build-gyp")

	err := NewGitVCS().Clone(context.Background(), filepath.Join(t.TempDir(), "missing"), dir)
	if err == nil {
		t.Fatal("expected error cloning a missing remote")
	}
	if !strings.Contains(err.Error(), "clone") {
		t.Errorf("error %q should mention clone", err)
	}
}

func TestGitVCS_Sync(t *testing.T) {
	requireGit(t)
	upstream, hash := newUpstream(t)
	dir := filepath.Join(t.TempDir(), "pinned")

	v := NewGitVCS()
	if err := v.Sync(context.Background(), "file://"+upstream, "r1", dir); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	head, err := v.Head(dir)
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if head != hash {
		t.Errorf("Head = %s, want %s", head, hash)
	}
}

func TestGitVCS_SyncRecordsTag(t *testing.T) {
	requireGit(t)
	upstream, hash := newUpstream(t)
	dir := filepath.Join(t.TempDir(), "pinned")

	v := NewGitVCS()
	if err := v.Sync(context.Background(), "file://"+upstream, "r1", dir); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	got, err := v.Resolve(dir, "r1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != hash {
		t.Errorf("Resolve(r1) = %s, want %s", got, hash)
	}
}

func TestGitVCS_ResolveCommit(t *testing.T) {
	requireGit(t)
	upstream, hash := newUpstream(t)

	got, err := NewGitVCS().Resolve(upstream, hash)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != hash {
		t.Errorf("Resolve = %s, want %s", got, hash)
	}
	if _, err := NewGitVCS().Resolve(upstream, "no-such-tag"); err == nil {
		t.Error("expected error resolving an unknown revision")
	}
}

func TestGitVCS_HeadNotRepo(t *testing.T) {
	if _, err := NewGitVCS().Head(t.TempDir()); err == nil {
		t.Fatal("expected error for a directory that is not a repository")
	}
}

func TestWithGitPath(t *testing.T) {
	g := NewGitVCS(WithGitPath("/opt/git/bin/git")).(*gitVCS)
	if g.git != "/opt/git/bin/git" {
		t.Errorf("git = %q", g.git)
	}
}
