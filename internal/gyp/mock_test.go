package gyp

import (
	"context"
	"os"
)

// mockVCS implements vcs.VCS for testing and counts calls.
type mockVCS struct {
	cloneFunc func(ctx context.Context, remote, dir string) error
	syncFunc  func(ctx context.Context, remote, ref, dir string) error
	head      string
	resolved  map[string]string // rev -> commit; unlisted revs resolve to themselves

	clones int
	syncs  int
}

func (m *mockVCS) Clone(ctx context.Context, remote, dir string) error {
	m.clones++
	if m.cloneFunc != nil {
		return m.cloneFunc(ctx, remote, dir)
	}
	return os.MkdirAll(dir, 0o755)
}

func (m *mockVCS) Sync(ctx context.Context, remote, ref, dir string) error {
	m.syncs++
	if m.syncFunc != nil {
		return m.syncFunc(ctx, remote, ref, dir)
	}
	m.head = ref
	return os.MkdirAll(dir, 0o755)
}

func (m *mockVCS) Head(dir string) (string, error) {
	return m.head, nil
}

func (m *mockVCS) Resolve(dir, rev string) (string, error) {
	if h, ok := m.resolved[rev]; ok {
		return h, nil
	}
	return rev, nil
}
