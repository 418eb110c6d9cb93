package lockedfile

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestTryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packages", ".lock")
	mu := MutexAt(path)

	unlock, err := mu.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}

	// flock locks belong to the open file description, so a second open
	// of the same path conflicts even within one process.
	if _, err := MutexAt(path).TryLock(); !errors.Is(err, ErrLocked) {
		t.Fatalf("second TryLock error = %v, want ErrLocked", err)
	}

	unlock()

	unlock2, err := MutexAt(path).TryLock()
	if err != nil {
		t.Fatalf("TryLock after unlock failed: %v", err)
	}
	unlock2()
}

func TestLock(t *testing.T) {
	mu := MutexAt(filepath.Join(t.TempDir(), ".lock"))
	unlock, err := mu.Lock()
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	unlock()
}

func TestMutexAtEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MutexAt(\"\") did not panic")
		}
	}()
	MutexAt("")
}
