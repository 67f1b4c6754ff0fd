package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanceledContextIsDone(t *testing.T) {
	ctx := CanceledContext()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected canceled context")
	}
}

func TestMustWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "file.txt")

	MustWriteFile(t, path, "hello")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if got := string(data); got != "hello" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestMustWriteFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")

	MustWriteFileMode(t, path, "x", 0o644)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o644 {
		t.Fatalf("expected 0644, got %o", got)
	}
}
