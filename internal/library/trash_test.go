package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMoveToTrash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "burst-01.png")
	writePNG(t, path, 1, time.Now())

	dest, err := MoveToTrash(dir, path)
	if err != nil {
		t.Fatalf("MoveToTrash error: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("original still exists after trash move")
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("trashed file missing: %v", err)
	}
	if want := filepath.Join(dir, TrashDirName, "burst-01.png"); dest != want {
		t.Errorf("dest = %s, want %s", dest, want)
	}
}

func TestMoveToTrash_CollidingNames(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	// Same base name in two folders; both must survive the move.
	first := filepath.Join(dir, "img.png")
	second := filepath.Join(sub, "img.png")
	writePNG(t, first, 1, time.Now())
	writePNG(t, second, 2, time.Now())

	destA, err := MoveToTrash(dir, first)
	if err != nil {
		t.Fatalf("MoveToTrash error: %v", err)
	}
	destB, err := MoveToTrash(dir, second)
	if err != nil {
		t.Fatalf("MoveToTrash error: %v", err)
	}

	if destA == destB {
		t.Fatalf("colliding names mapped to the same trash path %s", destA)
	}
	if want := filepath.Join(dir, TrashDirName, "img-1.png"); destB != want {
		t.Errorf("second dest = %s, want %s", destB, want)
	}
	for _, p := range []string{destA, destB} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("trashed file %s missing: %v", p, err)
		}
	}
}

func TestMoveToTrash_MissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := MoveToTrash(dir, filepath.Join(dir, "no-such.png")); err == nil {
		t.Error("expected error for missing source file")
	}
}
