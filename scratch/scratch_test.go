package scratch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquire_CreatesUniqueDirectories(t *testing.T) {
	root := t.TempDir()

	a, err := Acquire(root, "")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer a.Release()
	b, err := Acquire(root, "")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer b.Release()

	if a.Dir() == b.Dir() {
		t.Fatalf("expected distinct directories, both %q", a.Dir())
	}
	for _, s := range []*Space{a, b} {
		info, err := os.Stat(s.Dir())
		if err != nil || !info.IsDir() {
			t.Errorf("Dir() %q is not a directory: %v", s.Dir(), err)
		}
		if !strings.HasPrefix(filepath.Base(s.Dir()), DefaultPrefix) {
			t.Errorf("Dir() %q missing prefix %q", s.Dir(), DefaultPrefix)
		}
	}
}

func TestAcquire_DeniedRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing", "nested")

	_, err := Acquire(root, "x-")
	if !errors.Is(err, ErrResource) {
		t.Fatalf("Acquire() error = %v, want ErrResource", err)
	}
}

func TestRelease_RemovesTree(t *testing.T) {
	s, err := Acquire(t.TempDir(), "rel-")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	path := filepath.Join(s.Dir(), "unit.star")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	s.Track(path)

	if err := s.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(s.Dir()); !os.IsNotExist(err) {
		t.Errorf("directory still present after Release: %v", err)
	}
	if !s.Released() {
		t.Error("Released() = false after Release")
	}
}

func TestRelease_Idempotent(t *testing.T) {
	s, err := Acquire(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := s.Release(); err != nil {
		t.Fatalf("first Release() error = %v", err)
	}
	if err := s.Release(); err != nil {
		t.Errorf("second Release() error = %v, want nil", err)
	}

	var nilSpace *Space
	if err := nilSpace.Release(); err != nil {
		t.Errorf("nil Release() error = %v, want nil", err)
	}
}

func TestRelease_DirectoryAlreadyGone(t *testing.T) {
	s, err := Acquire(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := os.RemoveAll(s.Dir()); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if err := s.Release(); err != nil {
		t.Errorf("Release() error = %v, want nil", err)
	}
}

func TestFiles_ReturnsCopy(t *testing.T) {
	s := &Space{}
	s.Track("a")
	s.Track("b")

	files := s.Files()
	files[0] = "mutated"

	if got := s.Files(); got[0] != "a" || len(got) != 2 {
		t.Errorf("Files() = %v, want [a b]", got)
	}
}
