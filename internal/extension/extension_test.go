package extension

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestInstallRoutesBySuffix(t *testing.T) {
	src := t.TempDir()
	cache := t.TempDir()
	libDir := filepath.Join(cache, "lib")
	shareDir := filepath.Join(cache, "share", "postgresql", "extension")

	writeFile(t, filepath.Join(src, "foo.control"), "comment = 'x'")
	writeFile(t, filepath.Join(src, "foo--1.0.sql"), "CREATE FUNCTION ...")
	writeFile(t, filepath.Join(src, "foo.so"), "binary")
	writeFile(t, filepath.Join(src, "README.md"), "ignore me")

	if err := Install(context.Background(), src, libDir, shareDir); err != nil {
		t.Fatalf("Install: %v", err)
	}

	for _, name := range []string{"foo.control", "foo--1.0.sql"} {
		if _, err := os.Stat(filepath.Join(shareDir, name)); err != nil {
			t.Fatalf("expected %s under share dir: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(libDir, "foo.so")); err != nil {
		t.Fatalf("expected foo.so under lib dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(libDir, "README.md")); err == nil {
		t.Fatalf("README.md should not have been copied to lib dir")
	}
	if _, err := os.Stat(filepath.Join(shareDir, "README.md")); err == nil {
		t.Fatalf("README.md should not have been copied to share dir")
	}
}

func TestInstallNonRecursive(t *testing.T) {
	src := t.TempDir()
	cache := t.TempDir()
	sub := filepath.Join(src, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}
	writeFile(t, filepath.Join(sub, "deep.sql"), "irrelevant")

	libDir := filepath.Join(cache, "lib")
	shareDir := filepath.Join(cache, "share")
	if err := Install(context.Background(), src, libDir, shareDir); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if _, err := os.Stat(filepath.Join(shareDir, "deep.sql")); err == nil {
		t.Fatalf("nested files must not be copied")
	}
}
