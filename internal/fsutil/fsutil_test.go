package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "nested", "dst.txt")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("unexpected content: %s", got)
	}
}

func TestCopyDirPreservesTree(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "bin", "initdb"), []byte("binary"), 0o755); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "cache")
	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("copydir: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dst, "bin", "initdb"))
	if err != nil {
		t.Fatalf("read copied file: %v", err)
	}
	if string(got) != "binary" {
		t.Fatalf("unexpected content: %s", got)
	}
}

func TestStagingDirLifecycle(t *testing.T) {
	d, err := NewStagingDir("pgembed_test", false)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sub := d.Path("bundle", "bin")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := d.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(d.root); !os.IsNotExist(err) {
		t.Fatalf("staging dir still exists")
	}
}

func TestStagingDirKeepOnExit(t *testing.T) {
	d, err := NewStagingDir("pgembed_test_keep", true)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer os.RemoveAll(d.root)
	if err := d.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(d.root); err != nil {
		t.Fatalf("expected staging dir to be kept: %v", err)
	}
}

func TestCleanupDirLeavesDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := CleanupDir(dir); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %v", entries)
	}
	if !Exists(dir) {
		t.Fatalf("dir itself should still exist")
	}
}
