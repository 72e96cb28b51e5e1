package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ulikunitz/xz"
)

// buildFixture produces a ZIP containing one "postgresql-amd64.txz" entry, itself an
// XZ-compressed TAR with a directory tree and one executable file.
func buildFixture(t *testing.T) string {
	t.Helper()

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	mustWriteTarDir(t, tw, "bin/")
	mustWriteTarFile(t, tw, "bin/initdb", []byte("#!/bin/sh\necho fake-initdb\n"), 0o755)
	mustWriteTarFile(t, tw, "share/readme.txt", []byte("hello"), 0o644)
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xw.Write(tarBuf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "bundle.zip")
	zf, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(zf)
	entry, err := zw.Create("postgresql-amd64.txz")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entry.Write(xzBuf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := zf.Close(); err != nil {
		t.Fatal(err)
	}
	return zipPath
}

func mustWriteTarDir(t *testing.T, tw *tar.Writer, name string) {
	t.Helper()
	if err := tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatal(err)
	}
}

func mustWriteTarFile(t *testing.T, tw *tar.Writer, name string, content []byte, mode int64) {
	t.Helper()
	hdr := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: mode, Size: int64(len(content))}
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
}

func TestUnpackExtractsTree(t *testing.T) {
	zipPath := buildFixture(t)
	target := t.TempDir()

	if err := Unpack(zipPath, target); err != nil {
		t.Fatalf("unpack: %v", err)
	}

	initdb := filepath.Join(target, "bin", "initdb")
	info, err := os.Stat(initdb)
	if err != nil {
		t.Fatalf("expected bin/initdb to exist: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("expected initdb to carry an executable bit, got mode %v", info.Mode())
	}

	readme, err := os.ReadFile(filepath.Join(target, "share", "readme.txt"))
	if err != nil {
		t.Fatalf("expected share/readme.txt to exist: %v", err)
	}
	if string(readme) != "hello" {
		t.Fatalf("unexpected content: %s", readme)
	}
}

func TestUnpackNoCompressedEntry(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "empty.zip")
	zf, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(zf)
	w, err := zw.Create("readme.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write([]byte("no binary here"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	_ = zf.Close()

	err = Unpack(zipPath, t.TempDir())
	if err == nil {
		t.Fatalf("expected error for package with no .txz/.xz entry")
	}
	var ae *Error
	if e, ok := err.(*Error); ok {
		ae = e
	}
	if ae == nil || ae.Err != ErrNoCompressedEntry {
		t.Fatalf("expected ErrNoCompressedEntry, got %v", err)
	}
}
