// Package archive unpacks the nested ZIP(XZ(TAR)) bundle the artifact
// repository serves: an outer ZIP containing a single .txz/.xz member
// whose decompressed bytes are a TAR of the PostgreSQL install tree.
package archive

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ulikunitz/xz"
)

// ErrNoCompressedEntry is returned when the outer ZIP contains no member
// ending in .txz or .xz.
var ErrNoCompressedEntry = fmt.Errorf("archive: no .txz or .xz entry found in package")

// Stage distinguishes which step of the pipeline failed, so the caller can
// map it onto InvalidPgPackage vs. UnpackFailure.
type Stage string

const (
	StageZip Stage = "zip"
	StageXZ  Stage = "xz"
	StageTar Stage = "tar"
)

// Error wraps a pipeline-stage failure.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("archive: %s: %v", e.Stage, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Unpack extracts zipPath's single .txz/.xz TAR member into targetDir.
// targetDir is populated atomically with respect to the rest of this
// process: the caller (the acquisition coordinator) is responsible for
// extracting into a staging directory and renaming it into place so that
// observers only ever see targetDir absent or fully populated.
//
// Extraction is CPU-bound (XZ decode + TAR walk can take tens of seconds
// for a ~100MB bundle), so it runs on a dedicated goroutine decoupled from
// the caller's goroutine, the way a blocking-work pool would host it; a
// panic inside that goroutine is recovered and surfaced as a join failure
// rather than crashing the process.
func Unpack(zipPath, targetDir string) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &JoinError{Panic: r}
			}
		}()
		done <- unpack(zipPath, targetDir)
	}()
	return <-done
}

// JoinError is surfaced when the extraction goroutine panics instead of
// returning normally.
type JoinError struct{ Panic any }

func (e *JoinError) Error() string { return fmt.Sprintf("archive: extraction worker panicked: %v", e.Panic) }

func unpack(zipPath, targetDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return &Error{Stage: StageZip, Err: err}
	}
	defer zr.Close()

	var entry *zip.File
	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if strings.HasSuffix(name, ".txz") || strings.HasSuffix(name, ".xz") {
			entry = f
			break
		}
	}
	if entry == nil {
		return &Error{Stage: StageZip, Err: ErrNoCompressedEntry}
	}

	rc, err := entry.Open()
	if err != nil {
		return &Error{Stage: StageZip, Err: err}
	}
	defer rc.Close()

	xr, err := xz.NewReader(rc)
	if err != nil {
		return &Error{Stage: StageXZ, Err: err}
	}

	if err := extractTar(xr, targetDir); err != nil {
		return err
	}
	return nil
}

func extractTar(r io.Reader, targetDir string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &Error{Stage: StageTar, Err: err}
		}

		target := filepath.Join(targetDir, filepath.Clean(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(targetDir)+string(filepath.Separator)) && target != filepath.Clean(targetDir) {
			return &Error{Stage: StageTar, Err: fmt.Errorf("tar entry escapes target dir: %s", hdr.Name)}
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return &Error{Stage: StageTar, Err: err}
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return &Error{Stage: StageTar, Err: err}
			}
			mode := os.FileMode(hdr.Mode) & 0o777
			if runtime.GOOS == "windows" {
				mode = 0o644
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
			if err != nil {
				return &Error{Stage: StageTar, Err: err}
			}
			if _, err := io.Copy(out, tr); err != nil {
				_ = out.Close()
				return &Error{Stage: StageTar, Err: err}
			}
			if err := out.Close(); err != nil {
				return &Error{Stage: StageTar, Err: err}
			}
			// Re-apply the mode: some platforms mask it at creation via umask.
			if runtime.GOOS != "windows" {
				_ = os.Chmod(target, mode)
			}
		case tar.TypeSymlink:
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return &Error{Stage: StageTar, Err: err}
			}
		default:
			// skip other entry kinds (hardlinks, devices, ...)
		}
	}
}
