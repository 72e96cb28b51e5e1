// Package extension installs third-party PostgreSQL extension files into a
// populated binary cache, routing by file suffix into the cache's lib/ or
// share/postgresql/extension/ subdirectory. Grounded on
// vbp1-pgclone/internal/util/fs (CleanupDir, os.ReadDir directory walking)
// generalized into a copy-and-route operation, with the per-file copy loop
// fanned out through golang.org/x/sync/errgroup the way the teacher's
// internal/rsync/parallel.go bounds a worker pool.
package extension

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pgembed/pgembed/internal/fsutil"
)

// maxParallelCopies bounds concurrent file copies, mirroring the teacher's
// bounded rsync worker pool.
const maxParallelCopies = 4

// Destination classifies where a source file's suffix routes it.
type Destination int

const (
	// Skip means the file is not recognized and must not be copied.
	Skip Destination = iota
	Lib
	Share
)

// routeSuffix maps a lowercased file extension onto its cache subdirectory.
func routeSuffix(name string) Destination {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".so", ".dylib", ".dll":
		return Lib
	case ".control", ".sql":
		return Share
	default:
		return Skip
	}
}

// Install copies every recognized file directly inside srcDir (non-
// recursive) into libDir or shareDir per routeSuffix, creating both
// directories if absent. Unrecognized files are silently skipped, per
// spec. Precondition: the cache holding libDir/shareDir must already be
// populated (Install does not itself trigger acquisition).
func Install(ctx context.Context, srcDir, libDir, shareDir string) error {
	if err := fsutil.MkdirP(libDir); err != nil {
		return err
	}
	if err := fsutil.MkdirP(shareDir); err != nil {
		return err
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCopies)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		dest := routeSuffix(name)
		if dest == Skip {
			continue
		}
		var destDir string
		if dest == Lib {
			destDir = libDir
		} else {
			destDir = shareDir
		}

		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fsutil.CopyFile(filepath.Join(srcDir, name), filepath.Join(destDir, name))
		})
	}

	return g.Wait()
}
