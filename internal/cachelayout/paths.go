// Package cachelayout computes the filesystem paths the rest of the module
// reads and writes: the shared binary cache, the per-cluster password file,
// and the extracted bin/lib/extension subdirectories.
package cachelayout

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pgembed/pgembed/internal/platform"
)

const (
	cacheDirName     = "pg-embed"
	pgVersionFile    = "PG_VERSION"
	initdbBinaryName = "initdb"
)

// Layout resolves every path derived from one (os, arch, version) cache key
// plus a cluster's database_dir.
type Layout struct {
	CacheDir string
	BinDir   string
	LibDir   string
	ExtDir   string

	DatabaseDir      string
	PasswordFilePath string

	ZipMarkerPath string
}

// Resolve computes a Layout from an already-resolved cacheRoot. It performs
// no I/O and cannot fail; resolving the cache root itself (and reporting
// when it cannot be determined) is DefaultCacheRoot's job.
func Resolve(cacheRoot string, os_ platform.OS, arch platform.Architecture, v platform.Version, databaseDir string) Layout {
	cacheDir := filepath.Join(cacheRoot, cacheDirName, os_.String(), arch.String(), v.String())
	pwFile := databaseDir + ".pwfile"
	return Layout{
		CacheDir:         cacheDir,
		BinDir:           filepath.Join(cacheDir, "bin"),
		LibDir:           filepath.Join(cacheDir, "lib"),
		ExtDir:           filepath.Join(cacheDir, "share", "postgresql", "extension"),
		DatabaseDir:      databaseDir,
		PasswordFilePath: pwFile,
		ZipMarkerPath:    filepath.Join(cacheDir, v.String()+".zip"),
	}
}

// InitDbPath returns the path to the cached initdb executable.
func (l Layout) InitDbPath() string {
	name := initdbBinaryName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(l.BinDir, name)
}

// PgCtlPath returns the path to the cached pg_ctl executable.
func (l Layout) PgCtlPath() string {
	name := "pg_ctl"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(l.BinDir, name)
}

// Cached reports whether the binary bundle has already been extracted for
// this cache key. bin/initdb presence is canonical (the {version}.zip
// marker is retained for diagnostics only and never consulted here).
func (l Layout) Cached() bool {
	_, err := os.Stat(l.InitDbPath())
	return err == nil
}

// ClusterInitialized reports whether initdb has already populated
// DatabaseDir.
func (l Layout) ClusterInitialized() bool {
	_, err := os.Stat(filepath.Join(l.DatabaseDir, pgVersionFile))
	return err == nil
}

// DefaultCacheRoot resolves the OS-specific cache root, honoring
// $XDG_CACHE_HOME on Linux, ~/Library/Caches on macOS, and
// %LOCALAPPDATA% on Windows. Returns an error when no suitable directory
// can be determined from the environment.
func DefaultCacheRoot() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if v := os.Getenv("LOCALAPPDATA"); v != "" {
			return v, nil
		}
		return "", errNoCacheRoot
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Caches"), nil
		}
		return "", errNoCacheRoot
	default:
		if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
			return v, nil
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".cache"), nil
		}
		return "", errNoCacheRoot
	}
}

// PurgeRoot returns the {cache_root}/pg-embed subtree that Purge deletes.
func PurgeRoot(cacheRoot string) string {
	return filepath.Join(cacheRoot, cacheDirName)
}

// LockFilePath is the optional cross-process acquisition lockfile location.
func LockFilePath(cacheRoot string) string {
	return filepath.Join(cacheRoot, ".lock")
}
