package pgembed

import (
	"time"

	"github.com/pgembed/pgembed/internal/pgcmd"
	"github.com/pgembed/pgembed/internal/platform"
)

// AuthMethod selects the pg_hba.conf authentication mode written by initdb.
// It mirrors internal/pgcmd.AuthMethod so callers of this package never
// need to import an internal package.
type AuthMethod = pgcmd.AuthMethod

const (
	AuthPlain       = pgcmd.AuthPlain
	AuthMD5         = pgcmd.AuthMD5
	AuthScramSHA256 = pgcmd.AuthScramSHA256
)

// Settings is the immutable-after-construction configuration for one
// managed cluster. It is the entire public configuration surface (the
// "plain input record" the spec describes); it is never read from a file
// or environment by this package beyond the cache-root variables
// DefaultCacheRoot consults.
type Settings struct {
	// DatabaseDir is the filesystem path initdb will populate.
	DatabaseDir string
	// Port is the TCP port the server listens on.
	Port uint16
	// User and Password are the superuser credentials.
	User     string
	Password string
	// AuthMethod selects the pg_hba.conf auth mode.
	AuthMethod AuthMethod
	// Persistent controls teardown: when false, DatabaseDir and the
	// password file are removed on Close.
	Persistent bool
	// Timeout bounds every child-process invocation; zero means no
	// wall-clock ceiling.
	Timeout time.Duration
	// MigrationDir, if set, is scanned for *.sql files by Migrate.
	MigrationDir string
	// CrossProcessLock enables the optional gofrs/flock-guarded cache lock
	// described by spec.md's "known limitation" note. Off by default.
	CrossProcessLock bool
	// LogVerbose forwards child stdout/stderr at Info instead of leaving
	// the default logger at Warn; LogDebug additionally enables Debug.
	LogVerbose bool
	LogDebug   bool
}

// Validate checks the subset of invariants the lifecycle manager cannot
// safely proceed without: a non-empty cluster directory and a usable port.
// It performs no I/O.
func (s Settings) Validate() error {
	if s.DatabaseDir == "" {
		return newErr(KindInvalidPgURL, "database_dir must not be empty", nil)
	}
	if s.Port == 0 {
		return newErr(KindInvalidPgURL, "port must be > 0", nil)
	}
	if s.User == "" {
		return newErr(KindInvalidPgURL, "user must not be empty", nil)
	}
	return nil
}

// FetchSettings selects which precompiled binary bundle is acquired.
type FetchSettings struct {
	// Host is the base URL of the artifact repository.
	Host string
	// OperatingSystem and Architecture are set to the host's own platform
	// by NewFetchSettings; their zero values are Darwin and Amd64.
	OperatingSystem platform.OS
	Architecture    platform.Architecture
	// Version is the PostgreSQL release to fetch.
	Version platform.Version
}

// DefaultHost is the default Maven artifact repository base URL.
const DefaultHost = "https://repo1.maven.org"

// NewFetchSettings builds a FetchSettings defaulted to the host platform
// and the given PostgreSQL version.
func NewFetchSettings(version platform.Version) FetchSettings {
	return FetchSettings{
		Host:            DefaultHost,
		OperatingSystem: platform.DefaultOS(),
		Architecture:    platform.DefaultArchitecture(),
		Version:         version,
	}
}

// Validate checks that the platform/version combination is supported and
// that Host is set.
func (f FetchSettings) Validate() error {
	if f.Host == "" {
		return newErr(KindInvalidPgURL, "fetch host must not be empty", nil)
	}
	if platform.Unsupported(f.OperatingSystem, f.Architecture, f.Version) {
		return newErr(KindDownloadFailure, "unsupported platform/version combination", nil,
			"os", f.OperatingSystem.String(), "arch", f.Architecture.String(), "version", f.Version.String())
	}
	return nil
}
