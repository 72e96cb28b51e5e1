// Package pgembed embeds a full PostgreSQL server as a managed child
// process, acquiring a precompiled binary bundle on demand, initialising a
// data cluster, and exposing lifecycle control, database administration,
// schema migration, and extension installation. See SPEC_FULL.md.
package pgembed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgembed/pgembed/internal/acquire"
	"github.com/pgembed/pgembed/internal/archive"
	"github.com/pgembed/pgembed/internal/cachelayout"
	"github.com/pgembed/pgembed/internal/extension"
	"github.com/pgembed/pgembed/internal/fetch"
	"github.com/pgembed/pgembed/internal/fsutil"
	"github.com/pgembed/pgembed/internal/pgcmd"
	"github.com/pgembed/pgembed/internal/pglog"
	"github.com/pgembed/pgembed/internal/platform"
	"github.com/pgembed/pgembed/internal/procexec"
	"github.com/pgembed/pgembed/internal/sqladmin"
)

// Status is the server lifecycle state, shared by reference between this
// handle and the command executor driving the currently running child.
type Status = procexec.Status

const (
	Uninitialized Status = iota
	Initializing
	Initialized
	Starting
	Started
	Stopping
	Stopped
	Failure
)

// minFreeBytes guards the pre-download free-space check against the
// multi-hundred-MB artifact bundles the spec calls out.
const minFreeBytes = 512 * 1024 * 1024

// Database is the lifecycle manager: it owns the settings, computed paths,
// the shared status cell, and (lazily) a connection pool used for database
// administration. One Database drives one cluster; it is
// not safe for concurrent use by multiple goroutines unless the caller
// serializes calls.
type Database struct {
	settings      Settings
	fetchSettings FetchSettings
	layout        cachelayout.Layout
	cacheRoot     string

	status *procexec.StatusCell
	logger *slog.Logger

	mu       sync.Mutex
	pool     *pgxpool.Pool
	started  bool
	torndown bool
}

// New validates settings and fetchSettings, computes every derived path,
// and returns a Database at status Uninitialized. It performs no I/O.
func New(settings Settings, fetchSettings FetchSettings) (*Database, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := fetchSettings.Validate(); err != nil {
		return nil, err
	}

	cacheRoot, err := cachelayout.DefaultCacheRoot()
	if err != nil {
		return nil, newErr(KindInvalidPgURL, "resolve cache root", err)
	}

	layout := cachelayout.Resolve(cacheRoot, fetchSettings.OperatingSystem, fetchSettings.Architecture, fetchSettings.Version, settings.DatabaseDir)

	logger := pglog.New(pglog.Config{Verbose: settings.LogVerbose, Debug: settings.LogDebug})

	return &Database{
		settings:      settings,
		fetchSettings: fetchSettings,
		layout:        layout,
		cacheRoot:     cacheRoot,
		status:        procexec.NewStatusCell(Uninitialized),
		logger:        logger,
	}, nil
}

// Status returns the current lifecycle state.
func (d *Database) Status() Status { return d.status.Get() }

// Setup acquires the binary cache (downloading + extracting on a cold
// cache, a no-op on a warm one), writes the password file, and runs initdb
// if the cluster directory has not already been initialised.
func (d *Database) Setup(ctx context.Context) error {
	d.status.Set(Initializing)

	if err := cachelayout.EnsureSpace(d.cacheRoot, minFreeBytes); err != nil {
		d.status.Set(Failure)
		return newErr(KindDownloadFailure, "insufficient cache disk space", err)
	}

	if err := d.acquire(ctx); err != nil {
		d.status.Set(Failure)
		return err
	}

	if err := d.writePasswordFile(); err != nil {
		d.status.Set(Failure)
		return err
	}

	if !d.layout.ClusterInitialized() {
		if err := d.runInitDB(ctx); err != nil {
			d.status.Set(Failure)
			return err
		}
	}

	d.status.Set(Initialized)
	return nil
}

// acquire runs the coordinator's leader/waiter protocol for this handle's
// cache key: fetch the artifact and unpack it in a staging directory, move
// the unpacked tree into the cache dir, then copy the artifact to the
// cache's zip marker location, unless another caller already finished (or
// is doing) so.
func (d *Database) acquire(ctx context.Context) error {
	registry := acquire.Default()

	var crossLock *acquire.CrossLock
	if d.settings.CrossProcessLock {
		cl, err := acquire.NewCrossLock(cachelayout.LockFilePath(d.cacheRoot))
		if err != nil {
			return newErr(KindPgLockError, "create cross-process lock", err)
		}
		crossLock = cl
		if err := crossLock.Lock(); err != nil {
			return newErr(KindPgLockError, "acquire cross-process lock", err)
		}
		defer func() { _ = crossLock.Unlock() }()
	}

	return registry.MaybeAcquire(d.layout.CacheDir, func() error {
		if d.layout.Cached() {
			return nil
		}
		if err := fsutil.MkdirP(filepath.Dir(d.layout.CacheDir)); err != nil {
			return newErr(KindDirCreationError, "create cache dir parent", err)
		}

		url := platform.ArtifactURL(d.fetchSettings.Host, d.fetchSettings.OperatingSystem, d.fetchSettings.Architecture, d.fetchSettings.Version)
		d.logger.Info("fetching postgres binary bundle", slog.String("url", url), slog.String("cache_dir", d.layout.CacheDir))

		// Download and extract into a staging directory, then rename the
		// fully-populated bundle into place atomically so observers of
		// this cache key only ever see d.layout.CacheDir absent or fully
		// populated, never partially extracted.
		rc, err := fsutil.NewStagingDir("pgembed-extract-", false)
		if err != nil {
			return newErr(KindDirCreationError, "create extraction staging dir", err)
		}
		defer func() { _ = rc.Cleanup() }()

		stagingZip := rc.Path("artifact.zip")
		if err := fetch.Fetch(ctx, url, stagingZip); err != nil {
			return translateFetchErr(err)
		}

		stagingBundle := rc.Path("bundle")
		if err := archive.Unpack(stagingZip, stagingBundle); err != nil {
			return translateArchiveErr(err)
		}

		if err := os.Rename(stagingBundle, d.layout.CacheDir); err != nil {
			d.logger.Warn("rename into cache dir failed, falling back to copy", slog.Any("err", err))
			if err := fsutil.CopyDir(stagingBundle, d.layout.CacheDir); err != nil {
				return newErr(KindUnpackFailure, "finalize cache dir", err)
			}
		}

		// Retain the zip as an auxiliary marker (never consulted by
		// Cached; bin/initdb presence is canonical).
		if err := fsutil.CopyFile(stagingZip, d.layout.ZipMarkerPath); err != nil {
			d.logger.Warn("retain zip marker failed", slog.Any("err", err))
		}
		return nil
	})
}

func (d *Database) writePasswordFile() error {
	if err := os.WriteFile(d.layout.PasswordFilePath, []byte(d.settings.Password), 0o600); err != nil {
		return newErr(KindWriteFileError, "write password file", err, "path", d.layout.PasswordFilePath)
	}
	return nil
}

func (d *Database) runInitDB(ctx context.Context) error {
	args := pgcmd.InitDB(d.settings.User, d.layout.PasswordFilePath, d.settings.DatabaseDir, d.settings.AuthMethod)
	err := procexec.Execute(ctx, d.logger, procexec.Spec{
		Bin:           d.layout.InitDbPath(),
		Args:          args,
		Timeout:       d.settings.Timeout,
		Status:        d.status,
		EntryStatus:   Initializing,
		ExitStatus:    Initialized,
		FailureStatus: Failure,
		NewFailure:    func(cause error) error { return newErr(KindPgInitFailure, "initdb failed", cause) },
	})
	return translateProcErr(err)
}

// InstallExtension copies extension files from srcDir into the cache's
// lib/ and share/postgresql/extension/ directories. It must be called
// after Setup and before StartDB: the extension share directory is read
// by the server only at startup.
func (d *Database) InstallExtension(ctx context.Context, srcDir string) error {
	if err := extension.Install(ctx, srcDir, d.layout.LibDir, d.layout.ExtDir); err != nil {
		return newErr(KindWriteFileError, "install extension", err, "src", srcDir)
	}
	return nil
}

// StartDB runs pg_ctl start. The cluster must already be Initialized or
// Stopped.
func (d *Database) StartDB(ctx context.Context) error {
	switch d.Status() {
	case Initialized, Stopped:
	default:
		return newErr(KindPgStartFailure, fmt.Sprintf("cannot start from status %v", d.Status()), nil)
	}

	args := pgcmd.Start(d.settings.DatabaseDir, d.settings.Port)
	err := procexec.Execute(ctx, d.logger, procexec.Spec{
		Bin:           d.layout.PgCtlPath(),
		Args:          args,
		Timeout:       d.settings.Timeout,
		Status:        d.status,
		EntryStatus:   Starting,
		ExitStatus:    Started,
		FailureStatus: Failure,
		NewFailure:    func(cause error) error { return newErr(KindPgStartFailure, "pg_ctl start failed", cause) },
	})
	err = translateProcErr(err)
	if err == nil {
		d.mu.Lock()
		d.started = true
		d.mu.Unlock()
	}
	return err
}

// StopDB runs pg_ctl stop. The cluster must be Started.
func (d *Database) StopDB(ctx context.Context) error {
	if d.Status() != Started {
		return newErr(KindPgStopFailure, fmt.Sprintf("cannot stop from status %v", d.Status()), nil)
	}

	args := pgcmd.Stop(d.settings.DatabaseDir)
	err := procexec.Execute(ctx, d.logger, procexec.Spec{
		Bin:           d.layout.PgCtlPath(),
		Args:          args,
		Timeout:       d.settings.Timeout,
		Status:        d.status,
		EntryStatus:   Stopping,
		ExitStatus:    Stopped,
		FailureStatus: Failure,
		NewFailure:    func(cause error) error { return newErr(KindPgStopFailure, "pg_ctl stop failed", cause) },
	})
	err = translateProcErr(err)
	if err == nil {
		d.mu.Lock()
		d.started = false
		d.mu.Unlock()
	}
	return err
}

// adminPool lazily connects to the maintenance ("postgres") database, reused
// across CreateDatabase/DropDatabase/DatabaseExists calls. Migrate opens
// its own short-lived pool against the target database instead.
func (d *Database) adminPool(ctx context.Context) (*pgxpool.Pool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pool != nil {
		return d.pool, nil
	}
	pool, err := pgxpool.New(ctx, d.FullDBURI("postgres"))
	if err != nil {
		return nil, newErr(KindSqlQueryError, "connect to maintenance database", err)
	}
	d.pool = pool
	return pool, nil
}

// CreateDatabase issues CREATE DATABASE name.
func (d *Database) CreateDatabase(ctx context.Context, name string) error {
	pool, err := d.adminPool(ctx)
	if err != nil {
		return err
	}
	if err := sqladmin.CreateDatabase(ctx, pool, name); err != nil {
		return newErr(KindSqlQueryError, "create database", err, "name", name)
	}
	return nil
}

// DropDatabase issues DROP DATABASE name.
func (d *Database) DropDatabase(ctx context.Context, name string) error {
	pool, err := d.adminPool(ctx)
	if err != nil {
		return err
	}
	if err := sqladmin.DropDatabase(ctx, pool, name); err != nil {
		return newErr(KindSqlQueryError, "drop database", err, "name", name)
	}
	return nil
}

// DatabaseExists reports whether a database named name exists.
func (d *Database) DatabaseExists(ctx context.Context, name string) (bool, error) {
	pool, err := d.adminPool(ctx)
	if err != nil {
		return false, err
	}
	exists, err := sqladmin.DatabaseExists(ctx, pool, name)
	if err != nil {
		return false, newErr(KindSqlQueryError, "check database exists", err, "name", name)
	}
	return exists, nil
}

// Migrate applies every *.sql file in Settings.MigrationDir, in filename
// order, against database name. A no-op when MigrationDir is unset.
func (d *Database) Migrate(ctx context.Context, name string) error {
	if d.settings.MigrationDir == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, d.FullDBURI(name))
	if err != nil {
		return newErr(KindMigrationError, "connect for migration", err, "database", name)
	}
	defer pool.Close()

	if err := sqladmin.Migrate(ctx, pool, d.settings.MigrationDir); err != nil {
		return newErr(KindMigrationError, "apply migrations", err, "dir", d.settings.MigrationDir)
	}
	return nil
}

// Close tears the handle down: if the server is Started, it stops it
// synchronously; if Settings.Persistent is false, the cluster directory
// and password file are removed. All steps are best-effort and
// independently fallible — errors are logged, never returned, so Close is
// safe to call from a deferred cleanup outside any context with a live
// timeout or even outside an async runtime.
func (d *Database) Close() {
	d.mu.Lock()
	if d.torndown {
		d.mu.Unlock()
		return
	}
	d.torndown = true
	wasStarted := d.started
	pool := d.pool
	d.pool = nil
	d.mu.Unlock()

	if pool != nil {
		pool.Close()
	}

	if wasStarted {
		if err := d.stopSync(); err != nil {
			d.logger.Warn("teardown: synchronous stop failed", slog.Any("err", err))
		}
	}

	if !d.settings.Persistent {
		if err := os.RemoveAll(d.settings.DatabaseDir); err != nil {
			d.logger.Warn("teardown: remove cluster dir failed", slog.Any("err", err))
		}
		if err := os.Remove(d.layout.PasswordFilePath); err != nil && !os.IsNotExist(err) {
			d.logger.Warn("teardown: remove password file failed", slog.Any("err", err))
		}
	}
}

// stopSync runs pg_ctl stop synchronously, independent of any cancelable
// context the caller might otherwise supply — the destructor must be safe
// to call outside a live async runtime.
func (d *Database) stopSync() error {
	ctx := context.Background()
	if d.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.settings.Timeout+5*time.Second)
		defer cancel()
	}
	return d.StopDB(ctx)
}

// translateProcErr maps procexec's transport-level error types onto the
// PgError taxonomy. A non-zero exit already arrives as a *PgError built by
// the caller's NewFailure and passes through unchanged; only the three
// types Execute can return on top of that (timeout, spawn/wait, pump
// failure) need translating.
func translateProcErr(err error) error {
	switch e := err.(type) {
	case nil:
		return nil
	case *procexec.TimedOutError:
		return newErr(KindPgTimedOutError, "operation timed out", e)
	case *procexec.ProcessError:
		return newErr(KindPgProcessError, "process spawn/wait error", e)
	case *procexec.BufferReadError:
		return newErr(KindPgBufferReadErr, "stdout/stderr pump error", e)
	default:
		return err
	}
}

func translateFetchErr(err error) error {
	if fe, ok := err.(*fetch.Error); ok {
		switch fe.Stage {
		case "body":
			return newErr(KindConversionError, "download body error", err)
		case "write":
			return newErr(KindWriteFileError, "write downloaded artifact", err)
		default:
			return newErr(KindDownloadFailure, "download artifact", err)
		}
	}
	return newErr(KindDownloadFailure, "download artifact", err)
}

func translateArchiveErr(err error) error {
	if _, ok := err.(*archive.JoinError); ok {
		return newErr(KindPgTaskJoinError, "extraction worker failed", err)
	}
	if ae, ok := err.(*archive.Error); ok && ae.Stage == archive.StageZip {
		return newErr(KindInvalidPgPackage, "invalid package", err)
	}
	return newErr(KindUnpackFailure, "unpack archive", err)
}
