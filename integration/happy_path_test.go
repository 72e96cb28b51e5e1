//go:build integration
// +build integration

// Package integration drives a real download+initdb+start+stop+create/drop
// cycle against the actual artifact repository, mirroring
// vbp1-pgclone/integration/happy_path_test.go's role but against this
// module's own lifecycle manager instead of a docker-compose primary/replica
// pair — there is no second host to clone from here.
package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pgembed/pgembed"
	"github.com/pgembed/pgembed/integration/util"
	"github.com/pgembed/pgembed/internal/platform"
)

func TestHappyPath(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dir := t.TempDir()

	settings := pgembed.Settings{
		DatabaseDir: filepath.Join(dir, "db"),
		Port:        15432,
		User:        "postgres",
		Password:    "pw",
		AuthMethod:  pgembed.AuthMD5,
		Persistent:  false,
	}
	fetchSettings := pgembed.NewFetchSettings(platform.PGV16)

	db, err := pgembed.New(settings, fetchSettings)
	require.NoError(err)

	require.NoError(db.Setup(ctx))
	require.FileExists(filepath.Join(settings.DatabaseDir, "PG_VERSION"))

	require.NoError(db.StartDB(ctx))
	require.NoError(util.WaitPortOpen(ctx, int(settings.Port), 30*time.Second))
	require.Equal(pgembed.Started, db.Status())

	require.Equal(fmt.Sprintf("postgres://postgres:pw@localhost:%d/postgres", settings.Port), db.FullDBURI("postgres"))

	require.NoError(db.CreateDatabase(ctx, "app"))
	exists, err := db.DatabaseExists(ctx, "app")
	require.NoError(err)
	require.True(exists)

	require.NoError(db.DropDatabase(ctx, "app"))
	exists, err = db.DatabaseExists(ctx, "app")
	require.NoError(err)
	require.False(exists)

	require.NoError(db.StopDB(ctx))
	require.Equal(pgembed.Stopped, db.Status())

	db.Close()
	_, err = os.Stat(settings.DatabaseDir)
	require.True(os.IsNotExist(err))
}
