// Package pgcmd builds the argument vectors for the three PostgreSQL
// commands the lifecycle manager drives: initdb, pg_ctl start, pg_ctl stop.
// One executor (internal/procexec) is polymorphic over these; this package
// only produces the []string args, mirroring vbp1-pgclone's
// internal/rsync/runner.go Config.BuildCmd shape.
package pgcmd

import (
	"fmt"
	"path/filepath"
)

// AuthMethod selects the pg_hba.conf authentication mode written by initdb.
type AuthMethod int

const (
	AuthPlain AuthMethod = iota
	AuthMD5
	AuthScramSHA256
)

// arg renders the -A value initdb expects.
func (a AuthMethod) arg() string {
	switch a {
	case AuthMD5:
		return "md5"
	case AuthScramSHA256:
		return "scram-sha-256"
	default:
		return "password"
	}
}

// InitDB builds the argument vector for:
//
//	initdb -A {auth} -U {user} --pwfile={pwfile} -D {databaseDir} --encoding=UTF8
func InitDB(user, pwfile, databaseDir string, auth AuthMethod) []string {
	return []string{
		"-A", auth.arg(),
		"-U", user,
		fmt.Sprintf("--pwfile=%s", pwfile),
		"-D", databaseDir,
		"--encoding=UTF8",
	}
}

// Start builds the argument vector for:
//
//	pg_ctl -D {databaseDir} -l {databaseDir}/pg.log -o "-p {port}" -w start
func Start(databaseDir string, port uint16) []string {
	logFile := filepath.Join(databaseDir, "pg.log")
	return []string{
		"-D", databaseDir,
		"-l", logFile,
		"-o", fmt.Sprintf("-p %d", port),
		"-w", "start",
	}
}

// Stop builds the argument vector for:
//
//	pg_ctl -D {databaseDir} -w -m fast stop
func Stop(databaseDir string) []string {
	return []string{
		"-D", databaseDir,
		"-w", "-m", "fast", "stop",
	}
}
