package cachelayout

import (
	"path/filepath"
	"testing"

	"github.com/pgembed/pgembed/internal/platform"
)

func TestResolveIsPureFunctionOfTuple(t *testing.T) {
	a := Resolve("/cache", platform.Linux, platform.Amd64, platform.PGV16, "/data/db")
	b := Resolve("/cache", platform.Linux, platform.Amd64, platform.PGV16, "/data/db2")

	if a.CacheDir != b.CacheDir {
		t.Fatalf("cache dir should not depend on database_dir: %s vs %s", a.CacheDir, b.CacheDir)
	}
	want := filepath.Join("/cache", "pg-embed", "linux", "amd64", "16.4.0")
	if a.CacheDir != want {
		t.Fatalf("got %s want %s", a.CacheDir, want)
	}
}

func TestPasswordFileOutsideClusterDir(t *testing.T) {
	l := Resolve("/cache", platform.Linux, platform.Amd64, platform.PGV16, "/data/db1")
	if filepath.Dir(l.PasswordFilePath) != filepath.Dir(l.DatabaseDir) {
		t.Fatalf("password file must live alongside, not inside, the cluster dir: %s", l.PasswordFilePath)
	}
	if l.PasswordFilePath == filepath.Join(l.DatabaseDir, "pwfile") {
		t.Fatalf("password file must not be inside database dir")
	}
}

func TestClusterInitializedFalseWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	l := Resolve("/cache", platform.Linux, platform.Amd64, platform.PGV16, filepath.Join(dir, "db"))
	if l.ClusterInitialized() {
		t.Fatalf("expected uninitialized cluster")
	}
}
