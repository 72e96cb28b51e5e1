package platform

import (
	"strings"
	"testing"
)

func TestArtifactURLAlpineSuffix(t *testing.T) {
	url := ArtifactURL("https://repo1.maven.org", AlpineLinux, Amd64, PGV16)
	if !strings.Contains(url, "embedded-postgres-binaries-linux-amd64-alpine/16.4.0/embedded-postgres-binaries-linux-amd64-alpine-16.4.0.jar") {
		t.Fatalf("unexpected url: %s", url)
	}
}

func TestArtifactURLNoAlpineForGlibcLinux(t *testing.T) {
	url := ArtifactURL("https://repo1.maven.org", Linux, Amd64, PGV16)
	if strings.Contains(url, "alpine") {
		t.Fatalf("glibc linux must not carry alpine classifier: %s", url)
	}
}

func TestUnsupportedAppleSiliconOldVersion(t *testing.T) {
	if !Unsupported(Darwin, Arm64v8, PGV13) {
		t.Fatalf("expected darwin/arm64v8 + pg13 to be unsupported")
	}
	if Unsupported(Darwin, Arm64v8, PGV14) {
		t.Fatalf("darwin/arm64v8 + pg14 should be supported")
	}
	if Unsupported(Darwin, Amd64, PGV10) {
		t.Fatalf("darwin/amd64 + pg10 should be supported")
	}
}

func TestVersionString(t *testing.T) {
	if PGV15.String() != "15.8.0" {
		t.Fatalf("unexpected version string: %s", PGV15.String())
	}
	if PGV15.Classifier() != "15" {
		t.Fatalf("unexpected classifier: %s", PGV15.Classifier())
	}
}
