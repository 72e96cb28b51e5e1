// Package platform enumerates the OS/architecture/version tags used to
// locate a precompiled PostgreSQL binary bundle in the Maven artifact
// repository and to name its cache directory.
package platform

import (
	"fmt"
	"runtime"
)

// OS identifies the target operating system.
type OS int

const (
	Darwin OS = iota
	Linux
	AlpineLinux
	Windows
)

// String renders the folder/classifier name used both in cache paths and
// the base of the artifact classifier. AlpineLinux shares "linux" with
// glibc Linux; the two are distinguished at the artifact level by the
// "-alpine" suffix appended in ArtifactURL.
func (o OS) String() string {
	switch o {
	case Darwin:
		return "darwin"
	case Linux, AlpineLinux:
		return "linux"
	case Windows:
		return "windows"
	default:
		return "unknown"
	}
}

// DefaultOS resolves the host operating system at call time.
func DefaultOS() OS {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin":
		return Darwin
	default:
		return Linux
	}
}

// Architecture identifies the target CPU architecture.
type Architecture int

const (
	Amd64 Architecture = iota
	I386
	Arm32v6
	Arm32v7
	Arm64v8
	Ppc64le
)

func (a Architecture) String() string {
	switch a {
	case Amd64:
		return "amd64"
	case I386:
		return "i386"
	case Arm32v6:
		return "arm32v6"
	case Arm32v7:
		return "arm32v7"
	case Arm64v8:
		return "arm64v8"
	case Ppc64le:
		return "ppc64le"
	default:
		return "unknown"
	}
}

// DefaultArchitecture resolves the host CPU architecture at call time.
func DefaultArchitecture() Architecture {
	switch runtime.GOARCH {
	case "386":
		return I386
	case "arm":
		return Arm32v7
	case "arm64":
		return Arm64v8
	case "ppc64le":
		return Ppc64le
	default:
		return Amd64
	}
}

// Version is a PostgreSQL release tag rendered as major.minor.patch, plus
// the Maven classifier (the major version alone).
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Classifier returns the Maven major-version classifier, e.g. "13".
func (v Version) Classifier() string {
	return fmt.Sprintf("%d", v.Major)
}

// Closed set of supported PostgreSQL versions, per spec.
var (
	PGV10 = Version{10, 23, 0}
	PGV11 = Version{11, 22, 0}
	PGV12 = Version{12, 20, 0}
	PGV13 = Version{13, 16, 0}
	PGV14 = Version{14, 13, 0}
	PGV15 = Version{15, 8, 0}
	PGV16 = Version{16, 4, 0}
	PGV17 = Version{17, 0, 0}
	PGV18 = Version{18, 0, 0}
)

// VersionByMajor maps a Maven classifier ("10".."18") to its closed-set
// Version, for callers (e.g. the pgembedctl CLI) that only have the major
// version tag available.
func VersionByMajor(major string) (Version, bool) {
	for _, v := range []Version{PGV10, PGV11, PGV12, PGV13, PGV14, PGV15, PGV16, PGV17, PGV18} {
		if v.Classifier() == major {
			return v, true
		}
	}
	return Version{}, false
}

// ParseOS parses an OS folder name as rendered by OS.String(); note that
// both Linux and AlpineLinux render "linux", so this resolves to Linux —
// callers needing the Alpine classifier must track it separately.
func ParseOS(s string) (OS, bool) {
	switch s {
	case "darwin":
		return Darwin, true
	case "linux":
		return Linux, true
	case "windows":
		return Windows, true
	default:
		return 0, false
	}
}

// ParseArchitecture parses an architecture tag as rendered by
// Architecture.String().
func ParseArchitecture(s string) (Architecture, bool) {
	switch s {
	case "amd64":
		return Amd64, true
	case "i386":
		return I386, true
	case "arm32v6":
		return Arm32v6, true
	case "arm32v7":
		return Arm32v7, true
	case "arm64v8":
		return Arm64v8, true
	case "ppc64le":
		return Ppc64le, true
	default:
		return 0, false
	}
}

// Unsupported reports whether the given (os, arch, version) tuple has no
// matching artifact in the upstream repository. Apple Silicon binaries were
// only published starting with PostgreSQL 14.
func Unsupported(os OS, arch Architecture, v Version) bool {
	if os == Darwin && arch == Arm64v8 && v.Major < 14 {
		return true
	}
	return false
}

// ArtifactURL composes the Maven coordinate path for the binary bundle.
//
//	{host}/maven2/io/zonky/test/postgres/embedded-postgres-binaries-{os}-{arch}{alpine}/{version}/embedded-postgres-binaries-{os}-{arch}{alpine}-{version}.jar
func ArtifactURL(host string, os OS, arch Architecture, v Version) string {
	alpine := ""
	if os == AlpineLinux {
		alpine = "-alpine"
	}
	artifact := fmt.Sprintf("embedded-postgres-binaries-%s-%s%s", os.String(), arch.String(), alpine)
	return fmt.Sprintf("%s/maven2/io/zonky/test/postgres/%s/%s/%s-%s.jar", host, artifact, v.String(), artifact, v.String())
}
