package cachelayout

import "fmt"

// EnsureSpace checks that path's filesystem has at least minBytes free,
// guarding against the multi-hundred-MB artifact download filling a small
// disk.
func EnsureSpace(path string, minBytes uint64) error {
	free, err := FreeBytes(path)
	if err != nil {
		// Best-effort: if we can't determine free space, don't block the
		// caller on a platform/filesystem quirk.
		return nil
	}
	if free < minBytes {
		return fmt.Errorf("insufficient space on %s: free %.1f MB, need %.1f MB", path, mb(free), mb(minBytes))
	}
	return nil
}

func mb(b uint64) float64 { return float64(b) / (1024 * 1024) }
