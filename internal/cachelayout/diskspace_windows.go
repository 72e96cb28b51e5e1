//go:build windows

package cachelayout

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// FreeBytes returns the space available on the volume containing path.
func FreeBytes(path string) (uint64, error) {
	var free, total, totalFree uint64
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("resolve path %s: %w", path, err)
	}
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &free, &total, &totalFree); err != nil {
		return 0, fmt.Errorf("get disk free space %s: %w", path, err)
	}
	return free, nil
}
