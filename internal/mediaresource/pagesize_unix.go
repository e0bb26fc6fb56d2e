//go:build linux || darwin

package mediaresource

import "golang.org/x/sys/unix"

// detectPageSize reports the platform's memory page size, used to size
// payload buffer capacity for device-backed allocation hints.
func detectPageSize() int {
	return unix.Getpagesize()
}
