//go:build linux || darwin
// +build linux darwin

package mem

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// reserve maps size bytes of anonymous, process-private, read/write address
// space. The mapping is held for the life of the process.
func reserve(size uint64) (uintptr, error) {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, err
	}
	return uintptr(unsafe.Pointer(&data[0])), nil
}
