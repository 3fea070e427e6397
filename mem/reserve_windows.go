//go:build windows
// +build windows

package mem

import (
	"golang.org/x/sys/windows"
)

func reserve(size uint64) (uintptr, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return 0, err
	}
	return addr, nil
}
