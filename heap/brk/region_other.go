//go:build !linux && !darwin

package brk

import (
	"os"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/joshuapare/brkalloc/internal/format"
)

func pageSize() int {
	return os.Getpagesize()
}

// reserve allocates the whole range up front when the platform has no
// portable way to reserve address space. The slice is sliced forward so the
// base satisfies format.Alignment.
func reserve(n int) ([]byte, error) {
	raw := dirtmake.Bytes(n+format.Alignment, n+format.Alignment)
	skip := int(-uintptr(unsafe.Pointer(&raw[0])) & format.AlignmentMask)
	return raw[skip : skip+n : skip+n], nil
}

func commit(b []byte) error { return nil }

// decommit zeroes the range so regrown memory looks the same as on platforms
// that really return pages.
func decommit(b []byte) error {
	clear(b)
	return nil
}

func unreserve(b []byte) error { return nil }
