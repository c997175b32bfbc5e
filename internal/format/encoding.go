package format

import "encoding/binary"

// Header fields are always little-endian, independent of the host, so a dump
// of the heap reads the same everywhere.

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// PutAddr writes an address-sized field. Addresses are stored widened to 64 bits.
func PutAddr(b []byte, off int, addr uintptr) {
	PutU64(b, off, uint64(addr))
}

// ReadAddr reads an address-sized field written by PutAddr.
func ReadAddr(b []byte, off int) uintptr {
	return uintptr(ReadU64(b, off))
}
