// Package testutil provides payload patterns and checksums shared by the
// allocator tests and the brkctl stress command.
package testutil

import "github.com/bytedance/gopkg/util/xxhash3"

// Fill writes the pattern for seed into the first n bytes of b.
func Fill(b []byte, n int, seed byte) {
	for i := range n {
		b[i] = seed ^ byte(i)
	}
}

// Match reports whether the first n bytes of b still hold the pattern for seed.
func Match(b []byte, n int, seed byte) bool {
	return Mismatch(b, n, seed) < 0
}

// Mismatch returns the index of the first byte in b[:n] that differs from
// the pattern for seed, or -1.
func Mismatch(b []byte, n int, seed byte) int {
	if len(b) < n {
		return len(b)
	}
	for i := range n {
		if b[i] != seed^byte(i) {
			return i
		}
	}
	return -1
}

// Checksum hashes b. Stress runs record it after writing a payload and
// compare it before release.
func Checksum(b []byte) uint64 {
	return xxhash3.Hash(b)
}

// Zeroed reports whether every byte of b is zero.
func Zeroed(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
