package format

import "testing"

func TestHeaderFieldsRoundTrip(t *testing.T) {
	b := make([]byte, HeaderSize)
	PutU64(b, HeaderSizeOffset, 4096)
	PutAddr(b, HeaderNextOffset, 0xdeadbeef0)
	PutAddr(b, HeaderPrevOffset, 0)
	PutU64(b, HeaderFlagsOffset, FlagFree)

	if got := ReadU64(b, HeaderSizeOffset); got != 4096 {
		t.Fatalf("size=%d", got)
	}
	if got := ReadAddr(b, HeaderNextOffset); got != 0xdeadbeef0 {
		t.Fatalf("next=0x%X", got)
	}
	if got := ReadAddr(b, HeaderPrevOffset); got != 0 {
		t.Fatalf("prev=0x%X", got)
	}
	if ReadU64(b, HeaderFlagsOffset)&FlagFree == 0 {
		t.Fatalf("free flag lost")
	}
}

func TestEncodingIsLittleEndian(t *testing.T) {
	b := make([]byte, 8)
	PutU64(b, 0, 0x0102030405060708)
	if b[0] != 0x08 || b[7] != 0x01 {
		t.Fatalf("unexpected byte order: % x", b)
	}
}
