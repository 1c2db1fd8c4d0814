package ext2

import "encoding/binary"

// alignUp rounds n up to the nearest multiple of k, where k is a power of two.
// Used to compute directory rec_len values: align_up(n, k) = (n + k - 1) & ~(k - 1).
func alignUp(n, k int) int {
	return (n + k - 1) &^ (k - 1)
}

// le16 reads a little-endian uint16 at offset off in b.
func le16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

// le32 reads a little-endian uint32 at offset off in b.
func le32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// putLE16 writes v as little-endian at offset off in b.
func putLE16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// putLE32 writes v as little-endian at offset off in b.
func putLE32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// readString reads a fixed-width, NUL-padded ASCII field.
func readString(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

// writeString writes s into a fixed-width field, zero-padding (or truncating) as needed.
func writeString(b []byte, s string) {
	for i := range b {
		b[i] = 0
	}
	copy(b, s)
}
