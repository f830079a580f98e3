// Package vector provides SWAR (SIMD within a register) byte kernels shared
// by the literal matcher, the line indexer and the compute post-pass. All
// kernels process words of 8 bytes and compose into 16- and 32-byte steps;
// they are pure Go and portable.
package vector

import (
	"encoding/binary"
	"math/bits"
)

const (
	lo8 = 0x0101010101010101
	hi8 = 0x8080808080808080
)

// hasZeroByte reports a nonzero value iff any byte of v is 0x00.
// Hacker's Delight zero-byte detection.
func hasZeroByte(v uint64) uint64 {
	return (v - lo8) & ^v & hi8
}

// Equal16 compares the first 16 bytes of a and b. Both slices must hold at
// least 16 bytes.
func Equal16(a, b []byte) bool {
	a0 := binary.LittleEndian.Uint64(a)
	a1 := binary.LittleEndian.Uint64(a[8:])
	b0 := binary.LittleEndian.Uint64(b)
	b1 := binary.LittleEndian.Uint64(b[8:])
	return (a0^b0)|(a1^b1) == 0
}

// foldWord lowercases the ASCII uppercase letters in each byte lane of v.
// Lanes outside A-Z pass through unchanged; lanes with the high bit set are
// never folded, so bytes above 0x7F compare byte-for-byte.
func foldWord(v uint64) uint64 {
	v7 := v &^ uint64(hi8) // low seven bits of each lane
	// With lanes confined to 0..127, adding a bias of 128-k sets the lane
	// high bit exactly when lane >= k, with no cross-lane carries.
	geA := v7 + (0x80-'A')*lo8 // high bit iff lane >= 'A'
	gtZ := v7 + (0x7F-'Z')*lo8 // high bit iff lane >  'Z'
	isUpper := geA &^ gtZ &^ v & hi8
	return v | (isUpper >> 2) // 0x80 >> 2 == 0x20
}

// EqualFold16 compares the first 16 bytes of a and b with ASCII case
// folding. Both slices must hold at least 16 bytes.
func EqualFold16(a, b []byte) bool {
	a0 := foldWord(binary.LittleEndian.Uint64(a))
	a1 := foldWord(binary.LittleEndian.Uint64(a[8:]))
	b0 := foldWord(binary.LittleEndian.Uint64(b))
	b1 := foldWord(binary.LittleEndian.Uint64(b[8:]))
	return (a0^b0)|(a1^b1) == 0
}

// CountByte counts occurrences of c in p, consuming 32-byte chunks of four
// SWAR words per step.
func CountByte(p []byte, c byte) int {
	mask := uint64(c) * lo8
	n := 0
	i := 0
	for ; i+32 <= len(p); i += 32 {
		n += countWord(binary.LittleEndian.Uint64(p[i:]), mask)
		n += countWord(binary.LittleEndian.Uint64(p[i+8:]), mask)
		n += countWord(binary.LittleEndian.Uint64(p[i+16:]), mask)
		n += countWord(binary.LittleEndian.Uint64(p[i+24:]), mask)
	}
	for ; i+8 <= len(p); i += 8 {
		n += countWord(binary.LittleEndian.Uint64(p[i:]), mask)
	}
	for ; i < len(p); i++ {
		if p[i] == c {
			n++
		}
	}
	return n
}

// countWord counts the lanes of w equal to the byte repeated in mask. It
// uses a carry-free zero test: hasZeroByte can also flag a lane sitting
// above a real zero through the borrow, which is harmless for IndexByte
// but would inflate a count.
func countWord(w, mask uint64) int {
	const lo7 = ^uint64(hi8)
	v := w ^ mask
	t := (v&lo7 + lo7) | v | lo7 // lane high bit set iff lane != 0
	return bits.OnesCount64(^t)
}

// IndexByte returns the offset of the first occurrence of c in p, or -1.
func IndexByte(p []byte, c byte) int {
	mask := uint64(c) * lo8
	i := 0
	for ; i+8 <= len(p); i += 8 {
		if z := hasZeroByte(binary.LittleEndian.Uint64(p[i:]) ^ mask); z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
	}
	for ; i < len(p); i++ {
		if p[i] == c {
			return i
		}
	}
	return -1
}
