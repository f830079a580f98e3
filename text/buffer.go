// Package text holds the byte buffer the editor operates on, its derived
// line index, and the match record produced by the matchers.
package text

import (
	"github.com/mhr3/sedge/internal/vector"
)

// Match is one occurrence of a pattern in a buffer. Start and End are byte
// offsets with 0 <= Start <= End <= len(buffer); Line is the 0-based line
// the match starts on. User-facing surfaces (addresses, diagnostics) count
// lines from 1; convert at the boundary.
type Match struct {
	Start int
	End   int
	Line  int
}

// Line is one newline-terminated run of a buffer. A trailing fragment
// without a newline counts as the last line. Len excludes the terminating
// newline.
type Line struct {
	Off int // offset of the first byte
	Len int // length excluding the terminating newline
}

// Buffer wraps an immutable byte sequence with a lazily built line index.
// The zero value is an empty buffer. Buffer borrows the slice it is given;
// callers must not mutate it while the Buffer is live.
type Buffer struct {
	data  []byte
	lines []Line // nil until first use
}

// NewBuffer wraps data. The slice is borrowed, not copied.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the underlying bytes.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int { return len(b.data) }

// NumLines returns the number of lines. An empty buffer has zero lines.
func (b *Buffer) NumLines() int {
	b.index()
	return len(b.lines)
}

// Line returns the 0-based n'th line. Len excludes the terminating
// newline; a line with a terminator occupies [Off, Off+Len+1) in the
// buffer, the final unterminated line occupies [Off, Off+Len).
func (b *Buffer) Line(n int) Line {
	b.index()
	return b.lines[n]
}

// LineSpan returns the byte range of line n including its terminating
// newline if present.
func (b *Buffer) LineSpan(n int) (start, end int) {
	ln := b.Line(n)
	end = ln.Off + ln.Len
	if end < len(b.data) && b.data[end] == '\n' {
		end++
	}
	return ln.Off, end
}

// LineAt returns the 0-based line number containing byte offset off.
// off == Len() maps to the last line.
func (b *Buffer) LineAt(off int) int {
	b.index()
	lo, hi := 0, len(b.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if b.lines[mid].Off <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

func (b *Buffer) index() {
	if b.lines != nil || len(b.data) == 0 {
		return
	}
	n := vector.CountByte(b.data, '\n')
	if len(b.data) > 0 && (n == 0 || b.data[len(b.data)-1] != '\n') {
		n++ // trailing fragment
	}
	lines := make([]Line, 0, n)
	off := 0
	for off < len(b.data) {
		rel := vector.IndexByte(b.data[off:], '\n')
		if rel < 0 {
			lines = append(lines, Line{Off: off, Len: len(b.data) - off})
			break
		}
		lines = append(lines, Line{Off: off, Len: rel})
		off += rel + 1
	}
	b.lines = lines
}
