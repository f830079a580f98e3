// Package literal implements the fixed-string fast path: Boyer-Moore-
// Horspool over bytes with wide-vector candidate verification and the
// per-line traversal policy the executor relies on.
package literal

import (
	segascii "github.com/segmentio/asm/ascii"

	"github.com/mhr3/sedge/internal/vector"
	"github.com/mhr3/sedge/text"
)

// Policy controls how matches are collected along a buffer.
type Policy struct {
	// Global emits every non-overlapping match on a line. When unset (or
	// FirstOnly is set) at most the first match per line is emitted.
	Global bool
	// FirstOnly caps matches to one per line regardless of Global.
	FirstOnly bool
	// AnchorStart only considers positions at a line start.
	AnchorStart bool
}

// Searcher performs repeated fixed-string searches with one pattern.
// Construct once with NewSearcher, then call FindRange on multiple
// windows. Amortizes the skip-table build across searches.
type Searcher struct {
	pattern []byte
	skip    [256]int
	fold    bool
}

// NewSearcher builds a searcher. With fold set, matching is ASCII
// case-insensitive: A-Z and a-z pair up, bytes above 0x7F compare
// byte-for-byte.
func NewSearcher(pattern []byte, fold bool) *Searcher {
	s := &Searcher{pattern: pattern, fold: fold}
	n := len(pattern)
	for i := range s.skip {
		s.skip[i] = n
	}
	for i := 0; i < n-1; i++ {
		c := pattern[i]
		s.skip[c] = n - 1 - i
		if fold {
			if alt := toggleCase(c); alt != c {
				s.skip[alt] = n - 1 - i
			}
		}
	}
	return s
}

// Pattern returns the pattern bytes the searcher was built with.
func (s *Searcher) Pattern() []byte { return s.pattern }

// FindRange collects matches in buf[lo:hi) under policy, in ascending
// start order with 0-based line numbers. An empty pattern yields no
// matches; the regex engine owns empty-pattern semantics.
func (s *Searcher) FindRange(b *text.Buffer, lo, hi int, policy Policy) []text.Match {
	if len(s.pattern) == 0 || hi-lo < len(s.pattern) {
		return nil
	}
	if policy.AnchorStart {
		return s.findAnchored(b, lo, hi, policy)
	}
	return s.findSweep(b, lo, hi, policy)
}

// findSweep is the unanchored scan: BMH candidates, vector verification,
// and a monotonic line counter fed by counting newlines over the bytes
// skipped since the previous match.
func (s *Searcher) findSweep(b *text.Buffer, lo, hi int, policy Policy) []text.Match {
	data := b.Bytes()
	n := len(s.pattern)
	var out []text.Match

	line := b.LineAt(lo)
	counted := lo
	pos := lo
	for pos+n <= hi {
		cand := s.scan(data, pos, hi)
		if cand < 0 {
			break
		}
		line += vector.CountByte(data[counted:cand], '\n')
		counted = cand
		out = append(out, text.Match{Start: cand, End: cand + n, Line: line})
		if policy.Global && !policy.FirstOnly {
			pos = cand + n
			continue
		}
		// First per line: resume at the next line start.
		nl := vector.IndexByte(data[cand:hi], '\n')
		if nl < 0 {
			break
		}
		pos = cand + nl + 1
	}
	return out
}

// findAnchored considers only line-start positions; a miss skips straight
// to the next line.
func (s *Searcher) findAnchored(b *text.Buffer, lo, hi int, policy Policy) []text.Match {
	data := b.Bytes()
	n := len(s.pattern)
	var out []text.Match

	for ln := b.LineAt(lo); ln < b.NumLines(); ln++ {
		start, end := b.LineSpan(ln)
		if start < lo {
			continue
		}
		if start >= hi {
			break
		}
		if end > hi {
			end = hi
		}
		if start+n <= end && s.verify(data, start) {
			out = append(out, text.Match{Start: start, End: start + n, Line: ln})
		}
	}
	return out
}

// scan runs the BMH loop over data[pos:hi) and returns the next verified
// match position, or -1.
func (s *Searcher) scan(data []byte, pos, hi int) int {
	n := len(s.pattern)
	last := s.pattern[n-1]
	if s.fold {
		last = toLower(last)
	}
	for pos+n <= hi {
		c := data[pos+n-1]
		probe := c
		if s.fold {
			probe = toLower(probe)
		}
		if probe == last && s.verify(data, pos) {
			return pos
		}
		pos += s.skip[c]
	}
	return -1
}

// verify compares pattern against data[at:] in 16-byte vector steps, with
// a case-fold select when folding; the tail past the last full vector is
// compared scalar.
func (s *Searcher) verify(data []byte, at int) bool {
	n := len(s.pattern)
	k := 0
	if s.fold {
		for ; k+16 <= n; k += 16 {
			if !vector.EqualFold16(data[at+k:], s.pattern[k:]) {
				return false
			}
		}
		return segascii.EqualFold(data[at+k:at+n], s.pattern[k:])
	}
	for ; k+16 <= n; k += 16 {
		if !vector.Equal16(data[at+k:], s.pattern[k:]) {
			return false
		}
	}
	for ; k < n; k++ {
		if data[at+k] != s.pattern[k] {
			return false
		}
	}
	return true
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 0x20
	}
	return b
}

func toggleCase(b byte) byte {
	switch {
	case b >= 'a' && b <= 'z':
		return b - 0x20
	case b >= 'A' && b <= 'Z':
		return b + 0x20
	}
	return b
}
