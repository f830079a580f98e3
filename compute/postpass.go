package compute

import (
	"sort"

	"github.com/mhr3/sedge/internal/vector"
	"github.com/mhr3/sedge/text"
)

// Host post-pass: the device hands back an unordered slot array and two
// counters; everything order- and line-related happens here.

func (p *literalProgram) postPass(d *dispatchBuffers, cfg *Config, buf *text.Buffer) (*ResultSet, error) {
	recs, written, total := copyRecords(d, cfg)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Start < recs[j].Start })

	data := buf.Bytes()
	if cfg.Flags&CfgLineMode != 0 {
		// Anchored pattern: only line-start positions count.
		kept := recs[:0]
		for _, r := range recs {
			if r.Start == 0 || data[r.Start-1] == '\n' {
				kept = append(kept, r)
			}
		}
		recs = kept
	}

	// Drop overlaps so the result matches the host's non-overlapping
	// left-to-right policy, then reconstruct line numbers with one linear
	// scan over the text.
	out := make([]text.Match, 0, len(recs))
	prevEnd := -1
	prevStart := 0
	line := 0
	for _, r := range recs {
		if int(r.Start) < prevEnd {
			continue
		}
		line += vector.CountByte(data[prevStart:r.Start], '\n')
		prevStart = int(r.Start)
		prevEnd = int(r.End)
		out = append(out, text.Match{Start: int(r.Start), End: int(r.End), Line: line})
	}

	if cfg.Flags&CfgGlobal == 0 || cfg.Flags&CfgFirstOnly != 0 {
		out = collapseFirstPerLine(out)
	}
	return &ResultSet{Records: out, Written: written, Total: total}, nil
}

func (p *regexProgram) postPass(d *dispatchBuffers, cfg *Config) (*ResultSet, error) {
	recs, written, total := copyRecords(d, cfg)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Start < recs[j].Start })

	out := make([]text.Match, 0, len(recs))
	for _, r := range recs {
		out = append(out, text.Match{Start: int(r.Start), End: int(r.End), Line: int(r.Line)})
	}
	if cfg.Flags&CfgFirstOnly != 0 {
		out = collapseFirstPerLine(out)
	}
	return &ResultSet{Records: out, Written: written, Total: total}, nil
}

// copyRecords copies min(written, max) records off the result buffer.
func copyRecords(d *dispatchBuffers, cfg *Config) ([]Record, uint32, uint32) {
	written := d.written.Load()
	total := d.total.Load()
	n := written
	if n > cfg.MaxMatches {
		n = cfg.MaxMatches
	}
	recs := make([]Record, n)
	for i := uint32(0); i < n; i++ {
		recs[i] = getRecord(d.results[i*RecordSize:])
	}
	return recs, n, total
}

// collapseFirstPerLine keeps the earliest match of each line. Input is
// sorted by start.
func collapseFirstPerLine(ms []text.Match) []text.Match {
	out := ms[:0]
	lastLine := -1
	for _, m := range ms {
		if m.Line == lastLine {
			continue
		}
		lastLine = m.Line
		out = append(out, m)
	}
	return out
}
