package editor

import (
	"github.com/mhr3/sedge/engine"
	"github.com/mhr3/sedge/script"
	"github.com/mhr3/sedge/text"
)

// span is a half-open byte range aligned to line boundaries.
type span struct {
	lo, hi int
}

// addressedLines resolves a command's address to a per-line mark vector.
// Line numbers in addresses are 1-based; the vector is 0-based.
func (x *Executor) addressedLines(cmd *script.Command, buf *text.Buffer) ([]bool, error) {
	n := buf.NumLines()
	marks := make([]bool, n)
	addr := cmd.Addr

	switch addr.Kind {
	case script.AddrNone:
		for i := range marks {
			marks[i] = true
		}
	case script.AddrLine:
		if ln := addr.Start - 1; ln >= 0 && ln < n {
			marks[ln] = true
		}
	case script.AddrLast:
		if n > 0 {
			marks[n-1] = true
		}
	case script.AddrRange:
		from := addr.Start - 1
		to := addr.End - 1
		if addr.End == script.Last {
			to = n - 1
		}
		if from < 0 {
			from = 0
		}
		if to >= n {
			to = n - 1
		}
		for i := from; i <= to; i++ {
			marks[i] = true
		}
	case script.AddrPattern:
		m, err := x.eng.Compile(engine.Spec{
			Pattern:  addr.Pattern,
			Extended: cmd.Dialect == script.Extended,
			Fold:     cmd.Flags.IgnoreCase,
		})
		if err != nil {
			return nil, err
		}
		matches, err := m.FindRange(buf, 0, buf.Len())
		if err != nil {
			return nil, err
		}
		for _, mt := range matches {
			if mt.Line < n {
				marks[mt.Line] = true
			}
		}
	}

	if addr.Negated {
		for i := range marks {
			marks[i] = !marks[i]
		}
	}
	return marks, nil
}

// addressedSpans resolves an address to byte spans for the matcher. The
// common cases collapse to a single span; scattered marks (negated or
// pattern addresses) become one span per run of marked lines.
func (x *Executor) addressedSpans(cmd *script.Command, buf *text.Buffer) ([]span, error) {
	if cmd.Addr.Kind == script.AddrNone && !cmd.Addr.Negated {
		if buf.Len() == 0 {
			return nil, nil
		}
		return []span{{0, buf.Len()}}, nil
	}
	marks, err := x.addressedLines(cmd, buf)
	if err != nil {
		return nil, err
	}
	var spans []span
	for ln := 0; ln < len(marks); {
		if !marks[ln] {
			ln++
			continue
		}
		runStart := ln
		for ln < len(marks) && marks[ln] {
			ln++
		}
		lo, _ := buf.LineSpan(runStart)
		_, hi := buf.LineSpan(ln - 1)
		spans = append(spans, span{lo, hi})
	}
	return spans, nil
}
