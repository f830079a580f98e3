// Package editor applies a parsed command pipeline to byte buffers:
// address gating, substitution with replacement expansion, delete, print
// and transliterate. Commands compose strictly: each command's output is
// the next one's input, and no command observes another's intermediate
// state.
package editor

import (
	"bytes"

	"github.com/mhr3/sedge/engine"
	"github.com/mhr3/sedge/script"
	"github.com/mhr3/sedge/text"
)

// Options configures an Executor.
type Options struct {
	// Quiet suppresses automatic line emission: only print commands
	// produce output.
	Quiet bool
}

// Executor runs command pipelines through an Engine.
type Executor struct {
	eng   *engine.Engine
	quiet bool
}

// New builds an Executor.
func New(eng *engine.Engine, opts Options) *Executor {
	return &Executor{eng: eng, quiet: opts.Quiet}
}

// Run applies the pipeline to input and returns the transformed bytes.
func (x *Executor) Run(cmds []script.Command, input []byte) ([]byte, error) {
	cur := input
	for i := range cmds {
		buf := text.NewBuffer(cur)
		out, stop, err := x.apply(&cmds[i], buf)
		if err != nil {
			return nil, err
		}
		cur = out
		if stop {
			break
		}
	}
	return cur, nil
}

func (x *Executor) apply(cmd *script.Command, buf *text.Buffer) ([]byte, bool, error) {
	switch cmd.Kind {
	case script.Substitute:
		out, err := x.substitute(cmd, buf)
		return out, false, err
	case script.Delete:
		out, err := x.deleteLines(cmd, buf)
		return out, false, err
	case script.Print:
		out, err := x.printLines(cmd, buf)
		return out, false, err
	case script.Transliterate:
		out, err := x.transliterate(cmd, buf)
		return out, false, err
	case script.Quit:
		return x.quit(cmd, buf)
	}
	return buf.Bytes(), false, nil
}

// compileFor builds the engine matcher for a command's own pattern.
func (x *Executor) compileFor(cmd *script.Command, pattern []byte) (*engine.Matcher, error) {
	return x.eng.Compile(engine.Spec{
		Pattern:   pattern,
		Extended:  cmd.Dialect == script.Extended,
		Fold:      cmd.Flags.IgnoreCase,
		Global:    cmd.Flags.Global,
		FirstOnly: cmd.Flags.FirstOnly,
	})
}

// substitute splices the expanded replacement over each match in the
// addressed spans.
func (x *Executor) substitute(cmd *script.Command, buf *text.Buffer) ([]byte, error) {
	m, err := x.compileFor(cmd, cmd.Pattern)
	if err != nil {
		return nil, err
	}
	spans, err := x.addressedSpans(cmd, buf)
	if err != nil {
		return nil, err
	}

	data := buf.Bytes()
	var out bytes.Buffer
	out.Grow(len(data))
	prev := 0
	for _, sp := range spans {
		matches, err := m.FindRange(buf, sp.lo, sp.hi)
		if err != nil {
			return nil, err
		}
		for _, mt := range matches {
			out.Write(data[prev:mt.Start])
			expandReplacement(&out, cmd.Replacement, data[mt.Start:mt.End])
			prev = mt.End
		}
	}
	out.Write(data[prev:])
	return out.Bytes(), nil
}

// deleteLines drops the addressed (or matching) lines.
func (x *Executor) deleteLines(cmd *script.Command, buf *text.Buffer) ([]byte, error) {
	marks, err := x.addressedLines(cmd, buf)
	if err != nil {
		return nil, err
	}
	data := buf.Bytes()
	var out bytes.Buffer
	out.Grow(len(data))
	for ln := 0; ln < buf.NumLines(); ln++ {
		if marks[ln] {
			continue
		}
		lo, hi := buf.LineSpan(ln)
		out.Write(data[lo:hi])
	}
	return out.Bytes(), nil
}

// printLines emits the addressed lines. Without quiet mode every line is
// written and matching lines appear twice; this doubling is the
// historical behaviour callers expect.
func (x *Executor) printLines(cmd *script.Command, buf *text.Buffer) ([]byte, error) {
	marks, err := x.addressedLines(cmd, buf)
	if err != nil {
		return nil, err
	}
	data := buf.Bytes()
	var out bytes.Buffer
	out.Grow(len(data))
	for ln := 0; ln < buf.NumLines(); ln++ {
		lo, hi := buf.LineSpan(ln)
		if !x.quiet {
			out.Write(data[lo:hi])
		}
		if marks[ln] {
			out.Write(data[lo:hi])
		}
	}
	return out.Bytes(), nil
}

// transliterate maps bytes through the identity table overlaid with the
// source-to-destination pairs, over the addressed lines.
func (x *Executor) transliterate(cmd *script.Command, buf *text.Buffer) ([]byte, error) {
	marks, err := x.addressedLines(cmd, buf)
	if err != nil {
		return nil, err
	}
	var table [256]byte
	for i := range table {
		table[i] = byte(i)
	}
	for i, c := range cmd.Pattern {
		table[c] = cmd.Replacement[i]
	}

	out := append([]byte(nil), buf.Bytes()...)
	for ln := 0; ln < buf.NumLines(); ln++ {
		if !marks[ln] {
			continue
		}
		line := buf.Line(ln)
		for i := line.Off; i < line.Off+line.Len; i++ {
			out[i] = table[out[i]]
		}
	}
	return out, nil
}

// quit emits everything up to and including the first addressed line and
// stops the pipeline.
func (x *Executor) quit(cmd *script.Command, buf *text.Buffer) ([]byte, bool, error) {
	if buf.NumLines() == 0 {
		return buf.Bytes(), true, nil
	}
	marks, err := x.addressedLines(cmd, buf)
	if err != nil {
		return nil, false, err
	}
	stopAt := -1
	for ln := range marks {
		if marks[ln] {
			stopAt = ln
			break
		}
	}
	if stopAt == -1 {
		// Address past the input: every line flows through.
		return buf.Bytes(), true, nil
	}
	_, hi := buf.LineSpan(stopAt)
	return buf.Bytes()[:hi], true, nil
}
