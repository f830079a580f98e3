package engine

import (
	"github.com/mhr3/sedge/compute"
	"github.com/mhr3/sedge/literal"
	"github.com/mhr3/sedge/regex"
	"github.com/mhr3/sedge/text"
)

// Force overrides the selector.
type Force uint8

const (
	Auto Force = iota
	ForceHost
	ForceDevice
)

// Options configures an Engine. The zero value selects automatically with
// default thresholds and no diagnostics.
type Options struct {
	Thresholds Thresholds
	Force      Force
	MaxMatches uint32
	// Log receives backend decisions and fallback events; nil silences
	// them.
	Log func(format string, args ...any)
}

// Engine compiles patterns into matchers and routes each search to a
// backend.
type Engine struct {
	opts Options
}

// New builds an Engine.
func New(opts Options) *Engine {
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	return &Engine{opts: opts}
}

func (e *Engine) logf(format string, args ...any) {
	if e.opts.Log != nil {
		e.opts.Log(format, args...)
	}
}

// Spec describes one pattern to compile.
type Spec struct {
	Pattern   []byte
	Extended  bool // extended regex dialect
	Fold      bool // ASCII case-insensitive
	Global    bool // every non-overlapping match per line
	FirstOnly bool // at most one match per line
}

// Matcher is a compiled pattern bound to an Engine. The host form is
// compiled eagerly; the device program is uploaded lazily on the first
// dispatch that wants it.
type Matcher struct {
	eng  *Engine
	spec Spec

	// literal path
	lit      *literal.Searcher
	anchored bool

	// regex path
	nfa  *regex.NFA
	host *regex.Matcher

	prog        compute.Program
	progErr     error
	progPrep    bool
	deviceProbe func() (compute.Backend, error)
}

// IsRegex reports which engine the pattern compiled to.
func (m *Matcher) IsRegex() bool { return m.nfa != nil }

// NFA exposes the compiled automaton on the regex path, nil otherwise.
func (m *Matcher) NFA() *regex.NFA { return m.nfa }

// Compile classifies the pattern and builds its host matcher. Patterns
// with no dialect metacharacters take the literal path; a leading ^
// becomes the anchor flag. Everything else compiles to an NFA.
func (e *Engine) Compile(spec Spec) (*Matcher, error) {
	m := &Matcher{eng: e, spec: spec, deviceProbe: compute.Acquire}
	if lit, anchored, ok := classifyLiteral(spec.Pattern, spec.Extended); ok && len(lit) > 0 {
		m.lit = literal.NewSearcher(lit, spec.Fold)
		m.anchored = anchored
		return m, nil
	}
	dialect := regex.Basic
	if spec.Extended {
		dialect = regex.Extended
	}
	nfa, err := regex.Compile(spec.Pattern, regex.Options{Dialect: dialect, Fold: spec.Fold})
	if err != nil {
		return nil, err
	}
	m.nfa = nfa
	m.host = regex.NewMatcher(nfa)
	return m, nil
}

// classifyLiteral reports whether pat is a fixed string under the given
// dialect, with a leading ^ lifted out as the anchor flag. Conservative:
// any metacharacter or escape routes to the regex engine.
func classifyLiteral(pat []byte, extended bool) (lit []byte, anchored bool, ok bool) {
	p := pat
	if len(p) > 0 && p[0] == '^' {
		anchored = true
		p = p[1:]
	}
	for _, c := range p {
		switch c {
		case '.', '*', '[', ']', '^', '$', '\\':
			return nil, false, false
		case '+', '?', '|', '(', ')', '{', '}':
			if extended {
				return nil, false, false
			}
		}
	}
	return p, anchored, true
}

// FindRange finds matches in buf[lo:hi) under the spec's policy. lo must
// be a line start. Device errors and saturation fall back to the host
// transparently.
func (m *Matcher) FindRange(buf *text.Buffer, lo, hi int) ([]text.Match, error) {
	backend := m.selectBackend(hi - lo)
	if backend.Device() {
		if ms, ok := m.findDevice(buf, lo, hi); ok {
			return ms, nil
		}
		// Fall through to the host on any device-side condition.
		backend = HostLiteral
		if m.IsRegex() {
			backend = HostRegex
		}
	}
	if backend == HostLiteral {
		return m.lit.FindRange(buf, lo, hi, literal.Policy{
			Global:      m.spec.Global,
			FirstOnly:   m.spec.FirstOnly,
			AnchorStart: m.anchored,
		}), nil
	}
	return m.findHostRegex(buf, lo, hi), nil
}

func (m *Matcher) selectBackend(size int) Backend {
	switch m.eng.opts.Force {
	case ForceHost:
		if m.IsRegex() {
			return HostRegex
		}
		return HostLiteral
	case ForceDevice:
		if m.deviceAvailable() {
			if m.IsRegex() {
				return DeviceRegex
			}
			return DeviceLiteral
		}
		m.eng.logf("device forced but unavailable, using host")
	}
	b := Select(size, m.IsRegex(), m.deviceAvailable(), m.eng.opts.Thresholds)
	m.eng.logf("backend %s for %d bytes", b, size)
	return b
}

func (m *Matcher) deviceAvailable() bool {
	_, err := m.deviceProbe()
	return err == nil
}

// prepareProgram uploads the pattern once per matcher.
func (m *Matcher) prepareProgram() (compute.Program, error) {
	if m.progPrep {
		return m.prog, m.progErr
	}
	m.progPrep = true
	backend, err := m.deviceProbe()
	if err != nil {
		m.progErr = err
		return nil, err
	}
	spec := compute.PatternSpec{Fold: m.spec.Fold}
	if m.IsRegex() {
		spec.Regex = m.nfa.Encode()
	} else {
		spec.Literal = m.lit.Pattern()
	}
	m.prog, m.progErr = backend.Compile(spec)
	return m.prog, m.progErr
}

// findDevice runs one dispatch over the window and remaps offsets back to
// the full buffer. Reports ok=false when the caller should use the host
// instead: backend unavailable, text too large, or a saturated result.
func (m *Matcher) findDevice(buf *text.Buffer, lo, hi int) ([]text.Match, bool) {
	prog, err := m.prepareProgram()
	if err != nil {
		m.eng.logf("device compile failed: %v", err)
		return nil, false
	}

	window := buf
	baseLine := 0
	if lo != 0 || hi != buf.Len() {
		window = text.NewBuffer(buf.Bytes()[lo:hi])
		baseLine = buf.LineAt(lo)
	}

	cfg := compute.Config{MaxMatches: m.eng.opts.MaxMatches}
	if m.spec.Global {
		cfg.Flags |= compute.CfgGlobal
	}
	if m.spec.FirstOnly {
		cfg.Flags |= compute.CfgFirstOnly
	}
	if m.anchored {
		cfg.Flags |= compute.CfgLineMode
	}

	res, err := prog.FindMatches(window, cfg)
	if err != nil {
		m.eng.logf("device dispatch failed: %v", err)
		return nil, false
	}
	if res.Saturated() {
		// The result buffer overflowed; total carries the true count.
		// Substitution needs every match, so redo on the host.
		m.eng.logf("device results saturated (%d of %d), host retry", res.Written, res.Total)
		return nil, false
	}
	if lo == 0 && hi == buf.Len() {
		return res.Records, true
	}
	out := make([]text.Match, len(res.Records))
	for i, r := range res.Records {
		out[i] = text.Match{Start: r.Start + lo, End: r.End + lo, Line: r.Line + baseLine}
	}
	return out, true
}

// findHostRegex walks the window line by line with the host simulation,
// applying the global/first-only policy and the zero-length advance.
func (m *Matcher) findHostRegex(buf *text.Buffer, lo, hi int) []text.Match {
	data := buf.Bytes()
	var out []text.Match

	global := m.spec.Global && !m.spec.FirstOnly
	for ln := buf.LineAt(lo); ln < buf.NumLines(); ln++ {
		line := buf.Line(ln)
		if line.Off >= hi {
			break
		}
		if line.Off < lo {
			continue
		}
		le := line.Off + line.Len
		if le > hi {
			le = hi
		}
		pos := line.Off
		lastEnd := -1
		for pos <= le {
			s, e, ok := m.host.Find(data, pos, le)
			if !ok {
				break
			}
			if s == e && s == lastEnd {
				// An empty match flush against the previous match is
				// discarded, as the classic editor does.
				pos = s + 1
				continue
			}
			out = append(out, text.Match{Start: s, End: e, Line: ln})
			if !global {
				break
			}
			lastEnd = e
			if e == s {
				pos = e + 1
			} else {
				pos = e
			}
		}
	}
	return out
}
