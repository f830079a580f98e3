package regex

// The pattern parser builds a small AST which the compiler lowers to the
// state arena. Two dialects share the grammar and differ only in which of
// + ? | ( ) { } are meta when plain versus backslash-escaped.

type nodeOp uint8

const (
	opEmpty nodeOp = iota
	opLiteral
	opAny
	opClass
	opConcat
	opAlternate
	opStar
	opPlus
	opQuest
	opRepeat
	opLineStart
	opLineEnd
	opWordBoundary
)

type node struct {
	op      nodeOp
	ch      byte       // opLiteral
	bitmap  [8]uint32  // opClass
	negated bool       // opClass
	subs    []*node    // opConcat, opAlternate
	sub     *node      // repetition ops
	min     int        // opRepeat
	max     int        // opRepeat, -1 for open-ended
	group   uint8
}

// Dialect mirrors script.Dialect without importing it; the two packages
// stay decoupled.
type Dialect uint8

const (
	Basic Dialect = iota
	Extended
)

type pparser struct {
	pat     []byte
	pos     int
	dialect Dialect
	group   uint8 // innermost group index, 0 at top level
	groups  uint8 // groups opened so far
}

func (p *pparser) fail(err error) error {
	return &CompileError{Pattern: string(p.pat), Pos: p.pos, Err: err}
}

// metaPlain reports whether c is meta when it appears unescaped.
func (p *pparser) metaPlain(c byte) bool {
	switch c {
	case '.', '*', '^', '$', '[':
		return true
	case '+', '?', '|', '(', ')', '{', '}':
		return p.dialect == Extended
	}
	return false
}

// metaEscaped reports whether \c carries the meta meaning of c.
func (p *pparser) metaEscaped(c byte) bool {
	switch c {
	case '+', '?', '|', '(', ')', '{', '}':
		return p.dialect == Basic
	}
	return false
}

func (p *pparser) parseAlternate() (*node, error) {
	first, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	subs := []*node{first}
	for p.isAlternateBar() {
		n, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		subs = append(subs, n)
	}
	if len(subs) == 1 {
		return first, nil
	}
	return &node{op: opAlternate, subs: subs, group: p.group}, nil
}

// isAlternateBar consumes a meta | if one is next.
func (p *pparser) isAlternateBar() bool {
	if p.pos < len(p.pat) && p.pat[p.pos] == '|' && p.dialect == Extended {
		p.pos++
		return true
	}
	if p.pos+1 < len(p.pat) && p.pat[p.pos] == '\\' && p.pat[p.pos+1] == '|' && p.dialect == Basic {
		p.pos += 2
		return true
	}
	return false
}

func (p *pparser) parseConcat() (*node, error) {
	var subs []*node
	for p.pos < len(p.pat) {
		c := p.pat[p.pos]
		if c == '|' && p.dialect == Extended {
			break
		}
		if c == ')' && p.dialect == Extended {
			break
		}
		if c == '\\' && p.pos+1 < len(p.pat) && p.dialect == Basic {
			if n := p.pat[p.pos+1]; n == '|' || n == ')' {
				break
			}
		}
		n, err := p.parseRepeat()
		if err != nil {
			return nil, err
		}
		subs = append(subs, n)
	}
	switch len(subs) {
	case 0:
		return &node{op: opEmpty, group: p.group}, nil
	case 1:
		return subs[0], nil
	}
	return &node{op: opConcat, subs: subs, group: p.group}, nil
}

func (p *pparser) parseRepeat() (*node, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.pat) {
		c := p.pat[p.pos]
		switch {
		case c == '*':
			p.pos++
			atom = &node{op: opStar, sub: atom, group: p.group}
		case c == '+' && p.dialect == Extended:
			p.pos++
			atom = &node{op: opPlus, sub: atom, group: p.group}
		case c == '?' && p.dialect == Extended:
			p.pos++
			atom = &node{op: opQuest, sub: atom, group: p.group}
		case c == '{' && p.dialect == Extended:
			p.pos++
			atom, err = p.parseInterval(atom, false)
			if err != nil {
				return nil, err
			}
		case c == '\\' && p.pos+1 < len(p.pat) && p.metaEscaped(p.pat[p.pos+1]):
			switch p.pat[p.pos+1] {
			case '+':
				p.pos += 2
				atom = &node{op: opPlus, sub: atom, group: p.group}
			case '?':
				p.pos += 2
				atom = &node{op: opQuest, sub: atom, group: p.group}
			case '{':
				p.pos += 2
				atom, err = p.parseInterval(atom, true)
				if err != nil {
					return nil, err
				}
			default:
				return atom, nil
			}
		default:
			return atom, nil
		}
	}
	return atom, nil
}

// parseInterval parses {n}, {n,} or {n,m} after the opening brace. escaped
// selects the basic-dialect form whose closing brace is \}.
func (p *pparser) parseInterval(atom *node, escaped bool) (*node, error) {
	min, ok := p.parseInt()
	if !ok {
		return nil, p.fail(ErrInvalidRange)
	}
	max := min
	if p.pos < len(p.pat) && p.pat[p.pos] == ',' {
		p.pos++
		if m, ok := p.parseInt(); ok {
			max = m
		} else {
			max = -1
		}
	}
	if escaped {
		if p.pos+1 >= len(p.pat) || p.pat[p.pos] != '\\' || p.pat[p.pos+1] != '}' {
			return nil, p.fail(ErrInvalidRange)
		}
		p.pos += 2
	} else {
		if p.pos >= len(p.pat) || p.pat[p.pos] != '}' {
			return nil, p.fail(ErrInvalidRange)
		}
		p.pos++
	}
	if max != -1 && max < min {
		return nil, p.fail(ErrInvalidRange)
	}
	return &node{op: opRepeat, sub: atom, min: min, max: max, group: p.group}, nil
}

func (p *pparser) parseInt() (int, bool) {
	start := p.pos
	n := 0
	for p.pos < len(p.pat) && p.pat[p.pos] >= '0' && p.pat[p.pos] <= '9' {
		n = n*10 + int(p.pat[p.pos]-'0')
		p.pos++
	}
	return n, p.pos > start
}

func (p *pparser) parseAtom() (*node, error) {
	c := p.pat[p.pos]
	switch {
	case c == '.':
		p.pos++
		return &node{op: opAny, group: p.group}, nil
	case c == '^':
		p.pos++
		return &node{op: opLineStart, group: p.group}, nil
	case c == '$':
		p.pos++
		return &node{op: opLineEnd, group: p.group}, nil
	case c == '[':
		p.pos++
		return p.parseClass()
	case c == '(' && p.dialect == Extended:
		p.pos++
		return p.parseGroup(false)
	case c == ')' && p.dialect == Extended:
		return nil, p.fail(ErrUnbalancedGroup)
	case c == '\\' && p.pos+1 < len(p.pat):
		return p.parseEscape()
	case c == '\\':
		// Trailing backslash matches itself.
		p.pos++
		return &node{op: opLiteral, ch: '\\', group: p.group}, nil
	default:
		p.pos++
		return &node{op: opLiteral, ch: c, group: p.group}, nil
	}
}

func (p *pparser) parseGroup(escaped bool) (*node, error) {
	p.groups++
	outer := p.group
	p.group = p.groups
	sub, err := p.parseAlternate()
	if err != nil {
		return nil, err
	}
	p.group = outer
	if escaped {
		if p.pos+1 >= len(p.pat) || p.pat[p.pos] != '\\' || p.pat[p.pos+1] != ')' {
			return nil, p.fail(ErrUnbalancedGroup)
		}
		p.pos += 2
	} else {
		if p.pos >= len(p.pat) || p.pat[p.pos] != ')' {
			return nil, p.fail(ErrUnbalancedGroup)
		}
		p.pos++
	}
	return sub, nil
}

func (p *pparser) parseEscape() (*node, error) {
	e := p.pat[p.pos+1]
	if p.metaEscaped(e) {
		switch e {
		case '(':
			p.pos += 2
			return p.parseGroup(true)
		case ')':
			return nil, p.fail(ErrUnbalancedGroup)
		case '{', '}', '+', '?', '|':
			// Postfix operators and intervals are consumed by
			// parseRepeat; reaching one here means it had nothing to
			// repeat.
			return nil, p.fail(ErrInvalidRange)
		}
	}
	p.pos += 2
	switch e {
	case 'd', 'w', 's', 'D', 'W', 'S':
		n := &node{op: opClass, group: p.group}
		shorthandBitmap(e, &n.bitmap, &n.negated)
		return n, nil
	case 'b':
		return &node{op: opWordBoundary, group: p.group}, nil
	}
	// Any other escape is the literal next character. Script-level
	// escapes (\n, \t) were already expanded before compilation.
	return &node{op: opLiteral, ch: e, group: p.group}, nil
}

// shorthandBitmap fills bm for one of \d \w \s and their negations.
func shorthandBitmap(e byte, bm *[8]uint32, negated *bool) {
	switch e {
	case 'D', 'W', 'S':
		*negated = true
	}
	switch e | 0x20 {
	case 'd':
		bitmapAddRange(bm, '0', '9')
	case 'w':
		bitmapAddRange(bm, '0', '9')
		bitmapAddRange(bm, 'a', 'z')
		bitmapAddRange(bm, 'A', 'Z')
		bitmapAdd(bm, '_')
	case 's':
		for _, c := range []byte{' ', '\t', '\n', '\r', '\f', '\v'} {
			bitmapAdd(bm, c)
		}
	}
}

func bitmapAdd(bm *[8]uint32, b byte) {
	bm[b>>5] |= 1 << (b & 31)
}

func bitmapAddRange(bm *[8]uint32, lo, hi byte) {
	for c := int(lo); c <= int(hi); c++ {
		bitmapAdd(bm, byte(c))
	}
}

// parseClass parses a [...] class after the opening bracket.
func (p *pparser) parseClass() (*node, error) {
	n := &node{op: opClass, group: p.group}
	if p.pos < len(p.pat) && p.pat[p.pos] == '^' {
		n.negated = true
		p.pos++
	}
	first := true
	for p.pos < len(p.pat) {
		c := p.pat[p.pos]
		if c == ']' && !first {
			p.pos++
			return n, nil
		}
		first = false
		var lo byte
		switch {
		case c == '\\' && p.pos+1 < len(p.pat):
			e := p.pat[p.pos+1]
			p.pos += 2
			switch e {
			case 'd', 'w', 's', 'D', 'W', 'S':
				if e >= 'A' && e <= 'Z' {
					// A negated shorthand inside a class cannot be
					// folded into the membership bitmap of a
					// positive class.
					return nil, p.fail(ErrInvalidRange)
				}
				var sub [8]uint32
				var neg bool
				shorthandBitmap(e, &sub, &neg)
				for i := range n.bitmap {
					n.bitmap[i] |= sub[i]
				}
				continue
			case 'n':
				lo = '\n'
			case 't':
				lo = '\t'
			default:
				lo = e
			}
		default:
			lo = c
			p.pos++
		}
		// Range?
		if p.pos+1 < len(p.pat) && p.pat[p.pos] == '-' && p.pat[p.pos+1] != ']' {
			p.pos++
			hc := p.pat[p.pos]
			var hi byte
			if hc == '\\' && p.pos+1 < len(p.pat) {
				p.pos += 2
				switch e := p.pat[p.pos-1]; e {
				case 'n':
					hi = '\n'
				case 't':
					hi = '\t'
				case 'd', 'w', 's', 'D', 'W', 'S':
					return nil, p.fail(ErrInvalidRange)
				default:
					hi = e
				}
			} else {
				hi = hc
				p.pos++
			}
			if hi < lo {
				return nil, p.fail(ErrInvalidRange)
			}
			bitmapAddRange(&n.bitmap, lo, hi)
			continue
		}
		bitmapAdd(&n.bitmap, lo)
	}
	return nil, p.fail(ErrUnbalancedClass)
}
