package regex

// Options selects the dialect and global modifiers for one compilation.
type Options struct {
	Dialect Dialect
	Fold    bool // ASCII case-insensitive
}

// Compile parses pattern and lowers it to a Thompson NFA. The pattern
// bytes are expected post script-escape expansion: \n and \t are real
// bytes, while dialect meta-escapes like \+ are still two characters.
func Compile(pattern []byte, opts Options) (*NFA, error) {
	p := &pparser{pat: pattern, dialect: opts.Dialect}
	ast, err := p.parseAlternate()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.pat) {
		// Only an unmatched group close can stop the parser early.
		return nil, p.fail(ErrUnbalancedGroup)
	}

	c := &compiler{
		nfa: &NFA{
			Source:        string(pattern),
			Fold:          opts.Fold,
			AnchoredStart: leadingAnchor(ast),
			AnchoredEnd:   trailingAnchor(ast),
		},
		pattern: pattern,
	}
	f, err := c.compile(ast)
	if err != nil {
		return nil, err
	}
	accept, err := c.add(State{Kind: KindAccept, Out: None, Out1: None})
	if err != nil {
		return nil, err
	}
	c.patch(f.out, accept)
	c.nfa.Start = f.start
	if opts.Fold {
		for i := range c.nfa.States {
			switch c.nfa.States[i].Kind {
			case KindLiteral, KindClass:
				c.nfa.States[i].Fold = true
			}
		}
	}
	return c.nfa, nil
}

func leadingAnchor(n *node) bool {
	switch n.op {
	case opLineStart:
		return true
	case opConcat:
		return leadingAnchor(n.subs[0])
	case opAlternate:
		for _, s := range n.subs {
			if !leadingAnchor(s) {
				return false
			}
		}
		return true
	}
	return false
}

func trailingAnchor(n *node) bool {
	switch n.op {
	case opLineEnd:
		return true
	case opConcat:
		return trailingAnchor(n.subs[len(n.subs)-1])
	case opAlternate:
		for _, s := range n.subs {
			if !trailingAnchor(s) {
				return false
			}
		}
		return true
	}
	return false
}

// patchRef names one dangling edge: edge 0 is State.Out, edge 1 is
// State.Out1.
type patchRef struct {
	s    uint16
	edge uint8
}

// frag is a partially built automaton: an entry state and the dangling
// edges that the next fragment (or the accept state) will receive.
type frag struct {
	start uint16
	out   []patchRef
}

type compiler struct {
	nfa     *NFA
	pattern []byte
}

func (c *compiler) add(st State) (uint16, error) {
	if len(c.nfa.States) >= MaxStates {
		return 0, &CompileError{Pattern: string(c.pattern), Err: ErrStateLimit}
	}
	c.nfa.States = append(c.nfa.States, st)
	return uint16(len(c.nfa.States) - 1), nil
}

func (c *compiler) patch(out []patchRef, to uint16) {
	for _, ref := range out {
		if ref.edge == 0 {
			c.nfa.States[ref.s].Out = to
		} else {
			c.nfa.States[ref.s].Out1 = to
		}
	}
}

func (c *compiler) compile(n *node) (frag, error) {
	switch n.op {
	case opEmpty:
		s, err := c.add(State{Kind: KindSplit, Out: None, Out1: None, Group: n.group})
		if err != nil {
			return frag{}, err
		}
		return frag{start: s, out: []patchRef{{s, 0}}}, nil

	case opLiteral:
		s, err := c.add(State{Kind: KindLiteral, Byte: n.ch, Out: None, Out1: None, Group: n.group})
		if err != nil {
			return frag{}, err
		}
		return frag{start: s, out: []patchRef{{s, 0}}}, nil

	case opAny:
		s, err := c.add(State{Kind: KindAny, Out: None, Out1: None, Group: n.group})
		if err != nil {
			return frag{}, err
		}
		return frag{start: s, out: []patchRef{{s, 0}}}, nil

	case opClass:
		off := len(c.nfa.Bitmaps)
		c.nfa.Bitmaps = append(c.nfa.Bitmaps, n.bitmap[:]...)
		s, err := c.add(State{
			Kind:      KindClass,
			Negated:   n.negated,
			BitmapOff: uint16(off),
			Out:       None,
			Out1:      None,
			Group:     n.group,
		})
		if err != nil {
			return frag{}, err
		}
		return frag{start: s, out: []patchRef{{s, 0}}}, nil

	case opLineStart, opLineEnd, opWordBoundary:
		kind := KindLineStart
		switch n.op {
		case opLineEnd:
			kind = KindLineEnd
		case opWordBoundary:
			kind = KindWordBoundary
		}
		s, err := c.add(State{Kind: kind, Out: None, Out1: None, Group: n.group})
		if err != nil {
			return frag{}, err
		}
		return frag{start: s, out: []patchRef{{s, 0}}}, nil

	case opConcat:
		f, err := c.compile(n.subs[0])
		if err != nil {
			return frag{}, err
		}
		for _, sub := range n.subs[1:] {
			g, err := c.compile(sub)
			if err != nil {
				return frag{}, err
			}
			c.patch(f.out, g.start)
			f = frag{start: f.start, out: g.out}
		}
		return f, nil

	case opAlternate:
		f, err := c.compile(n.subs[0])
		if err != nil {
			return frag{}, err
		}
		for _, sub := range n.subs[1:] {
			g, err := c.compile(sub)
			if err != nil {
				return frag{}, err
			}
			s, err := c.add(State{Kind: KindSplit, Out: f.start, Out1: g.start, Group: n.group})
			if err != nil {
				return frag{}, err
			}
			f = frag{start: s, out: append(f.out, g.out...)}
		}
		return f, nil

	case opStar:
		g, err := c.compile(n.sub)
		if err != nil {
			return frag{}, err
		}
		s, err := c.add(State{Kind: KindSplit, Out: g.start, Out1: None, Group: n.group})
		if err != nil {
			return frag{}, err
		}
		c.patch(g.out, s)
		return frag{start: s, out: []patchRef{{s, 1}}}, nil

	case opPlus:
		g, err := c.compile(n.sub)
		if err != nil {
			return frag{}, err
		}
		s, err := c.add(State{Kind: KindSplit, Out: g.start, Out1: None, Group: n.group})
		if err != nil {
			return frag{}, err
		}
		c.patch(g.out, s)
		return frag{start: g.start, out: []patchRef{{s, 1}}}, nil

	case opQuest:
		g, err := c.compile(n.sub)
		if err != nil {
			return frag{}, err
		}
		s, err := c.add(State{Kind: KindSplit, Out: g.start, Out1: None, Group: n.group})
		if err != nil {
			return frag{}, err
		}
		return frag{start: s, out: append(g.out, patchRef{s, 1})}, nil

	case opRepeat:
		return c.compileRepeat(n)
	}
	panic("regex: unknown ast op")
}

// compileRepeat expands {n}, {n,} and {n,m} structurally: n mandatory
// copies, then a star for an open bound or max-n optional copies.
func (c *compiler) compileRepeat(n *node) (frag, error) {
	var f frag
	have := false
	appendFrag := func(g frag) {
		if !have {
			f = g
			have = true
			return
		}
		c.patch(f.out, g.start)
		f = frag{start: f.start, out: g.out}
	}

	for i := 0; i < n.min; i++ {
		g, err := c.compile(n.sub)
		if err != nil {
			return frag{}, err
		}
		appendFrag(g)
	}
	switch {
	case n.max == -1:
		g, err := c.compile(&node{op: opStar, sub: n.sub, group: n.group})
		if err != nil {
			return frag{}, err
		}
		appendFrag(g)
	default:
		for i := n.min; i < n.max; i++ {
			g, err := c.compile(&node{op: opQuest, sub: n.sub, group: n.group})
			if err != nil {
				return frag{}, err
			}
			appendFrag(g)
		}
	}
	if !have {
		// {0} matches the empty string.
		return c.compile(&node{op: opEmpty, group: n.group})
	}
	return f, nil
}
