package script

import (
	"strconv"
)

// Parse parses a whole script into a command pipeline. Expressions are
// separated by newlines or semicolons; separators inside a delimited
// pattern or replacement do not split. dialect applies to every pattern in
// the script.
func Parse(src string, dialect Dialect) ([]Command, error) {
	p := &parser{src: src, dialect: dialect}
	var cmds []Command
	for {
		p.skipSeparators()
		if p.pos >= len(p.src) {
			break
		}
		start := p.pos
		cmd, err := p.parseOne()
		if err != nil {
			return nil, p.errAt(start, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// ParseExpression parses exactly one expression, as appended by -e.
func ParseExpression(expr string, dialect Dialect) (Command, error) {
	p := &parser{src: expr, dialect: dialect}
	p.skipSeparators()
	if p.pos >= len(p.src) {
		return Command{}, p.errAt(0, ErrMalformedExpression)
	}
	start := p.pos
	cmd, err := p.parseOne()
	if err != nil {
		return Command{}, p.errAt(start, err)
	}
	p.skipSeparators()
	if p.pos < len(p.src) {
		return Command{}, p.errAt(p.pos, ErrMalformedExpression)
	}
	return cmd, nil
}

type parser struct {
	src     string
	pos     int
	dialect Dialect
}

func (p *parser) errAt(start int, err error) error {
	end := start
	for end < len(p.src) && p.src[end] != '\n' {
		end++
	}
	return &ParseError{Expr: p.src[start:end], Pos: p.pos - start, Err: err}
}

func (p *parser) skipSeparators() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', ';':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() (byte, bool) {
	if p.pos < len(p.src) {
		return p.src[p.pos], true
	}
	return 0, false
}

func (p *parser) parseOne() (Command, error) {
	var cmd Command
	cmd.Dialect = p.dialect

	addr, hasAddr, err := p.parseAddress()
	if err != nil {
		return cmd, err
	}
	cmd.Addr = addr

	c, ok := p.peek()
	if !ok {
		return cmd, ErrMalformedExpression
	}

	if c == '!' && addr.Kind != AddrNone {
		cmd.Addr.Negated = true
		p.pos++
		c, ok = p.peek()
		if !ok {
			return cmd, ErrMalformedExpression
		}
	}

	switch c {
	case 's':
		p.pos++
		err = p.parseSubstitute(&cmd)
	case 'y':
		p.pos++
		err = p.parseTransliterate(&cmd)
	case '/':
		err = p.parsePatternCommand(&cmd)
	case 'd':
		p.pos++
		cmd.Kind = Delete
		if !hasAddr {
			err = ErrEmptyPatternWithNoAddress
		}
	case 'p':
		p.pos++
		cmd.Kind = Print
		if !hasAddr {
			err = ErrEmptyPatternWithNoAddress
		}
	case 'q':
		p.pos++
		cmd.Kind = Quit
	case 'a', 'b', 'c', 'g', 'h', 'i', 'l', 'n', 'r', 't', 'w', 'x', '=', '{', ':',
		'D', 'G', 'H', 'N', 'P', 'Q', 'T':
		return cmd, ErrUnsupportedCommand
	default:
		return cmd, ErrMalformedExpression
	}
	if err != nil {
		return cmd, err
	}
	if !p.atExpressionEnd() {
		return cmd, ErrMalformedExpression
	}
	return cmd, nil
}

func (p *parser) atExpressionEnd() bool {
	c, ok := p.peek()
	return !ok || c == ';' || c == '\n'
}

// parseAddress recognises the optional numeric/$ prefix. Pattern addresses
// are handled by parsePatternCommand since /PAT/ doubles as the command's
// own pattern there.
func (p *parser) parseAddress() (Address, bool, error) {
	c, ok := p.peek()
	if !ok {
		return Address{}, false, nil
	}
	switch {
	case c == '$':
		p.pos++
		if q, ok := p.peek(); ok && q == ',' {
			// $,N is descending by construction; reject.
			return Address{}, false, ErrMalformedExpression
		}
		return Address{Kind: AddrLast}, true, nil
	case c >= '0' && c <= '9':
		start := p.parseNumber()
		c, ok = p.peek()
		if !ok || c != ',' {
			return Address{Kind: AddrLine, Start: start}, true, nil
		}
		p.pos++
		c, ok = p.peek()
		if !ok {
			return Address{}, false, ErrMalformedExpression
		}
		if c == '$' {
			p.pos++
			return Address{Kind: AddrRange, Start: start, End: Last}, true, nil
		}
		if c < '0' || c > '9' {
			return Address{}, false, ErrMalformedExpression
		}
		end := p.parseNumber()
		if end < start {
			return Address{}, false, ErrMalformedExpression
		}
		return Address{Kind: AddrRange, Start: start, End: end}, true, nil
	}
	return Address{}, false, nil
}

func (p *parser) parseNumber() int {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, _ := strconv.Atoi(p.src[start:p.pos])
	return n
}

func isDelimiter(c byte) bool {
	if c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
		return false
	}
	return c != '\n'
}

func (p *parser) parseSubstitute(cmd *Command) error {
	delim, ok := p.peek()
	if !ok || !isDelimiter(delim) {
		return ErrMalformedExpression
	}
	p.pos++
	pat, closed := p.readField(delim, expandAll)
	if !closed {
		return ErrMalformedExpression
	}
	repl, closed := p.readField(delim, expandDelimOnly)
	if !closed {
		return ErrMalformedExpression
	}
	cmd.Kind = Substitute
	cmd.Pattern = pat
	cmd.Replacement = repl
	p.parseFlags(&cmd.Flags)
	if len(cmd.Pattern) == 0 && cmd.Addr.Kind == AddrNone {
		// A substitute must have something to match; an empty pattern is
		// only meaningful when an address already selects the lines.
		return ErrMalformedExpression
	}
	return nil
}

// parseFlags consumes the FLAGS field. Unknown flag characters are ignored
// for compatibility with historical scripts.
func (p *parser) parseFlags(f *Flags) {
	for {
		c, ok := p.peek()
		if !ok || c == ';' || c == '\n' {
			return
		}
		switch c {
		case 'g':
			f.Global = true
		case 'i', 'I':
			f.IgnoreCase = true
		case '1':
			f.FirstOnly = true
		}
		p.pos++
	}
}

func (p *parser) parseTransliterate(cmd *Command) error {
	delim, ok := p.peek()
	if !ok || !isDelimiter(delim) {
		return ErrMalformedExpression
	}
	p.pos++
	src, closed := p.readField(delim, expandAll)
	if !closed {
		return ErrMalformedExpression
	}
	dst, closed := p.readField(delim, expandAll)
	if !closed {
		return ErrMalformedExpression
	}
	if len(src) != len(dst) {
		return ErrMalformedTransliterate
	}
	cmd.Kind = Transliterate
	cmd.Pattern = src
	cmd.Replacement = dst
	return nil
}

// parsePatternCommand handles /PAT/d and /PAT/p: a pattern address
// followed by a one-letter command.
func (p *parser) parsePatternCommand(cmd *Command) error {
	p.pos++ // opening /
	pat, closed := p.readField('/', expandAll)
	if !closed {
		return ErrMalformedExpression
	}
	c, ok := p.peek()
	if !ok {
		return ErrMalformedExpression
	}
	if c == '!' {
		cmd.Addr.Negated = true
		p.pos++
		c, ok = p.peek()
		if !ok {
			return ErrMalformedExpression
		}
	}
	switch c {
	case 'd':
		cmd.Kind = Delete
	case 'p':
		cmd.Kind = Print
	default:
		return ErrMalformedExpression
	}
	p.pos++
	cmd.Addr.Kind = AddrPattern
	cmd.Addr.Pattern = pat
	cmd.Pattern = pat
	return nil
}

type expandMode uint8

const (
	// expandAll applies the full escape table: \n \t \\ \& and \<delim>
	// expand; any other \X pair is preserved verbatim so regex
	// meta-escapes survive.
	expandAll expandMode = iota
	// expandDelimOnly expands only \<delim>. Everything else is kept for
	// the replacement interpreter, which must see \& and \\ intact.
	expandDelimOnly
)

// readField copies bytes up to the next unescaped delim, applying the
// escape table per mode. Reports whether the delimiter was found.
func (p *parser) readField(delim byte, mode expandMode) ([]byte, bool) {
	out := make([]byte, 0, 16)
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\n' {
			return out, false
		}
		if c == delim {
			p.pos++
			return out, true
		}
		if c != '\\' || p.pos+1 >= len(p.src) {
			out = append(out, c)
			p.pos++
			continue
		}
		next := p.src[p.pos+1]
		p.pos += 2
		if next == delim {
			out = append(out, delim)
			continue
		}
		if mode == expandDelimOnly {
			out = append(out, '\\', next)
			continue
		}
		switch next {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case '\\':
			out = append(out, '\\')
		case '&':
			out = append(out, '&')
		default:
			out = append(out, '\\', next)
		}
	}
	return out, false
}
