// Package script parses stream-editor expressions into typed commands.
//
// A script is one or more expressions separated by newlines or semicolons.
// Each expression is an optional address prefix followed by one command:
// s<D>PAT<D>REPL<D>FLAGS, y<D>SRC<D>DST<D>, /PAT/d, /PAT/p, or a bare d, p
// or q acting on the addressed lines.
package script

// Kind identifies what a command does to its addressed lines.
type Kind uint8

const (
	Substitute Kind = iota
	Delete
	Print
	Transliterate
	Quit
)

func (k Kind) String() string {
	switch k {
	case Substitute:
		return "s"
	case Delete:
		return "d"
	case Print:
		return "p"
	case Transliterate:
		return "y"
	case Quit:
		return "q"
	}
	return "?"
}

// Dialect selects how a command's pattern bytes are interpreted.
type Dialect uint8

const (
	// Basic is the POSIX basic regex dialect: +?|(){} are literal unless
	// backslash-escaped.
	Basic Dialect = iota
	// Extended is the POSIX extended dialect: +?|(){} are meta unless
	// backslash-escaped.
	Extended
)

// Flags carries the substitution modifiers parsed from the FLAGS field.
type Flags struct {
	Global      bool // g: every non-overlapping match on the line
	IgnoreCase  bool // i or I: ASCII case-insensitive
	FirstOnly   bool // 1: at most one match per line, overrides Global
	AnchorStart bool // line-start anchoring; Parse never sets it (the engine reads a leading ^ from the pattern)
}

// AddrKind discriminates Address.
type AddrKind uint8

const (
	AddrNone    AddrKind = iota // every line
	AddrLine                    // one line
	AddrRange                   // inclusive range, possibly ending at Last
	AddrLast                    // $
	AddrPattern                 // lines where Pattern matches
)

// Last is the sentinel line number for $ inside a range.
const Last = -1

// Address restricts a command to a subset of lines. Line numbers are
// 1-based, as written in the script. Negated inverts the addressed set.
type Address struct {
	Kind    AddrKind
	Start   int // AddrLine, AddrRange
	End     int // AddrRange; Last for an open range
	Pattern []byte
	Negated bool
}

// Command is one parsed expression. Pattern and Replacement are owned by
// the Command; the parser never aliases them into the script text.
//
// Delete, Print and Quit ignore Replacement. Transliterate ignores Flags
// and carries the two equal-length mapping strings in Pattern (source) and
// Replacement (destination). Replacement bytes still contain the
// mini-language escapes (&, \&, \n, ...); they are interpreted at
// execution time, not at parse time.
type Command struct {
	Kind        Kind
	Addr        Address
	Pattern     []byte
	Replacement []byte
	Dialect     Dialect
	Flags       Flags
}
