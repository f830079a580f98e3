package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubstitute(t *testing.T) {
	cases := []struct {
		in   string
		pat  string
		repl string
		flg  Flags
	}{
		{"s/world/universe/", "world", "universe", Flags{}},
		{"s/a/b/g", "a", "b", Flags{Global: true}},
		{"s/hello/hi/gi", "hello", "hi", Flags{Global: true, IgnoreCase: true}},
		{"s/hello/hi/I", "hello", "hi", Flags{IgnoreCase: true}},
		{"s/x/y/1", "x", "y", Flags{FirstOnly: true}},
		{"s/x/y/gZ", "x", "y", Flags{Global: true}}, // unknown flags ignored
		{"s,a/b,c,", "a/b", "c", Flags{}},
		{"s#foo#bar#", "foo", "bar", Flags{}},
		{`s/a\/b/c/`, "a/b", "c", Flags{}},    // escaped delimiter in pattern
		{`s/a\tb/c/`, "a\tb", "c", Flags{}},   // tab escape
		{`s/a\nb/c/`, "a\nb", "c", Flags{}},   // newline escape
		{`s/a\\b/c/`, `a\b`, "c", Flags{}},    // backslash escape
		{`s/a\+b/c/`, `a\+b`, "c", Flags{}},   // meta escape preserved
		{`s/x/a\/b/`, "x", "a/b", Flags{}},    // escaped delimiter in replacement
		{`s/x/a\&b/`, "x", `a\&b`, Flags{}},   // \& kept for the expander
		{`s/x/a\\b/`, "x", `a\\b`, Flags{}},   // \\ kept for the expander
		{"s/world/[&]/", "world", "[&]", Flags{}},
	}
	for _, c := range cases {
		cmds, err := Parse(c.in, Basic)
		require.NoError(t, err, "Parse(%q)", c.in)
		require.Len(t, cmds, 1)
		cmd := cmds[0]
		assert.Equal(t, Substitute, cmd.Kind, "%q", c.in)
		assert.Equal(t, c.pat, string(cmd.Pattern), "%q pattern", c.in)
		assert.Equal(t, c.repl, string(cmd.Replacement), "%q replacement", c.in)
		assert.Equal(t, c.flg, cmd.Flags, "%q flags", c.in)
	}
}

func TestParseAddresses(t *testing.T) {
	cases := []struct {
		in   string
		addr Address
		kind Kind
	}{
		{"2s/a/b/", Address{Kind: AddrLine, Start: 2}, Substitute},
		{"$s/a/b/", Address{Kind: AddrLast}, Substitute},
		{"2,4d", Address{Kind: AddrRange, Start: 2, End: 4}, Delete},
		{"3,$d", Address{Kind: AddrRange, Start: 3, End: Last}, Delete},
		{"5p", Address{Kind: AddrLine, Start: 5}, Print},
		{"$d", Address{Kind: AddrLast}, Delete},
		{"2!d", Address{Kind: AddrLine, Start: 2, Negated: true}, Delete},
		{"1,3!p", Address{Kind: AddrRange, Start: 1, End: 3, Negated: true}, Print},
		{"3q", Address{Kind: AddrLine, Start: 3}, Quit},
		{"q", Address{}, Quit},
	}
	for _, c := range cases {
		cmds, err := Parse(c.in, Basic)
		require.NoError(t, err, "Parse(%q)", c.in)
		require.Len(t, cmds, 1)
		assert.Equal(t, c.kind, cmds[0].Kind, "%q", c.in)
		assert.Equal(t, c.addr, cmds[0].Addr, "%q", c.in)
	}
}

func TestParsePatternCommand(t *testing.T) {
	cmds, err := Parse("/bar/d", Basic)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, Delete, cmds[0].Kind)
	assert.Equal(t, AddrPattern, cmds[0].Addr.Kind)
	assert.Equal(t, "bar", string(cmds[0].Addr.Pattern))

	cmds, err = Parse("/foo/p", Basic)
	require.NoError(t, err)
	assert.Equal(t, Print, cmds[0].Kind)

	cmds, err = Parse("/foo/!d", Basic)
	require.NoError(t, err)
	assert.True(t, cmds[0].Addr.Negated)
}

func TestParseTransliterate(t *testing.T) {
	cmds, err := Parse("y/abc/xyz/", Basic)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, Transliterate, cmds[0].Kind)
	assert.Equal(t, "abc", string(cmds[0].Pattern))
	assert.Equal(t, "xyz", string(cmds[0].Replacement))

	cmds, err = Parse(`y/a\n/b_/`, Basic)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(cmds[0].Pattern))
}

func TestParseMultipleExpressions(t *testing.T) {
	cmds, err := Parse("s/foo/X/;s/bar/Y/", Basic)
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "foo", string(cmds[0].Pattern))
	assert.Equal(t, "bar", string(cmds[1].Pattern))

	cmds, err = Parse("s/a/b/\n2,4d\ny/xy/YX/", Basic)
	require.NoError(t, err)
	require.Len(t, cmds, 3)

	// Separators inside a delimited field must not split.
	cmds, err = Parse("s/a;b/c/", Basic)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "a;b", string(cmds[0].Pattern))
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		in  string
		err error
	}{
		{"s/a/b", ErrMalformedExpression},      // missing closing delimiter
		{"s/a", ErrMalformedExpression},        // missing replacement
		{"s", ErrMalformedExpression},          // missing delimiter
		{"sXaXbX", ErrMalformedExpression},     // alphanumeric delimiter
		{"y/ab/xyz/", ErrMalformedTransliterate},
		{"y/abc/x/", ErrMalformedTransliterate},
		{"d", ErrEmptyPatternWithNoAddress},
		{"p", ErrEmptyPatternWithNoAddress},
		{"x", ErrUnsupportedCommand}, // hold space is out of scope
		{"h", ErrUnsupportedCommand},
		{"b", ErrUnsupportedCommand},
		{"a", ErrUnsupportedCommand},
		{"2,1d", ErrMalformedExpression}, // descending range
		{"$,3d", ErrMalformedExpression},
		{"/foo/x", ErrMalformedExpression},
		{"5", ErrMalformedExpression}, // address without command
	}
	for _, c := range cases {
		_, err := Parse(c.in, Basic)
		require.Error(t, err, "Parse(%q)", c.in)
		assert.ErrorIs(t, err, c.err, "Parse(%q)", c.in)
		var pe *ParseError
		assert.ErrorAs(t, err, &pe, "Parse(%q) should carry position info", c.in)
	}
}

func TestParseExpressionRejectsTrailing(t *testing.T) {
	_, err := ParseExpression("2d x", Basic)
	assert.ErrorIs(t, err, ErrMalformedExpression)

	cmd, err := ParseExpression("s/a/b/g", Extended)
	require.NoError(t, err)
	assert.Equal(t, Extended, cmd.Dialect)
	assert.True(t, cmd.Flags.Global)
}
