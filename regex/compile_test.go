package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		pat     string
		dialect Dialect
		err     error
	}{
		{"(ab", Extended, ErrUnbalancedGroup},
		{"ab)", Extended, ErrUnbalancedGroup},
		{"a(b(c)", Extended, ErrUnbalancedGroup},
		{`\(ab`, Basic, ErrUnbalancedGroup},
		{"[abc", Extended, ErrUnbalancedClass},
		{"[", Extended, ErrUnbalancedClass},
		{"[z-a]", Extended, ErrInvalidRange},
		{"a{3,2}", Extended, ErrInvalidRange},
		{"a{2", Extended, ErrInvalidRange},
		{`a\{2,1\}`, Basic, ErrInvalidRange},
	}
	for _, c := range cases {
		_, err := Compile([]byte(c.pat), Options{Dialect: c.dialect})
		require.Error(t, err, "Compile(%q)", c.pat)
		assert.ErrorIs(t, err, c.err, "Compile(%q)", c.pat)
		var ce *CompileError
		assert.ErrorAs(t, err, &ce, "Compile(%q)", c.pat)
	}
}

func TestStateLimit(t *testing.T) {
	// A long mandatory repetition inflates the arena past 256 states.
	pat := "(abcdefgh){40}"
	_, err := Compile([]byte(pat), Options{Dialect: Extended})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStateLimit)

	// A shorter repetition (161 states) stays under the limit and compiles.
	small, err := Compile([]byte("(abcdefgh){20}"), Options{Dialect: Extended})
	require.NoError(t, err)
	assert.LessOrEqual(t, small.NumStates(), MaxStates)
}

func TestCompileFlags(t *testing.T) {
	nfa, err := Compile([]byte("^foo$"), Options{Dialect: Extended})
	require.NoError(t, err)
	assert.True(t, nfa.AnchoredStart)
	assert.True(t, nfa.AnchoredEnd)

	nfa, err = Compile([]byte("foo"), Options{Dialect: Extended})
	require.NoError(t, err)
	assert.False(t, nfa.AnchoredStart)
	assert.False(t, nfa.AnchoredEnd)

	// All alternation branches must be anchored for the global flag.
	nfa, err = Compile([]byte("^a|^b"), Options{Dialect: Extended})
	require.NoError(t, err)
	assert.True(t, nfa.AnchoredStart)

	nfa, err = Compile([]byte("^a|b"), Options{Dialect: Extended})
	require.NoError(t, err)
	assert.False(t, nfa.AnchoredStart)

	nfa, err = Compile([]byte("ab"), Options{Dialect: Extended, Fold: true})
	require.NoError(t, err)
	assert.True(t, nfa.Fold)
	for _, st := range nfa.States {
		if st.Kind == KindLiteral {
			assert.True(t, st.Fold)
		}
	}
}

func TestClassBitmaps(t *testing.T) {
	nfa, err := Compile([]byte("[a-c]"), Options{Dialect: Extended})
	require.NoError(t, err)
	require.Len(t, nfa.Bitmaps, 8)

	var class *State
	for i := range nfa.States {
		if nfa.States[i].Kind == KindClass {
			class = &nfa.States[i]
			break
		}
	}
	require.NotNil(t, class)
	for b := 0; b < 256; b++ {
		in := nfa.ClassContains(class, byte(b))
		exp := b >= 'a' && b <= 'c'
		assert.Equal(t, exp, in, "class membership of %q", byte(b))
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	pats := []string{
		"abc",
		"a(b|c)*d",
		"[a-f0-9]{2,4}",
		`\d+\s\w+`,
		"^start.*end$",
		`\bword\b`,
		"[^xyz]+",
	}
	for _, pat := range pats {
		nfa, err := Compile([]byte(pat), Options{Dialect: Extended, Fold: pat[0] == '['})
		require.NoError(t, err, "Compile(%q)", pat)

		enc := nfa.Encode()
		assert.Equal(t, uint32(nfa.NumStates()), enc.NumStates, "%q", pat)
		assert.Len(t, enc.States, nfa.NumStates()*WordsPerState, "%q", pat)

		dec := enc.Decode()
		assert.Equal(t, nfa.States, dec.States, "%q: states must round-trip", pat)
		assert.Equal(t, nfa.Start, dec.Start, "%q", pat)
		assert.Equal(t, nfa.AnchoredStart, dec.AnchoredStart, "%q", pat)
		assert.Equal(t, nfa.AnchoredEnd, dec.AnchoredEnd, "%q", pat)
		assert.Equal(t, nfa.Fold, dec.Fold, "%q", pat)

		// Determinism: encoding twice yields identical words.
		assert.Equal(t, enc.States, nfa.Encode().States, "%q", pat)
	}
}

func TestEdgeSentinel(t *testing.T) {
	nfa, err := Compile([]byte("a"), Options{Dialect: Extended})
	require.NoError(t, err)
	for _, st := range nfa.States {
		if st.Kind == KindAccept {
			assert.Equal(t, uint16(None), st.Out)
			assert.Equal(t, uint16(None), st.Out1)
		}
	}
}
