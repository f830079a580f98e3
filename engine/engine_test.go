package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhr3/sedge/compute"
	"github.com/mhr3/sedge/text"
)

func TestSelect(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		size    int
		isRegex bool
		device  bool
		exp     Backend
	}{
		{100, false, true, HostLiteral},
		{100, true, true, HostRegex},
		{64<<10 - 1, false, true, HostLiteral},
		{64 << 10, false, true, DeviceLiteral},
		{1 << 20, false, true, DeviceLiteral},
		{1 << 20, true, true, DeviceRegex},
		{64 << 20, true, true, DeviceRegex},
		{64<<20 + 1, true, true, HostRegex},
		{1 << 20, false, false, HostLiteral},
		{1 << 20, true, false, HostRegex},
	}
	for _, c := range cases {
		got := Select(c.size, c.isRegex, c.device, th)
		assert.Equal(t, c.exp, got, "Select(%d, regex=%v, device=%v)", c.size, c.isRegex, c.device)
	}
	// Determinism: repeated calls agree.
	for i := 0; i < 10; i++ {
		assert.Equal(t, DeviceLiteral, Select(1<<20, false, true, th))
	}
}

func TestClassifyLiteral(t *testing.T) {
	cases := []struct {
		pat      string
		extended bool
		lit      string
		anchored bool
		ok       bool
	}{
		{"world", false, "world", false, true},
		{"^world", false, "world", true, true},
		{"a+b", false, "a+b", false, true}, // + is literal in the basic dialect
		{"a+b", true, "", false, false},
		{"a.b", false, "", false, false},
		{"a*", false, "", false, false},
		{`a\+b`, false, "", false, false}, // escapes always go to the regex engine
		{"a$", false, "", false, false},
		{"[ab]", true, "", false, false},
		{"plain text", true, "plain text", false, true},
	}
	for _, c := range cases {
		lit, anchored, ok := classifyLiteral([]byte(c.pat), c.extended)
		assert.Equal(t, c.ok, ok, "classify(%q, ext=%v)", c.pat, c.extended)
		if c.ok {
			assert.Equal(t, c.lit, string(lit), "classify(%q)", c.pat)
			assert.Equal(t, c.anchored, anchored, "classify(%q)", c.pat)
		}
	}
}

func TestCompileRoutes(t *testing.T) {
	e := New(Options{})
	m, err := e.Compile(Spec{Pattern: []byte("fixed")})
	require.NoError(t, err)
	assert.False(t, m.IsRegex())

	m, err = e.Compile(Spec{Pattern: []byte("fi.ed")})
	require.NoError(t, err)
	assert.True(t, m.IsRegex())

	// Empty pattern owns the regex path (one empty match per position).
	m, err = e.Compile(Spec{Pattern: nil})
	require.NoError(t, err)
	assert.True(t, m.IsRegex())
}

func findBoth(t *testing.T, spec Spec, in string) (host, device []text.Match) {
	t.Helper()
	buf := text.NewBuffer([]byte(in))

	hm, err := New(Options{Force: ForceHost}).Compile(spec)
	require.NoError(t, err)
	host, err = hm.FindRange(buf, 0, buf.Len())
	require.NoError(t, err)

	dm, err := New(Options{Force: ForceDevice}).Compile(spec)
	require.NoError(t, err)
	device, err = dm.FindRange(buf, 0, buf.Len())
	require.NoError(t, err)
	return host, device
}

func TestHostDeviceAgree(t *testing.T) {
	in := strings.Repeat("alpha beta gamma\nBETA alpha\n", 50)
	specs := []Spec{
		{Pattern: []byte("beta"), Global: true},
		{Pattern: []byte("beta"), Global: true, Fold: true},
		{Pattern: []byte("alpha")},
		{Pattern: []byte("^alpha"), Global: true},
		{Pattern: []byte("a[lm]pha"), Extended: true, Global: true},
		{Pattern: []byte("be+ta"), Extended: true, Global: true},
	}
	for _, spec := range specs {
		host, device := findBoth(t, spec, in)
		require.Len(t, device, len(host), "spec %q", spec.Pattern)
		for i := range host {
			assert.Equal(t, host[i], device[i], "spec %q", spec.Pattern)
		}
	}
}

func TestDeviceUnavailableFallsBack(t *testing.T) {
	e := New(Options{Force: ForceDevice})
	m, err := e.Compile(Spec{Pattern: []byte("ab"), Global: true})
	require.NoError(t, err)
	m.deviceProbe = func() (compute.Backend, error) {
		return nil, compute.ErrBackendUnavailable
	}

	buf := text.NewBuffer([]byte("xxabxxab"))
	got, err := m.FindRange(buf, 0, buf.Len())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Start)
	assert.Equal(t, 6, got[1].Start)
}

func TestSaturationRetriesOnHost(t *testing.T) {
	// With a tiny result cap the device saturates; the matcher must
	// silently redo the work on the host and return every match.
	n := 3000
	in := strings.Repeat("a", n)
	e := New(Options{Force: ForceDevice, MaxMatches: 16})
	m, err := e.Compile(Spec{Pattern: []byte("a"), Global: true})
	require.NoError(t, err)

	buf := text.NewBuffer([]byte(in))
	got, err := m.FindRange(buf, 0, buf.Len())
	require.NoError(t, err)
	assert.Len(t, got, n)
}

func TestFindRangeSpans(t *testing.T) {
	in := "foo\nfoo\nfoo\n"
	e := New(Options{Force: ForceHost})
	m, err := e.Compile(Spec{Pattern: []byte("foo"), Global: true})
	require.NoError(t, err)

	buf := text.NewBuffer([]byte(in))
	got, err := m.FindRange(buf, 4, 8) // second line only
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, text.Match{Start: 4, End: 7, Line: 1}, got[0])
}
