package vector

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
)

func randBytes(r *rand.Rand, n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(r.Intn(256))
	}
	return data
}

func TestEqual16(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		a := randBytes(r, 16)
		b := append([]byte(nil), a...)
		if !Equal16(a, b) {
			t.Fatalf("Equal16(%q, %q) = false; want true", a, b)
		}
		idx := r.Intn(16)
		b[idx] ^= 1 << uint(r.Intn(8))
		if b[idx] != a[idx] && Equal16(a, b) {
			t.Fatalf("Equal16(%q, %q) = true after flipping byte %d", a, b, idx)
		}
	}
}

func TestEqualFold16(t *testing.T) {
	cases := []struct {
		a, b string
		exp  bool
	}{
		{"0123456789abcdef", "0123456789ABCDEF", true},
		{"0123456789abcdef", "0123456789abcdef", true},
		{"ABCDEFGHIJKLMNOP", "abcdefghijklmnop", true},
		{"ABCDEFGHIJKLMNO@", "abcdefghijklmno`", false}, // @ and ` differ by 0x20 but are not letters
		{"[\\]^_ abcdefghij", "{|}~\x7f abcdefghij", false},
		{"0123456789abcdex", "0123456789abcdey", false},
	}
	for _, c := range cases {
		if got := EqualFold16([]byte(c.a), []byte(c.b)); got != c.exp {
			t.Errorf("EqualFold16(%q, %q) = %v; want %v", c.a, c.b, got, c.exp)
		}
	}

	// Randomized cross-check against strings.EqualFold, which agrees with
	// ASCII-only folding on ASCII inputs.
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 2000; i++ {
		a := make([]byte, 16)
		b := make([]byte, 16)
		for j := range a {
			a[j] = byte(r.Intn(128))
			b[j] = byte(r.Intn(128))
			if r.Intn(2) == 0 {
				b[j] = a[j]
			}
		}
		exp := strings.EqualFold(string(a), string(b))
		if got := EqualFold16(a, b); got != exp {
			t.Fatalf("EqualFold16(%q, %q) = %v; want %v", a, b, got, exp)
		}
	}
}

func TestEqualFold16HighBytes(t *testing.T) {
	// Bytes above 0x7F never fold.
	a := bytes.Repeat([]byte{0xC1}, 16)
	b := bytes.Repeat([]byte{0xE1}, 16)
	if EqualFold16(a, b) {
		t.Fatal("EqualFold16 folded non-ASCII bytes")
	}
	if !EqualFold16(a, a) {
		t.Fatal("EqualFold16 rejected identical non-ASCII bytes")
	}
}

func TestCountByte(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for _, n := range []int{0, 1, 7, 8, 31, 32, 33, 63, 64, 100, 4096} {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(r.Intn(4)) // dense newline population
		}
		for c := byte(0); c < 4; c++ {
			exp := bytes.Count(data, []byte{c})
			if got := CountByte(data, c); got != exp {
				t.Fatalf("CountByte(len=%d, %d) = %d; want %d", n, c, got, exp)
			}
		}
	}
}

func TestIndexByte(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for i := 0; i < 500; i++ {
		n := r.Intn(200)
		data := randBytes(r, n)
		c := byte(r.Intn(256))
		if got, exp := IndexByte(data, c), bytes.IndexByte(data, c); got != exp {
			t.Fatalf("IndexByte(%q, %d) = %d; want %d", data, c, got, exp)
		}
	}
}
