package compute

import (
	"github.com/mhr3/sedge/regex"
)

// The thread procedures. Each runs entirely on its dispatch buffer set;
// the only cross-thread communication is the two atomic counters.

// literalThread verifies its chunk of candidate positions byte-by-byte.
// Line numbers are written as zero and reconstructed by the post-pass.
func literalThread(d *dispatchBuffers, cfg *Config, pattern []byte, tid, chunk int) {
	n := d.textLen
	m := len(pattern)
	fold := cfg.Flags&CfgFold != 0

	pos := tid * chunk
	end := pos + chunk
	if last := n - m + 1; end > last {
		end = last
	}
	for ; pos < end; pos++ {
		if literalMatchAt(d.textBuf, pos, pattern, fold) {
			d.emit(Record{Start: uint32(pos), End: uint32(pos + m)}, cfg.MaxMatches)
		}
	}
}

func literalMatchAt(data []byte, pos int, pattern []byte, fold bool) bool {
	for i, pc := range pattern {
		b := data[pos+i]
		if b == pc {
			continue
		}
		if fold && foldByte(b) == foldByte(pc) {
			continue
		}
		return false
	}
	return true
}

func foldByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 0x20
	}
	return b
}

// regexThread walks one line with the flattened NFA, emitting matches at
// absolute offsets. The walk is bounded by the line length; global mode
// continues past each match, advancing at least one byte on a zero-length
// match.
func regexThread(d *dispatchBuffers, cfg *Config, sim *encodedSim, tid int) {
	lo := int(d.lineOff[tid])
	hi := lo + int(d.lineLen[tid])
	data := d.textBuf[:d.textLen]
	global := cfg.Flags&CfgGlobal != 0 && cfg.Flags&CfgFirstOnly == 0

	pos := lo
	lastEnd := -1
	for pos <= hi {
		s, e, ok := sim.find(data, pos, hi)
		if !ok {
			break
		}
		if s == e && s == lastEnd {
			// Empty match flush against the previous one: skip, matching
			// the host policy.
			pos = s + 1
			continue
		}
		d.emit(Record{Start: uint32(s), End: uint32(e), Line: uint32(tid)}, cfg.MaxMatches)
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

// encodedSim simulates the device encoding directly from its packed
// words. It deliberately shares no code with regex.Matcher: the two
// implementations check each other through the equivalence tests.
type encodedSim struct {
	enc    *regex.Encoding
	accept uint16
	cur    encSet
	next   encSet
}

type encSet struct {
	dense []uint16
	start []int32 // seed position per state, -1 when absent
}

func newEncSet(n int) encSet {
	s := encSet{dense: make([]uint16, 0, n), start: make([]int32, n)}
	for i := range s.start {
		s.start[i] = -1
	}
	return s
}

func (s *encSet) clear() {
	for _, st := range s.dense {
		s.start[st] = -1
	}
	s.dense = s.dense[:0]
}

func newEncodedSim(enc *regex.Encoding) *encodedSim {
	sim := &encodedSim{
		enc:    enc,
		accept: uint16(regex.None),
		cur:    newEncSet(int(enc.NumStates)),
		next:   newEncSet(int(enc.NumStates)),
	}
	for i := uint32(0); i < enc.NumStates; i++ {
		if byte(enc.States[i*regex.WordsPerState]) == byte(regex.KindAccept) {
			sim.accept = uint16(i)
			break
		}
	}
	return sim
}

type encState struct {
	kind  byte
	fold  bool
	neg   bool
	out   uint16
	out1  uint16
	lit   byte
	bmOff uint32
}

func (sim *encodedSim) state(i uint16) encState {
	w0 := sim.enc.States[int(i)*regex.WordsPerState]
	w1 := sim.enc.States[int(i)*regex.WordsPerState+1]
	w2 := sim.enc.States[int(i)*regex.WordsPerState+2]
	return encState{
		kind:  byte(w0),
		fold:  w0>>8&1 != 0,
		neg:   w0>>9&1 != 0,
		out:   uint16(w0 >> 16),
		out1:  uint16(w1),
		lit:   byte(w1 >> 16),
		bmOff: w2,
	}
}

func (sim *encodedSim) classHas(st encState, b byte) bool {
	has := func(c byte) bool {
		w := sim.enc.Bitmaps[st.bmOff+uint32(c>>5)]
		return w&(1<<(c&31)) != 0
	}
	in := has(b)
	if !in && st.fold {
		if alt := swapCase(b); alt != b {
			in = has(alt)
		}
	}
	return in != st.neg
}

func swapCase(b byte) byte {
	switch {
	case b >= 'a' && b <= 'z':
		return b - 0x20
	case b >= 'A' && b <= 'Z':
		return b + 0x20
	}
	return b
}

// find returns the leftmost-longest match in data[pos:hi).
func (sim *encodedSim) find(data []byte, pos, hi int) (int, int, bool) {
	sim.cur.clear()
	sim.next.clear()
	anchored := sim.enc.Flags&regex.EncAnchoredStart != 0

	bestStart, bestEnd := -1, -1
	for p := pos; ; p++ {
		if bestStart == -1 && (p == hi || !anchored || p == 0 || data[p-1] == '\n') {
			sim.insert(&sim.cur, uint16(sim.enc.Start), int32(p), data, p)
		}
		if sim.accept != uint16(regex.None) {
			if s := sim.cur.start[sim.accept]; s != -1 {
				if bestStart == -1 || int(s) < bestStart {
					bestStart, bestEnd = int(s), p
				} else if int(s) == bestStart && p > bestEnd {
					bestEnd = p
				}
			}
		}
		if p == hi {
			break
		}
		if bestStart != -1 {
			kept := sim.cur.dense[:0]
			for _, si := range sim.cur.dense {
				if int(sim.cur.start[si]) <= bestStart {
					kept = append(kept, si)
				} else {
					sim.cur.start[si] = -1
				}
			}
			sim.cur.dense = kept
		}
		if len(sim.cur.dense) == 0 && bestStart != -1 {
			break
		}
		b := data[p]
		for _, si := range sim.cur.dense {
			st := sim.state(si)
			ok := false
			switch regex.StateKind(st.kind) {
			case regex.KindLiteral:
				ok = b == st.lit || st.fold && swapCase(b) == st.lit
			case regex.KindAny:
				ok = b != '\n'
			case regex.KindClass:
				ok = sim.classHas(st, b)
			}
			if ok {
				sim.insert(&sim.next, st.out, sim.cur.start[si], data, p+1)
			}
		}
		sim.cur, sim.next = sim.next, sim.cur
		sim.next.clear()
	}
	if bestStart == -1 {
		return 0, 0, false
	}
	return bestStart, bestEnd, true
}

// insert adds a thread and its epsilon closure.
func (sim *encodedSim) insert(set *encSet, si uint16, start int32, data []byte, pos int) {
	if si == uint16(regex.None) {
		return
	}
	var stack [2 * regex.MaxStates]uint16
	sp := 0
	stack[sp] = si
	sp++
	for sp > 0 {
		sp--
		s := stack[sp]
		if s == uint16(regex.None) {
			continue
		}
		if old := set.start[s]; old != -1 && old <= start {
			continue
		}
		if set.start[s] == -1 {
			set.dense = append(set.dense, s)
		}
		set.start[s] = start

		st := sim.state(s)
		switch regex.StateKind(st.kind) {
		case regex.KindSplit:
			stack[sp] = st.out1
			sp++
			stack[sp] = st.out
			sp++
		case regex.KindLineStart:
			if pos == 0 || data[pos-1] == '\n' {
				stack[sp] = st.out
				sp++
			}
		case regex.KindLineEnd:
			if pos == len(data) || data[pos] == '\n' {
				stack[sp] = st.out
				sp++
			}
		case regex.KindWordBoundary:
			var prev, cur bool
			if pos > 0 {
				prev = wordByte(data[pos-1])
			}
			if pos < len(data) {
				cur = wordByte(data[pos])
			}
			if prev != cur {
				stack[sp] = st.out
				sp++
			}
		}
	}
}

func wordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
