package regex

// Device encoding: the NFA flattened to three arrays a kernel can index
// with no pointer chasing. Produced purely on the host; the same tables
// drive every backend.
//
// Each state packs into three little-endian words:
//
//	word0: kind(8) | flags(8) | out(16)
//	word1: out1(16) | literal byte(8) | group(8)
//	word2: bitmap word offset(32)
//
// Absent edges carry the sentinel 0xFFFF. Flag bits within a state word:
// bit0 case-fold, bit1 negated class.

// Header flag bits.
const (
	EncAnchoredStart = 1 << 0
	EncAnchoredEnd   = 1 << 1
	EncFold          = 1 << 2
)

// Per-state flag bits.
const (
	encStateFold    = 1 << 0
	encStateNegated = 1 << 1
)

// WordsPerState is the fixed encoding width of one state.
const WordsPerState = 3

// Encoding is the device-consumable form of one NFA. Bitmaps aliases the
// NFA's bank; States is freshly built and owned by the Encoding.
type Encoding struct {
	States  []uint32 // NumStates * WordsPerState
	Bitmaps []uint32 // 8 words per class

	NumStates uint32
	Start     uint32
	Flags     uint32
}

// Encode flattens the NFA. The result is deterministic: same NFA, same
// words.
func (n *NFA) Encode() *Encoding {
	e := &Encoding{
		States:    make([]uint32, 0, len(n.States)*WordsPerState),
		Bitmaps:   n.Bitmaps,
		NumStates: uint32(len(n.States)),
		Start:     uint32(n.Start),
	}
	if n.AnchoredStart {
		e.Flags |= EncAnchoredStart
	}
	if n.AnchoredEnd {
		e.Flags |= EncAnchoredEnd
	}
	if n.Fold {
		e.Flags |= EncFold
	}
	for i := range n.States {
		st := &n.States[i]
		var flags uint32
		if st.Fold {
			flags |= encStateFold
		}
		if st.Negated {
			flags |= encStateNegated
		}
		w0 := uint32(st.Kind) | flags<<8 | uint32(st.Out)<<16
		w1 := uint32(st.Out1) | uint32(st.Byte)<<16 | uint32(st.Group)<<24
		w2 := uint32(st.BitmapOff)
		e.States = append(e.States, w0, w1, w2)
	}
	return e
}

// Decode rebuilds an NFA from its encoding. Tests use it to prove the
// encoding is lossless; the device backend reads the packed words
// directly and does not call it.
func (e *Encoding) Decode() *NFA {
	n := &NFA{
		States:        make([]State, e.NumStates),
		Bitmaps:       e.Bitmaps,
		Start:         uint16(e.Start),
		AnchoredStart: e.Flags&EncAnchoredStart != 0,
		AnchoredEnd:   e.Flags&EncAnchoredEnd != 0,
		Fold:          e.Flags&EncFold != 0,
	}
	for i := range n.States {
		w0 := e.States[i*WordsPerState]
		w1 := e.States[i*WordsPerState+1]
		w2 := e.States[i*WordsPerState+2]
		n.States[i] = State{
			Kind:      StateKind(w0 & 0xFF),
			Fold:      w0>>8&encStateFold != 0,
			Negated:   w0>>8&encStateNegated != 0,
			Out:       uint16(w0 >> 16),
			Out1:      uint16(w1 & 0xFFFF),
			Byte:      byte(w1 >> 16),
			Group:     uint8(w1 >> 24),
			BitmapOff: uint16(w2),
		}
	}
	return n
}
