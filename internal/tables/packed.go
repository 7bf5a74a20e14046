package tables

import "github.com/streamlex/streamlex/internal/grammar"

// PackedUTF is the wire representation of a Unary Transition Function
// reference: the low 15 bits hold the UTF's id in the Merge table,
// the high bit records whether applying it from the start state emits
// a token. Bit layout follows the same "stash metadata in the spare
// high bits of a fixed-width int" idiom used for transition encoding
// throughout this pack.
type PackedUTF uint16

const utfEmitBit = 1 << 15
const utfIDMask = utfEmitBit - 1

// PackUTFID packs a UTF id with no emit bit set; used for CharToFunc
// entries, where emit-ness is looked up separately per UTF via
// EmitOnStart rather than stored redundantly here.
func PackUTFID(id uint32) PackedUTF {
	return PackedUTF(id & utfIDMask)
}

// ID extracts the UTF id.
func (p PackedUTF) ID() uint32 { return uint32(p) & utfIDMask }

// WithEmit returns a copy of p with the emit bit set to emit.
func (p PackedUTF) WithEmit(emit bool) PackedUTF {
	if emit {
		return p | utfEmitBit
	}
	return p &^ utfEmitBit
}

// Emit reports whether the emit bit is set.
func (p PackedUTF) Emit() bool { return p&utfEmitBit != 0 }

// NextEmitEntry is the wire representation of one (state, byte) cell
// of the raw per-step DFA transition table: 15 bits of destination
// state, 1 emit bit, 8 reserved bits, and 8 bits of token kind.
type NextEmitEntry uint32

const (
	neStateMask = 0x7FFF
	neEmitBit   = 1 << 15
	neKindShift = 24
)

// PackNextEmit packs one raw DFA transition cell.
func PackNextEmit(state uint16, emit bool, kind grammar.Kind) NextEmitEntry {
	v := NextEmitEntry(state) & neStateMask
	if emit {
		v |= neEmitBit
	}
	v |= NextEmitEntry(kind) << neKindShift
	return v
}

// State extracts the destination DFA state.
func (n NextEmitEntry) State() uint16 { return uint16(n & neStateMask) }

// Emit reports whether taking this transition ends a token.
func (n NextEmitEntry) Emit() bool { return n&neEmitBit != 0 }

// Kind extracts the token kind, valid only when Emit is true.
func (n NextEmitEntry) Kind() grammar.Kind { return grammar.Kind(n >> neKindShift) }
