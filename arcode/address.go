package arcode

import "arcode/bits"

// Size selects the data width of a normal-code operation.
type Size uint8

const (
	Size8 Size = iota
	Size16
	Size32
	Size32Float
)

// Decoded is the address decoder's output: the raw word plus every field
// extracted from it. Equality against a known instruction (such as the
// endif marker) must always be done against the raw (CmdAddr, Value) pair,
// never against these decoded fields, which describe CmdAddr alone and say
// nothing about Value.
type Decoded struct {
	Raw           uint32
	GCAddr        uint32 // bits 0..24, before the cached-RAM OR
	Size          Size   // bits 25..26
	Type          uint8  // bits 27..29: 0 = normal write family, 1..7 = conditional
	Subtype       uint8  // bits 30..31
	EffectiveAddr uint32 // GCAddr | 0x80000000
}

// cachedBase is the console's cached-RAM OR bit applied to gcaddr to form
// an effective address.
const cachedBase = 0x80000000

// selfModStart and selfModEnd bound the interpreter's own code region; any
// instruction targeting this span is refused (spec.md §4.7, "Self-modification guard").
const (
	selfModStart = 0x00002000
	selfModEnd   = 0x00003000
)

// Decode interprets word as a packed command/address word. It is a pure
// function used both to decode an instruction's CmdAddr and, in
// fill-and-slide, to re-decode a zero-code's Value field, since both follow
// the same bitfield layout.
func Decode(word uint32) Decoded {
	gcaddr := bits.Extract(word, 0, 24)
	return Decoded{
		Raw:           word,
		GCAddr:        gcaddr,
		Size:          Size(bits.Extract(word, 25, 26)),
		Type:          uint8(bits.Extract(word, 27, 29)),
		Subtype:       uint8(bits.Extract(word, 30, 31)),
		EffectiveAddr: gcaddr | cachedBase,
	}
}

// touchesInterpreter reports whether gcaddr falls inside the self-modification
// guard band.
func touchesInterpreter(gcaddr uint32) bool {
	return gcaddr >= selfModStart && gcaddr < selfModEnd
}

// EndifMarker is the literal instruction that terminates a
// skip-until-endif region. Comparison must be against the raw CmdAddr and
// Value, never decoded fields.
var EndifMarker = AREntry{CmdAddr: 0x00000000, Value: 0x40000000}
