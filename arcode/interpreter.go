package arcode

import (
	"math"

	"arcode/memory"
)

// Skip-count sentinels (spec.md §3).
const (
	skipAll        int32 = -3
	skipUntilEndif int32 = -2
)

type pendingKind uint8

const (
	pendingNone pendingKind = iota
	pendingFillAndSlide
	pendingMemoryCopy
)

// interpState is the per-invocation state of one Interpreter run over one
// ARCode (spec.md §3, "Interpreter state"). A fresh value is created for
// every code on every tick; nothing here survives across ticks.
type interpState struct {
	skipCount int32
	valLast   uint32
	pending   pendingKind
}

// Interpret walks code.Ops in listing order against mem and reports
// success. A code that encounters an error is left exactly as far along as
// it got — no rollback — and the caller (Executor) removes it from the
// active set.
func Interpret(code *ARCode, mem MemoryAdapter, reporter Reporter) bool {
	reporter = reporterOrDiscard(reporter)
	st := &interpState{}

	for i := 0; i < len(code.Ops); i++ {
		entry := code.Ops[i]

		// 1. Skip handling, first.
		if st.skipCount > 0 {
			st.skipCount--
			continue
		}
		if st.skipCount == skipAll {
			return true
		}
		if st.skipCount == skipUntilEndif {
			if entry == EndifMarker {
				st.skipCount = 0
			}
			continue
		}

		// 2. Pending composite handling, second.
		if st.pending == pendingFillAndSlide {
			st.pending = pendingNone
			if !fillAndSlide(st.valLast, entry, mem) {
				reporter.Report("arcode: code %q: fill-and-slide failed", code.Name)
				return false
			}
			continue
		}
		if st.pending == pendingMemoryCopy {
			st.pending = pendingNone
			if !memoryCopy(st.valLast, entry, mem) {
				reporter.Report("arcode: code %q: memory-copy failed", code.Name)
				return false
			}
			continue
		}

		decoded := Decode(entry.CmdAddr)

		// 3. Self-modification guard.
		if touchesInterpreter(decoded.GCAddr) {
			reporter.Report("arcode: code %q: instruction at %#x targets the interpreter's own code region", code.Name, decoded.EffectiveAddr)
			return false
		}

		// 4. Zero-code dispatch.
		if entry.CmdAddr == 0 {
			ok, done := dispatchZeroCode(st, entry.Value)
			if !ok {
				reporter.Report("arcode: code %q: unsupported zero-code %#x", code.Name, entry.Value>>29)
				return false
			}
			if done {
				return true
			}
			continue
		}

		// 5. Normal-code vs conditional dispatch.
		if decoded.Type == 0 {
			ok := dispatchNormal(decoded, entry.Value, mem)
			if !ok {
				reporter.Report("arcode: code %q: unsupported subtype %d at %#x", code.Name, decoded.Subtype, decoded.EffectiveAddr)
				return false
			}
			continue
		}

		dispatchConditional(st, decoded, entry.Value, mem)
	}

	return true
}

// dispatchZeroCode handles a zero-code instruction (CmdAddr == 0). It
// returns ok=false for unsupported/unknown zero-codes, and done=true when
// the code should terminate successfully (the END zero-code).
func dispatchZeroCode(st *interpState, value uint32) (ok bool, done bool) {
	switch zcode := value >> 29; zcode {
	case 0x0: // END
		return true, true
	case 0x2: // NORM: documented no-op divergence from hardware (spec.md §9)
		return true, false
	case 0x3: // ROW: not supported
		return false, false
	case 0x4: // FILL-SLIDE / MEM-COPY selector
		if (value>>25)&0x3 == 0x3 {
			st.pending = pendingMemoryCopy
		} else {
			st.pending = pendingFillAndSlide
		}
		st.valLast = value
		return true, false
	default:
		return false, false
	}
}

// dispatchNormal handles a type==0 instruction: RAM Write & Fill,
// Write-to-Pointer, Add, or the unsupported Master Code subtype.
func dispatchNormal(decoded Decoded, value uint32, mem MemoryAdapter) bool {
	switch decoded.Subtype {
	case 0:
		return ramWriteAndFill(decoded, value, mem)
	case 1:
		return writeToPointer(decoded, value, mem)
	case 2:
		return addInPlace(decoded, value, mem)
	default: // 3: Master Code, not supported
		return false
	}
}

// ramWriteAndFill implements spec.md §4.7.1.
func ramWriteAndFill(decoded Decoded, value uint32, mem MemoryAdapter) bool {
	e := decoded.EffectiveAddr
	switch decoded.Size {
	case Size8:
		repeat := value >> 8
		b := uint8(value & 0xFF)
		for i := uint32(0); i <= repeat; i++ {
			mem.WriteU8(e+i, b)
		}
	case Size16:
		repeat := value >> 16
		h := uint16(value & 0xFFFF)
		for i := uint32(0); i <= repeat; i++ {
			mem.WriteU16(e+2*i, h)
		}
	case Size32, Size32Float:
		mem.WriteU32(e, value)
	default:
		return false
	}
	return true
}

// writeToPointer implements spec.md §4.7.2. The pointer read from
// EffectiveAddr is a pointer chase (spec.md §4.2: "the caller must guard
// pointer chases with mem_check"), so the computed target is checked before
// the write is attempted.
func writeToPointer(decoded Decoded, value uint32, mem MemoryAdapter) bool {
	p := mem.ReadU32(decoded.EffectiveAddr)
	switch decoded.Size {
	case Size8:
		target := p + (value >> 8)
		if memory.MemCheck(target) {
			mem.WriteU8(target, uint8(value&0xFF))
		}
	case Size16:
		target := p + ((value >> 16) << 1)
		if memory.MemCheck(target) {
			mem.WriteU16(target, uint16(value&0xFFFF))
		}
	case Size32, Size32Float:
		if memory.MemCheck(p) {
			mem.WriteU32(p, value)
		}
	default:
		return false
	}
	return true
}

// addInPlace implements spec.md §4.7.3.
func addInPlace(decoded Decoded, value uint32, mem MemoryAdapter) bool {
	e := decoded.EffectiveAddr
	switch decoded.Size {
	case Size8:
		mem.WriteU8(e, mem.ReadU8(e)+uint8(value&0xFF))
	case Size16:
		mem.WriteU16(e, mem.ReadU16(e)+uint16(value&0xFFFF))
	case Size32:
		mem.WriteU32(e, mem.ReadU32(e)+value)
	case Size32Float:
		// spec.md §4.7.3: D is converted from its unsigned-integer value to
		// float, not bit-reinterpreted.
		sum := math.Float32frombits(mem.ReadU32(e)) + float32(value)
		mem.WriteU32(e, math.Float32bits(sum))
	default:
		return false
	}
	return true
}

// fillAndSlide implements spec.md §4.7.4. valLast is the Value word of the
// zero-code that set pendingFillAndSlide; follow is the instruction that
// consumes it.
func fillAndSlide(valLast uint32, follow AREntry, mem MemoryAdapter) bool {
	decodedLast := Decode(valLast)
	cursor := decodedLast.EffectiveAddr
	size := decodedLast.Size

	val := follow.CmdAddr
	data := follow.Value

	addrIncr := int32(int16(data & 0xFFFF))
	valIncr := int32(int8(data >> 24))
	writeNum := uint8((data >> 16) & 0xFF)

	for i := uint8(0); i < writeNum; i++ {
		switch size {
		case Size8:
			mem.WriteU8(cursor, uint8(val&0xFF))
			cursor = uint32(int64(cursor) + int64(addrIncr))
		case Size16:
			mem.WriteU16(cursor, uint16(val&0xFFFF))
			cursor = uint32(int64(cursor) + int64(addrIncr)*2)
		case Size32:
			mem.WriteU32(cursor, val)
			cursor = uint32(int64(cursor) + int64(addrIncr)*4)
		default:
			return false
		}
		val = uint32(int64(val) + int64(valIncr))
	}
	return true
}

// memoryCopy implements spec.md §4.7.5. In the pointer-indirect case, dest
// and src are themselves read as pointers from guest memory — a pointer
// chase that spec.md §4.2 requires the caller to guard with mem_check
// before trusting the result.
func memoryCopy(valLast uint32, follow AREntry, mem MemoryAdapter) bool {
	decoded := Decode(follow.CmdAddr)
	data := follow.Value

	if data&0xFF0000 != 0 {
		return false
	}

	dest := valLast &^ 0x06000000
	src := decoded.EffectiveAddr
	numBytes := data & 0x7FFF

	if data>>24 != 0 {
		dest = mem.ReadU32(dest)
		src = mem.ReadU32(src)
		if !memory.MemCheck(dest) || !memory.MemCheck(src) {
			return true
		}
	}

	for i := uint32(0); i < numBytes; i++ {
		mem.WriteU8(dest+i, mem.ReadU8(src+i))
	}
	return true
}

// dispatchConditional implements spec.md §4.7.6.
func dispatchConditional(st *interpState, decoded Decoded, value uint32, mem MemoryAdapter) {
	if conditionTrue(decoded, value, mem) {
		return
	}
	switch decoded.Subtype {
	case 0:
		st.skipCount = 1
	case 1:
		st.skipCount = 2
	case 2:
		st.skipCount = skipUntilEndif
	case 3:
		st.skipCount = skipAll
	}
}

func conditionTrue(decoded Decoded, value uint32, mem MemoryAdapter) bool {
	e := decoded.EffectiveAddr

	var operand, operandMask uint32
	switch decoded.Size {
	case Size8:
		operand, operandMask = uint32(mem.ReadU8(e)), 0xFF
	case Size16:
		operand, operandMask = uint32(mem.ReadU16(e)), 0xFFFF
	default: // Size32, Size32Float: compared as raw 32-bit
		operand, operandMask = mem.ReadU32(e), 0xFFFFFFFF
	}
	want := value & operandMask

	switch decoded.Type {
	case 1:
		return operand == want
	case 2:
		return operand != want
	case 3:
		return signedForWidth(operand, decoded.Size) < signedForWidth(want, decoded.Size)
	case 4:
		return signedForWidth(operand, decoded.Size) > signedForWidth(want, decoded.Size)
	case 5:
		return operand < want
	case 6:
		return operand > want
	case 7:
		return operand&want != 0
	default:
		return true
	}
}

// signedForWidth sign-extends v from the given width to a 32-bit signed
// value, per spec.md §4.7.6: "32-bit width always signs using the chosen
// width."
func signedForWidth(v uint32, size Size) int32 {
	switch size {
	case Size8:
		return int32(int8(v))
	case Size16:
		return int32(int16(v))
	default:
		return int32(v)
	}
}
