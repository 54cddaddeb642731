// Package memory implements the Guest Memory Adapter: a flat, byte-addressed
// view over the console's cached main-RAM window that the interpreter reads
// and writes through. It is the sole runtime dependency of the interpreter
// package.
package memory

import "encoding/binary"

// Base is the cached-RAM base address; all effective addresses produced by
// the address decoder fall at or above this.
const Base = 0x80000000

// Size is the width of the main RAM window (24 MiB).
const Size = 0x01800000

// End is the address one past the last byte of the window.
const End = Base + Size

// Bus is a flat, big-endian-addressed guest memory window. The zero value
// is a ready-to-use, zeroed 24 MiB window.
//
// Unlike hejops-gone's mem.Bus (a 64 kB array covering the CPU's entire
// address space with byte-only access), Bus models only the window the
// interpreter is allowed to touch, and out-of-window accesses are silent
// rather than a panic or an out-of-bounds array index: the adapter must
// never fault, per the interpreter's contract with its caller.
type Bus struct {
	ram [Size]byte
}

// New returns a freshly zeroed Bus.
func New() *Bus {
	return &Bus{}
}

// MemCheck reports whether addr falls inside the main RAM window.
func MemCheck(addr uint32) bool {
	return addr >= Base && addr < End
}

func (b *Bus) index(addr uint32) (int, bool) {
	if !MemCheck(addr) {
		return 0, false
	}
	return int(addr - Base), true
}

// ReadU8 reads one byte at addr. Out-of-window reads return 0.
func (b *Bus) ReadU8(addr uint32) uint8 {
	i, ok := b.index(addr)
	if !ok {
		return 0
	}
	return b.ram[i]
}

// ReadU16 reads a big-endian half-word at addr. Out-of-window reads return 0.
func (b *Bus) ReadU16(addr uint32) uint16 {
	i, ok := b.index(addr)
	if !ok || i+2 > Size {
		return 0
	}
	return binary.BigEndian.Uint16(b.ram[i : i+2])
}

// ReadU32 reads a big-endian word at addr. Out-of-window reads return 0.
func (b *Bus) ReadU32(addr uint32) uint32 {
	i, ok := b.index(addr)
	if !ok || i+4 > Size {
		return 0
	}
	return binary.BigEndian.Uint32(b.ram[i : i+4])
}

// ReadInstruction reads the 32-bit command word at addr. It is identical to
// ReadU32; the distinct name documents intent at call sites that read a
// packed address/opcode word rather than plain data.
func (b *Bus) ReadInstruction(addr uint32) uint32 {
	return b.ReadU32(addr)
}

// WriteU8 writes one byte at addr. Out-of-window writes are silently
// dropped; the caller must guard pointer chases with MemCheck.
func (b *Bus) WriteU8(addr uint32, v uint8) {
	i, ok := b.index(addr)
	if !ok {
		return
	}
	b.ram[i] = v
}

// WriteU16 writes a big-endian half-word at addr. Out-of-window writes are
// silently dropped.
func (b *Bus) WriteU16(addr uint32, v uint16) {
	i, ok := b.index(addr)
	if !ok || i+2 > Size {
		return
	}
	binary.BigEndian.PutUint16(b.ram[i:i+2], v)
}

// WriteU32 writes a big-endian word at addr. Out-of-window writes are
// silently dropped.
func (b *Bus) WriteU32(addr uint32, v uint32) {
	i, ok := b.index(addr)
	if !ok || i+4 > Size {
		return
	}
	binary.BigEndian.PutUint32(b.ram[i:i+4], v)
}
