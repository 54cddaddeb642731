package arcode

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
)

// Store is the process-wide set of currently active codes, plus the
// mutation discipline spec.md §4.5/§5 require: a mutex around every
// mutating operation (ApplyCodes, AddCode, RunAllActive, the self-log
// accessors), and two flags read without that lock (useInternalLog and
// CheatsEnabled) since a stale read of either is acceptable.
//
// Grounded on hejops-gone's single owned Cpu/Bus pair, generalized per
// spec.md §9's design note into one object the enclosing process holds
// exactly one instance of.
type Store struct {
	mu     sync.Mutex
	active []*ARCode
	log    []string

	useInternalLog  atomic.Bool
	cheatsEnabled   atomic.Bool
	suppressLogging bool

	Reporter Reporter
}

// New returns a Store with cheats enabled and self-logging off, matching a
// freshly booted emulator.
func New() *Store {
	s := &Store{}
	s.cheatsEnabled.Store(true)
	return s
}

// SetCheatsEnabled flips the global feature gate (spec.md §4.5/§6): while
// disabled, every mutating operation and RunAllActive is a no-op.
func (s *Store) SetCheatsEnabled(v bool) { s.cheatsEnabled.Store(v) }

// CheatsEnabled reports the current gate value. Read lock-free, matching
// spec.md §5's "read without locking" guarantee for this flag.
func (s *Store) CheatsEnabled() bool { return s.cheatsEnabled.Load() }

// EnableSelfLogging turns the in-process trace buffer on or off.
func (s *Store) EnableSelfLogging(v bool) { s.useInternalLog.Store(v) }

// selfLoggingEnabled is read lock-free, matching spec.md §5's
// "s_use_internal_log is a relaxed atomic flag" guarantee.
func (s *Store) selfLoggingEnabled() bool { return s.useInternalLog.Load() }

// ApplyCodes replaces the active set with every code in list whose Active
// flag is set, preserving order (spec.md §4.5: "filter-copy, preserve
// order").
func (s *Store) ApplyCodes(list []*ARCode) {
	if !s.CheatsEnabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]*ARCode, 0, len(list))
	for _, c := range list {
		if c.Active {
			active = append(active, c)
		}
	}
	s.active = active
	s.suppressLogging = false
}

// AddCode appends code to the active set if it is active.
func (s *Store) AddCode(code *ARCode) {
	if !s.CheatsEnabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if code.Active {
		s.active = append(s.active, code)
	}
}

// Active returns a snapshot of the currently active codes.
func (s *Store) Active() []*ARCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ARCode, len(s.active))
	copy(out, s.active)
	return out
}

// appendLog records line in the self-log buffer if self-logging is on and
// logging hasn't been latched off since the last ApplyCodes (spec.md §4.6
// step 4).
func (s *Store) appendLog(line string) {
	if !s.selfLoggingEnabled() || s.suppressLogging {
		return
	}
	s.log = append(s.log, line)
}

// logFailure appends a spew-dumped detail line for a code removed during a
// tick, wiring the teacher's debug-dump library into the self-log
// (DESIGN.md: go-spew, domain stack).
func (s *Store) logFailure(code *ARCode) {
	if !s.selfLoggingEnabled() || s.suppressLogging {
		return
	}
	var b strings.Builder
	b.WriteString("removed failing code: ")
	b.WriteString(code.Name)
	b.WriteString("\n")
	b.WriteString(spew.Sdump(code))
	s.log = append(s.log, b.String())
}

// SelfLog returns a copy of the current self-log buffer.
func (s *Store) SelfLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.log))
	copy(out, s.log)
	return out
}

// ClearSelfLog empties the self-log buffer.
func (s *Store) ClearSelfLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
}

// MemoryAdapter is the Guest Memory Adapter surface the interpreter
// requires (spec.md §4.2, §6: "the sole external dependency of the
// interpreter"). memory.Bus satisfies it.
type MemoryAdapter interface {
	ReadU8(addr uint32) uint8
	ReadU16(addr uint32) uint16
	ReadU32(addr uint32) uint32
	ReadInstruction(addr uint32) uint32
	WriteU8(addr uint32, v uint8)
	WriteU16(addr uint32, v uint16)
	WriteU32(addr uint32, v uint32)
}

// RunAllActive is the per-tick entry point (spec.md §4.5, §4.6): under the
// store lock, it runs every active code through the Interpreter and
// retires the ones that fail, preserving the relative order of survivors,
// then latches logging off until the next ApplyCodes.
func (s *Store) RunAllActive(mem MemoryAdapter) {
	if !s.CheatsEnabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	run(s, mem)
	s.suppressLogging = true
}
