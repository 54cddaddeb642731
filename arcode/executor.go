package arcode

// run walks the active list of s once, invoking the Interpreter on each
// code and retiring the ones that return failure, preserving the relative
// order of survivors. Called with s.mu already held by RunAllActive.
//
// This is the Executor of spec.md §4.6; it is kept in its own file to mark
// it as a distinct component from the Code Store it operates on, even
// though spec.md frames RunAllActive itself as the Executor's entry point.
func run(s *Store, mem MemoryAdapter) {
	reporter := reporterOrDiscard(s.Reporter)

	survivors := s.active[:0]
	for _, code := range s.active {
		ok := Interpret(code, mem, reporter)
		if ok {
			survivors = append(survivors, code)
			s.appendLog("ran code: " + code.Name)
			continue
		}
		s.logFailure(code)
	}
	s.active = survivors
}
