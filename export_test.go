package scopez

// resetDefaultForTest clears the process-wide tracer state so each test
// exercises a fresh build of the default.
func resetDefaultForTest() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultTracer = nil
	defaultHandler = nil
	defaultFactory = nil
}
