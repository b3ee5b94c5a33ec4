package sim

import "fmt"

// assertf aborts with a message when a core invariant is violated.
// It compiles away entirely unless the simdebug build tag is set;
// release builds keep running on the (undefined) corrupt state.
func assertf(cond bool, format string, args ...any) {
	if debugAsserts && !cond {
		panic("sim: " + fmt.Sprintf(format, args...))
	}
}
