// Package trace defines the request-iterator contract between trace
// sources and the simulator, plus synthetic workload generators. Parsing
// of on-disk trace formats belongs to callers.
package trace

import (
	"io"

	"github.com/IvanBrykalov/tracesim/sim"
)

// Reader yields decoded requests one at a time. Read fills req in place
// (the same request is reused across calls) and returns io.EOF when the
// trace is drained.
type Reader interface {
	Read(req *sim.Request) error
}

// Slice replays an in-memory request sequence. Used by tests and by
// callers that pre-decode small traces.
type Slice struct {
	Requests []sim.Request
	pos      int
}

// NewSlice wraps a pre-decoded request sequence.
func NewSlice(reqs []sim.Request) *Slice {
	return &Slice{Requests: reqs}
}

// Read copies the next request into req.
func (s *Slice) Read(req *sim.Request) error {
	if s.pos >= len(s.Requests) {
		return io.EOF
	}
	*req = s.Requests[s.pos]
	s.pos++
	return nil
}

// Reset rewinds the slice so it can be replayed again.
func (s *Slice) Reset() { s.pos = 0 }

// AnnotateNextAccess fills each request's NextAccessVTime with the index
// of the ID's next occurrence (-1 when it never recurs). Oracle policies
// need this; online policies ignore it. The pass is O(n) backwards.
func AnnotateNextAccess(reqs []sim.Request) {
	next := make(map[uint64]int64, len(reqs))
	for i := len(reqs) - 1; i >= 0; i-- {
		id := reqs[i].ID
		if n, ok := next[id]; ok {
			reqs[i].NextAccessVTime = n
		} else {
			reqs[i].NextAccessVTime = -1
		}
		next[id] = int64(i)
	}
}
