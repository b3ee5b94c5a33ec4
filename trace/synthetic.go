package trace

import (
	"io"
	"math/rand"

	"github.com/IvanBrykalov/tracesim/sim"
)

// Synthetic generates a Zipf-distributed request stream over a fixed
// keyspace with configurable object sizes. The same seed yields the same
// stream, so replays are reproducible across runs and instances.
type Synthetic struct {
	// Count is the number of requests to generate.
	Count int64
	// Keys is the keyspace size; IDs are drawn from [0, Keys).
	Keys uint64
	// ZipfS and ZipfV shape the popularity skew (s > 1).
	ZipfS float64
	ZipfV float64
	// Seed seeds the generator.
	Seed int64
	// SizeOf maps an ID to its object size. Nil means a fixed 1 KiB.
	// It must be deterministic in the ID so an object keeps one size.
	SizeOf func(id uint64) int64

	rng  *rand.Rand
	zipf *rand.Zipf
	pos  int64
}

// Defaults mirror common web-workload shapes.
const (
	DefaultZipfS   = 1.1
	DefaultZipfV   = 1.0
	defaultObjSize = 1024
)

func (g *Synthetic) init() {
	if g.rng != nil {
		return
	}
	s, v := g.ZipfS, g.ZipfV
	if s <= 1 {
		s = DefaultZipfS
	}
	if v < 1 {
		v = DefaultZipfV
	}
	keys := g.Keys
	if keys == 0 {
		keys = 1
	}
	g.rng = rand.New(rand.NewSource(g.Seed))
	g.zipf = rand.NewZipf(g.rng, s, v, keys-1)
}

// Read generates the next request.
func (g *Synthetic) Read(req *sim.Request) error {
	g.init()
	if g.pos >= g.Count {
		return io.EOF
	}
	g.pos++
	id := g.zipf.Uint64()
	size := int64(defaultObjSize)
	if g.SizeOf != nil {
		size = g.SizeOf(id)
	}
	req.Reset()
	req.ClockTime = g.pos
	req.ID = id
	req.Size = size
	req.Op = sim.OpGet
	return nil
}

// Reset rewinds the generator to replay the identical stream.
func (g *Synthetic) Reset() {
	g.rng = nil
	g.pos = 0
}

// MixedSizes returns a SizeOf that assigns smallSize to most IDs and
// largeSize to roughly one in largeEvery, deterministically by ID. Useful
// for exercising size-aware admission.
func MixedSizes(smallSize, largeSize int64, largeEvery uint64) func(id uint64) int64 {
	return func(id uint64) int64 {
		if largeEvery > 0 && id%largeEvery == 0 {
			return largeSize
		}
		return smallSize
	}
}
