// Package adaptsize implements the AdaptSize admission controller
// (Berger et al., NSDI'17).
//
// AdaptSize admits a missed object of size s with probability exp(-s/c)
// and periodically re-tunes the single scalar c by maximizing a
// closed-form model of the object hit rate over recently seen objects.
// The search runs in log2(c) space: a coarse scan brackets the best
// region, then a golden-section refinement narrows it.
package adaptsize

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/IvanBrykalov/tracesim/sim"
)

// Tuning constants from the original AdaptSize implementation. They are
// policy-private configuration: visible for tuning, stable in practice.
const (
	// DefaultMaxIteration bounds the golden-section refinement.
	DefaultMaxIteration = 15
	// DefaultReconfInterval is the number of accesses between
	// reconfiguration attempts.
	DefaultReconfInterval = 30000

	// ewmaDecay smooths long-term per-object statistics across
	// reconfigurations.
	ewmaDecay = 0.3
	// compactThreshold drops long-term entries whose decayed seen count
	// no longer matters.
	compactThreshold = 0.1
	// gssR is the golden ratio phi-1 used by the section search.
	gssR = 0.61803399
	// gssTol terminates the section search when the bracket collapses.
	gssTol = 3e-8
	// postponeStep delays reconfiguration when the observed bytes don't
	// yet cover the cache.
	postponeStep = 1000
)

type objStat struct {
	seen float64
	size int64
}

// AdaptSize is a sim.Admissioner. It is single-threaded, like the cache
// that owns it; Clone produces an independent copy for parallel replays.
type AdaptSize struct {
	maxIteration   int
	reconfInterval int64
	nextReconf     int64

	cacheSize int64
	statSize  int64
	cParam    float64

	interval map[uint64]objStat
	longTerm map[uint64]objStat

	// Aligned scratch vectors reused across reconfigurations.
	sizes []float64
	seens []float64
	probs []float64

	rng       *rand.Rand
	log       zerolog.Logger
	warnedNaN bool
}

// Option configures an AdaptSize instance.
type Option func(*AdaptSize)

// WithSeed seeds the admission RNG; replays with the same seed are
// reproducible.
func WithSeed(seed int64) Option {
	return func(a *AdaptSize) { a.rng = rand.New(rand.NewSource(seed)) }
}

// WithLogger routes the once-only NaN warning and reconfigure debug lines.
func WithLogger(log zerolog.Logger) Option {
	return func(a *AdaptSize) { a.log = log }
}

// New constructs an AdaptSize admissioner for a cache of the given byte
// capacity. Recognized parameters: max-iteration (default 15),
// reconf-interval (default 30000).
func New(cacheSize int64, params string, opts ...Option) (*AdaptSize, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err("max-iteration", "reconf-interval"); err != nil {
		return nil, err
	}
	maxIter, err := p.Int("max-iteration", DefaultMaxIteration)
	if err != nil {
		return nil, err
	}
	interval, err := p.Int("reconf-interval", DefaultReconfInterval)
	if err != nil {
		return nil, err
	}
	if maxIter < 1 {
		return nil, fmt.Errorf("adaptsize: max-iteration must be >= 1, got %d", maxIter)
	}
	if interval < 1 {
		return nil, fmt.Errorf("adaptsize: reconf-interval must be >= 1, got %d", interval)
	}
	a := &AdaptSize{
		maxIteration:   int(maxIter),
		reconfInterval: interval,
		nextReconf:     interval,
		cacheSize:      cacheSize,
		cParam:         1 << 15,
		interval:       make(map[uint64]objStat),
		longTerm:       make(map[uint64]objStat),
		rng:            rand.New(rand.NewSource(1)),
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// CParam returns the current admission parameter c.
func (a *AdaptSize) CParam() float64 { return a.cParam }

// StatSize returns the running sum of distinct observed object sizes.
func (a *AdaptSize) StatSize() int64 { return a.statSize }

// Update feeds one access into the per-interval statistics, possibly
// triggering a reconfiguration first. It is the only mutator.
func (a *AdaptSize) Update(req *sim.Request, cacheSize int64) {
	a.cacheSize = cacheSize
	a.nextReconf--
	if a.nextReconf <= 0 {
		a.reconfigure()
	}

	it, inInterval := a.interval[req.ID]
	lt, inLongTerm := a.longTerm[req.ID]
	switch {
	case !inInterval && !inLongTerm:
		a.statSize += req.Size
	case inInterval && it.size != req.Size:
		a.statSize += req.Size - it.size
	case !inInterval && lt.size != req.Size:
		a.statSize += req.Size - lt.size
	}
	it.seen++
	it.size = req.Size
	a.interval[req.ID] = it
}

// Admit draws against exp(-size/c).
func (a *AdaptSize) Admit(req *sim.Request) bool {
	return a.rng.Float64() < math.Exp(-float64(req.Size)/a.cParam)
}

// Clone returns an independent deep copy; the copy's RNG is reseeded from
// the parent so the two never produce the same draw sequence.
func (a *AdaptSize) Clone() sim.Admissioner {
	cp := &AdaptSize{
		maxIteration:   a.maxIteration,
		reconfInterval: a.reconfInterval,
		nextReconf:     a.nextReconf,
		cacheSize:      a.cacheSize,
		statSize:       a.statSize,
		cParam:         a.cParam,
		interval:       make(map[uint64]objStat, len(a.interval)),
		longTerm:       make(map[uint64]objStat, len(a.longTerm)),
		rng:            rand.New(rand.NewSource(a.rng.Int63())),
		log:            a.log,
		warnedNaN:      a.warnedNaN,
	}
	for id, st := range a.interval {
		cp.interval[id] = st
	}
	for id, st := range a.longTerm {
		cp.longTerm[id] = st
	}
	return cp
}

// reconfigure merges the interval statistics into the long-term map,
// compacts it, and re-optimizes c. It never fails destructively: the
// worst case leaves cParam unchanged.
func (a *AdaptSize) reconfigure() {
	if a.statSize <= 3*a.cacheSize {
		// Not enough observed bytes to model the cache; try again soon.
		a.nextReconf += postponeStep
		return
	}
	a.nextReconf = a.reconfInterval

	for id, st := range a.longTerm {
		st.seen *= ewmaDecay
		a.longTerm[id] = st
	}
	for id, st := range a.interval {
		lt := a.longTerm[id]
		lt.seen += (1 - ewmaDecay) * st.seen
		lt.size = st.size
		a.longTerm[id] = lt
	}
	clear(a.interval)

	a.sizes = a.sizes[:0]
	a.seens = a.seens[:0]
	for id, st := range a.longTerm {
		if st.seen < compactThreshold {
			a.statSize -= st.size
			delete(a.longTerm, id)
			continue
		}
		a.sizes = append(a.sizes, float64(st.size))
		a.seens = append(a.seens, st.seen)
	}
	if len(a.sizes) == 0 {
		return
	}

	// Coarse scan over log2(c): stride 4 starting at 2.
	bestX := -1.0
	bestHR := 0.0
	for x := 2.0; x < math.Log2(float64(a.cacheSize)); x += 4 {
		hr := a.modelHitRate(x)
		if !math.IsNaN(hr) && hr > bestHR {
			bestHR = hr
			bestX = x
		}
	}
	if bestX < 0 {
		a.warnNaN()
		return
	}

	// Golden-section refinement around the best coarse point.
	x0, x3 := bestX-4, bestX+4
	var x1, x2 float64
	v := 1 - gssR
	if math.Abs(x3-bestX) > math.Abs(bestX-x0) {
		x1 = bestX
		x2 = bestX + v*(x3-bestX)
	} else {
		x2 = bestX
		x1 = bestX - v*(bestX-x0)
	}
	f1 := a.modelHitRate(x1)
	f2 := a.modelHitRate(x2)
	for i := 0; i < a.maxIteration && math.Abs(x3-x0) > gssTol*(math.Abs(x1)+math.Abs(x2)); i++ {
		if math.IsNaN(f1) || math.IsNaN(f2) {
			a.warnNaN()
			return
		}
		if f2 > f1 {
			x0, x1 = x1, x2
			x2 = gssR*x1 + v*x3
			f1 = f2
			f2 = a.modelHitRate(x2)
		} else {
			x3, x2 = x2, x1
			x1 = gssR*x2 + v*x0
			f2 = f1
			f1 = a.modelHitRate(x1)
		}
	}
	if math.IsNaN(f1) || math.IsNaN(f2) {
		a.warnNaN()
		return
	}
	x := x1
	if f2 > f1 {
		x = x2
	}
	a.cParam = math.Pow(2, x)
	a.log.Debug().
		Float64("c", a.cParam).
		Float64("log2c", x).
		Int("population", len(a.sizes)).
		Msg("adaptsize reconfigured")
}

func (a *AdaptSize) warnNaN() {
	if a.warnedNaN {
		return
	}
	a.warnedNaN = true
	a.log.Warn().Msg("adaptsize: hit-rate model returned NaN; keeping previous c")
}

var _ sim.Admissioner = (*AdaptSize)(nil)
