// Package threshold implements the simplest useful admission controller:
// admit objects up to a fixed size cutoff, drop everything larger.
package threshold

import (
	"fmt"

	"github.com/IvanBrykalov/tracesim/sim"
)

// Threshold is a stateless sim.Admissioner.
type Threshold struct {
	limit int64
}

// New constructs a size-threshold admissioner.
// Recognized parameters: size (cutoff in bytes, required).
func New(params string) (*Threshold, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err("size"); err != nil {
		return nil, err
	}
	limit, err := p.Int("size", 0)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("threshold: size must be > 0, got %d", limit)
	}
	return &Threshold{limit: limit}, nil
}

// Update is a no-op; the threshold keeps no statistics.
func (t *Threshold) Update(*sim.Request, int64) {}

// Admit accepts objects at or below the cutoff.
func (t *Threshold) Admit(req *sim.Request) bool { return req.Size <= t.limit }

// Clone returns the receiver: a Threshold is immutable.
func (t *Threshold) Clone() sim.Admissioner { return t }

var _ sim.Admissioner = (*Threshold)(nil)
