// Package random implements uniform-random eviction.
package random

import (
	"math/rand"

	"github.com/IvanBrykalov/tracesim/sim"
)

func init() {
	sim.Register("random", New)
}

// random keeps the residents in a slice with the slot index stored on the
// object, so eviction is a draw plus a swap-remove. The RNG is seeded from
// the cache options, keeping replays reproducible.
type random struct {
	c    *sim.Cache
	objs []*sim.Object
	rng  *rand.Rand
}

// New constructs the Random policy. It takes no parameters.
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	c.SetTag(sim.TagRandom)
	return &random{c: c, rng: rand.New(rand.NewSource(c.RandSeed()))}, nil
}

func (p *random) Find(req *sim.Request, update bool) *sim.Object {
	return p.c.Table.Lookup(req.ID)
}

func (p *random) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	obj.Meta.HeapIdx = int32(len(p.objs))
	p.objs = append(p.objs, obj)
	return obj
}

func (p *random) Evict(req *sim.Request) {
	if len(p.objs) == 0 {
		return
	}
	p.release(p.objs[p.rng.Intn(len(p.objs))])
}

// ToEvict has no stable answer for a random policy; peeking would either
// burn RNG state or lie about the victim.
func (p *random) ToEvict(req *sim.Request) *sim.Object { return nil }

func (p *random) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	p.release(obj)
	return true
}

func (p *random) release(obj *sim.Object) {
	i := int(obj.Meta.HeapIdx)
	last := len(p.objs) - 1
	p.objs[i] = p.objs[last]
	p.objs[i].Meta.HeapIdx = int32(i)
	p.objs[last] = nil
	p.objs = p.objs[:last]
	p.c.Release(obj)
}
