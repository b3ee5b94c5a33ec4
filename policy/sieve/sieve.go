// Package sieve implements the SIEVE eviction policy.
//
// SIEVE is a single FIFO-ordered list with a visited bit and a moving hand.
// Unlike CLOCK, survivors are not rotated: the hand walks from tail toward
// head clearing visited bits and evicts in place, so retained objects keep
// their position while newcomers are examined quickly.
package sieve

import "github.com/IvanBrykalov/tracesim/sim"

func init() {
	sim.Register("sieve", New)
}

type sieve struct {
	c    *sim.Cache
	list sim.List
	hand *sim.Object
}

// New constructs the SIEVE policy. It takes no parameters.
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	c.SetTag(sim.TagSieve)
	return &sieve{c: c}, nil
}

func (p *sieve) Find(req *sim.Request, update bool) *sim.Object {
	obj := p.c.Table.Lookup(req.ID)
	if obj == nil {
		return nil
	}
	if update {
		obj.Meta.Visited = true
	}
	return obj
}

func (p *sieve) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	obj.Meta.Visited = false
	p.list.PushHead(obj)
	return obj
}

func (p *sieve) Evict(req *sim.Request) {
	obj := p.hand
	if obj == nil {
		obj = p.list.Tail()
	}
	for obj != nil && obj.Meta.Visited {
		obj.Meta.Visited = false
		obj = obj.Prev()
		if obj == nil {
			obj = p.list.Tail()
		}
	}
	if obj == nil {
		return
	}
	p.hand = obj.Prev()
	p.list.Remove(obj)
	p.c.Release(obj)
}

func (p *sieve) ToEvict(req *sim.Request) *sim.Object {
	obj := p.hand
	if obj == nil {
		obj = p.list.Tail()
	}
	for obj != nil && obj.Meta.Visited {
		obj = obj.Prev()
	}
	if obj == nil {
		// Wrap once from the tail.
		for obj = p.list.Tail(); obj != nil && obj.Meta.Visited; obj = obj.Prev() {
		}
	}
	return obj
}

func (p *sieve) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	if p.hand == obj {
		p.hand = obj.Prev()
	}
	p.list.Remove(obj)
	p.c.Release(obj)
	return true
}
