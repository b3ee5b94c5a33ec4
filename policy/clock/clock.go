// Package clock implements CLOCK (second-chance FIFO) eviction.
package clock

import "github.com/IvanBrykalov/tracesim/sim"

func init() {
	sim.Register("clock", New)
}

// clock is a FIFO list with a reference bit. A hit sets the bit; eviction
// examines the tail, rotating referenced objects back to the head with the
// bit cleared.
type clock struct {
	c    *sim.Cache
	list sim.List
}

// New constructs the CLOCK policy. It takes no parameters.
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	c.SetTag(sim.TagClock)
	return &clock{c: c}, nil
}

func (p *clock) Find(req *sim.Request, update bool) *sim.Object {
	obj := p.c.Table.Lookup(req.ID)
	if obj == nil {
		return nil
	}
	if update {
		obj.Meta.Visited = true
	}
	return obj
}

func (p *clock) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	obj.Meta.Visited = false
	p.list.PushHead(obj)
	return obj
}

func (p *clock) Evict(req *sim.Request) {
	for {
		obj := p.list.Tail()
		if obj == nil {
			return
		}
		if !obj.Meta.Visited {
			p.list.Remove(obj)
			p.c.Release(obj)
			return
		}
		obj.Meta.Visited = false
		p.list.MoveToHead(obj)
	}
}

// ToEvict peeks without rotating: the first unreferenced object from the
// tail, or the tail itself when every object is referenced (one full
// rotation would clear them all and come back around to it).
func (p *clock) ToEvict(req *sim.Request) *sim.Object {
	for obj := p.list.Tail(); obj != nil; obj = obj.Prev() {
		if !obj.Meta.Visited {
			return obj
		}
	}
	return p.list.Tail()
}

func (p *clock) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	p.list.Remove(obj)
	p.c.Release(obj)
	return true
}
