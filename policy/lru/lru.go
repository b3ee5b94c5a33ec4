// Package lru implements the Least-Recently-Used eviction policy.
package lru

import "github.com/IvanBrykalov/tracesim/sim"

func init() {
	sim.Register("lru", New)
}

// lru keeps one list: head is most recent, tail is the victim.
type lru struct {
	c    *sim.Cache
	list sim.List
}

// New constructs the LRU policy. It takes no parameters.
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	c.SetTag(sim.TagLRU)
	return &lru{c: c}, nil
}

func (p *lru) Find(req *sim.Request, update bool) *sim.Object {
	obj := p.c.Table.Lookup(req.ID)
	if obj == nil {
		return nil
	}
	if update {
		p.list.MoveToHead(obj)
	}
	return obj
}

func (p *lru) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	p.list.PushHead(obj)
	return obj
}

func (p *lru) Evict(req *sim.Request) {
	obj := p.list.PopTail()
	if obj == nil {
		return
	}
	p.c.Release(obj)
}

func (p *lru) ToEvict(req *sim.Request) *sim.Object {
	return p.list.Tail()
}

func (p *lru) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	p.list.Remove(obj)
	p.c.Release(obj)
	return true
}
