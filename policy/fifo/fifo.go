// Package fifo implements first-in-first-out eviction.
package fifo

import "github.com/IvanBrykalov/tracesim/sim"

func init() {
	sim.Register("fifo", New)
}

// fifo inserts at the head and evicts from the tail; hits don't reorder.
type fifo struct {
	c    *sim.Cache
	list sim.List
}

// New constructs the FIFO policy. It takes no parameters.
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	c.SetTag(sim.TagFIFO)
	return &fifo{c: c}, nil
}

func (p *fifo) Find(req *sim.Request, update bool) *sim.Object {
	return p.c.Table.Lookup(req.ID)
}

func (p *fifo) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	p.list.PushHead(obj)
	return obj
}

func (p *fifo) Evict(req *sim.Request) {
	obj := p.list.PopTail()
	if obj == nil {
		return
	}
	p.c.Release(obj)
}

func (p *fifo) ToEvict(req *sim.Request) *sim.Object {
	return p.list.Tail()
}

func (p *fifo) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	p.list.Remove(obj)
	p.c.Release(obj)
	return true
}
