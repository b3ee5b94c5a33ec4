// Package slru implements Segmented LRU.
//
// The cache is split into n LRU segments with equal byte budgets. New
// objects enter the lowest (probationary) segment; a hit promotes one
// segment up, and overflowing segments demote their tails downward. The
// victim is the tail of the lowest non-empty segment.
package slru

import (
	"fmt"

	"github.com/IvanBrykalov/tracesim/sim"
)

func init() {
	sim.Register("slru", New)
}

// DefaultSegments matches the common 4-segment configuration.
const DefaultSegments = 4

type slru struct {
	c      *sim.Cache
	segs   []sim.List
	budget int64 // per-segment byte budget
}

// New constructs the SLRU policy.
// Recognized parameters: n-seg (segment count, default 4).
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err("n-seg"); err != nil {
		return nil, err
	}
	nseg, err := p.Int("n-seg", DefaultSegments)
	if err != nil {
		return nil, err
	}
	if nseg < 1 {
		return nil, fmt.Errorf("n-seg must be >= 1, got %d", nseg)
	}
	c.SetTag(sim.TagSLRU)
	return &slru{
		c:      c,
		segs:   make([]sim.List, nseg),
		budget: c.Capacity / nseg,
	}, nil
}

func (p *slru) seg(obj *sim.Object) int { return int(obj.Meta.ListID) - 1 }

func (p *slru) Find(req *sim.Request, update bool) *sim.Object {
	obj := p.c.Table.Lookup(req.ID)
	if obj == nil {
		return nil
	}
	if update {
		i := p.seg(obj)
		if i < len(p.segs)-1 {
			p.segs[i].Remove(obj)
			p.segs[i+1].PushHead(obj)
			obj.Meta.ListID = uint8(i + 2)
			p.cascade(i + 1)
		} else {
			p.segs[i].MoveToHead(obj)
		}
	}
	return obj
}

// cascade demotes tails of over-budget segments down to the probationary
// segment. Segment 0 never demotes; the capacity loop evicts from it.
func (p *slru) cascade(from int) {
	for i := from; i > 0; i-- {
		for p.segs[i].Bytes() > p.budget {
			obj := p.segs[i].PopTail()
			if obj == nil {
				break
			}
			p.segs[i-1].PushHead(obj)
			obj.Meta.ListID = uint8(i)
		}
	}
}

func (p *slru) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	obj.Meta.ListID = 1
	p.segs[0].PushHead(obj)
	return obj
}

func (p *slru) Evict(req *sim.Request) {
	for i := range p.segs {
		if obj := p.segs[i].PopTail(); obj != nil {
			p.c.Release(obj)
			return
		}
	}
}

func (p *slru) ToEvict(req *sim.Request) *sim.Object {
	for i := range p.segs {
		if obj := p.segs[i].Tail(); obj != nil {
			return obj
		}
	}
	return nil
}

func (p *slru) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	p.segs[p.seg(obj)].Remove(obj)
	p.c.Release(obj)
	return true
}
