// Package arc implements the Adaptive Replacement Cache
// (Megiddo & Modha, FAST'03), with byte-based accounting.
//
// Four lists: T1/T2 hold resident objects touched once/repeatedly, B1/B2
// are their ghost shadows. A hit in a ghost list shifts the adaptation
// target p toward the list that would have kept the object.
package arc

import (
	"github.com/IvanBrykalov/tracesim/sim"
)

func init() {
	sim.Register("arc", New)
}

// List identifiers stored in Meta.ListID; the ghost flag distinguishes
// T1 from B1 and T2 from B2.
const (
	listRecency   uint8 = 1 // T1 / B1
	listFrequency uint8 = 2 // T2 / B2
)

type arc struct {
	c  *sim.Cache
	t1 sim.List
	t2 sim.List
	b1 sim.List
	b2 sim.List

	// p is the byte target for |T1|, adapted on ghost hits.
	p float64

	// ghostHit routes the pending insert to T2.
	ghostHit bool
	// inB2 distinguishes which ghost list fired for Replace's tie-break.
	inB2 bool
}

// New constructs the ARC policy.
// Recognized parameters: p (initial T1 byte target, default 0).
func New(c *sim.Cache, params string) (sim.Policy, error) {
	pr, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := pr.Err("p"); err != nil {
		return nil, err
	}
	p0, err := pr.Float("p", 0)
	if err != nil {
		return nil, err
	}
	c.SetTag(sim.TagARC)
	return &arc{c: c, p: clamp(p0, 0, float64(c.Capacity))}, nil
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func ratioDelta(num, den int64) float64 {
	if den <= 0 || num/den < 1 {
		return 1
	}
	return float64(num / den)
}

func (p *arc) Find(req *sim.Request, update bool) *sim.Object {
	if update {
		// Per-request routing state; stale values from a denied insert
		// must not survive into this request.
		p.ghostHit = false
		p.inB2 = false
	}
	obj := p.c.Table.Lookup(req.ID)
	if obj == nil {
		return nil
	}
	if !obj.Meta.Ghost {
		if update {
			// Any hit promotes to the frequency list's MRU end.
			switch obj.Meta.ListID {
			case listRecency:
				p.t1.Remove(obj)
				obj.Meta.ListID = listFrequency
				p.t2.PushHead(obj)
			default:
				p.t2.MoveToHead(obj)
			}
		}
		return obj
	}
	if update {
		if obj.Meta.ListID == listRecency {
			// B1 hit: recency was undervalued, grow p.
			p.p = clamp(p.p+ratioDelta(p.b2.Bytes(), p.b1.Bytes()), 0, float64(p.c.Capacity))
			p.b1.Remove(obj)
			p.inB2 = false
		} else {
			// B2 hit: frequency was undervalued, shrink p.
			p.p = clamp(p.p-ratioDelta(p.b1.Bytes(), p.b2.Bytes()), 0, float64(p.c.Capacity))
			p.b2.Remove(obj)
			p.inB2 = true
		}
		p.c.DropGhost(obj)
		p.ghostHit = true
	}
	return nil
}

func (p *arc) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	if p.ghostHit {
		obj.Meta.ListID = listFrequency
		p.t2.PushHead(obj)
	} else {
		obj.Meta.ListID = listRecency
		p.t1.PushHead(obj)
	}
	p.ghostHit = false
	p.inB2 = false
	p.trimGhosts()
	return obj
}

// Evict runs ARC's Replace: demote from T1 when it exceeds the target p
// (ties biased toward T1 on a B2 hit), otherwise from T2. The victim
// becomes a ghost at its shadow list's MRU end.
func (p *arc) Evict(req *sim.Request) {
	fromT1 := p.t1.Len() > 0 &&
		(float64(p.t1.Bytes()) > p.p ||
			(p.inB2 && float64(p.t1.Bytes()) == p.p) ||
			p.t2.Len() == 0)
	if fromT1 {
		obj := p.t1.PopTail()
		p.c.Ghostify(obj)
		p.b1.PushHead(obj)
	} else {
		obj := p.t2.PopTail()
		if obj == nil {
			return
		}
		p.c.Ghostify(obj)
		p.b2.PushHead(obj)
	}
}

// trimGhosts restores |T1|+|B1| <= c and |T1|+|T2|+|B1|+|B2| <= 2c.
func (p *arc) trimGhosts() {
	capacity := p.c.Capacity
	for p.t1.Bytes()+p.b1.Bytes() > capacity && p.b1.Len() > 0 {
		obj := p.b1.PopTail()
		p.c.DropGhost(obj)
	}
	for p.t1.Bytes()+p.t2.Bytes()+p.b1.Bytes()+p.b2.Bytes() > 2*capacity && p.b2.Len() > 0 {
		obj := p.b2.PopTail()
		p.c.DropGhost(obj)
	}
}

func (p *arc) ToEvict(req *sim.Request) *sim.Object {
	if p.t1.Len() > 0 && (float64(p.t1.Bytes()) > p.p || p.t2.Len() == 0) {
		return p.t1.Tail()
	}
	return p.t2.Tail()
}

func (p *arc) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	if obj.Meta.Ghost {
		if obj.Meta.ListID == listRecency {
			p.b1.Remove(obj)
		} else {
			p.b2.Remove(obj)
		}
		p.c.DropGhost(obj)
		return true
	}
	if obj.Meta.ListID == listRecency {
		p.t1.Remove(obj)
	} else {
		p.t2.Remove(obj)
	}
	p.c.Release(obj)
	return true
}
