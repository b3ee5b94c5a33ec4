// Package car implements CAR, CLOCK with Adaptive Replacement
// (Bansal & Modha, FAST'04), with byte-based accounting.
//
// CAR fuses CLOCK's second-chance scanning with ARC's adaptation. Two
// clock lists hold residents, T1 (recency) and T2 (frequency), shadowed
// by ghost lists B1 and B2. Lists grow at the tail; the clock hand is the
// head. A hit only sets the object's reference bit, so the hot path never
// relinks; adaptation happens on ghost hits, which move the byte target p
// for |T1|.
package car

import (
	"github.com/IvanBrykalov/tracesim/sim"
)

func init() {
	sim.Register("car", New)
}

// List identifiers stored in Meta.ListID; the ghost flag distinguishes
// T1 from B1 and T2 from B2.
const (
	listRecency   uint8 = 1 // T1 / B1
	listFrequency uint8 = 2 // T2 / B2
)

type car struct {
	c  *sim.Cache
	t1 sim.List
	t2 sim.List
	b1 sim.List
	b2 sim.List

	// p is the byte target for |T1|, bounded to [0, capacity]. Stored as
	// float64 for fractional adjustments; comparisons use max(1, floor(p)).
	p float64

	// ghostHit marks that the current request hit B1 or B2: the pending
	// insert goes to T2 and the post-Replace ghost trim is skipped.
	ghostHit bool
}

// New constructs the CAR policy.
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
	c.SetTag(sim.TagCAR)
	return &car{c: c, p: clamp(p0, 0, float64(c.Capacity))}, nil
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

// ratioDelta is the adaptation step max(1, num/den) in bytes.
func ratioDelta(num, den int64) float64 {
	if den <= 0 || num/den < 1 {
		return 1
	}
	return float64(num / den)
}

// target is the integer form of p used against list sizes: max(1, floor(p)).
// Comparing the float directly oscillates near the boundary.
func (p *car) target() int64 {
	t := int64(p.p)
	if t < 1 {
		t = 1
	}
	return t
}

func (p *car) Find(req *sim.Request, update bool) *sim.Object {
	if update {
		// The routing flag describes the current request only; a prior
		// ghost hit whose insert was denied must not leak into this one.
		p.ghostHit = false
	}
	obj := p.c.Table.Lookup(req.ID)
	if obj == nil {
		return nil
	}
	if !obj.Meta.Ghost {
		if update {
			obj.Meta.Visited = true
		}
		return obj
	}
	if update {
		if obj.Meta.ListID == listRecency {
			// B1 hit: T1 was too small, grow the target.
			p.p = clamp(p.p+ratioDelta(p.b2.Bytes(), p.b1.Bytes()), 0, float64(p.c.Capacity))
			p.b1.Remove(obj)
		} else {
			// B2 hit: T1 was too large, shrink the target.
			p.p = clamp(p.p-ratioDelta(p.b1.Bytes(), p.b2.Bytes()), 0, float64(p.c.Capacity))
			p.b2.Remove(obj)
		}
		p.c.DropGhost(obj)
		p.ghostHit = true
	}
	return nil
}

func (p *car) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	obj.Meta.Visited = false
	if p.ghostHit {
		obj.Meta.ListID = listFrequency
		p.t2.PushTail(obj)
	} else {
		obj.Meta.ListID = listRecency
		p.t1.PushTail(obj)
	}
	p.ghostHit = false
	return obj
}

// Evict runs the Replace loop: scan the targeted clock until an
// unreferenced head turns up. Referenced T1 heads move to T2's tail with
// the bit cleared (they earned a second life in the frequency clock);
// referenced T2 heads rotate within T2. Every iteration either evicts,
// shrinks T1, or clears a reference bit, so the loop terminates.
func (p *car) Evict(req *sim.Request) {
	for {
		useT1 := p.t1.Len() > 0 &&
			(p.t1.Bytes() >= p.target() || p.t2.Len() == 0)
		if useT1 {
			head := p.t1.Head()
			if !head.Meta.Visited {
				p.t1.Remove(head)
				p.c.Ghostify(head)
				p.b1.PushHead(head)
				break
			}
			head.Meta.Visited = false
			p.t1.Remove(head)
			head.Meta.ListID = listFrequency
			p.t2.PushTail(head)
			continue
		}
		head := p.t2.Head()
		if head == nil {
			// Both clocks empty; nothing evictable.
			return
		}
		if !head.Meta.Visited {
			p.t2.Remove(head)
			p.c.Ghostify(head)
			p.b2.PushHead(head)
			break
		}
		head.Meta.Visited = false
		p.t2.MoveToTail(head)
	}

	// Ghost history is bounded only when the triggering request brought a
	// brand-new object; a ghost hit already consumed its history entry.
	if !p.ghostHit {
		p.trimGhosts(req.Size)
	}
}

// trimGhosts discards ghost tails until |T1|+|B1| <= c and
// |T1|+|T2|+|B1|+|B2| <= 2c hold again once the incoming object of the
// given size is inserted (minimal trim).
func (p *car) trimGhosts(incoming int64) {
	capacity := p.c.Capacity
	for p.t1.Bytes()+p.b1.Bytes()+incoming > capacity && p.b1.Len() > 0 {
		p.c.DropGhost(p.b1.PopTail())
	}
	for p.t1.Bytes()+p.t2.Bytes()+p.b1.Bytes()+p.b2.Bytes()+incoming > 2*capacity {
		if obj := p.b2.PopTail(); obj != nil {
			p.c.DropGhost(obj)
		} else if obj := p.b1.PopTail(); obj != nil {
			p.c.DropGhost(obj)
		} else {
			break
		}
	}
}

// ToEvict peeks at the object Replace would demote next: the first
// unreferenced object from the targeted clock's head, falling back to the
// other clock. Referenced objects are skipped without clearing bits.
func (p *car) ToEvict(req *sim.Request) *sim.Object {
	useT1 := p.t1.Len() > 0 &&
		(p.t1.Bytes() >= p.target() || p.t2.Len() == 0)
	lists := [2]*sim.List{&p.t1, &p.t2}
	if !useT1 {
		lists[0], lists[1] = &p.t2, &p.t1
	}
	for _, l := range lists {
		for obj := l.Head(); obj != nil; obj = obj.Next() {
			if !obj.Meta.Visited {
				return obj
			}
		}
	}
	// Everything referenced: Replace would rotate until the current
	// T1 head (or T2 head) comes around clean.
	if lists[0].Head() != nil {
		return lists[0].Head()
	}
	return lists[1].Head()
}

func (p *car) Remove(id uint64) bool {
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

// Sizes reports the four list byte sizes and the current target p.
// Exposed for invariant checks in tests.
func (p *car) Sizes() (t1, t2, b1, b2 int64, target float64) {
	return p.t1.Bytes(), p.t2.Bytes(), p.b1.Bytes(), p.b2.Bytes(), p.p
}
