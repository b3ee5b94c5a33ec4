// Package lirs implements the LIRS eviction policy
// (Jiang & Zhang, SIGMETRICS'02), with byte-based accounting.
//
// LIRS splits residents into low inter-reference-recency (LIR) objects and
// high ones (HIR). The recency stack S (the object's intrusive list)
// orders accesses and holds LIR objects, on-stack resident HIRs, and
// nonresident HIR ghosts. Resident HIRs additionally sit in a small FIFO
// queue Q, which supplies eviction victims. Q is deliberately
// non-intrusive (container/list plus an id index) so an object is never a
// member of two intrusive lists at once.
//
// Metadata use: ListID 1=LIR 2=HIR, Visited = "on stack S",
// Ghost = nonresident HIR.
package lirs

import (
	"container/list"
	"fmt"

	"github.com/IvanBrykalov/tracesim/sim"
)

func init() {
	sim.Register("lirs", New)
}

const (
	statusLIR uint8 = 1
	statusHIR uint8 = 2
)

// DefaultHIRRatio is the share of capacity reserved for resident HIRs.
const DefaultHIRRatio = 0.01

type lirs struct {
	c *sim.Cache

	// stack is S: head = most recent.
	stack sim.List
	// q is the resident-HIR FIFO: Front = oldest.
	q    *list.List
	qIdx map[uint64]*list.Element

	lirBytes  int64
	lirBudget int64

	// ghostHit marks a nonresident-HIR hit; the pending insert is LIR.
	ghostHit bool
}

// New constructs the LIRS policy.
// Recognized parameters: hir-ratio (resident-HIR share, default 0.01).
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err("hir-ratio"); err != nil {
		return nil, err
	}
	ratio, err := p.Float("hir-ratio", DefaultHIRRatio)
	if err != nil {
		return nil, err
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, fmt.Errorf("hir-ratio must be in (0, 1), got %g", ratio)
	}
	hirBudget := int64(ratio * float64(c.Capacity))
	if hirBudget < 1 {
		hirBudget = 1
	}
	c.SetTag(sim.TagLIRS)
	return &lirs{
		c:         c,
		q:         list.New(),
		qIdx:      make(map[uint64]*list.Element),
		lirBudget: c.Capacity - hirBudget,
	}, nil
}

func (p *lirs) Find(req *sim.Request, update bool) *sim.Object {
	if update {
		// Per-request routing flag; clear leftovers from denied inserts.
		p.ghostHit = false
	}
	obj := p.c.Table.Lookup(req.ID)
	if obj == nil {
		return nil
	}
	if obj.Meta.Ghost {
		if update {
			// Nonresident HIR re-accessed within the LIR recency
			// window: readmit as LIR.
			p.stack.Remove(obj)
			p.c.DropGhost(obj)
			p.ghostHit = true
			p.prune()
		}
		return nil
	}
	if !update {
		return obj
	}
	switch obj.Meta.ListID {
	case statusLIR:
		wasBottom := obj == p.stack.Tail()
		p.stack.MoveToHead(obj)
		if wasBottom {
			p.prune()
		}
	case statusHIR:
		if obj.Meta.Visited {
			// On-stack HIR hit: its reuse distance beats the
			// bottom LIR's, so they trade places.
			p.qRemove(obj)
			obj.Meta.ListID = statusLIR
			p.lirBytes += obj.Size
			p.stack.MoveToHead(obj)
			p.shrinkLIR()
		} else {
			// Off-stack HIR hit: stays HIR, re-enters the stack
			// and refreshes its queue position.
			obj.Meta.Visited = true
			p.stack.PushHead(obj)
			p.qRefresh(obj)
		}
	}
	return obj
}

func (p *lirs) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	if p.ghostHit || p.lirBytes+obj.Size <= p.lirBudget {
		// Cold-start fills LIR directly; afterwards only ghost hits
		// earn LIR status on insert.
		obj.Meta.ListID = statusLIR
		obj.Meta.Visited = true
		p.lirBytes += obj.Size
		p.stack.PushHead(obj)
		p.ghostHit = false
		p.shrinkLIR()
		return obj
	}
	obj.Meta.ListID = statusHIR
	obj.Meta.Visited = true
	p.stack.PushHead(obj)
	p.qPush(obj)
	return obj
}

// shrinkLIR demotes bottom LIR objects into the resident-HIR queue until
// the LIR set fits its budget, then prunes the stack.
func (p *lirs) shrinkLIR() {
	for p.lirBytes > p.lirBudget {
		bottom := p.bottomLIR()
		if bottom == nil {
			break
		}
		p.stack.Remove(bottom)
		bottom.Meta.ListID = statusHIR
		bottom.Meta.Visited = false
		p.lirBytes -= bottom.Size
		p.qPush(bottom)
	}
	p.prune()
}

func (p *lirs) bottomLIR() *sim.Object {
	p.prune()
	bottom := p.stack.Tail()
	if bottom == nil || bottom.Meta.ListID != statusLIR {
		return nil
	}
	return bottom
}

// prune pops stack entries until the bottom is a resident LIR. Pruned
// ghosts leave the table; pruned resident HIRs stay in Q only.
func (p *lirs) prune() {
	for {
		bottom := p.stack.Tail()
		if bottom == nil {
			return
		}
		if bottom.Meta.Ghost {
			p.stack.Remove(bottom)
			p.c.DropGhost(bottom)
			continue
		}
		if bottom.Meta.ListID == statusHIR {
			p.stack.Remove(bottom)
			bottom.Meta.Visited = false
			continue
		}
		return
	}
}

// Evict removes the oldest resident HIR. If it is still on the stack its
// record stays behind as a nonresident ghost; otherwise it is gone for
// good. With no resident HIRs the bottom LIR goes directly.
func (p *lirs) Evict(req *sim.Request) {
	for p.q.Len() > 0 {
		front := p.q.Front()
		obj := front.Value.(*sim.Object)
		p.q.Remove(front)
		delete(p.qIdx, obj.ID)
		if obj.Meta.Visited {
			p.c.Ghostify(obj)
		} else {
			p.c.Release(obj)
		}
		return
	}
	bottom := p.bottomLIR()
	if bottom == nil {
		return
	}
	p.stack.Remove(bottom)
	p.lirBytes -= bottom.Size
	p.c.Release(bottom)
	p.prune()
}

func (p *lirs) ToEvict(req *sim.Request) *sim.Object {
	if front := p.q.Front(); front != nil {
		return front.Value.(*sim.Object)
	}
	return p.bottomLIR()
}

func (p *lirs) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	if obj.Meta.Ghost {
		p.stack.Remove(obj)
		p.c.DropGhost(obj)
		p.prune()
		return true
	}
	if obj.Meta.ListID == statusLIR {
		p.stack.Remove(obj)
		p.lirBytes -= obj.Size
		p.c.Release(obj)
		p.prune()
		return true
	}
	p.qRemove(obj)
	if obj.Meta.Visited {
		p.stack.Remove(obj)
		obj.Meta.Visited = false
	}
	p.c.Release(obj)
	p.prune()
	return true
}

// ---- resident-HIR queue ----

func (p *lirs) qPush(obj *sim.Object) {
	p.qIdx[obj.ID] = p.q.PushBack(obj)
}

func (p *lirs) qRemove(obj *sim.Object) {
	if el, ok := p.qIdx[obj.ID]; ok {
		p.q.Remove(el)
		delete(p.qIdx, obj.ID)
	}
}

func (p *lirs) qRefresh(obj *sim.Object) {
	p.qRemove(obj)
	p.qPush(obj)
}
