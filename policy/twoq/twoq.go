// Package twoq implements the 2Q eviction policy.
//
// Resident queues:
//   - Ain (younger, FIFO) admits first-time objects
//   - Am (mature, LRU) holds objects re-accessed after leaving Ain
//
// Ghost Aout tracks recently evicted Ain objects so a re-access can bypass
// Ain on re-admission (the second chance).
package twoq

import (
	"fmt"

	"github.com/IvanBrykalov/tracesim/sim"
)

func init() {
	sim.Register("twoq", New)
}

// Queue identifiers stored in Meta.ListID.
const (
	listAin uint8 = iota + 1
	listAout
	listAm
)

// Defaults follow the common 2Q sizing: Ain ≈ 25% of capacity,
// Aout ghosts ≈ 50% of capacity.
const (
	DefaultAinRatio   = 0.25
	DefaultGhostRatio = 0.5
)

type twoQ struct {
	c    *sim.Cache
	ain  sim.List
	aout sim.List
	am   sim.List

	ainBudget   int64
	ghostBudget int64

	// toMain marks that the current miss was an Aout ghost hit and the
	// next Insert should go straight to Am.
	toMain bool
}

// New constructs the 2Q policy.
// Recognized parameters: ain-size-ratio (default 0.25),
// ghost-size-ratio (default 0.5).
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err("ain-size-ratio", "ghost-size-ratio"); err != nil {
		return nil, err
	}
	ainRatio, err := p.Float("ain-size-ratio", DefaultAinRatio)
	if err != nil {
		return nil, err
	}
	ghostRatio, err := p.Float("ghost-size-ratio", DefaultGhostRatio)
	if err != nil {
		return nil, err
	}
	if ainRatio <= 0 || ainRatio >= 1 {
		return nil, fmt.Errorf("ain-size-ratio must be in (0, 1), got %g", ainRatio)
	}
	if ghostRatio <= 0 {
		return nil, fmt.Errorf("ghost-size-ratio must be > 0, got %g", ghostRatio)
	}
	c.SetTag(sim.TagTwoQ)
	return &twoQ{
		c:           c,
		ainBudget:   int64(ainRatio * float64(c.Capacity)),
		ghostBudget: int64(ghostRatio * float64(c.Capacity)),
	}, nil
}

func (p *twoQ) Find(req *sim.Request, update bool) *sim.Object {
	if update {
		// Per-request routing flag; clear leftovers from denied inserts.
		p.toMain = false
	}
	obj := p.c.Table.Lookup(req.ID)
	if obj == nil {
		return nil
	}
	if obj.Meta.Ghost {
		if update {
			// Second chance: the re-access sends the next insert
			// straight to Am.
			p.aout.Remove(obj)
			p.c.DropGhost(obj)
			p.toMain = true
		}
		return nil
	}
	if update && obj.Meta.ListID == listAm {
		p.am.MoveToHead(obj)
	}
	// A hit inside Ain does not reorder: the FIFO pass decides promotion.
	return obj
}

func (p *twoQ) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	if p.toMain {
		obj.Meta.ListID = listAm
		p.am.PushHead(obj)
	} else {
		obj.Meta.ListID = listAin
		p.ain.PushHead(obj)
	}
	p.toMain = false
	return obj
}

func (p *twoQ) Evict(req *sim.Request) {
	// Prefer draining an over-budget Ain; its victims become ghosts.
	if p.ain.Bytes() > p.ainBudget || p.am.Len() == 0 {
		if obj := p.ain.PopTail(); obj != nil {
			p.c.Ghostify(obj)
			obj.Meta.ListID = listAout
			p.aout.PushHead(obj)
			p.trimGhosts()
			return
		}
	}
	if obj := p.am.PopTail(); obj != nil {
		p.c.Release(obj)
	}
}

func (p *twoQ) trimGhosts() {
	for p.aout.Bytes() > p.ghostBudget {
		obj := p.aout.PopTail()
		if obj == nil {
			break
		}
		p.c.DropGhost(obj)
	}
}

func (p *twoQ) ToEvict(req *sim.Request) *sim.Object {
	if p.ain.Bytes() > p.ainBudget || p.am.Len() == 0 {
		if obj := p.ain.Tail(); obj != nil {
			return obj
		}
	}
	return p.am.Tail()
}

func (p *twoQ) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	switch obj.Meta.ListID {
	case listAin:
		p.ain.Remove(obj)
	case listAout:
		p.aout.Remove(obj)
		p.c.DropGhost(obj)
		return true
	case listAm:
		p.am.Remove(obj)
	}
	p.c.Release(obj)
	return true
}
