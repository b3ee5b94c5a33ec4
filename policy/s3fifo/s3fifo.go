// Package s3fifo implements the S3-FIFO eviction policy
// ("FIFO queues are all you need for cache eviction", SOSP'23).
//
// Three queues: a small FIFO for newcomers, a main FIFO for proven objects,
// and a ghost FIFO remembering recent small-queue evictions. Objects
// re-accessed while small are promoted to main at eviction time; ghost hits
// send the reinserted object straight to main.
package s3fifo

import (
	"fmt"

	"github.com/IvanBrykalov/tracesim/sim"
)

func init() {
	sim.Register("s3fifo", New)
}

// Queue identifiers stored in Meta.ListID.
const (
	listSmall uint8 = iota + 1
	listMain
	listGhost
)

const (
	// DefaultSmallRatio is the small queue's share of capacity.
	DefaultSmallRatio = 0.1
	// DefaultGhostRatio sizes the ghost queue relative to capacity.
	DefaultGhostRatio = 0.9
	// maxFreq caps the per-object frequency counter (paper value).
	maxFreq = 3
	// promoteFreq is the minimum frequency for small->main promotion.
	promoteFreq = 1
)

type s3fifo struct {
	c     *sim.Cache
	small sim.List
	main  sim.List
	ghost sim.List

	smallBudget int64
	ghostBudget int64

	// toMain marks a ghost hit; the next insert goes to main.
	toMain bool
}

// New constructs the S3-FIFO policy.
// Recognized parameters: small-size-ratio (default 0.1),
// ghost-size-ratio (default 0.9).
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err("small-size-ratio", "ghost-size-ratio"); err != nil {
		return nil, err
	}
	smallRatio, err := p.Float("small-size-ratio", DefaultSmallRatio)
	if err != nil {
		return nil, err
	}
	ghostRatio, err := p.Float("ghost-size-ratio", DefaultGhostRatio)
	if err != nil {
		return nil, err
	}
	if smallRatio <= 0 || smallRatio >= 1 {
		return nil, fmt.Errorf("small-size-ratio must be in (0, 1), got %g", smallRatio)
	}
	c.SetTag(sim.TagS3FIFO)
	return &s3fifo{
		c:           c,
		smallBudget: int64(smallRatio * float64(c.Capacity)),
		ghostBudget: int64(ghostRatio * float64(c.Capacity)),
	}, nil
}

func (p *s3fifo) Find(req *sim.Request, update bool) *sim.Object {
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
			p.ghost.Remove(obj)
			p.c.DropGhost(obj)
			p.toMain = true
		}
		return nil
	}
	if update && obj.Meta.Freq < maxFreq {
		obj.Meta.Freq++
	}
	return obj
}

func (p *s3fifo) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	obj.Meta.Freq = 0
	if p.toMain {
		obj.Meta.ListID = listMain
		p.main.PushHead(obj)
	} else {
		obj.Meta.ListID = listSmall
		p.small.PushHead(obj)
	}
	p.toMain = false
	return obj
}

func (p *s3fifo) Evict(req *sim.Request) {
	if p.small.Bytes() > p.smallBudget || p.main.Len() == 0 {
		p.evictSmall()
		return
	}
	p.evictMain()
}

// evictSmall pops the small tail: warm objects move to main, cold ones
// become ghosts.
func (p *s3fifo) evictSmall() {
	for {
		obj := p.small.PopTail()
		if obj == nil {
			p.evictMain()
			return
		}
		if obj.Meta.Freq >= promoteFreq {
			obj.Meta.Freq = 0
			obj.Meta.ListID = listMain
			p.main.PushHead(obj)
			// Promotion freed no bytes; take it out of main instead.
			if p.small.Len() == 0 {
				p.evictMain()
				return
			}
			continue
		}
		p.c.Ghostify(obj)
		obj.Meta.ListID = listGhost
		p.ghost.PushHead(obj)
		p.trimGhosts()
		return
	}
}

// evictMain pops the main tail with one second chance for warm objects.
func (p *s3fifo) evictMain() {
	for {
		obj := p.main.PopTail()
		if obj == nil {
			return
		}
		if obj.Meta.Freq > 0 {
			obj.Meta.Freq--
			p.main.PushHead(obj)
			continue
		}
		p.c.Release(obj)
		return
	}
}

func (p *s3fifo) trimGhosts() {
	for p.ghost.Bytes() > p.ghostBudget {
		obj := p.ghost.PopTail()
		if obj == nil {
			break
		}
		p.c.DropGhost(obj)
	}
}

func (p *s3fifo) ToEvict(req *sim.Request) *sim.Object {
	if p.small.Bytes() > p.smallBudget || p.main.Len() == 0 {
		for obj := p.small.Tail(); obj != nil; obj = obj.Prev() {
			if obj.Meta.Freq < promoteFreq {
				return obj
			}
		}
	}
	for obj := p.main.Tail(); obj != nil; obj = obj.Prev() {
		if obj.Meta.Freq == 0 {
			return obj
		}
	}
	return p.main.Tail()
}

func (p *s3fifo) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	switch obj.Meta.ListID {
	case listSmall:
		p.small.Remove(obj)
	case listMain:
		p.main.Remove(obj)
	case listGhost:
		p.ghost.Remove(obj)
		p.c.DropGhost(obj)
		return true
	}
	p.c.Release(obj)
	return true
}
