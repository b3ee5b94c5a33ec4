// Package lfu implements Least-Frequently-Used eviction.
package lfu

import (
	"container/heap"

	"github.com/IvanBrykalov/tracesim/sim"
)

func init() {
	sim.Register("lfu", New)
}

// lfu keeps a min-heap ordered by (frequency, insertion order). The heap
// slot index is stored on the object (Meta.HeapIdx) so a hit can sift the
// object in place instead of rebuilding.
type lfu struct {
	c    *sim.Cache
	heap objHeap
	// seq breaks frequency ties in favor of the older insertion.
	seq int64
}

// New constructs the LFU policy. It takes no parameters.
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	c.SetTag(sim.TagLFU)
	return &lfu{c: c}, nil
}

func (p *lfu) Find(req *sim.Request, update bool) *sim.Object {
	obj := p.c.Table.Lookup(req.ID)
	if obj == nil {
		return nil
	}
	if update {
		obj.Meta.Freq++
		heap.Fix(&p.heap, int(obj.Meta.HeapIdx))
	}
	return obj
}

func (p *lfu) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	obj.Meta.Freq = 1
	p.seq++
	obj.Meta.VTime = p.seq
	heap.Push(&p.heap, obj)
	return obj
}

func (p *lfu) Evict(req *sim.Request) {
	if p.heap.Len() == 0 {
		return
	}
	obj := heap.Pop(&p.heap).(*sim.Object)
	p.c.Release(obj)
}

func (p *lfu) ToEvict(req *sim.Request) *sim.Object {
	if p.heap.Len() == 0 {
		return nil
	}
	return p.heap[0]
}

func (p *lfu) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	heap.Remove(&p.heap, int(obj.Meta.HeapIdx))
	p.c.Release(obj)
	return true
}

// objHeap is a min-heap of objects by (Freq, VTime).
type objHeap []*sim.Object

func (h objHeap) Len() int { return len(h) }

func (h objHeap) Less(i, j int) bool {
	if h[i].Meta.Freq != h[j].Meta.Freq {
		return h[i].Meta.Freq < h[j].Meta.Freq
	}
	return h[i].Meta.VTime < h[j].Meta.VTime
}

func (h objHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Meta.HeapIdx = int32(i)
	h[j].Meta.HeapIdx = int32(j)
}

func (h *objHeap) Push(x any) {
	obj := x.(*sim.Object)
	obj.Meta.HeapIdx = int32(len(*h))
	*h = append(*h, obj)
}

func (h *objHeap) Pop() any {
	old := *h
	n := len(old)
	obj := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	obj.Meta.HeapIdx = -1
	return obj
}
