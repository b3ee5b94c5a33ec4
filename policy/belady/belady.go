// Package belady implements Belady's MIN, the offline oracle policy.
//
// It requires traces annotated with each request's next-access virtual time
// and always evicts the resident object whose next access lies furthest in
// the future. Useful as an upper bound when comparing online policies.
package belady

import (
	"container/heap"

	"github.com/IvanBrykalov/tracesim/sim"
)

func init() {
	sim.Register("belady", New)
}

// neverAgain orders objects with no future access ahead of everything else.
const neverAgain = int64(1) << 62

type belady struct {
	c    *sim.Cache
	heap maxHeap
}

// New constructs the Belady policy. It takes no parameters.
func New(c *sim.Cache, params string) (sim.Policy, error) {
	p, err := sim.ParseParams(params)
	if err != nil {
		return nil, err
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	c.SetTag(sim.TagBelady)
	return &belady{c: c}, nil
}

func vtime(req *sim.Request) int64 {
	if req.NextAccessVTime < 0 {
		return neverAgain
	}
	return req.NextAccessVTime
}

func (p *belady) Find(req *sim.Request, update bool) *sim.Object {
	obj := p.c.Table.Lookup(req.ID)
	if obj == nil {
		return nil
	}
	if update {
		obj.Meta.VTime = vtime(req)
		heap.Fix(&p.heap, int(obj.Meta.HeapIdx))
	}
	return obj
}

func (p *belady) Insert(req *sim.Request) *sim.Object {
	obj := p.c.NewObject(req)
	obj.Meta.VTime = vtime(req)
	heap.Push(&p.heap, obj)
	return obj
}

func (p *belady) Evict(req *sim.Request) {
	if p.heap.Len() == 0 {
		return
	}
	obj := heap.Pop(&p.heap).(*sim.Object)
	p.c.Release(obj)
}

func (p *belady) ToEvict(req *sim.Request) *sim.Object {
	if p.heap.Len() == 0 {
		return nil
	}
	return p.heap[0]
}

func (p *belady) Remove(id uint64) bool {
	obj := p.c.Table.Lookup(id)
	if obj == nil {
		return false
	}
	heap.Remove(&p.heap, int(obj.Meta.HeapIdx))
	p.c.Release(obj)
	return true
}

// maxHeap orders objects by descending next-access time.
type maxHeap []*sim.Object

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return h[i].Meta.VTime > h[j].Meta.VTime }

func (h maxHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Meta.HeapIdx = int32(i)
	h[j].Meta.HeapIdx = int32(j)
}

func (h *maxHeap) Push(x any) {
	obj := x.(*sim.Object)
	obj.Meta.HeapIdx = int32(len(*h))
	*h = append(*h, obj)
}

func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	obj := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	obj.Meta.HeapIdx = -1
	return obj
}
