package lru_test

import (
	"testing"

	_ "github.com/IvanBrykalov/tracesim/policy/lru"
	"github.com/IvanBrykalov/tracesim/sim"
)

func get(t *testing.T, c *sim.Cache, id uint64) bool {
	t.Helper()
	hit := c.Get(&sim.Request{ID: id, Size: 1, Op: sim.OpGet, Valid: true})
	if err := c.CheckResidency(); err != nil {
		t.Fatalf("id %d: %v", id, err)
	}
	return hit
}

// Sequential N unique ids, then a reverse replay, against capacity N/2:
// the initial pass hits nothing, the replay hits exactly the resident
// newest half and misses the rest.
func TestLRU_ReverseReplayProperty(t *testing.T) {
	t.Parallel()

	const n = 100
	c, err := sim.New("lru", sim.Options{Capacity: n / 2}, "")
	if err != nil {
		t.Fatal(err)
	}

	for id := uint64(1); id <= n; id++ {
		if get(t, c, id) {
			t.Fatalf("initial pass must not hit (id %d)", id)
		}
	}

	hits := 0
	for id := uint64(n); id >= 1; id-- {
		if get(t, c, id) {
			hits++
		}
	}
	if hits != n/2 {
		t.Fatalf("replay hits = %d, want %d", hits, n/2)
	}
}

// A hit must protect the object from the next eviction.
func TestLRU_HitPromotes(t *testing.T) {
	t.Parallel()

	c, err := sim.New("lru", sim.Options{Capacity: 2}, "")
	if err != nil {
		t.Fatal(err)
	}
	get(t, c, 1)
	get(t, c, 2)
	get(t, c, 1) // promote 1; LRU is now 2
	get(t, c, 3) // evicts 2

	if c.Table.Lookup(2) != nil {
		t.Fatal("2 must be evicted")
	}
	if c.Table.Lookup(1) == nil || c.Table.Lookup(3) == nil {
		t.Fatal("1 and 3 must be resident")
	}
}

func TestLRU_ToEvictMatchesEviction(t *testing.T) {
	t.Parallel()

	c, err := sim.New("lru", sim.Options{Capacity: 3}, "")
	if err != nil {
		t.Fatal(err)
	}
	for id := uint64(1); id <= 3; id++ {
		get(t, c, id)
	}
	r := &sim.Request{ID: 4, Size: 1, Valid: true}
	victim := c.ToEvict(r)
	if victim == nil || victim.ID != 1 {
		t.Fatalf("ToEvict = %v, want id 1", victim)
	}
	c.Get(r)
	if c.Table.Lookup(1) != nil {
		t.Fatal("peeked victim must be the one evicted")
	}
}
