package sieve_test

import (
	"testing"

	_ "github.com/IvanBrykalov/tracesim/policy/sieve"
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

// Without hits SIEVE evicts in FIFO order.
func TestSieve_FIFOWithoutHits(t *testing.T) {
	t.Parallel()

	c, err := sim.New("sieve", sim.Options{Capacity: 3}, "")
	if err != nil {
		t.Fatal(err)
	}
	for id := uint64(1); id <= 5; id++ {
		get(t, c, id)
	}
	if c.Table.Lookup(1) != nil || c.Table.Lookup(2) != nil {
		t.Fatal("oldest objects must be evicted first")
	}
	for id := uint64(3); id <= 5; id++ {
		if c.Table.Lookup(id) == nil {
			t.Fatalf("id %d must be resident", id)
		}
	}
}

// A visited object survives in place; the hand passes it and takes the
// next unvisited one, without moving the survivor to the head.
func TestSieve_VisitedSurvivesInPlace(t *testing.T) {
	t.Parallel()

	c, err := sim.New("sieve", sim.Options{Capacity: 3}, "")
	if err != nil {
		t.Fatal(err)
	}
	get(t, c, 1)
	get(t, c, 2)
	get(t, c, 3)
	get(t, c, 1) // mark 1
	get(t, c, 4) // hand clears 1, evicts 2

	if c.Table.Lookup(1) == nil {
		t.Fatal("visited object must survive")
	}
	if c.Table.Lookup(2) != nil {
		t.Fatal("2 must be evicted")
	}

	// The hand parked past 1 (toward the head), so the survivor keeps its
	// position and the next eviction continues from the hand: it takes 3.
	get(t, c, 5)
	if c.Table.Lookup(3) != nil {
		t.Fatal("the hand must continue from where it stopped")
	}
	if c.Table.Lookup(1) == nil {
		t.Fatal("1 must still be resident")
	}
}
