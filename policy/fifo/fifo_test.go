package fifo_test

import (
	"testing"

	_ "github.com/IvanBrykalov/tracesim/policy/fifo"
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

// Hits never reorder a FIFO queue: the first-in object goes first even
// when it was just accessed.
func TestFIFO_HitsDontProtect(t *testing.T) {
	t.Parallel()

	c, err := sim.New("fifo", sim.Options{Capacity: 2}, "")
	if err != nil {
		t.Fatal(err)
	}
	get(t, c, 1)
	get(t, c, 2)
	if !get(t, c, 1) {
		t.Fatal("1 must hit")
	}
	get(t, c, 3) // evicts 1 despite the recent hit

	if c.Table.Lookup(1) != nil {
		t.Fatal("first-in object must be evicted regardless of hits")
	}
	if c.Table.Lookup(2) == nil || c.Table.Lookup(3) == nil {
		t.Fatal("2 and 3 must be resident")
	}
}

func TestFIFO_RejectsParams(t *testing.T) {
	t.Parallel()

	if _, err := sim.New("fifo", sim.Options{Capacity: 2}, "x=1"); err == nil {
		t.Fatal("fifo takes no parameters")
	}
}
