package s3fifo_test

import (
	"testing"

	_ "github.com/IvanBrykalov/tracesim/policy/s3fifo"
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

// One-hit-wonders flow through the small queue and out to ghosts without
// ever polluting main.
func TestS3FIFO_OneHitWondersStaySmall(t *testing.T) {
	t.Parallel()

	c, err := sim.New("s3fifo", sim.Options{Capacity: 10}, "small-size-ratio=0.3")
	if err != nil {
		t.Fatal(err)
	}
	for id := uint64(1); id <= 30; id++ {
		if get(t, c, id) {
			t.Fatalf("fresh id %d must miss", id)
		}
	}
	// Every surviving resident should still be in the small or main queue
	// with zero accounting drift; ghosts stay bounded.
	if c.Occupied > c.Capacity {
		t.Fatal("occupancy exceeds capacity")
	}
}

// An object re-accessed while small is promoted to main at small-queue
// eviction time instead of being ghosted.
func TestS3FIFO_WarmSmallObjectPromotes(t *testing.T) {
	t.Parallel()

	c, err := sim.New("s3fifo", sim.Options{Capacity: 4}, "small-size-ratio=0.5")
	if err != nil {
		t.Fatal(err)
	}
	get(t, c, 1)
	get(t, c, 2)
	if !get(t, c, 1) {
		t.Fatal("1 must hit while small")
	}
	// Fill past capacity: small-queue evictions examine 1 (warm -> main)
	// and ghost the cold ones.
	for id := uint64(3); id <= 8; id++ {
		get(t, c, id)
	}
	obj := c.Table.Lookup(1)
	if obj == nil || obj.Meta.Ghost {
		t.Fatal("warm object must be promoted to main, not ghosted")
	}
}

// A ghost hit reinserts straight into the main queue.
func TestS3FIFO_GhostHitGoesToMain(t *testing.T) {
	t.Parallel()

	c, err := sim.New("s3fifo", sim.Options{Capacity: 3},
		"small-size-ratio=0.4,ghost-size-ratio=2")
	if err != nil {
		t.Fatal(err)
	}
	get(t, c, 1)
	// Push 1 out of small into the ghost queue.
	for id := uint64(2); id <= 6; id++ {
		get(t, c, id)
	}
	ghost := c.Table.Lookup(1)
	if ghost == nil || !ghost.Meta.Ghost {
		t.Fatal("1 must have been ghosted out of the small queue")
	}
	if get(t, c, 1) {
		t.Fatal("ghost re-access is still a miss")
	}
	obj := c.Table.Lookup(1)
	if obj == nil || obj.Meta.Ghost {
		t.Fatal("ghost hit must reinsert the object")
	}
}
