package lirs_test

import (
	"testing"

	_ "github.com/IvanBrykalov/tracesim/policy/lirs"
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

// The LIR working set survives a long scan of one-time ids: scans churn
// only the small resident-HIR partition.
func TestLIRS_ScanResistance(t *testing.T) {
	t.Parallel()

	c, err := sim.New("lirs", sim.Options{Capacity: 10}, "hir-ratio=0.2")
	if err != nil {
		t.Fatal(err)
	}
	// Build a hot LIR set (fills the LIR budget of 8).
	for id := uint64(1); id <= 8; id++ {
		get(t, c, id)
	}
	for id := uint64(1); id <= 8; id++ {
		if !get(t, c, id) {
			t.Fatalf("hot id %d must hit", id)
		}
	}

	// Scan 100 one-time ids.
	for id := uint64(1000); id < 1100; id++ {
		get(t, c, id)
	}

	// The hot set is intact.
	for id := uint64(1); id <= 8; id++ {
		if !get(t, c, id) {
			t.Fatalf("hot id %d must survive the scan", id)
		}
	}
}

// A nonresident HIR re-accessed within the stack window comes back as LIR.
func TestLIRS_GhostPromotesToLIR(t *testing.T) {
	t.Parallel()

	c, err := sim.New("lirs", sim.Options{Capacity: 4}, "hir-ratio=0.25")
	if err != nil {
		t.Fatal(err)
	}
	// LIR budget 3: ids 1..3 become LIR on the cold fill.
	for id := uint64(1); id <= 3; id++ {
		get(t, c, id)
	}
	get(t, c, 4) // resident HIR
	get(t, c, 5) // evicts the resident HIR 4, leaving its ghost on the stack

	ghost := c.Table.Lookup(4)
	if ghost == nil || !ghost.Meta.Ghost {
		t.Fatal("4 must remain on the stack as a nonresident ghost")
	}
	if get(t, c, 4) {
		t.Fatal("nonresident re-access is still a miss")
	}
	obj := c.Table.Lookup(4)
	if obj == nil || obj.Meta.Ghost {
		t.Fatal("ghost hit must readmit 4 as resident")
	}
	if obj.Meta.ListID != 1 {
		t.Fatal("readmitted object must have LIR status")
	}
}

func TestLIRS_BadRatio(t *testing.T) {
	t.Parallel()

	if _, err := sim.New("lirs", sim.Options{Capacity: 4}, "hir-ratio=1"); err == nil {
		t.Fatal("hir-ratio=1 must fail construction")
	}
}
