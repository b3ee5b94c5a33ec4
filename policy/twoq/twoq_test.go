package twoq_test

import (
	"testing"

	_ "github.com/IvanBrykalov/tracesim/policy/twoq"
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

// A scan of one-time ids flows through Ain and never touches Am.
func TestTwoQ_ScanResistance(t *testing.T) {
	t.Parallel()

	c, err := sim.New("twoq", sim.Options{Capacity: 8}, "ain-size-ratio=0.25")
	if err != nil {
		t.Fatal(err)
	}
	// Establish a working set that reaches Am via the ghost path.
	get(t, c, 100)
	for id := uint64(1); id <= 8; id++ {
		get(t, c, id)
	}
	// 100 was pushed out of Ain into the ghosts; a re-access readmits
	// it directly into Am.
	if get(t, c, 100) {
		t.Fatal("ghost re-access is still a miss")
	}
	obj := c.Table.Lookup(100)
	if obj == nil || obj.Meta.Ghost {
		t.Fatal("100 must be resident after the ghost hit")
	}

	// A long scan of fresh ids must not evict the Am resident.
	for id := uint64(1000); id < 1040; id++ {
		get(t, c, id)
	}
	if obj := c.Table.Lookup(100); obj == nil || obj.Meta.Ghost {
		t.Fatal("scan must not displace the mature object")
	}
}

func TestTwoQ_BadRatios(t *testing.T) {
	t.Parallel()

	if _, err := sim.New("twoq", sim.Options{Capacity: 8}, "ain-size-ratio=1.5"); err == nil {
		t.Fatal("ain-size-ratio out of range must fail")
	}
	if _, err := sim.New("twoq", sim.Options{Capacity: 8}, "ghost-size-ratio=0"); err == nil {
		t.Fatal("ghost-size-ratio=0 must fail")
	}
}
