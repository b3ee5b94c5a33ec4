package trace

import (
	"io"
	"testing"

	"github.com/IvanBrykalov/tracesim/sim"
)

func TestSlice_ReadAndReset(t *testing.T) {
	t.Parallel()

	s := NewSlice([]sim.Request{
		{ID: 1, Size: 10, Valid: true},
		{ID: 2, Size: 20, Valid: true},
	})
	var r sim.Request
	if err := s.Read(&r); err != nil || r.ID != 1 {
		t.Fatalf("first read: %v %v", r, err)
	}
	if err := s.Read(&r); err != nil || r.ID != 2 {
		t.Fatalf("second read: %v %v", r, err)
	}
	if err := s.Read(&r); err != io.EOF {
		t.Fatalf("drained reader must return io.EOF, got %v", err)
	}
	s.Reset()
	if err := s.Read(&r); err != nil || r.ID != 1 {
		t.Fatal("Reset must rewind")
	}
}

func TestSynthetic_Deterministic(t *testing.T) {
	t.Parallel()

	gen := func() []uint64 {
		g := &Synthetic{Count: 1000, Keys: 100, Seed: 42}
		var out []uint64
		var r sim.Request
		for {
			if err := g.Read(&r); err == io.EOF {
				return out
			}
			out = append(out, r.ID)
		}
	}
	a, b := gen(), gen()
	if len(a) != 1000 {
		t.Fatalf("generated %d requests, want 1000", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("streams diverge at %d", i)
		}
	}
}

func TestSynthetic_SizesStablePerID(t *testing.T) {
	t.Parallel()

	sizeOf := MixedSizes(1024, 1<<20, 10)
	g := &Synthetic{Count: 5000, Keys: 50, Seed: 7, SizeOf: sizeOf}
	seen := make(map[uint64]int64)
	var r sim.Request
	for {
		if err := g.Read(&r); err == io.EOF {
			break
		}
		if prev, ok := seen[r.ID]; ok && prev != r.Size {
			t.Fatalf("id %d changed size %d -> %d", r.ID, prev, r.Size)
		}
		seen[r.ID] = r.Size
		if r.ID%10 == 0 && r.Size != 1<<20 {
			t.Fatalf("id %d must be large", r.ID)
		}
	}
}

func TestAnnotateNextAccess(t *testing.T) {
	t.Parallel()

	reqs := []sim.Request{
		{ID: 1}, {ID: 2}, {ID: 1}, {ID: 3}, {ID: 2},
	}
	AnnotateNextAccess(reqs)

	want := []int64{2, 4, -1, -1, -1}
	for i, w := range want {
		if reqs[i].NextAccessVTime != w {
			t.Fatalf("request %d: next=%d, want %d", i, reqs[i].NextAccessVTime, w)
		}
	}
}
