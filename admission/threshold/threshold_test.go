package threshold

import (
	"testing"

	"github.com/IvanBrykalov/tracesim/sim"
)

func TestThreshold_Admit(t *testing.T) {
	t.Parallel()

	a, err := New("size=1000")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Admit(&sim.Request{ID: 1, Size: 1000}) {
		t.Fatal("object at the cutoff must be admitted")
	}
	if a.Admit(&sim.Request{ID: 2, Size: 1001}) {
		t.Fatal("object above the cutoff must be dropped")
	}
	if a.Clone() != sim.Admissioner(a) {
		t.Fatal("immutable admissioner clones to itself")
	}
}

func TestThreshold_Params(t *testing.T) {
	t.Parallel()

	if _, err := New(""); err == nil {
		t.Fatal("missing size must fail")
	}
	if _, err := New("size=0"); err == nil {
		t.Fatal("non-positive size must fail")
	}
	if _, err := New("limit=5"); err == nil {
		t.Fatal("unknown key must fail")
	}
}
