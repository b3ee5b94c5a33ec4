package sim

import "testing"

func mkObj(id uint64, size int64) *Object {
	return &Object{ID: id, Size: size}
}

// ids collects list contents head→tail for order assertions.
func ids(l *List) []uint64 {
	var out []uint64
	for obj := l.Head(); obj != nil; obj = obj.Next() {
		out = append(out, obj.ID)
	}
	return out
}

func eq(t *testing.T, got, want []uint64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestList_PushAndOrder(t *testing.T) {
	t.Parallel()

	var l List
	l.PushHead(mkObj(2, 10))
	l.PushHead(mkObj(1, 20))
	l.PushTail(mkObj(3, 30))

	eq(t, ids(&l), []uint64{1, 2, 3})
	if l.Len() != 3 || l.Bytes() != 60 {
		t.Fatalf("len=%d bytes=%d, want 3/60", l.Len(), l.Bytes())
	}
	if l.Head().ID != 1 || l.Tail().ID != 3 {
		t.Fatalf("head/tail wrong: %d/%d", l.Head().ID, l.Tail().ID)
	}
}

func TestList_RemoveMiddleHeadTail(t *testing.T) {
	t.Parallel()

	var l List
	a, b, c := mkObj(1, 1), mkObj(2, 1), mkObj(3, 1)
	l.PushTail(a)
	l.PushTail(b)
	l.PushTail(c)

	l.Remove(b) // middle
	eq(t, ids(&l), []uint64{1, 3})
	l.Remove(a) // head
	eq(t, ids(&l), []uint64{3})
	l.Remove(c) // tail, now sole element
	if l.Head() != nil || l.Tail() != nil || l.Len() != 0 || l.Bytes() != 0 {
		t.Fatal("list must be empty with nil head and tail")
	}
}

func TestList_MoveIdempotentOnSoleElement(t *testing.T) {
	t.Parallel()

	var l List
	a := mkObj(1, 5)
	l.PushHead(a)

	l.MoveToHead(a)
	l.MoveToTail(a)
	eq(t, ids(&l), []uint64{1})
	if l.Bytes() != 5 || l.Len() != 1 {
		t.Fatalf("accounting drifted: len=%d bytes=%d", l.Len(), l.Bytes())
	}
}

func TestList_MoveToHeadReorders(t *testing.T) {
	t.Parallel()

	var l List
	a, b, c := mkObj(1, 1), mkObj(2, 1), mkObj(3, 1)
	l.PushTail(a)
	l.PushTail(b)
	l.PushTail(c)

	l.MoveToHead(c)
	eq(t, ids(&l), []uint64{3, 1, 2})
	l.MoveToTail(a)
	eq(t, ids(&l), []uint64{3, 2, 1})
}

func TestList_PopEnds(t *testing.T) {
	t.Parallel()

	var l List
	for i := uint64(1); i <= 3; i++ {
		l.PushTail(mkObj(i, 1))
	}
	if got := l.PopHead(); got.ID != 1 {
		t.Fatalf("PopHead = %d, want 1", got.ID)
	}
	if got := l.PopTail(); got.ID != 3 {
		t.Fatalf("PopTail = %d, want 3", got.ID)
	}
	if got := l.PopTail(); got.ID != 2 {
		t.Fatalf("PopTail = %d, want 2", got.ID)
	}
	if l.PopHead() != nil || l.PopTail() != nil {
		t.Fatal("pops from empty list must return nil")
	}
}
