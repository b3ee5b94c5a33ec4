package sim

import "github.com/IvanBrykalov/tracesim/internal/util"

// Table is a closed-addressing hash table mapping object IDs to Objects.
// Chains are intrusive via the object's hashNext field, so lookups and
// removals never allocate. The bucket count is fixed at construction and
// rounded up to a power of two.
type Table struct {
	buckets []*Object
	mask    uint64
	count   int
}

// DefaultHashBuckets is used when Options.HashBuckets is zero.
const DefaultHashBuckets = 1 << 16

// NewTable allocates a table with at least n buckets.
func NewTable(n int) *Table {
	if n <= 0 {
		n = DefaultHashBuckets
	}
	size := util.NextPow2(uint64(n))
	return &Table{
		buckets: make([]*Object, size),
		mask:    size - 1,
	}
}

func (t *Table) bucket(id uint64) int {
	return int(util.Mix64(id) & t.mask)
}

// Lookup returns the object for id, or nil.
func (t *Table) Lookup(id uint64) *Object {
	for obj := t.buckets[t.bucket(id)]; obj != nil; obj = obj.hashNext {
		if obj.ID == id {
			return obj
		}
	}
	return nil
}

// Insert chains obj into its bucket. Inserting a duplicate ID corrupts
// accounting; debug builds abort instead.
func (t *Table) Insert(obj *Object) {
	b := t.bucket(obj.ID)
	assertf(t.lookupIn(b, obj.ID) == nil, "Table.Insert: duplicate id %d", obj.ID)
	obj.hashNext = t.buckets[b]
	t.buckets[b] = obj
	t.count++
}

// Delete unchains the object with the given id and returns it,
// or nil if absent.
func (t *Table) Delete(id uint64) *Object {
	b := t.bucket(id)
	var prev *Object
	for obj := t.buckets[b]; obj != nil; obj = obj.hashNext {
		if obj.ID == id {
			if prev == nil {
				t.buckets[b] = obj.hashNext
			} else {
				prev.hashNext = obj.hashNext
			}
			obj.hashNext = nil
			t.count--
			assertf(t.count >= 0, "Table.Delete: negative count")
			return obj
		}
		prev = obj
	}
	return nil
}

// Len returns the number of stored objects (ghosts included).
func (t *Table) Len() int { return t.count }

// Range calls fn for every stored object until fn returns false.
// The callback must not insert or delete.
func (t *Table) Range(fn func(*Object) bool) {
	for _, head := range t.buckets {
		for obj := head; obj != nil; obj = obj.hashNext {
			if !fn(obj) {
				return
			}
		}
	}
}

func (t *Table) lookupIn(b int, id uint64) *Object {
	for obj := t.buckets[b]; obj != nil; obj = obj.hashNext {
		if obj.ID == id {
			return obj
		}
	}
	return nil
}
