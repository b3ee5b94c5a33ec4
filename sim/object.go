package sim

import (
	"unsafe"

	"github.com/IvanBrykalov/tracesim/internal/util"
)

// PolicyTag discriminates the per-policy metadata block on an Object.
// A cache binds to exactly one policy, so every object it owns carries
// the same tag; the tag exists so debug builds can catch a policy
// touching another policy's block.
type PolicyTag uint8

const (
	TagNone PolicyTag = iota
	TagLRU
	TagFIFO
	TagClock
	TagLFU
	TagSLRU
	TagTwoQ
	TagRandom
	TagBelady
	TagARC
	TagCAR
	TagSieve
	TagS3FIFO
	TagLIRS
)

// Metadata is the per-policy block embedded in every Object. It is a flat
// overlay rather than a per-policy struct: each policy reads and writes only
// the fields its comment row names, so the record stays small and the hot
// fields share the object's first cache line.
//
//	CLOCK/Sieve:  Visited
//	ARC:          ListID (1=T1 2=T2), Ghost
//	CAR:          ListID (1=T1/B1 2=T2/B2), Visited, Ghost
//	LFU:          Freq, HeapIdx, VTime (insertion order for ties)
//	S3FIFO:       ListID (1=small 2=main 3=ghost), Freq, Ghost
//	2Q:           ListID (1=Ain 2=Aout 3=Am), Ghost
//	SLRU:         ListID (segment index + 1)
//	Random:       HeapIdx (slot in the resident slice)
//	Belady:       VTime (next access), HeapIdx
//	LIRS:         ListID (1=LIR 2=HIR), Visited (on stack S), Ghost
type Metadata struct {
	Tag     PolicyTag
	ListID  uint8
	Visited bool
	Ghost   bool
	Freq    uint32
	HeapIdx int32
	VTime   int64
}

// Object is one resident object (or ghost entry) owned by a cache. It is an
// intrusive node: the hash-chain pointer and the prev/next list links live
// inside the record, so membership changes never allocate.
type Object struct {
	ID   uint64
	Size int64

	// hashNext chains objects within a hash-table bucket.
	hashNext *Object

	// Intrusive list links for whichever policy list currently owns the
	// object. An object is in at most one list at a time.
	prev *Object
	next *Object

	// CreateTime and ExpiryTime are in the trace's clock units.
	// ExpiryTime zero means no expiry.
	CreateTime int64
	ExpiryTime int64

	Meta Metadata
}

// Prev returns the neighbor toward the owning list's head, or nil.
func (o *Object) Prev() *Object { return o.prev }

// Next returns the neighbor toward the owning list's tail, or nil.
func (o *Object) Next() *Object { return o.next }

// Expired reports whether the object's deadline passed at clock time now.
func (o *Object) Expired(now int64) bool {
	return o.ExpiryTime != 0 && now > o.ExpiryTime
}

// InList reports whether the object is currently linked into a list.
// Head-only single elements have nil links, so list membership is tracked
// by the owning List; this is a weaker debug aid for detached nodes.
func (o *Object) InList() bool { return o.prev != nil || o.next != nil }

// CheckTag panics in debug builds when a policy touches an object tagged
// for a different policy.
func (o *Object) CheckTag(tag PolicyTag) {
	assertf(o.Meta.Tag == tag, "object %d tagged %d, policy expects %d", o.ID, o.Meta.Tag, tag)
}

// The record must stay within two cache lines so list walks don't thrash.
var _ [2*util.CacheLineSize - int(unsafe.Sizeof(Object{}))]byte
