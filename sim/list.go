package sim

// List is an intrusive doubly linked list of Objects. Head is the most
// recently placed end for LRU-style policies; FIFO-style policies pick
// their own convention and stick to it.
//
// The list tracks both the element count and the summed object bytes, so
// policies that budget in bytes (ARC/CAR ghost bounds, SLRU segments,
// S3FIFO queues) don't re-walk the list.
//
// Invariants: head == nil iff tail == nil iff the list is empty; an object
// belongs to at most one list at a time.
type List struct {
	head  *Object
	tail  *Object
	count int
	bytes int64
}

// Head returns the head object or nil.
func (l *List) Head() *Object { return l.head }

// Tail returns the tail object or nil.
func (l *List) Tail() *Object { return l.tail }

// Len returns the number of objects in the list.
func (l *List) Len() int { return l.count }

// Bytes returns the summed sizes of the listed objects.
func (l *List) Bytes() int64 { return l.bytes }

// PushHead inserts obj at the head in O(1). The object must be detached.
func (l *List) PushHead(obj *Object) {
	assertf(!obj.InList() && l.head != obj, "PushHead: object %d already linked", obj.ID)
	obj.prev = nil
	obj.next = l.head
	if l.head != nil {
		l.head.prev = obj
	}
	l.head = obj
	if l.tail == nil {
		l.tail = obj
	}
	l.count++
	l.bytes += obj.Size
}

// PushTail inserts obj at the tail in O(1). The object must be detached.
func (l *List) PushTail(obj *Object) {
	assertf(!obj.InList() && l.tail != obj, "PushTail: object %d already linked", obj.ID)
	obj.next = nil
	obj.prev = l.tail
	if l.tail != nil {
		l.tail.next = obj
	}
	l.tail = obj
	if l.head == nil {
		l.head = obj
	}
	l.count++
	l.bytes += obj.Size
}

// Remove detaches obj from the list in O(1).
func (l *List) Remove(obj *Object) {
	assertf(l.count > 0, "Remove from empty list")
	if obj.prev != nil {
		obj.prev.next = obj.next
	}
	if obj.next != nil {
		obj.next.prev = obj.prev
	}
	if l.head == obj {
		l.head = obj.next
	}
	if l.tail == obj {
		l.tail = obj.prev
	}
	obj.prev, obj.next = nil, nil
	l.count--
	l.bytes -= obj.Size
	assertf((l.head == nil) == (l.tail == nil), "Remove: head/tail nullity mismatch")
	assertf(l.bytes >= 0, "Remove: negative list bytes")
}

// MoveToHead repositions obj at the head. No work if already there.
func (l *List) MoveToHead(obj *Object) {
	if l.head == obj {
		return
	}
	l.Remove(obj)
	l.PushHead(obj)
}

// MoveToTail repositions obj at the tail. No work if already there.
func (l *List) MoveToTail(obj *Object) {
	if l.tail == obj {
		return
	}
	l.Remove(obj)
	l.PushTail(obj)
}

// PopHead removes and returns the head object, or nil if empty.
func (l *List) PopHead() *Object {
	obj := l.head
	if obj != nil {
		l.Remove(obj)
	}
	return obj
}

// PopTail removes and returns the tail object, or nil if empty.
func (l *List) PopTail() *Object {
	obj := l.tail
	if obj != nil {
		l.Remove(obj)
	}
	return obj
}
