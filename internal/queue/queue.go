package queue

// Queue is a singly linked queue of byte strings. Nodes live in an arena and
// are linked by index; nilIndex marks an absent link.
//
// A Queue is not safe for concurrent use. Every method accepts a nil
// receiver and treats it as an absent queue.
type Queue struct {
	nodes []node
	empty []int

	head, tail int
	count      int

	alloc Allocator
}

type node struct {
	value string
	next  int
}

const nilIndex = -1

type Option func(q *Queue)

// WithAllocator routes node and string reservations through a.
func WithAllocator(a Allocator) Option {
	return func(q *Queue) {
		if a != nil {
			q.alloc = a
		}
	}
}

func New(opts ...Option) *Queue {
	q := &Queue{head: nilIndex, tail: nilIndex, alloc: HeapAllocator}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Free releases every node and its string. The queue is empty afterwards.
func (q *Queue) Free() {
	if q == nil {
		return
	}
	for q.head != nilIndex {
		idx := q.head
		q.head = q.nodes[idx].next
		q.release(idx)
	}
	q.nodes, q.empty = nil, nil
	q.head, q.tail = nilIndex, nilIndex
	q.count = 0
}

// InsertHead stores a copy of s as the new first element. It returns false
// if q or s is nil or storage could not be reserved, leaving q unchanged.
func (q *Queue) InsertHead(s []byte) bool {
	if q == nil || s == nil {
		return false
	}
	idx, ok := q.acquire(s)
	if !ok {
		return false
	}
	q.nodes[idx].next = q.head
	q.head = idx
	if q.count == 0 {
		q.tail = idx
	}
	q.count++
	return true
}

// InsertTail stores a copy of s as the new last element, with the same
// failure contract as InsertHead.
func (q *Queue) InsertTail(s []byte) bool {
	if q == nil || s == nil {
		return false
	}
	idx, ok := q.acquire(s)
	if !ok {
		return false
	}
	if q.count == 0 {
		q.head = idx
	} else {
		q.nodes[q.tail].next = idx
	}
	q.tail = idx
	q.count++
	return true
}

// RemoveHead detaches the first element and releases it. When buf is not
// empty it receives at most len(buf)-1 bytes of the value, zero padded, and
// buf[len(buf)-1] is always set to 0. Longer values are truncated silently.
// A nil or zero-length buf receives nothing.
//
// It returns false if q is nil or empty.
func (q *Queue) RemoveHead(buf []byte) bool {
	value, ok := q.detachHead()
	if !ok {
		return false
	}
	if len(buf) > 0 {
		limit := len(buf) - 1
		n := copy(buf[:limit], value)
		clear(buf[n:limit])
		buf[limit] = 0
	}
	return true
}

// PopHead removes the first element and returns its full value.
func (q *Queue) PopHead() (string, bool) {
	return q.detachHead()
}

// Size returns the number of elements, or 0 for a nil queue.
func (q *Queue) Size() int {
	if q == nil {
		return 0
	}
	return q.count
}

// Reverse flips the link direction of every node in place.
func (q *Queue) Reverse() {
	if q == nil || q.count == 0 {
		return
	}
	prev, cur := nilIndex, q.head
	for cur != nilIndex {
		next := q.nodes[cur].next
		q.nodes[cur].next = prev
		prev, cur = cur, next
	}
	q.head, q.tail = q.tail, q.head
}

func (q *Queue) detachHead() (string, bool) {
	if q == nil || q.count == 0 {
		return "", false
	}
	idx := q.head
	value := q.nodes[idx].value
	q.head = q.nodes[idx].next
	q.count--
	if q.count == 0 {
		q.tail = nilIndex
	}
	q.release(idx)
	return value, true
}

// acquire reserves a node and a copy of s. A node reservation is returned to
// the allocator if the string reservation fails.
func (q *Queue) acquire(s []byte) (int, bool) {
	if !q.alloc.Alloc(NodeBlock, NodeSize) {
		return nilIndex, false
	}
	if !q.alloc.Alloc(StringBlock, stringSize(s)) {
		q.alloc.Free(NodeBlock, NodeSize)
		return nilIndex, false
	}
	n := node{value: string(s), next: nilIndex}
	if last := len(q.empty) - 1; last >= 0 {
		idx := q.empty[last]
		q.empty = q.empty[:last]
		q.nodes[idx] = n
		return idx, true
	}
	q.nodes = append(q.nodes, n)
	return len(q.nodes) - 1, true
}

func (q *Queue) release(idx int) {
	q.alloc.Free(StringBlock, stringSize(q.nodes[idx].value))
	q.alloc.Free(NodeBlock, NodeSize)
	q.nodes[idx] = node{next: nilIndex}
	q.empty = append(q.empty, idx)
}
