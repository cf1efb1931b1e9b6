package queue

// Sort orders the elements ascending by byte-wise comparison of their values.
// Nodes are relinked in place; equal values keep their relative order.
func (q *Queue) Sort() {
	if q == nil || q.count < 2 {
		return
	}
	q.head = q.mergeSort(q.head)
	tail := q.head
	for q.nodes[tail].next != nilIndex {
		tail = q.nodes[tail].next
	}
	q.tail = tail
}

// mergeSort recurses once per halving, so depth grows with log n.
func (q *Queue) mergeSort(head int) int {
	if head == nilIndex || q.nodes[head].next == nilIndex {
		return head
	}
	right := q.split(head)
	return q.merge(q.mergeSort(head), q.mergeSort(right))
}

// split cuts the chain starting at head after its first floor(n/2) nodes and
// returns the head of the second part. The chain must hold at least two nodes.
func (q *Queue) split(head int) int {
	slow := head
	fast := q.nodes[q.nodes[head].next].next
	for fast != nilIndex && q.nodes[fast].next != nilIndex {
		slow = q.nodes[slow].next
		fast = q.nodes[q.nodes[fast].next].next
	}
	right := q.nodes[slow].next
	q.nodes[slow].next = nilIndex
	return right
}

// merge joins two sorted chains. On equal values the left node goes first.
func (q *Queue) merge(left, right int) int {
	head, tail := nilIndex, nilIndex
	for left != nilIndex && right != nilIndex {
		var pick int
		if q.nodes[right].value < q.nodes[left].value {
			pick, right = right, q.nodes[right].next
		} else {
			pick, left = left, q.nodes[left].next
		}
		if tail == nilIndex {
			head = pick
		} else {
			q.nodes[tail].next = pick
		}
		tail = pick
	}
	rest := left
	if rest == nilIndex {
		rest = right
	}
	if tail == nilIndex {
		return rest
	}
	q.nodes[tail].next = rest
	return head
}
