package queue

// Block identifies what a reservation is for.
type Block uint8

const (
	NodeBlock Block = iota
	StringBlock
)

func (b Block) String() string {
	switch b {
	case NodeBlock:
		return "node"
	case StringBlock:
		return "string"
	default:
		return "unknown"
	}
}

// NodeSize is the number of bytes accounted for each node reservation.
const NodeSize = 16

// stringSize is the reservation for a copy of s: its bytes plus one for the
// terminator slot.
func stringSize[S ~string | ~[]byte](s S) int {
	return len(s) + 1
}

// Allocator accounts for the storage a Queue takes. Alloc reports false when
// the request cannot be satisfied; every successful Alloc is matched by
// exactly one Free with the same kind and size.
type Allocator interface {
	Alloc(kind Block, size int) bool
	Free(kind Block, size int)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(Block, int) bool { return true }

func (heapAllocator) Free(Block, int) {}

// HeapAllocator never refuses a reservation.
var HeapAllocator Allocator = heapAllocator{}
