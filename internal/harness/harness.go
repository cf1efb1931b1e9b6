// Package harness provides an instrumented queue.Allocator that counts
// reservations and can be told to refuse them.
package harness

import (
	"fmt"
	"math/rand"

	"strqueue/internal/queue"
)

// Allocator is not safe for concurrent use.
type Allocator struct {
	allocs int
	frees  int
	failed int

	blocks map[queue.Block]int
	bytes  int
	peak   int

	misuse []string

	failNext int
	failRate float64
	rnd      *rand.Rand
}

type Option func(a *Allocator)

// WithFailRate makes each Alloc fail with probability p, drawn from a source
// seeded with seed.
func WithFailRate(p float64, seed int64) Option {
	return func(a *Allocator) {
		a.SetFailRate(p, seed)
	}
}

func New(opts ...Option) *Allocator {
	a := &Allocator{blocks: make(map[queue.Block]int)}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Allocator) SetFailRate(p float64, seed int64) {
	a.failRate = p
	a.rnd = rand.New(rand.NewSource(seed))
}

// FailNext makes the next n calls to Alloc fail.
func (a *Allocator) FailNext(n int) {
	a.failNext = n
}

func (a *Allocator) Alloc(kind queue.Block, size int) bool {
	if a.failNext > 0 {
		a.failNext--
		a.failed++
		return false
	}
	if a.failRate > 0 && a.rnd.Float64() < a.failRate {
		a.failed++
		return false
	}
	a.allocs++
	a.blocks[kind]++
	a.bytes += size
	a.peak = max(a.peak, a.bytes)
	return true
}

func (a *Allocator) Free(kind queue.Block, size int) {
	if a.blocks[kind] == 0 {
		a.misuse = append(a.misuse, fmt.Sprintf("free of %s block (%d bytes) with none outstanding", kind, size))
		return
	}
	a.frees++
	a.blocks[kind]--
	a.bytes -= size
}

// Outstanding returns the number of blocks allocated and not yet freed.
func (a *Allocator) Outstanding() int {
	return a.allocs - a.frees
}

func (a *Allocator) OutstandingBytes() int { return a.bytes }

func (a *Allocator) Blocks(kind queue.Block) int { return a.blocks[kind] }

func (a *Allocator) Allocs() int { return a.allocs }

func (a *Allocator) Frees() int { return a.frees }

// Failed returns how many Alloc calls were refused.
func (a *Allocator) Failed() int { return a.failed }

func (a *Allocator) PeakBytes() int { return a.peak }

// Misuse lists frees that did not match an outstanding block.
func (a *Allocator) Misuse() []string { return a.misuse }

// Balanced reports whether every block has been freed exactly once.
func (a *Allocator) Balanced() bool {
	return a.Outstanding() == 0 && a.bytes == 0 && len(a.misuse) == 0
}
