package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_Concurrency(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	items := []string{"a", "b", "c"}

	for _, item := range items {
		wg.Add(1)
		go func(it string) {
			defer wg.Done()
			m.With("q", func(q *Queue) { q.InsertTail([]byte(it)) })
		}(item)
	}
	wg.Wait()

	results := make(chan string, len(items))
	for range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.With("q", func(q *Queue) {
				v, _ := q.PopHead()
				results <- v
			})
		}()
	}
	wg.Wait()
	close(results)

	var got []string
	for s := range results {
		got = append(got, s)
	}
	assert.ElementsMatch(t, items, got)
	m.With("q", func(q *Queue) { assert.Equal(t, 0, q.Size()) })
}

func TestManager_LookupDropNames(t *testing.T) {
	m := NewManager()
	assert.False(t, m.Lookup("missing", func(*Queue) { t.Fatal("must not run") }))
	assert.Empty(t, m.Names())

	m.With("b", func(q *Queue) { q.InsertTail([]byte("x")) })
	m.With("a", func(*Queue) {})
	assert.Equal(t, []string{"a", "b"}, m.Names())

	var size int
	assert.True(t, m.Lookup("b", func(q *Queue) { size = q.Size() }))
	assert.Equal(t, 1, size)

	assert.True(t, m.Drop("b"))
	assert.False(t, m.Drop("b"))
	assert.Equal(t, []string{"a"}, m.Names())

	m.Close()
	assert.Empty(t, m.Names())
}

type countingAllocator struct{ allocs, frees int }

func (c *countingAllocator) Alloc(Block, int) bool { c.allocs++; return true }

func (c *countingAllocator) Free(Block, int) { c.frees++ }

func TestManager_QueuesUseOptions(t *testing.T) {
	a := &countingAllocator{}
	m := NewManager(WithAllocator(a))
	m.With("q", func(q *Queue) { q.InsertTail([]byte("x")) })
	assert.Equal(t, 2, a.allocs)
	m.Drop("q")
	assert.Equal(t, 2, a.frees)
}
