package crawler

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontierEnqueueDeduplicates(t *testing.T) {
	f := NewFrontier(0)

	assert.True(t, f.Enqueue("https://example.com/a", 0))
	assert.False(t, f.Enqueue("https://example.com/a", 0))
	assert.False(t, f.Enqueue("https://example.com/a", 3))
	assert.Equal(t, 1, f.EnqueuedCount())
	assert.Equal(t, 1, f.QueueLen())
}

func TestFrontierEnqueueCountCap(t *testing.T) {
	f := NewFrontier(2)

	assert.True(t, f.Enqueue("https://example.com/a", 0))
	assert.True(t, f.Enqueue("https://example.com/b", 1))
	assert.False(t, f.Enqueue("https://example.com/c", 1))
	assert.Equal(t, 2, f.EnqueuedCount())

	// The cap rejects even URLs never seen before
	assert.False(t, f.Visited("https://example.com/c"))
}

func TestFrontierDequeueReturnsFalseWhenDrained(t *testing.T) {
	f := NewFrontier(0)

	f.Enqueue("https://example.com/a", 0)

	item, ok := f.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a", item.URL)
	assert.Equal(t, 0, item.Depth)

	// One worker active with an empty queue: Dequeue must block, not
	// return. Drain via Done and confirm the blocked call wakes with
	// ok=false.
	result := make(chan bool, 1)
	go func() {
		_, ok := f.Dequeue()
		result <- ok
	}()

	select {
	case <-result:
		t.Fatal("Dequeue returned while a worker was still active")
	case <-time.After(50 * time.Millisecond):
	}

	f.Done()

	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return after the last worker finished")
	}
}

func TestFrontierDequeueWakesAllWaitersOnQuiescence(t *testing.T) {
	f := NewFrontier(0)
	f.Enqueue("https://example.com/a", 0)

	_, ok := f.Dequeue()
	require.True(t, ok)

	const waiters = 4
	var wg sync.WaitGroup
	results := make(chan bool, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := f.Dequeue()
			results <- ok
		}()
	}

	f.Done()
	wg.Wait()
	close(results)

	count := 0
	for ok := range results {
		assert.False(t, ok)
		count++
	}
	assert.Equal(t, waiters, count)
}

func TestFrontierConcurrentTraversalProcessesEveryURL(t *testing.T) {
	f := NewFrontier(0)

	// Simulated link graph: each parent fans out to three children two
	// levels deep.
	children := func(url string, depth int) []string {
		if depth >= 2 {
			return nil
		}
		out := make([]string, 0, 3)
		for i := 0; i < 3; i++ {
			out = append(out, fmt.Sprintf("%s/c%d", url, i))
		}
		return out
	}

	f.Enqueue("https://example.com", 0)

	var mu sync.Mutex
	processed := make(map[string]int)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item, ok := f.Dequeue()
				if !ok {
					return
				}
				mu.Lock()
				processed[item.URL]++
				mu.Unlock()
				for _, child := range children(item.URL, item.Depth) {
					f.Enqueue(child, item.Depth+1)
				}
				f.Done()
			}
		}()
	}
	wg.Wait()

	// 1 root + 3 children + 9 grandchildren
	assert.Len(t, processed, 13)
	assert.Equal(t, 13, f.EnqueuedCount())
	for url, count := range processed {
		assert.Equal(t, 1, count, "url %s processed more than once", url)
	}
}
