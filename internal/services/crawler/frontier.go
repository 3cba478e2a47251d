package crawler

import "sync"

// QueueItem is one frontier entry: a normalized URL and the depth it was
// discovered at (seed = 0).
type QueueItem struct {
	URL   string
	Depth int
}

// Frontier is the shared per-run coordination structure: the BFS queue, the
// visited set, the active-worker counter, and the enqueued-count gauge. All
// four live under one mutex so workers can never observe the termination
// condition (empty queue, zero active) inconsistently.
type Frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []QueueItem
	visited  map[string]bool
	active   int
	enqueued int
	maxCount int // 0 = unlimited
}

// NewFrontier creates an empty frontier. maxCount caps the total number of
// URLs admitted per run; zero means unlimited.
func NewFrontier(maxCount int) *Frontier {
	f := &Frontier{
		visited:  make(map[string]bool),
		maxCount: maxCount,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Enqueue admits a URL at the given depth. Returns false when the URL has
// already been seen this run or the count cap is reached. Membership in the
// visited set is permanent for the run.
func (f *Frontier) Enqueue(url string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.maxCount > 0 && f.enqueued >= f.maxCount {
		return false
	}
	if f.visited[url] {
		return false
	}

	f.visited[url] = true
	f.queue = append(f.queue, QueueItem{URL: url, Depth: depth})
	f.enqueued++
	f.cond.Broadcast()
	return true
}

// Dequeue blocks until an item is available or the run is finished. It
// returns ok=false only when the queue is empty and no worker is active, at
// which point every other waiter is woken so they observe the same state.
// On success the active-worker counter is incremented; the caller must pair
// every successful Dequeue with a Done call.
func (f *Frontier) Dequeue() (QueueItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.queue) == 0 && f.active > 0 {
		f.cond.Wait()
	}

	if len(f.queue) == 0 {
		// No work left and nobody producing more: wake the other waiters
		// so they exit too.
		f.cond.Broadcast()
		return QueueItem{}, false
	}

	item := f.queue[0]
	f.queue = f.queue[1:]
	f.active++
	return item, true
}

// Done marks the caller's current item as fully processed. It must be called
// only after all Enqueue attempts for that item's children have completed;
// decrementing earlier would let another worker observe a false quiescence.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
	f.cond.Broadcast()
}

// Visited reports whether a URL has been admitted this run.
func (f *Frontier) Visited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visited[url]
}

// EnqueuedCount returns the total number of URLs admitted this run.
func (f *Frontier) EnqueuedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enqueued
}

// QueueLen returns the number of items waiting to be dequeued.
func (f *Frontier) QueueLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
