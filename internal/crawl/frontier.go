package crawl

import (
	"sync"

	"github.com/JakeFAU/sitegraph-crawler/internal/metrics"
)

// entry is one unit of frontier work.
type entry struct {
	url   string
	depth int
}

// frontier is the shared crawl work queue. Pop blocks while the queue is
// empty but entries are still in flight, since an in-flight entry may push
// more work. Once the queue drains with nothing in flight, or close is
// called, every blocked worker is released.
type frontier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries []entry
	active  int
	closed  bool
}

func newFrontier() *frontier {
	f := &frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push appends an entry. Pushes after close are dropped.
func (f *frontier) push(e entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.entries = append(f.entries, e)
	metrics.SetFrontierDepth(len(f.entries))
	f.cond.Signal()
}

// pop removes the oldest entry, blocking until one is available. The second
// return is false when the frontier has terminated. A successful pop marks
// the entry in flight; the worker must call done afterwards.
func (f *frontier) pop() (entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for !f.closed && len(f.entries) == 0 && f.active > 0 {
		f.cond.Wait()
	}
	if f.closed || len(f.entries) == 0 {
		f.closed = true
		f.cond.Broadcast()
		return entry{}, false
	}
	e := f.entries[0]
	f.entries = f.entries[1:]
	f.active++
	metrics.SetFrontierDepth(len(f.entries))
	return e, true
}

// done marks one in-flight entry finished. The last finisher of a drained
// queue terminates the frontier.
func (f *frontier) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
	if f.active == 0 && len(f.entries) == 0 {
		f.closed = true
	}
	f.cond.Broadcast()
}

// close terminates the frontier, releasing all blocked workers.
func (f *frontier) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}
