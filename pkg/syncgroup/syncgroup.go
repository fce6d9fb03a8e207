package syncgroup

import (
	"sync"
)

type syncGroupFunc func()

// SyncGroup wraps sync.WaitGroup for the add-everything-then-run shape
// the read fan-outs use. Add and Done bookkeeping is handled here so a
// missed Done cannot hang a join.
type SyncGroup struct {
	wg sync.WaitGroup

	mu      sync.Mutex
	fns     []syncGroupFunc
	running int
}

// NewSyncGroup returns an empty group.
func NewSyncGroup() *SyncGroup {
	return &SyncGroup{}
}

// Add queues a function. Calls while a batch is in flight are dropped;
// a group runs one batch at a time.
func (g *SyncGroup) Add(fn syncGroupFunc) {
	if fn == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running > 0 {
		return
	}
	g.fns = append(g.fns, fn)
}

// Run starts every queued function on its own goroutine and clears the
// queue. A second Run while the batch is in flight is a no-op.
func (g *SyncGroup) Run() {
	g.mu.Lock()
	if g.running > 0 {
		g.mu.Unlock()
		return
	}
	fns := g.fns
	g.fns = nil
	g.running = len(fns)
	g.mu.Unlock()

	for _, fn := range fns {
		g.wg.Add(1)
		go func(do syncGroupFunc) {
			defer func() {
				g.wg.Done()
				g.mu.Lock()
				g.running--
				g.mu.Unlock()
			}()
			do()
		}(fn)
	}
}

// Wait blocks until the running batch finishes.
func (g *SyncGroup) Wait() {
	g.wg.Wait()
}
