package engine

import (
	"sync"

	"github.com/IshaanNene/vrwatch/internal/types"
)

// Gate decides whether a listing title still needs a notification.
// A title is new when it is absent from the persisted set and has not
// already been attempted during the current run.
type Gate struct {
	mu        sync.RWMutex
	prior     types.TitleSet
	attempted map[string]struct{}
	delivered types.TitleSet
}

// NewGate creates a Gate over the titles loaded from the store.
func NewGate(prior types.TitleSet) *Gate {
	if prior == nil {
		prior = types.NewTitleSet()
	}
	return &Gate{
		prior:     prior.Clone(),
		attempted: make(map[string]struct{}),
		delivered: types.NewTitleSet(),
	}
}

// IsNew returns true if title has not been notified before and has not
// been attempted in this run.
func (g *Gate) IsNew(title string) bool {
	if title == "" {
		return false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.prior.Has(title) {
		return false
	}
	_, seen := g.attempted[title]
	return !seen
}

// MarkAttempted records that title entered enrichment this run.
func (g *Gate) MarkAttempted(title string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempted[title] = struct{}{}
}

// MarkDelivered records that the notification for title was sent.
func (g *Gate) MarkDelivered(title string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attempted[title] = struct{}{}
	g.delivered.Add(title)
}

// Delivered returns the titles delivered this run, sorted.
func (g *Gate) Delivered() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.delivered.Sorted()
}

// Result returns the set to persist: prior titles plus delivered ones.
func (g *Gate) Result() types.TitleSet {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := g.prior.Clone()
	for t := range g.delivered {
		out.Add(t)
	}
	return out
}

// PriorCount returns the number of titles loaded from the store.
func (g *Gate) PriorCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.prior.Len()
}
