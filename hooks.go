package servicemap

import (
	"sync"

	"github.com/agentstation/servicemap/pkg/dedup"
	"github.com/agentstation/servicemap/pkg/federation"
)

// Hook function types for search events.
type (
	// MergeHook is called once for every duplicate removed by a search.
	MergeHook func(merge dedup.MergeRecord)

	// SearchHook is called after every successful search.
	SearchHook func(result *federation.Result)
)

// Hooks provides event callback registration.
type Hooks interface {
	// OnMerge registers a callback for removed duplicates
	OnMerge(MergeHook)

	// OnSearch registers a callback for completed searches
	OnSearch(SearchHook)
}

// hooks manages event callbacks for searches.
type hooks struct {
	mu       sync.RWMutex
	onMerge  []MergeHook
	onSearch []SearchHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnMerge implements Hooks.
func (c *client) OnMerge(fn MergeHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onMerge = append(c.hooks.onMerge, fn)
}

// OnSearch implements Hooks.
func (c *client) OnSearch(fn SearchHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onSearch = append(c.hooks.onSearch, fn)
}

// trigger runs the registered hooks for result. Hooks observe the result
// and must not modify it.
func (h *hooks) trigger(result *federation.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, m := range result.Merges {
		for _, fn := range h.onMerge {
			fn(m)
		}
	}
	for _, fn := range h.onSearch {
		fn(result)
	}
}
