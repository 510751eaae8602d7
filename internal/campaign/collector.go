package campaign

import (
	"sort"
	"sync"

	"github.com/jonathan/campaign-runner/internal/types"
)

// Collector is an append-only result list safe for concurrent workers.
type Collector struct {
	mu      sync.Mutex
	results []types.ResultRecord
}

// NewCollector returns a collector sized for n results.
func NewCollector(n int) *Collector {
	return &Collector{results: make([]types.ResultRecord, 0, n)}
}

// Add appends r.
func (c *Collector) Add(r types.ResultRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

// Results returns a copy in completion order.
func (c *Collector) Results() []types.ResultRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.ResultRecord, len(c.results))
	copy(out, c.results)
	return out
}

// Ordered returns a copy sorted by input position.
func (c *Collector) Ordered() []types.ResultRecord {
	out := c.Results()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
