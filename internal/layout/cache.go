package layout

import (
	"sync"

	"github.com/ziadkadry99/videomind/internal/mindmap"
)

// Cache keeps the layout of the most recent document. A new layout is
// computed only when the document identity changes, never on highlight or
// time updates.
type Cache struct {
	mu       sync.Mutex
	doc      *mindmap.Document
	result   *Result
	computed int
}

// For returns the layout for d, computing it if d is not the cached document.
func (c *Cache) For(d *mindmap.Document) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result != nil && c.doc == d {
		return c.result
	}
	c.doc = d
	c.result = Compute(d)
	c.computed++
	return c.result
}

// Computations returns how many layouts have been computed.
func (c *Cache) Computations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computed
}
