package web

import (
	"container/list"
	"sync"

	"github.com/kilianp07/brunch/app"
)

// resultCache keeps the most recently generated runs for download.
type resultCache struct {
	mu    sync.Mutex
	size  int
	order *list.List
	items map[string]*list.Element
}

func newResultCache(size int) *resultCache {
	if size <= 0 {
		size = 1
	}
	return &resultCache{size: size, order: list.New(), items: make(map[string]*list.Element)}
}

func (c *resultCache) Put(res *app.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[res.ID]; ok {
		el.Value = res
		c.order.MoveToFront(el)
		return
	}
	c.items[res.ID] = c.order.PushFront(res)
	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*app.Result).ID)
	}
}

func (c *resultCache) Get(id string) (*app.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*app.Result), true
}

func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
