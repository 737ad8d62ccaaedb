package server

import (
	"sync"

	"github.com/lwmacct/251207-go-pkg-strbuf/pkg/templexp"
)

type cacheKey struct {
	src     string
	maxSlot int
}

// templateCache 已编译模板缓存。Template 不可变，可直接在请求间共享。
//
// 条数达到上限时整体清空。
type templateCache struct {
	mu    sync.Mutex
	max   int
	items map[cacheKey]*templexp.Template
}

func newTemplateCache(maxItems int) *templateCache {
	return &templateCache{max: maxItems, items: make(map[cacheKey]*templexp.Template)}
}

// get 返回缓存的模板，未命中时调用 compile 并写入缓存。
func (c *templateCache) get(src string, maxSlot int, compile func() (*templexp.Template, error)) (*templexp.Template, bool, error) {
	key := cacheKey{src: src, maxSlot: maxSlot}

	c.mu.Lock()
	tpl, ok := c.items[key]
	c.mu.Unlock()
	if ok {
		return tpl, true, nil
	}

	tpl, err := compile()
	if err != nil || c.max <= 0 {
		return tpl, false, err
	}

	c.mu.Lock()
	if len(c.items) >= c.max {
		clear(c.items)
	}
	c.items[key] = tpl
	c.mu.Unlock()

	return tpl, false, nil
}

func (c *templateCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}
