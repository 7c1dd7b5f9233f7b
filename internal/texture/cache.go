package texture

import (
	"image"
	"sync"

	"scroll-trail-renderer/internal/logging"
)

// Resolver resolves a texture name to a decoded image, or nil.
type Resolver interface {
	Resolve(name string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache. Failed loads are cached as nil
// so a broken file is decoded at most once.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA
	index *Index
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*image.NRGBA),
		index: index,
	}
}

// Resolve loads and caches a texture by name. Returns nil if not found.
func (c *Cache) Resolve(name string) *image.NRGBA {
	path, ok := c.index.ResolvePath(name)
	if !ok {
		return nil
	}

	c.mu.RLock()
	if img, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return img
	}
	c.mu.RUnlock()

	img, err := LoadTexture(path)
	if err != nil {
		logging.Logger().Warn("texture load failed", "name", name, "err", err)
	}

	// Double-check: another goroutine may have loaded it meanwhile
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, exists := c.items[path]; exists {
		return prev
	}
	c.items[path] = img
	return img
}

// Static is a Resolver over preloaded images keyed by exact name.
type Static map[string]*image.NRGBA

func (s Static) Resolve(name string) *image.NRGBA { return s[name] }
