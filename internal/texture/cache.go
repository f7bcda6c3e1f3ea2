package texture

import (
	"image"
	"sync"
)

// Resolver resolves a material name to a decoded texture.
type Resolver interface {
	Resolve(material string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
}

type cacheEntry struct {
	img *image.NRGBA
	err error
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
	}
}

// Resolve loads and caches a texture. Returns nil if it is missing or
// cannot be decoded.
func (c *Cache) Resolve(material string) *image.NRGBA {
	img, _ := c.Lookup(material)
	return img
}

// Lookup is Resolve with the decode error. A missing texture is (nil, nil).
func (c *Cache) Lookup(material string) (*image.NRGBA, error) {
	path, ok := c.index.ResolvePath(material)
	if !ok {
		return nil, nil
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img, entry.err
	}
	c.mu.RUnlock()

	img, err := LoadTexture(path)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[path]; exists {
		return entry.img, entry.err
	}
	c.items[path] = &cacheEntry{img: img, err: err}
	return img, err
}

// Image adapts the cache to callers that take an image.Image; a missing
// texture is a nil interface, not a typed nil.
func (c *Cache) Image(material string) (image.Image, error) {
	img, err := c.Lookup(material)
	if img == nil {
		return nil, err
	}
	return img, nil
}
