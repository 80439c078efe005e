// Package template loads template images from disk together with the ROI
// encoded in their filename and keeps them cached for reuse.
package template

import (
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/soocke/pixel-macro-go/domain/capture"
	"github.com/soocke/pixel-macro-go/domain/roi"
)

// Template is a decoded template image and the search region parsed from its
// filename.
type Template struct {
	Path    string
	ROI     roi.ROI
	Image   image.Image
	Size    image.Point
	Pattern *capture.Pattern
}

// Cache maps file paths, exactly as given, to loaded templates. Entries are
// never invalidated automatically; a changed file needs Forget.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*Template
	open  func(path string) (image.Image, error)
}

// NewCache returns an empty cache that decodes files with imaging.Open.
func NewCache() *Cache {
	return &Cache{items: map[string]*Template{}, open: func(p string) (image.Image, error) { return imaging.Open(p) }}
}

// Get returns the template at path, loading it on first use.
func (c *Cache) Get(path string) (*Template, error) {
	key := path
	c.mu.RLock()
	t, ok := c.items[key]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	img, err := c.open(key)
	if err != nil {
		return nil, fmt.Errorf("template: load %s: %w", key, err)
	}
	t = &Template{
		Path:    key,
		ROI:     roi.ParseName(key),
		Image:   img,
		Size:    img.Bounds().Size(),
		Pattern: capture.NewPattern(img),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[key]; ok {
		return existing, nil
	}
	c.items[key] = t
	return t, nil
}

// Len reports the number of cached templates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Forget drops path from the cache.
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	delete(c.items, path)
	c.mu.Unlock()
}
