package blog

import (
	"database/sql"
	"sync"
)

// ErrNotFound is returned when a requested page does not exist.
var ErrNotFound = sql.ErrNoRows

// PageCache holds the published pages of the last build. The server reads
// only from it; Build replaces its contents in one step.
type PageCache struct {
	mu     sync.RWMutex
	pages  []Page
	bySlug map[string]int
	tags   []string
}

// Fill replaces the snapshot with pages, which must already be sorted
// newest first, and tags.
func (c *PageCache) Fill(pages []Page, tags []string) {
	bySlug := make(map[string]int, len(pages))
	for i, p := range pages {
		bySlug[p.Slug] = i
	}
	if pages == nil {
		pages = []Page{}
	}
	c.mu.Lock()
	c.pages, c.bySlug, c.tags = pages, bySlug, tags
	c.mu.Unlock()
}

// ListPages returns published pages, optionally filtered by tag.
func (c *PageCache) ListPages(tag string) []Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if tag == "" {
		return c.pages
	}
	normalized := normalizeTag(tag)
	var filtered []Page
	for _, p := range c.pages {
		for _, t := range p.Tags {
			if normalizeTag(t) == normalized {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered
}

// ListTags returns the unique tags of published pages.
func (c *PageCache) ListTags() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tags
}

// GetPage returns a published page by slug.
func (c *PageCache) GetPage(slug string) (Page, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.bySlug[slug]
	if !ok {
		return Page{}, ErrNotFound
	}
	return c.pages[i], nil
}
