package translation

import "sync"

// Cache memoizes translations keyed by (target language, exact source text).
// It is a process-wide optimization, never a source of truth: dropping it only
// costs a redundant API call.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]string),
	}
}

func cacheKey(lang, text string) string {
	return lang + "\x00" + text
}

func (c *Cache) Get(lang, text string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	translated, ok := c.entries[cacheKey(lang, text)]
	return translated, ok
}

func (c *Cache) Set(lang, text, translated string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(lang, text)] = translated
}

// Invalidate drops every cached entry for one language, or everything when
// lang is empty.
func (c *Cache) Invalidate(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lang == "" {
		c.entries = make(map[string]string)
		return
	}
	prefix := lang + "\x00"
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
