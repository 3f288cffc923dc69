package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetSet(t *testing.T) {
	cache := NewCache()

	_, ok := cache.Get("en", "Benvenuti")
	assert.False(t, ok)

	cache.Set("en", "Benvenuti", "Welcome")
	got, ok := cache.Get("en", "Benvenuti")
	assert.True(t, ok)
	assert.Equal(t, "Welcome", got)

	// Same text, different language is a distinct entry.
	_, ok = cache.Get("de", "Benvenuti")
	assert.False(t, ok)
}

func TestCacheInvalidateLanguage(t *testing.T) {
	cache := NewCache()
	cache.Set("en", "Benvenuti", "Welcome")
	cache.Set("en", "Grazie", "Thank you")
	cache.Set("de", "Benvenuti", "Willkommen")

	cache.Invalidate("en")

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("de", "Benvenuti")
	assert.True(t, ok)
}

func TestCacheInvalidateAll(t *testing.T) {
	cache := NewCache()
	cache.Set("en", "a", "b")
	cache.Set("fr", "a", "c")

	cache.Invalidate("")
	assert.Equal(t, 0, cache.Len())
}
