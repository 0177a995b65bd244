package docfetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetAndGet(t *testing.T) {
	cache := NewCache(1 * time.Minute)
	cache.Set("https://example.com/doc.md", "# Doc Content")

	content, ok := cache.Get("https://example.com/doc.md")
	assert.True(t, ok)
	assert.Equal(t, "# Doc Content", content)
}

func TestCache_Miss(t *testing.T) {
	cache := NewCache(1 * time.Minute)
	content, ok := cache.Get("https://example.com/nonexistent.md")
	assert.False(t, ok)
	assert.Equal(t, "", content)
}

func TestCache_TTLExpiry(t *testing.T) {
	cache := NewCache(50 * time.Millisecond)
	cache.Set("https://example.com/doc.md", "content")

	content, ok := cache.Get("https://example.com/doc.md")
	assert.True(t, ok)
	assert.Equal(t, "content", content)

	time.Sleep(60 * time.Millisecond)

	content, ok = cache.Get("https://example.com/doc.md")
	assert.False(t, ok)
	assert.Equal(t, "", content)
}

func TestCache_Overwrite(t *testing.T) {
	cache := NewCache(1 * time.Minute)
	cache.Set("https://example.com/doc.md", "v1")
	cache.Set("https://example.com/doc.md", "v2")

	content, ok := cache.Get("https://example.com/doc.md")
	assert.True(t, ok)
	assert.Equal(t, "v2", content)
}
