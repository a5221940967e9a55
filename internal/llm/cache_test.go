package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResponseCache(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	c := newResponseCache(time.Minute)
	defer c.Close()
	c.now = func() time.Time { return now }

	c.set("a", "uno")
	c.set("b", "dos")

	text, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "uno", text)

	_, ok = c.get("missing")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.get("a")
	assert.False(t, ok, "expired entries are not served")
	assert.Equal(t, 2, c.size())

	c.set("c", "tres")
	c.evict()
	assert.Equal(t, 1, c.size())
}

func TestResponseCache_DefaultTTL(t *testing.T) {
	c := newResponseCache(0)
	defer c.Close()
	assert.Equal(t, 15*time.Minute, c.ttl)

	c.Close()
	c.Close()
}

func TestCacheKey(t *testing.T) {
	base := Request{System: "s", Prompt: "p"}
	assert.Equal(t, cacheKey(base), cacheKey(Request{System: "s", Prompt: "p", Temperature: 0.5}))
	assert.NotEqual(t, cacheKey(base), cacheKey(Request{System: "sp"}))
	assert.NotEqual(t, cacheKey(base), cacheKey(Request{System: "s", Prompt: "p", Image: &Image{MimeType: "image/png", Data: []byte{1}}}))
	assert.NotEqual(t,
		cacheKey(Request{Prompt: "p", Image: &Image{MimeType: "image/png", Data: []byte{1}}}),
		cacheKey(Request{Prompt: "p", Image: &Image{MimeType: "image/png", Data: []byte{2}}}))
}
