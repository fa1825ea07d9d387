package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/rivalscope/models"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time         { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(ttl time.Duration, max int) (*Cache, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(ttl, max)
	c.now = clk.Now
	return c, clk
}

func TestGetWithinTTL(t *testing.T) {
	c, clk := newTestCache(30*time.Minute, 10)
	c.Set("https://Example.com/pricing#plans", &models.Page{HTML: "<p>hi</p>"})

	clk.Advance(29 * time.Minute)
	got, ok := c.Get("https://example.com/pricing")
	require.True(t, ok)
	assert.Equal(t, "<p>hi</p>", got.HTML)
	assert.True(t, got.FromCache)
}

func TestExpiredEntryEvictedLazily(t *testing.T) {
	c, clk := newTestCache(time.Minute, 10)
	c.Set("https://example.com/", &models.Page{HTML: "x"})
	require.Equal(t, 1, c.Len())

	clk.Advance(2 * time.Minute)
	_, ok := c.Get("https://example.com/")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCapacityEvictsOldest(t *testing.T) {
	c, clk := newTestCache(time.Hour, 2)
	c.Set("https://a.test/", &models.Page{HTML: "a"})
	clk.Advance(time.Second)
	c.Set("https://b.test/", &models.Page{HTML: "b"})
	clk.Advance(time.Second)
	c.Set("https://c.test/", &models.Page{HTML: "c"})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("https://a.test/")
	assert.False(t, ok)
	_, ok = c.Get("https://c.test/")
	assert.True(t, ok)
}

func TestZeroTTLDisablesCache(t *testing.T) {
	c, _ := newTestCache(0, 10)
	c.Set("https://example.com/", &models.Page{HTML: "x"})
	_, ok := c.Get("https://example.com/")
	assert.False(t, ok)
}
