package listing

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"storefront/internal/clock"
)

func TestViewportNearBottom(t *testing.T) {
	assert.True(t, Viewport{InnerHeight: 800, ScrollTop: 1700, DocumentHeight: 4000}.NearBottom())
	assert.False(t, Viewport{InnerHeight: 800, ScrollTop: 1699, DocumentHeight: 4000}.NearBottom())
	assert.True(t, Viewport{InnerHeight: 800, ScrollTop: 0, DocumentHeight: 900}.NearBottom())
}

func TestScrollTriggerDebounces(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	fired := 0
	trigger := NewScrollTrigger(clk, func() bool { return true }, func() { fired++ })

	near := Viewport{InnerHeight: 800, ScrollTop: 3000, DocumentHeight: 4000}
	for i := 0; i < 5; i++ {
		trigger.OnScroll(near)
		clk.Advance(100 * time.Millisecond)
	}
	assert.Zero(t, fired)
	assert.Equal(t, 1, clk.Pending())

	clk.Advance(200 * time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.Zero(t, clk.Pending())
}

func TestScrollTriggerChecksLastPosition(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	fired := 0
	trigger := NewScrollTrigger(clk, func() bool { return true }, func() { fired++ })

	trigger.OnScroll(Viewport{InnerHeight: 800, ScrollTop: 3000, DocumentHeight: 4000})
	trigger.OnScroll(Viewport{InnerHeight: 800, ScrollTop: 0, DocumentHeight: 4000})
	clk.Advance(ScrollDebounce)
	assert.Zero(t, fired)
}

func TestScrollTriggerDisabledAndStopped(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	enabled := false
	fired := 0
	trigger := NewScrollTrigger(clk, func() bool { return enabled }, func() { fired++ })
	near := Viewport{InnerHeight: 800, ScrollTop: 3000, DocumentHeight: 4000}

	trigger.OnScroll(near)
	clk.Advance(ScrollDebounce)
	assert.Zero(t, fired)

	enabled = true
	trigger.OnScroll(near)
	trigger.Stop()
	clk.Advance(ScrollDebounce)
	assert.Zero(t, fired)
	assert.Zero(t, clk.Pending())
}

func TestScrollTriggerDrivesController(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	ctx := context.Background()
	src := &countingSource{total: 100}
	c := NewController(Config{}, zerolog.Nop())
	if err := c.Configure(ctx, Source{Key: "all", Fetch: src.fetch}, ""); err != nil {
		t.Fatal(err)
	}
	trigger := NewScrollTrigger(clk, c.CanLoadMore, func() { _ = c.LoadMore(ctx) })
	near := Viewport{InnerHeight: 800, ScrollTop: 3000, DocumentHeight: 4000}

	for i := 0; i < 3; i++ {
		trigger.OnScroll(near)
		clk.Advance(ScrollDebounce)
	}
	assert.Len(t, c.View().Items, 20)
	assert.Equal(t, 2, src.callCount())
}
