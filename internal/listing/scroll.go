package listing

import (
	"sync"
	"time"

	"storefront/internal/clock"
)

const (
	ScrollThreshold = 1500
	ScrollDebounce  = 300 * time.Millisecond
)

// Viewport is a scroll position report.
type Viewport struct {
	InnerHeight    float64 `json:"innerHeight"`
	ScrollTop      float64 `json:"scrollTop"`
	DocumentHeight float64 `json:"documentHeight"`
}

// NearBottom reports whether less than ScrollThreshold remains below the viewport.
func (v Viewport) NearBottom() bool {
	return v.InnerHeight+v.ScrollTop >= v.DocumentHeight-ScrollThreshold
}

// ScrollTrigger debounces scroll reports and calls fire once the viewport
// settles near the bottom while enabled reports true.
type ScrollTrigger struct {
	mu      sync.Mutex
	clock   clock.Clock
	enabled func() bool
	fire    func()
	last    Viewport
	task    clock.Task
	seq     uint64
}

func NewScrollTrigger(clk clock.Clock, enabled func() bool, fire func()) *ScrollTrigger {
	return &ScrollTrigger{clock: clk, enabled: enabled, fire: fire}
}

// OnScroll records v and restarts the debounce.
func (t *ScrollTrigger) OnScroll(v Viewport) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.task != nil {
		t.task.Stop()
	}
	t.last = v
	t.seq++
	seq := t.seq
	t.task = t.clock.AfterFunc(ScrollDebounce, func() { t.check(seq) })
}

// Stop drops a pending check.
func (t *ScrollTrigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.task != nil {
		t.task.Stop()
		t.task = nil
	}
}

func (t *ScrollTrigger) check(seq uint64) {
	t.mu.Lock()
	if t.task == nil || t.seq != seq {
		t.mu.Unlock()
		return
	}
	t.task = nil
	v := t.last
	t.mu.Unlock()

	if t.enabled() && v.NearBottom() {
		t.fire()
	}
}
