// Package clock provides wall time and cancellable scheduled callbacks so
// timer-driven state can be driven manually in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Task is a scheduled callback.
type Task interface {
	// Stop cancels the task. It reports whether the call prevented the callback from running.
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Task
}

// Real is the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// Manual is a clock that only moves when Advance is called. Due callbacks
// run synchronously on the goroutine calling Advance, in deadline order.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*manualTask
	seq   int
}

// NewManual returns a Manual clock starting at now.
func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{clock: m, at: m.now.Add(d), fn: f, seq: m.seq}
	m.tasks = append(m.tasks, t)
	return t
}

// Advance moves the clock forward by d, running every callback that falls due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		m.removeLocked(next)
		m.mu.Unlock()
		next.fn()
	}
}

// Pending reports how many tasks are scheduled and not yet stopped or run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *Manual) nextDueLocked(target time.Time) *manualTask {
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].at.Equal(m.tasks[j].at) {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].at.Before(m.tasks[j].at)
	})
	if len(m.tasks) == 0 || m.tasks[0].at.After(target) {
		return nil
	}
	return m.tasks[0]
}

func (m *Manual) removeLocked(t *manualTask) bool {
	for i, cur := range m.tasks {
		if cur == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return true
		}
	}
	return false
}

type manualTask struct {
	clock *Manual
	at    time.Time
	fn    func()
	seq   int
}

func (t *manualTask) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.clock.removeLocked(t)
}
