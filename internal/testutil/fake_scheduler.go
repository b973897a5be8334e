package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/coderquest/coderquest/internal/scheduler"
)

// FakeScheduler is a manual scheduler for deterministic timer tests. Nothing
// fires until Advance moves the fake clock forward; due callbacks run on the
// calling goroutine in time order. Callbacks may schedule further tasks.
type FakeScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	next  int
	tasks []*fakeTask
}

type fakeTask struct {
	sched     *FakeScheduler
	id        int
	dueAt     time.Duration
	period    time.Duration // 0 for one-shot
	fn        func()
	cancelled bool
}

// NewFakeScheduler creates an empty FakeScheduler at time zero.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

func (s *FakeScheduler) After(d time.Duration, fn func()) scheduler.Task {
	return s.add(d, 0, fn)
}

func (s *FakeScheduler) Every(d time.Duration, fn func()) scheduler.Task {
	return s.add(d, d, fn)
}

func (s *FakeScheduler) add(d, period time.Duration, fn func()) scheduler.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	t := &fakeTask{
		sched:  s,
		id:     s.next,
		dueAt:  s.now + d,
		period: period,
		fn:     fn,
	}
	s.tasks = append(s.tasks, t)
	return t
}

func (t *fakeTask) Cancel() {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	t.cancelled = true
}

// Pending returns the number of live scheduled tasks.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing every due task in order.
// Repeating tasks are re-armed after each fire.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d

	for {
		task := s.nextDueLocked(target)
		if task == nil {
			break
		}
		s.now = task.dueAt
		if task.period > 0 {
			task.dueAt += task.period
		} else {
			task.cancelled = true
		}
		fn := task.fn
		// Release the lock while the callback runs; it may schedule or
		// cancel tasks on this scheduler.
		s.mu.Unlock()
		fn()
		s.mu.Lock()
	}

	s.now = target
	s.compactLocked()
	s.mu.Unlock()
}

func (s *FakeScheduler) nextDueLocked(target time.Duration) *fakeTask {
	live := make([]*fakeTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.cancelled && t.dueAt <= target {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].dueAt != live[j].dueAt {
			return live[i].dueAt < live[j].dueAt
		}
		return live[i].id < live[j].id
	})
	return live[0]
}

func (s *FakeScheduler) compactLocked() {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	s.tasks = live
}
