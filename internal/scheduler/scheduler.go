// Package scheduler abstracts timed callbacks so session timers can be
// driven deterministically in tests. The real implementation wraps the
// standard timer primitives; tests use a manual fake.
package scheduler

import (
	"sync"
	"time"
)

// Task is a scheduled callback that can be cancelled. Cancel is idempotent
// and safe to call after the callback has fired.
type Task interface {
	Cancel()
}

// Scheduler schedules one-shot and repeating callbacks.
type Scheduler interface {
	// After runs fn once after d has elapsed.
	After(d time.Duration, fn func()) Task
	// Every runs fn repeatedly with period d until the task is cancelled.
	Every(d time.Duration, fn func()) Task
}

// New returns a Scheduler backed by real timers.
func New() Scheduler {
	return realScheduler{}
}

type realScheduler struct{}

func (realScheduler) After(d time.Duration, fn func()) Task {
	return &timerTask{timer: time.AfterFunc(d, fn)}
}

func (realScheduler) Every(d time.Duration, fn func()) Task {
	t := &tickerTask{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return t
}

type timerTask struct {
	timer *time.Timer
}

func (t *timerTask) Cancel() {
	t.timer.Stop()
}

type tickerTask struct {
	once sync.Once
	stop chan struct{}
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() { close(t.stop) })
}
