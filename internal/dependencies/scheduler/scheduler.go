package scheduler

import "time"

// Scheduler schedules one-shot deferred callbacks. Scheduled callbacks are
// never cancelled; callers re-validate state at fire time instead.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// RealScheduler implements Scheduler using time.AfterFunc
type RealScheduler struct{}

// New creates a new RealScheduler
func New() *RealScheduler {
	return &RealScheduler{}
}

// AfterFunc runs f on its own goroutine after d has elapsed
func (s *RealScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
