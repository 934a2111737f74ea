package mocks

import (
	"sync"
	"time"

	"github.com/rulerace/rulerace-server/internal/dependencies/scheduler"
)

// ScheduledCall is a callback captured by MockScheduler
type ScheduledCall struct {
	Delay time.Duration
	Fn    func()
}

// MockScheduler records scheduled callbacks so tests can fire them manually
// and in any order
type MockScheduler struct {
	mu    sync.Mutex
	calls []ScheduledCall
}

// Ensure MockScheduler implements Scheduler
var _ scheduler.Scheduler = (*MockScheduler)(nil)

// NewMockScheduler creates a new MockScheduler
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

// AfterFunc records the callback without running it
func (s *MockScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, ScheduledCall{Delay: d, Fn: f})
}

// Len returns the number of recorded callbacks
func (s *MockScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Call returns the i-th recorded callback
func (s *MockScheduler) Call(i int) ScheduledCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

// Fire runs the i-th recorded callback
func (s *MockScheduler) Fire(i int) {
	s.Call(i).Fn()
}
