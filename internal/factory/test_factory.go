package factory

import (
	"time"

	"github.com/rulerace/rulerace-server/internal/api/handler"
	"github.com/rulerace/rulerace-server/internal/dependencies/mocks"
	"github.com/rulerace/rulerace-server/internal/storage/memory"
	"github.com/rulerace/rulerace-server/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockScheduler *mocks.MockScheduler
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockScheduler := mocks.NewMockScheduler()

	app := newWithDependencies(store, mockClock, mockRandom, mockScheduler,
		handler.DefaultDailyAnswerURL, testutil.NopLogger())

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockScheduler: mockScheduler,
	}
}
