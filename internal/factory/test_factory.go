package factory

import (
	"time"

	"github.com/gmscreen/initiative/internal/dependencies/mocks"
	"github.com/gmscreen/initiative/internal/storage/memory"
	"github.com/gmscreen/initiative/internal/testutil"
)

// TestGMToken is the GM secret test apps are wired with
const TestGMToken = "test-gm-token"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked
// dependencies and in-memory storage
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, TestGMToken, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
