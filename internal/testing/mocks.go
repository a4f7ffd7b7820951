package testing

import (
	"context"
	"sync"

	"github.com/crudeops/wtidesk/internal/domain"
)

// MockFetcher is a scripted price fetcher for testing
type MockFetcher struct {
	mu     sync.Mutex
	name   string
	points []domain.PricePoint
	err    error
	calls  []int
}

// NewMockFetcher creates a mock fetcher with the given name
func NewMockFetcher(name string) *MockFetcher {
	return &MockFetcher{name: name}
}

// SetPoints sets the points to return
func (m *MockFetcher) SetPoints(points []domain.PricePoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = points
}

// SetError sets the error to return
func (m *MockFetcher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Name returns the fetcher name
func (m *MockFetcher) Name() string {
	return m.name
}

// Fetch records the requested window and returns the scripted result
func (m *MockFetcher) Fetch(ctx context.Context, days int) ([]domain.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, days)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.points, nil
}

// Calls returns the day windows Fetch was called with
func (m *MockFetcher) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}
