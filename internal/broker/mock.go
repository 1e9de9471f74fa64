package broker

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// MockFeed returns controllable scripted prices for development and testing.
// Each call advances through the symbol's list and repeats the last price
// once the list is used up.
type MockFeed struct {
	mu     sync.Mutex
	prices map[string][]float64
	pos    map[string]int
	fail   map[string]error
}

// NewMockFeed creates a feed over scripted prices.
func NewMockFeed(prices map[string][]float64) *MockFeed {
	return &MockFeed{prices: prices, pos: make(map[string]int), fail: make(map[string]error)}
}

func (m *MockFeed) Name() string { return "mock" }

// Fail makes every following call for symbol return err; nil clears it.
func (m *MockFeed) Fail(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, symbol)
		return
	}
	m.fail[symbol] = err
}

func (m *MockFeed) Price(_ context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[symbol]; err != nil {
		return 0, err
	}
	list := m.prices[symbol]
	if len(list) == 0 {
		return 0, errors.Errorf("mock feed: no prices for %s", symbol)
	}
	i := m.pos[symbol]
	if i >= len(list) {
		return list[len(list)-1], nil
	}
	m.pos[symbol] = i + 1
	return list[i], nil
}
