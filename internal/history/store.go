// Package history keeps a bounded, time-ordered buffer of recent quotes
// per instrument.
package history

import (
	"sort"
	"sync"
	"time"

	"FXSentinel/internal/model"
)

// DefaultCapacity is used when a non-positive capacity is configured.
const DefaultCapacity = 200

// Store owns one FIFO buffer per symbol. Buffers are created on first
// append and live for the lifetime of the store.
//
// Safe for one writer (the trading loop) and concurrent readers.
type Store struct {
	mu       sync.RWMutex
	capacity int
	buffers  map[string]*Ring[model.PricePoint]
}

// NewStore creates a store whose buffers hold at most capacity points.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		buffers:  make(map[string]*Ring[model.PricePoint]),
	}
}

// Capacity returns the per-symbol capacity.
func (s *Store) Capacity() int { return s.capacity }

// Append records a quote for symbol, evicting the oldest point beyond capacity.
func (s *Store) Append(symbol string, price float64, ts time.Time) {
	s.push(symbol, model.PricePoint{Price: price, Time: ts})
}

// AppendBar records a historical bar as its close, keeping the bar's range
// for ATR and stochastic.
func (s *Store) AppendBar(symbol string, bar model.OHLCV) {
	s.push(symbol, model.PricePoint{Price: bar.Close, High: bar.High, Low: bar.Low, Time: bar.Time})
}

func (s *Store) push(symbol string, p model.PricePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.buffers[symbol]
	if !ok {
		buf = NewRing[model.PricePoint](s.capacity)
		s.buffers[symbol] = buf
	}
	buf.Push(p)
}

// Window returns the most recent n points, oldest first. Unknown symbols
// and non-positive n yield an empty slice.
func (s *Store) Window(symbol string, n int) []model.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf, ok := s.buffers[symbol]
	if !ok {
		return []model.PricePoint{}
	}
	return buf.Tail(n)
}

// Prices returns the prices of Window(symbol, n).
func (s *Store) Prices(symbol string, n int) []float64 {
	return PricesOf(s.Window(symbol, n))
}

// Len returns the number of points held for symbol.
func (s *Store) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if buf, ok := s.buffers[symbol]; ok {
		return buf.Len()
	}
	return 0
}

// Last returns the newest point for symbol.
func (s *Store) Last(symbol string) (model.PricePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, ok := s.buffers[symbol]
	if !ok {
		return model.PricePoint{}, false
	}
	return buf.Last()
}

// Symbols returns the tracked symbols in sorted order.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.buffers))
	for sym := range s.buffers {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// PricesOf extracts prices from points.
func PricesOf(points []model.PricePoint) []float64 {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return prices
}
