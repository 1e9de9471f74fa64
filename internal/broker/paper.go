package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"FXSentinel/internal/model"
)

// PaperGateway simulates fills at the last quote observed through Watch and
// keeps a local balance. It implements OrderGateway, AccountInfo and Settler.
type PaperGateway struct {
	mu      sync.Mutex
	balance float64
	quotes  map[string]float64
	orders  int
}

// NewPaperGateway creates a gateway with a starting balance.
func NewPaperGateway(balance float64) *PaperGateway {
	return &PaperGateway{balance: balance, quotes: make(map[string]float64)}
}

// Watch wraps feed so every successful quote becomes the fill price of the
// next paper order in that symbol.
func (g *PaperGateway) Watch(feed PriceFeed) PriceFeed {
	return &watchedFeed{PriceFeed: feed, g: g}
}

type watchedFeed struct {
	PriceFeed
	g *PaperGateway
}

func (w *watchedFeed) Price(ctx context.Context, symbol string) (float64, error) {
	p, err := w.PriceFeed.Price(ctx, symbol)
	if err == nil {
		w.g.Mark(symbol, p)
	}
	return p, err
}

// Mark records the current quote of symbol.
func (g *PaperGateway) Mark(symbol string, price float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.quotes[symbol] = price
}

func (g *PaperGateway) Submit(_ context.Context, symbol string, side model.Side, volume float64) model.OrderResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	if volume <= 0 {
		return model.OrderResult{Success: false, Message: "paper: volume must be positive"}
	}
	price, ok := g.quotes[symbol]
	if !ok {
		return model.OrderResult{Success: false, Message: fmt.Sprintf("paper: no quote for %s", symbol)}
	}
	g.orders++
	return model.OrderResult{
		Success: true,
		OrderID: "paper-" + uuid.NewString(),
		Price:   price,
		Message: fmt.Sprintf("paper fill %s %.2f %s @ %.5f", side, volume, symbol, price),
	}
}

func (g *PaperGateway) Balance(_ context.Context) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balance, nil
}

// Settle books realized P&L into the balance.
func (g *PaperGateway) Settle(pnl float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balance += pnl
}

// Orders returns the number of filled orders.
func (g *PaperGateway) Orders() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.orders
}
