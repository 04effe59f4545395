// Package paper implements an in-memory broker for tests and dry runs.
package paper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tradekit/osprey/internal/broker"
)

// Broker simulates a brokerage account. Orders are accepted immediately
// and recorded; cash is reduced by the order notional.
type Broker struct {
	mu        sync.RWMutex
	connected bool
	cash      float64
	positions map[string]broker.Position
	orders    []broker.Order
}

// New creates a paper broker with the given starting cash.
func New(cash float64) *Broker {
	return &Broker{
		cash:      cash,
		positions: make(map[string]broker.Position),
	}
}

// Name returns the broker name.
func (b *Broker) Name() string {
	return "paper"
}

// Connect marks the broker connected.
func (b *Broker) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = true
	return nil
}

// Disconnect marks the broker disconnected.
func (b *Broker) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = false
	return nil
}

// IsConnected returns connection status.
func (b *Broker) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// GetBalance returns the simulated account balance.
func (b *Broker) GetBalance(ctx context.Context) (*broker.Balance, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return nil, broker.ErrNotConnected
	}

	value := b.cash
	for _, p := range b.positions {
		value += p.MarketValue
	}
	return &broker.Balance{
		Cash:           b.cash,
		PortfolioValue: value,
		UpdatedAt:      time.Now(),
	}, nil
}

// GetPositions returns all open positions.
func (b *Broker) GetPositions(ctx context.Context) ([]broker.Position, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return nil, broker.ErrNotConnected
	}

	out := make([]broker.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	return out, nil
}

// GetPosition returns the position for one symbol.
func (b *Broker) GetPosition(ctx context.Context, symbol string) (*broker.Position, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return nil, broker.ErrNotConnected
	}

	p, ok := b.positions[symbol]
	if !ok {
		return nil, broker.ErrPositionNotFound
	}
	return &p, nil
}

// PlaceBracketOrder accepts the bracket and opens or extends the position.
func (b *Broker) PlaceBracketOrder(ctx context.Context, req broker.BracketOrderRequest) (*broker.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return nil, broker.ErrNotConnected
	}

	order := broker.Order{
		OrderID:       uuid.NewString(),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Qty:           req.Qty,
		TakeProfit:    req.TakeProfit,
		StopLoss:      req.StopLoss,
		Status:        broker.OrderStatusAccepted,
		SubmittedAt:   time.Now(),
	}
	b.orders = append(b.orders, order)

	cost := req.Notional
	entry := req.Notional / req.Qty
	b.cash -= cost

	p := b.positions[req.Symbol]
	p.Symbol = req.Symbol
	p.AvgCost = weightedCost(p.Qty, p.AvgCost, req.Qty, entry)
	p.Qty += req.Qty
	p.MarketValue += cost
	b.positions[req.Symbol] = p

	return &order, nil
}

// GetOrders returns all submitted orders.
func (b *Broker) GetOrders(ctx context.Context) ([]broker.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.connected {
		return nil, broker.ErrNotConnected
	}

	out := make([]broker.Order, len(b.orders))
	copy(out, b.orders)
	return out, nil
}

func weightedCost(oldQty, oldCost, newQty, newCost float64) float64 {
	total := oldQty + newQty
	if total == 0 {
		return 0
	}
	return (oldQty*oldCost + newQty*newCost) / total
}
