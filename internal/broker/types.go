// Package broker provides types and interfaces for brokerage integrations.
package broker

import (
	"context"
	"errors"
	"time"
)

// Broker-specific errors.
var (
	// ErrNotConnected indicates the broker is not connected.
	ErrNotConnected = errors.New("broker: not connected")
	// ErrInvalidSymbol indicates an invalid or empty symbol.
	ErrInvalidSymbol = errors.New("broker: invalid symbol")
	// ErrInvalidQuantity indicates an invalid quantity.
	ErrInvalidQuantity = errors.New("broker: invalid quantity")
	// ErrInvalidLevels indicates stop/target levels that cannot bracket a long.
	ErrInvalidLevels = errors.New("broker: take profit must be above stop loss")
	// ErrPositionNotFound indicates the position was not found.
	ErrPositionNotFound = errors.New("broker: position not found")
)

// OrderStatus represents the lifecycle status of an order.
type OrderStatus string

const (
	// OrderStatusAccepted indicates the order was accepted by the broker.
	OrderStatusAccepted OrderStatus = "ACCEPTED"
	// OrderStatusFilled indicates the order has been filled.
	OrderStatusFilled OrderStatus = "FILLED"
	// OrderStatusRejected indicates the order was rejected.
	OrderStatusRejected OrderStatus = "REJECTED"
)

// Balance represents account balance information.
type Balance struct {
	// Cash is the available cash balance.
	Cash float64 `json:"cash"`
	// PortfolioValue is the total account value including positions.
	PortfolioValue float64 `json:"portfolio_value"`
	// UpdatedAt is when the balance was last fetched.
	UpdatedAt time.Time `json:"updated_at"`
}

// Position represents a holding in a security.
type Position struct {
	Symbol       string  `json:"symbol"`
	Qty          float64 `json:"qty"`
	AvgCost      float64 `json:"avg_cost"`
	MarketValue  float64 `json:"market_value"`
	UnrealizedPL float64 `json:"unrealized_pl"`
}

// BracketOrderRequest asks for a long entry protected by a stop-loss and
// capped by a take-profit limit.
type BracketOrderRequest struct {
	Symbol string `json:"symbol"`
	// Qty is the number of shares, fractional allowed.
	Qty float64 `json:"qty"`
	// Notional is the intended dollar exposure, informational.
	Notional float64 `json:"notional"`
	// TakeProfit is the limit price closing the position in profit.
	TakeProfit float64 `json:"take_profit"`
	// StopLoss is the stop price closing the position at a loss.
	StopLoss float64 `json:"stop_loss"`
	// ClientOrderID is an optional client-specified identifier.
	ClientOrderID string `json:"client_order_id,omitempty"`
	// TimeInForce specifies how long the order remains active.
	TimeInForce string `json:"time_in_force,omitempty"`
}

// Validate checks if the bracket request has valid required fields.
func (r BracketOrderRequest) Validate() error {
	if r.Symbol == "" {
		return ErrInvalidSymbol
	}
	if r.Qty <= 0 {
		return ErrInvalidQuantity
	}
	if r.TakeProfit <= r.StopLoss || r.StopLoss <= 0 {
		return ErrInvalidLevels
	}
	return nil
}

// Order represents a submitted bracket order.
type Order struct {
	OrderID       string      `json:"order_id"`
	ClientOrderID string      `json:"client_order_id,omitempty"`
	Symbol        string      `json:"symbol"`
	Qty           float64     `json:"qty"`
	TakeProfit    float64     `json:"take_profit"`
	StopLoss      float64     `json:"stop_loss"`
	Status        OrderStatus `json:"status"`
	SubmittedAt   time.Time   `json:"submitted_at"`
}

// Broker defines the interface for brokerage integrations.
type Broker interface {
	// Name returns the broker identifier (e.g., "paper", "alpaca").
	Name() string

	// Connection management
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	// Account operations
	GetBalance(ctx context.Context) (*Balance, error)
	GetPositions(ctx context.Context) ([]Position, error)
	GetPosition(ctx context.Context, symbol string) (*Position, error)

	// Order operations
	PlaceBracketOrder(ctx context.Context, request BracketOrderRequest) (*Order, error)
	GetOrders(ctx context.Context) ([]Order, error)
}
