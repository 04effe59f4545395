package collector

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/tradekit/osprey/internal/core"
)

// Config holds collector configuration
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Lookback  time.Duration
	Extra     map[string]any
}

// Collector defines the interface for market data collectors
type Collector interface {
	// Metadata
	Name() string

	// Lifecycle
	Init(cfg Config) error

	// FetchDailyBars fetches daily OHLCV bars for a symbol within [start, end],
	// oldest first.
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error)
}

// validSymbol matches equity symbols like AAPL, MSFT, BRK.B
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

// ValidateSymbol checks if a symbol has valid format
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}
