package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/tradekit/osprey/internal/collector"
	"github.com/tradekit/osprey/internal/core"
)

const (
	defaultBaseURL = "https://data.alpaca.markets"
	pageLimit      = 10000
)

// Alpaca implements the Alpaca Market Data collector for daily US equity bars.
type Alpaca struct {
	client  *http.Client
	limiter *rate.Limiter
	config  collector.Config
}

// New creates a new Alpaca collector
func New() *Alpaca {
	return &Alpaca{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		// free tier allows 200 requests per minute
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

func (a *Alpaca) Name() string {
	return "alpaca"
}

func (a *Alpaca) Init(cfg collector.Config) error {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("alpaca key or secret not set"))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	a.config = cfg
	return nil
}

// barsResponse mirrors the Market Data v2 stock bars payload.
type barsResponse struct {
	Bars          []barJSON `json:"bars"`
	Symbol        string    `json:"symbol"`
	NextPageToken *string   `json:"next_page_token"`
}

type barJSON struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume int64     `json:"v"`
}

// FetchDailyBars fetches daily bars for a symbol, following pagination until
// the server reports no further pages.
func (a *Alpaca) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error) {
	if err := collector.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	var bars []core.Bar
	pageToken := ""
	for {
		page, next, err := a.fetchPage(ctx, symbol, start, end, pageToken)
		if err != nil {
			return nil, err
		}
		bars = append(bars, page...)
		if next == "" {
			break
		}
		pageToken = next
	}

	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrNoData, fmt.Errorf("no bars for symbol: %s", symbol))
	}
	return bars, nil
}

func (a *Alpaca) fetchPage(ctx context.Context, symbol string, start, end time.Time, pageToken string) ([]core.Bar, string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	q := url.Values{}
	q.Set("timeframe", "1Day")
	q.Set("start", start.Format(time.RFC3339))
	q.Set("end", end.Format(time.RFC3339))
	q.Set("limit", fmt.Sprintf("%d", pageLimit))
	q.Set("adjustment", "raw")
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars?%s", a.config.BaseURL, symbol, q.Encode())

	var result barsResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("APCA-API-KEY-ID", a.config.APIKey)
		req.Header.Set("APCA-API-SECRET-KEY", a.config.APISecret)

		resp, err := a.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("retryable status: %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("unexpected status: %d", resp.StatusCode))
		}

		result = barsResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, "", core.WrapError(core.ErrCollectorFailed, err)
	}

	bars := make([]core.Bar, 0, len(result.Bars))
	for _, b := range result.Bars {
		bars = append(bars, core.Bar{
			Symbol: symbol,
			Time:   b.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	next := ""
	if result.NextPageToken != nil {
		next = *result.NextPageToken
	}
	return bars, next, nil
}
