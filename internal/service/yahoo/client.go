package yahoo

import (
	"context"
	"fmt"
	"time"

	"MarketWire/internal/domain/models"
	domrepo "MarketWire/internal/domain/repository"
	"MarketWire/internal/service/ratelimit"
	"MarketWire/internal/services/features"
	"MarketWire/pkg/cache"
	apphttp "MarketWire/pkg/http"
	applogger "MarketWire/pkg/logger"
)

const (
	defaultBaseURL  = "https://query1.finance.yahoo.com"
	defaultRange    = "3mo"
	defaultInterval = "1d"

	rateLimitKey = "yahoo:chart"
)

// chartResponse mirrors the subset of the Yahoo Finance v8 chart payload
// the client needs.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string  `json:"symbol"`
		ShortName            string  `json:"shortName"`
		LongName             string  `json:"longName"`
		RegularMarketPrice   float64 `json:"regularMarketPrice"`
		ChartPreviousClose   float64 `json:"chartPreviousClose"`
		PreviousClose        float64 `json:"previousClose"`
		RegularMarketVolume  int64   `json:"regularMarketVolume"`
		RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
		RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
		FiftyTwoWeekHigh     float64 `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow      float64 `json:"fiftyTwoWeekLow"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []float64 `json:"open"`
			High   []float64 `json:"high"`
			Low    []float64 `json:"low"`
			Close  []float64 `json:"close"`
			Volume []int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type cachedQuote struct {
	Snapshot models.MarketSnapshot `json:"snapshot"`
	Bars     []models.Bar          `json:"bars"`
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the Yahoo endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithCacheTTL sets how long fetched quotes are reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

// WithSMAWindows sets the short and long moving-average windows.
func WithSMAWindows(short, long int) Option {
	return func(c *Client) {
		if short > 0 {
			c.smaShort = short
		}
		if long > 0 {
			c.smaLong = long
		}
	}
}

// WithRateLimit sets the token-bucket parameters for outbound calls.
func WithRateLimit(capacity, refillPerSec float64) Option {
	return func(c *Client) {
		c.rlCapacity = capacity
		c.rlRefill = refillPerSec
	}
}

// Client fetches quotes from the Yahoo Finance v8 chart API and derives
// the indicator fields the detector consumes.
type Client struct {
	http    *apphttp.Client
	cache   cache.Service
	limiter *ratelimit.Limiter
	metrics domrepo.Metrics
	l       *applogger.Logger

	baseURL    string
	cacheTTL   time.Duration
	smaShort   int
	smaLong    int
	rlCapacity float64
	rlRefill   float64
}

var _ domrepo.QuoteSource = (*Client)(nil)

func NewClient(httpClient *apphttp.Client, cacheSvc cache.Service, limiter *ratelimit.Limiter, metrics domrepo.Metrics, l *applogger.Logger, opts ...Option) *Client {
	c := &Client{
		http:       httpClient,
		cache:      cacheSvc,
		limiter:    limiter,
		metrics:    metrics,
		l:          l,
		baseURL:    defaultBaseURL,
		cacheTTL:   60 * time.Second,
		smaShort:   5,
		smaLong:    20,
		rlCapacity: 10,
		rlRefill:   2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the latest snapshot and daily bars for symbol. Recent
// results are served from cache to keep the scan loop cheap.
func (c *Client) Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, []models.Bar, error) {
	key := cache.GenerateKey("quote", symbol)

	if c.cache != nil {
		var cq cachedQuote
		if err := c.cache.Get(ctx, key, &cq); err == nil {
			return &cq.Snapshot, cq.Bars, nil
		}
	}

	if c.limiter != nil && !c.limiter.Allow(rateLimitKey, c.rlCapacity, c.rlRefill) {
		return nil, nil, fmt.Errorf("yahoo: rate limited for %s", symbol)
	}

	var resp chartResponse
	start := time.Now()
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, symbol),
		Headers: map[string]string{
			"User-Agent": "marketwire/1.0",
		},
		QueryParams: map[string][]string{
			"range":    {defaultRange},
			"interval": {defaultInterval},
		},
	}, &resp)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordError("yahoo_fetch")
		}
		return nil, nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if c.metrics != nil {
		c.metrics.RecordLatency("yahoo_chart", time.Since(start).Seconds())
	}

	if resp.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo chart %s: %s (%s)", symbol, resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil, fmt.Errorf("yahoo chart %s: empty result", symbol)
	}

	snap, bars, err := buildSnapshot(&resp.Chart.Result[0], symbol, c.smaShort, c.smaLong, time.Now().UTC())
	if err != nil {
		return nil, nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	if c.metrics != nil {
		c.metrics.RecordQuoteFetched(symbol)
		c.metrics.RecordLastPrice(symbol, snap.CurrentPrice)
	}
	if c.l != nil {
		c.l.Debug("quote fetched",
			applogger.String("symbol", symbol),
			applogger.Any("price", snap.CurrentPrice),
			applogger.Int("bars", len(bars)),
		)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, cachedQuote{Snapshot: *snap, Bars: bars}, c.cacheTTL); err != nil && c.l != nil {
			c.l.Warn("quote cache write failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	return snap, bars, nil
}

// buildSnapshot derives the snapshot fields from a chart result. Kept
// separate from transport so the arithmetic is testable on fixtures.
func buildSnapshot(res *chartResult, symbol string, smaShort, smaLong int, now time.Time) (*models.MarketSnapshot, []models.Bar, error) {
	if res.Meta.RegularMarketPrice <= 0 {
		return nil, nil, fmt.Errorf("no market price in response")
	}
	if len(res.Indicators.Quote) == 0 {
		return nil, nil, fmt.Errorf("no quote series in response")
	}

	quote := res.Indicators.Quote[0]

	bars := make([]models.Bar, 0, len(res.Timestamp))
	closes := make([]float64, 0, len(res.Timestamp))
	volumes := make([]int64, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] <= 0 {
			continue
		}
		bar := models.Bar{
			Symbol: symbol,
			TS:     time.Unix(ts, 0).UTC(),
			Close:  quote.Close[i],
		}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		bars = append(bars, bar)
		closes = append(closes, bar.Close)
		volumes = append(volumes, bar.Volume)
	}
	if len(bars) == 0 {
		return nil, nil, fmt.Errorf("no usable bars in response")
	}

	previous := res.Meta.PreviousClose
	if previous <= 0 {
		previous = res.Meta.ChartPreviousClose
	}
	if previous <= 0 && len(closes) >= 2 {
		previous = closes[len(closes)-2]
	}

	current := res.Meta.RegularMarketPrice

	volume := res.Meta.RegularMarketVolume
	if volume <= 0 {
		volume = volumes[len(volumes)-1]
	}

	name := res.Meta.LongName
	if name == "" {
		name = res.Meta.ShortName
	}
	if name == "" {
		name = symbol
	}

	high24 := res.Meta.RegularMarketDayHigh
	low24 := res.Meta.RegularMarketDayLow
	if high24 <= 0 {
		high24 = bars[len(bars)-1].High
	}
	if low24 <= 0 {
		low24 = bars[len(bars)-1].Low
	}

	snap := &models.MarketSnapshot{
		Symbol:        symbol,
		Name:          name,
		CurrentPrice:  current,
		PreviousPrice: previous,
		ChangePercent: features.ChangePercent(current, previous),
		Volume:        volume,
		AverageVolume: features.TrailingAverageVolume(volumes),
		SMAShort:      features.SMA(closes, smaShort),
		SMALong:       features.SMA(closes, smaLong),
		High52W:       res.Meta.FiftyTwoWeekHigh,
		Low52W:        res.Meta.FiftyTwoWeekLow,
		High24H:       high24,
		Low24H:        low24,
		ObservedAt:    now,
	}

	return snap, bars, nil
}
