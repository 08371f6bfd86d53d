// Package coingecko implements the aggregator-backed market data variant:
// coin catalog lookup and search, market-cap listings, and a point-price
// proxy series for coins without exchange OHLC history.
package coingecko

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"kriptobot/pkg/fetch"
	"kriptobot/pkg/market"
)

const (
	defaultBaseURL  = "https://api.coingecko.com"
	coinsPath       = "/api/v3/coins/"
	searchPath      = "/api/v3/search"
	marketsPath     = "/api/v3/coins/markets"
	marketChartPath = "/api/v3/coins/%s/market_chart"

	vsCurrency   = "usd"
	marketsOrder = "market_cap_desc"
)

// Client wraps the CoinGecko REST endpoints behind the coin index and proxy
// series capabilities. It holds no state beyond its configuration.
type Client struct {
	baseURL string
	fetcher *fetch.Client
}

// Option configures a new Client.
type Option func(*Client)

// WithBaseURL overrides the REST endpoint base.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithFetcher injects a custom fetch client.
func WithFetcher(f *fetch.Client) Option {
	return func(c *Client) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// NewClient constructs a CoinGecko API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		fetcher: fetch.NewClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches the catalog entry for an exact coin id. An unknown id maps
// to market.ErrNotFound; transport failures surface as-is.
func (c *Client) Lookup(ctx context.Context, id string) (*market.Coin, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, market.ErrNotFound
	}

	var payload coinResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+coinsPath+url.PathEscape(id), nil, &payload); err != nil {
		var status *fetch.StatusError
		if errors.As(err, &status) && status.Code == http.StatusNotFound {
			return nil, market.ErrNotFound
		}
		return nil, fmt.Errorf("coingecko: lookup %q: %w", id, err)
	}
	if payload.ID == "" {
		return nil, market.ErrNotFound
	}
	return &market.Coin{
		ID:     payload.ID,
		Symbol: strings.ToUpper(payload.Symbol),
		Name:   payload.Name,
	}, nil
}

// Search runs a fuzzy catalog query and returns candidates in the upstream
// relevance order, untruncated.
func (c *Client) Search(ctx context.Context, query string) ([]market.Suggestion, error) {
	params := url.Values{"query": []string{query}}

	var payload searchResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+searchPath, params, &payload); err != nil {
		return nil, fmt.Errorf("coingecko: search %q: %w", query, err)
	}

	suggestions := make([]market.Suggestion, 0, len(payload.Coins))
	for _, coin := range payload.Coins {
		if coin.ID == "" {
			continue
		}
		suggestions = append(suggestions, market.Suggestion{
			ID:     coin.ID,
			Symbol: strings.ToUpper(coin.Symbol),
			Name:   coin.Name,
		})
	}
	return suggestions, nil
}

// TopMarkets lists the top coins by market capitalization, priced in USD.
func (c *Client) TopMarkets(ctx context.Context, limit int) ([]market.MarketEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	params := url.Values{
		"vs_currency": []string{vsCurrency},
		"order":       []string{marketsOrder},
		"per_page":    []string{strconv.Itoa(limit)},
		"page":        []string{"1"},
		"sparkline":   []string{"false"},
	}

	var rows []marketsRow
	if err := c.fetcher.GetJSON(ctx, c.baseURL+marketsPath, params, &rows); err != nil {
		return nil, fmt.Errorf("coingecko: top markets: %w", err)
	}

	entries := make([]market.MarketEntry, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" {
			continue
		}
		entries = append(entries, market.MarketEntry{
			ID:        row.ID,
			Symbol:    strings.ToUpper(row.Symbol),
			Name:      row.Name,
			Price:     row.CurrentPrice,
			Change24h: row.Change24h,
			Rank:      row.MarketCapRank,
		})
	}
	return entries, nil
}

// Klines synthesizes an hourly proxy series from market_chart point prices:
// open, high, low and close all carry the point price, volume comes from the
// paired total_volumes row. Upstream failure yields an empty slice.
func (c *Client) Klines(ctx context.Context, symbol string, windowDays int) []market.Kline {
	id := strings.ToLower(strings.TrimSpace(symbol))
	if id == "" || windowDays <= 0 {
		return nil
	}
	params := url.Values{
		"vs_currency": []string{vsCurrency},
		"days":        []string{strconv.Itoa(windowDays)},
	}

	var payload marketChartResponse
	path := fmt.Sprintf(marketChartPath, url.PathEscape(id))
	if err := c.fetcher.GetJSON(ctx, c.baseURL+path, params, &payload); err != nil {
		logx.WithContext(ctx).Errorf("coingecko: market chart fetch failed id=%s err=%v", id, err)
		return nil
	}

	volumes := make(map[int64]float64, len(payload.TotalVolumes))
	for _, pair := range payload.TotalVolumes {
		if len(pair) < 2 {
			continue
		}
		volumes[int64(pair[0])] = pair[1]
	}

	klines := make([]market.Kline, 0, len(payload.Prices))
	dropped := 0
	for _, pair := range payload.Prices {
		if len(pair) < 2 {
			dropped++
			continue
		}
		ts, price := int64(pair[0]), pair[1]
		if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			dropped++
			continue
		}
		volume := volumes[ts]
		if volume < 0 || math.IsNaN(volume) || math.IsInf(volume, 0) {
			volume = 0
		}
		klines = append(klines, market.Kline{
			OpenTime:  ts,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    volume,
			CloseTime: ts,
		})
	}
	if dropped > 0 {
		logx.WithContext(ctx).Slowf("coingecko: dropped malformed chart points id=%s dropped=%d", id, dropped)
	}
	return klines
}
