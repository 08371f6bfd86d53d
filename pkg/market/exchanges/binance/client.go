// Package binance implements the exchange-backed market data variant:
// trading-pair catalog from /exchangeInfo and hourly OHLCV from /klines.
package binance

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"kriptobot/pkg/fetch"
	"kriptobot/pkg/market"
	"kriptobot/pkg/market/catalogstore"
)

const (
	defaultBaseURL   = "https://api.binance.com"
	exchangeInfoPath = "/api/v3/exchangeInfo"
	klinesPath       = "/api/v3/klines"

	klineInterval = "1h"
	hoursPerDay   = 24
	// maxKlineLimit is the upstream cap on a single /klines request.
	maxKlineLimit = 1000

	// statusTrading marks the symbols currently open for trading; everything
	// else (BREAK, HALT, delisted) stays out of the catalog.
	statusTrading = "TRADING"

	// defaultSnapshotMaxAge bounds how old an on-disk catalog snapshot may be
	// before the fallback rejects it.
	defaultSnapshotMaxAge = 24 * time.Hour
)

// Client wraps the Binance REST endpoints behind the catalog and series
// capabilities. The catalog populates once per process (single-flight via
// sync.Once); there is no invalidation path.
type Client struct {
	baseURL        string
	fetcher        *fetch.Client
	store          *catalogstore.Store
	snapshotMaxAge time.Duration

	catalogOnce sync.Once
	catalog     market.PairSet
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

// WithCatalogStore wires the on-disk catalog snapshot used as a cold-start
// fallback when population fails.
func WithCatalogStore(s *catalogstore.Store) Option {
	return func(c *Client) {
		c.store = s
	}
}

// WithSnapshotMaxAge overrides how old a snapshot the fallback will accept.
func WithSnapshotMaxAge(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.snapshotMaxAge = d
		}
	}
}

// NewClient constructs a Binance API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:        defaultBaseURL,
		fetcher:        fetch.NewClient(),
		snapshotMaxAge: defaultSnapshotMaxAge,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TradingPairs returns the memoized trading-pair catalog. Concurrent first
// callers share one population fetch; a failed population memoizes a
// degraded set (snapshot file if available, otherwise empty) and never
// surfaces an error.
func (c *Client) TradingPairs(ctx context.Context) market.PairSet {
	c.catalogOnce.Do(func() {
		c.catalog = c.populateCatalog(ctx)
	})
	return c.catalog
}

func (c *Client) populateCatalog(ctx context.Context) market.PairSet {
	var payload exchangeInfoResponse
	if err := c.fetcher.GetJSON(ctx, c.baseURL+exchangeInfoPath, nil, &payload); err != nil {
		logx.WithContext(ctx).Errorf("binance: catalog population failed err=%v", err)
		if c.store != nil {
			pairs, fetchedAt, loadErr := c.store.Load(c.snapshotMaxAge)
			if loadErr == nil {
				logx.WithContext(ctx).Infof("binance: catalog restored from snapshot pairs=%d age=%s",
					len(pairs), time.Since(fetchedAt).Round(time.Second))
				return pairs
			}
			logx.WithContext(ctx).Slowf("binance: catalog snapshot unusable err=%v", loadErr)
		}
		return market.PairSet{}
	}

	pairs := make(market.PairSet, len(payload.Symbols))
	for _, s := range payload.Symbols {
		if s.Symbol == "" || s.Status != statusTrading {
			continue
		}
		pairs[s.Symbol] = struct{}{}
	}

	if c.store != nil && len(pairs) > 0 {
		if err := c.store.Save(pairs); err != nil {
			logx.WithContext(ctx).Slowf("binance: catalog snapshot save failed err=%v", err)
		}
	}
	return pairs
}

// Klines fetches windowDays*24 hourly candles for a listed pair, normalizing
// every row. Malformed rows are dropped whole; any upstream failure yields
// an empty slice.
func (c *Client) Klines(ctx context.Context, symbol string, windowDays int) []market.Kline {
	if symbol == "" || windowDays <= 0 {
		return nil
	}

	limit := windowDays * hoursPerDay
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	params := url.Values{
		"symbol":   []string{symbol},
		"interval": []string{klineInterval},
		"limit":    []string{strconv.Itoa(limit)},
	}

	var rows [][]any
	if err := c.fetcher.GetJSON(ctx, c.baseURL+klinesPath, params, &rows); err != nil {
		logx.WithContext(ctx).Errorf("binance: kline fetch failed symbol=%s err=%v", symbol, err)
		return nil
	}

	klines := make([]market.Kline, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		k, ok := parseKlineRow(row)
		if !ok {
			dropped++
			continue
		}
		klines = append(klines, k)
	}
	if dropped > 0 {
		logx.WithContext(ctx).Slowf("binance: dropped malformed kline rows symbol=%s dropped=%d", symbol, dropped)
	}
	return klines
}
