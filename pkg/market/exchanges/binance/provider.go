package binance

import (
	"context"
	"net/http"
	"time"

	"kriptobot/pkg/fetch"
	"kriptobot/pkg/market"
	"kriptobot/pkg/market/catalogstore"
)

const defaultProviderTimeout = 30 * time.Second

// Provider exposes the Binance client behind the generic market capability
// interfaces with a per-call deadline.
type Provider struct {
	client  *Client
	timeout time.Duration
}

// ProviderOption customises the provider.
type ProviderOption func(*Provider)

// WithTimeout overrides the per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithClient injects a pre-built Binance client.
func WithClient(client *Client) ProviderOption {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

// NewProvider constructs a Binance market provider.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{
		timeout: defaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = NewClient()
	}
	return p
}

func init() {
	market.RegisterProvider("binance", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		clientOpts := []Option{}
		if cfg.BaseURL != "" {
			clientOpts = append(clientOpts, WithBaseURL(cfg.BaseURL))
		}
		fetchOpts := []fetch.Option{}
		if cfg.HTTPTimeout > 0 {
			fetchOpts = append(fetchOpts, fetch.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		if cfg.MaxRetries > 0 {
			fetchOpts = append(fetchOpts, fetch.WithMaxAttempts(cfg.MaxRetries))
		}
		if len(fetchOpts) > 0 {
			clientOpts = append(clientOpts, WithFetcher(fetch.NewClient(fetchOpts...)))
		}
		if cfg.CacheFile != "" {
			clientOpts = append(clientOpts, WithCatalogStore(catalogstore.New(cfg.CacheFile)))
		}
		if cfg.CacheMaxAge > 0 {
			clientOpts = append(clientOpts, WithSnapshotMaxAge(cfg.CacheMaxAge))
		}

		providerOpts := []ProviderOption{WithClient(NewClient(clientOpts...))}
		if cfg.Timeout > 0 {
			providerOpts = append(providerOpts, WithTimeout(cfg.Timeout))
		}
		return NewProvider(providerOpts...), nil
	})
}

// TradingPairs implements market.CatalogSource.
func (p *Provider) TradingPairs(ctx context.Context) market.PairSet {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.client.TradingPairs(ctx)
}

// Klines implements market.SeriesSource.
func (p *Provider) Klines(ctx context.Context, symbol string, windowDays int) []market.Kline {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.client.Klines(ctx, symbol, windowDays)
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, p.timeout)
}
