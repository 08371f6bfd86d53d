package coingecko

import (
	"context"
	"net/http"
	"time"

	"kriptobot/pkg/fetch"
	"kriptobot/pkg/market"
)

const defaultProviderTimeout = 30 * time.Second

// Provider exposes the CoinGecko client behind the generic market capability
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

// WithClient injects a pre-built CoinGecko client.
func WithClient(client *Client) ProviderOption {
	return func(p *Provider) {
		if client != nil {
			p.client = client
		}
	}
}

// NewProvider constructs a CoinGecko market provider.
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
	market.RegisterProvider("coingecko", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
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

		providerOpts := []ProviderOption{WithClient(NewClient(clientOpts...))}
		if cfg.Timeout > 0 {
			providerOpts = append(providerOpts, WithTimeout(cfg.Timeout))
		}
		return NewProvider(providerOpts...), nil
	})
}

// Lookup implements market.CoinIndex.
func (p *Provider) Lookup(ctx context.Context, id string) (*market.Coin, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.client.Lookup(ctx, id)
}

// Search implements market.CoinIndex.
func (p *Provider) Search(ctx context.Context, query string) ([]market.Suggestion, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.client.Search(ctx, query)
}

// TopMarkets implements market.CoinIndex.
func (p *Provider) TopMarkets(ctx context.Context, limit int) ([]market.MarketEntry, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.client.TopMarkets(ctx, limit)
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
