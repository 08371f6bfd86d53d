// Package news aggregates recent crypto headlines from CryptoCompare and
// CryptoPanic, filtered down to the coin under analysis.
package news

import (
	"context"
	"net/url"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"kriptobot/pkg/fetch"
)

const (
	defaultCryptoCompareURL = "https://min-api.cryptocompare.com/data/v2/news/"
	defaultCryptoPanicURL   = "https://api.cryptopanic.com/v1/posts/"

	// maxHeadlines caps the aggregate across both sources.
	maxHeadlines = 5
)

// Headline is one matched news item.
type Headline struct {
	Source string
	Title  string
	URL    string
}

// Config carries the aggregator endpoints and the CryptoPanic key. Zero
// values fall back to the public endpoints; an empty key skips CryptoPanic.
type Config struct {
	CryptoCompareURL string `json:"cryptoCompareUrl,optional" yaml:"crypto_compare_url"`
	CryptoPanicURL   string `json:"cryptoPanicUrl,optional" yaml:"crypto_panic_url"`
	CryptoPanicKey   string `json:"cryptoPanicKey,optional" yaml:"crypto_panic_key"`
}

// Aggregator fans queries out to the configured sources. Source failures
// degrade to fewer headlines, never to an error.
type Aggregator struct {
	cfg     Config
	fetcher *fetch.Client
}

// Option configures a new Aggregator.
type Option func(*Aggregator)

// WithFetcher injects a custom fetch client.
func WithFetcher(f *fetch.Client) Option {
	return func(a *Aggregator) {
		if f != nil {
			a.fetcher = f
		}
	}
}

// NewAggregator constructs a news aggregator.
func NewAggregator(cfg Config, opts ...Option) *Aggregator {
	if cfg.CryptoCompareURL == "" {
		cfg.CryptoCompareURL = defaultCryptoCompareURL
	}
	if cfg.CryptoPanicURL == "" {
		cfg.CryptoPanicURL = defaultCryptoPanicURL
	}
	a := &Aggregator{
		cfg:     cfg,
		fetcher: fetch.NewClient(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Headlines returns up to five recent items mentioning the coin by name or
// symbol, CryptoCompare first. A source that fails is logged and skipped.
func (a *Aggregator) Headlines(ctx context.Context, coinName, symbol string) []Headline {
	terms := searchTerms(coinName, symbol)
	if len(terms) == 0 {
		return nil
	}

	items := a.cryptoCompare(ctx, terms)
	if len(items) < maxHeadlines {
		items = append(items, a.cryptoPanic(ctx, terms, maxHeadlines-len(items))...)
	}
	if len(items) > maxHeadlines {
		items = items[:maxHeadlines]
	}
	return items
}

type cryptoCompareResponse struct {
	Data []struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		URL   string `json:"url"`
	} `json:"Data"`
}

func (a *Aggregator) cryptoCompare(ctx context.Context, terms []string) []Headline {
	params := url.Values{"lang": []string{"EN"}}

	var payload cryptoCompareResponse
	if err := a.fetcher.GetJSON(ctx, a.cfg.CryptoCompareURL, params, &payload); err != nil {
		logx.WithContext(ctx).Errorf("news: cryptocompare fetch failed err=%v", err)
		return nil
	}

	var matched []Headline
	for _, item := range payload.Data {
		if !mentionsAny(item.Title+" "+item.Body, terms) {
			continue
		}
		matched = append(matched, Headline{Source: "CryptoCompare", Title: item.Title, URL: item.URL})
		if len(matched) >= maxHeadlines {
			break
		}
	}
	return matched
}

type cryptoPanicResponse struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"results"`
}

func (a *Aggregator) cryptoPanic(ctx context.Context, terms []string, budget int) []Headline {
	if a.cfg.CryptoPanicKey == "" || budget <= 0 {
		return nil
	}
	params := url.Values{
		"auth_token": []string{a.cfg.CryptoPanicKey},
		"public":     []string{"true"},
	}

	var payload cryptoPanicResponse
	if err := a.fetcher.GetJSON(ctx, a.cfg.CryptoPanicURL, params, &payload); err != nil {
		logx.WithContext(ctx).Errorf("news: cryptopanic fetch failed err=%v", err)
		return nil
	}

	var matched []Headline
	for _, item := range payload.Results {
		if !mentionsAny(item.Title, terms) {
			continue
		}
		matched = append(matched, Headline{Source: "CryptoPanic", Title: item.Title, URL: item.URL})
		if len(matched) >= budget {
			break
		}
	}
	return matched
}

func searchTerms(coinName, symbol string) []string {
	var terms []string
	for _, raw := range []string{coinName, symbol} {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

func mentionsAny(text string, terms []string) bool {
	text = strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
