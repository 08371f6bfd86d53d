package market

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultWindowDays      = 30
	defaultReferenceSymbol = "BTC"
)

// ExchangeSource couples the catalog and candle capabilities an exchange
// provider offers.
type ExchangeSource interface {
	CatalogSource
	SeriesSource
}

// Analysis bundles the resolved identity with its computed snapshot. Pair is
// empty when the aggregator proxy series supplied the data.
type Analysis struct {
	Coin     Coin
	Pair     string
	Snapshot *Snapshot
}

// Analyzer drives the request pipeline: resolve the input, fetch an hourly
// window, compute the snapshot. Exchange candles are preferred; when the
// symbol has no listed pair or the exchange returns nothing, the aggregator
// proxy series steps in.
type Analyzer struct {
	exchange   ExchangeSource
	index      CoinIndex
	proxy      SeriesSource
	resolver   *Resolver
	windowDays int
	refSymbol  string
}

// AnalyzerOption customises an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithProxySeries wires the aggregator-backed fallback series source.
func WithProxySeries(s SeriesSource) AnalyzerOption {
	return func(a *Analyzer) {
		a.proxy = s
	}
}

// WithWindowDays overrides the historical window size.
func WithWindowDays(days int) AnalyzerOption {
	return func(a *Analyzer) {
		if days > 0 {
			a.windowDays = days
		}
	}
}

// WithReferenceSymbol overrides the baseline symbol used by Reference.
func WithReferenceSymbol(symbol string) AnalyzerOption {
	return func(a *Analyzer) {
		if symbol != "" {
			a.refSymbol = symbol
		}
	}
}

// NewAnalyzer constructs the pipeline over an exchange source and a coin
// index.
func NewAnalyzer(exchange ExchangeSource, index CoinIndex, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		exchange:   exchange,
		index:      index,
		windowDays: defaultWindowDays,
		refSymbol:  defaultReferenceSymbol,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.resolver = NewResolver(exchange, index)
	return a
}

// Resolver exposes the analyzer's resolver for callers that only need
// symbol resolution (e.g. search-style commands).
func (a *Analyzer) Resolver() *Resolver {
	return a.resolver
}

// Index exposes the coin index capability.
func (a *Analyzer) Index() CoinIndex {
	return a.index
}

// Analyze resolves input and computes its snapshot. Terminal outcomes
// surface as ErrNotFound, *AmbiguousError, *InsufficientDataError or
// *ComputationError.
func (a *Analyzer) Analyze(ctx context.Context, input string) (*Analysis, error) {
	coin, err := a.resolver.ResolveCoin(ctx, input)
	if err != nil {
		return nil, err
	}
	return a.analyzeCoin(ctx, coin)
}

func (a *Analyzer) analyzeCoin(ctx context.Context, coin *Coin) (*Analysis, error) {
	var klines []Kline

	pair, listed := a.resolver.ResolvePair(ctx, coin.Symbol)
	if listed {
		klines = a.exchange.Klines(ctx, pair, a.windowDays)
	}
	if len(klines) == 0 && a.proxy != nil && coin.ID != "" {
		pair = ""
		klines = a.proxy.Klines(ctx, coin.ID, a.windowDays)
	}

	snap, err := ComputeSnapshot(klines)
	if err != nil {
		return nil, err
	}
	return &Analysis{Coin: *coin, Pair: pair, Snapshot: snap}, nil
}

// Reference computes the baseline snapshot (BTC by default) used to anchor
// the analysis prompt. It degrades to a neutral snapshot instead of failing
// the request.
func (a *Analyzer) Reference(ctx context.Context) *Snapshot {
	pair, listed := a.resolver.ResolvePair(ctx, a.refSymbol)
	if listed {
		if snap, err := ComputeSnapshot(a.exchange.Klines(ctx, pair, a.windowDays)); err == nil {
			return snap
		} else {
			logx.WithContext(ctx).Slowf("market: reference snapshot unavailable symbol=%s err=%v", a.refSymbol, err)
		}
	}
	return &Snapshot{RSI: neutralRSI}
}
