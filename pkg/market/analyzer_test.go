package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeExchange struct {
	fakeCatalog
	series      map[string][]Kline
	seriesCalls []string
}

func (f *fakeExchange) Klines(ctx context.Context, symbol string, windowDays int) []Kline {
	f.seriesCalls = append(f.seriesCalls, symbol)
	return f.series[symbol]
}

type fakeProxy struct {
	series map[string][]Kline
	calls  []string
}

func (f *fakeProxy) Klines(ctx context.Context, symbol string, windowDays int) []Kline {
	f.calls = append(f.calls, symbol)
	return f.series[symbol]
}

func risingSeries(n int) []Kline {
	return hourlyKlines(n,
		func(i int) float64 { return 100 + float64(i) },
		func(i int) float64 { return 1000 + float64(i) },
	)
}

func TestAnalyzeListedPair(t *testing.T) {
	exchange := &fakeExchange{
		fakeCatalog: fakeCatalog{pairs: pairSet("BTCUSDT", "ETHUSDT")},
		series:      map[string][]Kline{"ETHUSDT": risingSeries(60)},
	}
	index := &fakeIndex{coins: map[string]*Coin{
		"ethereum": {ID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
	}}

	a := NewAnalyzer(exchange, index)
	analysis, err := a.Analyze(context.Background(), "ethereum")
	require.NoError(t, err)
	require.Equal(t, "ETHUSDT", analysis.Pair)
	require.Equal(t, "Ethereum", analysis.Coin.Name)
	require.NotNil(t, analysis.Snapshot)
	require.Greater(t, analysis.Snapshot.RSI, 50.0)
}

func TestAnalyzeFallsBackToProxySeries(t *testing.T) {
	exchange := &fakeExchange{
		fakeCatalog: fakeCatalog{pairs: pairSet("BTCUSDT")},
	}
	index := &fakeIndex{coins: map[string]*Coin{
		"unlisted-coin": {ID: "unlisted-coin", Symbol: "UNL", Name: "Unlisted"},
	}}
	proxy := &fakeProxy{series: map[string][]Kline{"unlisted-coin": risingSeries(60)}}

	a := NewAnalyzer(exchange, index, WithProxySeries(proxy))
	analysis, err := a.Analyze(context.Background(), "unlisted-coin")
	require.NoError(t, err)
	require.Empty(t, analysis.Pair)
	require.NotNil(t, analysis.Snapshot)
	require.Equal(t, []string{"unlisted-coin"}, proxy.calls)
}

func TestAnalyzeInsufficientData(t *testing.T) {
	exchange := &fakeExchange{
		fakeCatalog: fakeCatalog{pairs: pairSet("ETHUSDT")},
		series:      map[string][]Kline{"ETHUSDT": risingSeries(20)},
	}
	index := &fakeIndex{coins: map[string]*Coin{
		"ethereum": {ID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
	}}

	a := NewAnalyzer(exchange, index)
	_, err := a.Analyze(context.Background(), "ethereum")

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 20, insufficient.Count)
}

func TestAnalyzeEmptySeriesIsInsufficientNotError(t *testing.T) {
	// Upstream outage: exchange yields nothing, no proxy configured. The
	// outcome is the data-insufficiency signal, not a network error.
	exchange := &fakeExchange{fakeCatalog: fakeCatalog{pairs: pairSet("ETHUSDT")}}
	index := &fakeIndex{coins: map[string]*Coin{
		"ethereum": {ID: "ethereum", Symbol: "ETH", Name: "Ethereum"},
	}}

	a := NewAnalyzer(exchange, index)
	_, err := a.Analyze(context.Background(), "ethereum")

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	require.Zero(t, insufficient.Count)
}

func TestAnalyzeNotFoundPassthrough(t *testing.T) {
	exchange := &fakeExchange{fakeCatalog: fakeCatalog{pairs: PairSet{}}}
	index := &fakeIndex{coins: map[string]*Coin{}, searches: map[string][]Suggestion{}}

	a := NewAnalyzer(exchange, index)
	_, err := a.Analyze(context.Background(), "doge")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReferenceSnapshot(t *testing.T) {
	exchange := &fakeExchange{
		fakeCatalog: fakeCatalog{pairs: pairSet("BTCUSDT")},
		series:      map[string][]Kline{"BTCUSDT": risingSeries(60)},
	}
	a := NewAnalyzer(exchange, &fakeIndex{})

	ref := a.Reference(context.Background())
	require.NotNil(t, ref)
	require.Greater(t, ref.Price, 0.0)
}

func TestReferenceDegradesToNeutral(t *testing.T) {
	exchange := &fakeExchange{fakeCatalog: fakeCatalog{pairs: PairSet{}}}
	a := NewAnalyzer(exchange, &fakeIndex{})

	ref := a.Reference(context.Background())
	require.NotNil(t, ref)
	require.Zero(t, ref.Price)
	require.InDelta(t, 50.0, ref.RSI, 1e-9)
}
