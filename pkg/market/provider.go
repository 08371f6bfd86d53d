package market

import "context"

// Kline is one normalized OHLCV bucket. All numeric fields are finite and
// non-negative; rows that fail coercion upstream are dropped, never
// zero-filled.
type Kline struct {
	OpenTime      int64   // bucket open, unix milliseconds
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        float64
	CloseTime     int64
	QuoteVolume   float64
	TradeCount    int64
	TakerBuyBase  float64
	TakerBuyQuote float64
}

// PairSet holds the canonical trading-pair identifiers of an exchange.
type PairSet map[string]struct{}

// Has reports whether the pair is listed. An empty set means the catalog is
// unknown, not that nothing trades.
func (s PairSet) Has(pair string) bool {
	_, ok := s[pair]
	return ok
}

// Coin is a resolved catalog entry: canonical id plus display metadata.
// Never mutated after creation.
type Coin struct {
	ID     string // catalog id, e.g. "bitcoin"
	Symbol string // short code, upper case, e.g. "BTC"
	Name   string // display name, e.g. "Bitcoin"
}

// Suggestion is one candidate offered when resolution is ambiguous.
type Suggestion struct {
	ID     string
	Symbol string
	Name   string
}

// MarketEntry is a row of the market-cap ranked coin listing.
type MarketEntry struct {
	ID        string
	Symbol    string
	Name      string
	Price     float64
	Change24h float64
	Rank      int
}

// CatalogSource exposes the exchange trading-pair catalog. Implementations
// populate lazily with single-flight semantics and degrade to an empty set
// on upstream failure instead of returning an error.
type CatalogSource interface {
	TradingPairs(ctx context.Context) PairSet
}

// SeriesSource fetches a bounded hourly OHLCV window for a symbol. Upstream
// failure yields an empty slice; callers treat "no data" as a first-class
// outcome.
type SeriesSource interface {
	Klines(ctx context.Context, symbol string, windowDays int) []Kline
}

// CoinIndex resolves and searches a coin catalog.
type CoinIndex interface {
	// Lookup fetches the catalog entry for an exact id.
	Lookup(ctx context.Context, id string) (*Coin, error)
	// Search runs a fuzzy query and returns candidates in the upstream
	// relevance order, untruncated.
	Search(ctx context.Context, query string) ([]Suggestion, error)
	// TopMarkets lists the top coins by market capitalization.
	TopMarkets(ctx context.Context, limit int) ([]MarketEntry, error)
}

// Provider is the minimum capability every market data source offers.
// Additional capabilities (CatalogSource, CoinIndex) are discovered by type
// assertion on the configured provider.
type Provider interface {
	SeriesSource
}
