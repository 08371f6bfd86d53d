package market

import (
	"context"
	"strings"
)

// pairQuotePriority is the fixed order in which quote assets are tried when
// normalizing a bare token to an exchange pair.
var pairQuotePriority = []string{"USDT", "BTC"}

// Resolver maps free-form user tokens onto canonical identifiers using the
// exchange catalog and the coin index. Given identical upstream responses it
// always produces the identical result.
type Resolver struct {
	catalog CatalogSource
	index   CoinIndex
}

// NewResolver builds a resolver over the supplied capabilities. Either may
// be nil when only one resolution form is exercised.
func NewResolver(catalog CatalogSource, index CoinIndex) *Resolver {
	return &Resolver{catalog: catalog, index: index}
}

// ResolvePair normalizes input (upper case, separators stripped) and tests
// {input}USDT then {input}BTC against the trading-pair catalog. The first
// listed pair wins; an unknown or empty catalog resolves nothing.
func (r *Resolver) ResolvePair(ctx context.Context, input string) (string, bool) {
	if r.catalog == nil {
		return "", false
	}
	base := normalizePairBase(input)
	if base == "" {
		return "", false
	}
	pairs := r.catalog.TradingPairs(ctx)
	for _, quote := range pairQuotePriority {
		if pairs.Has(base + quote) {
			return base + quote, true
		}
	}
	return "", false
}

// ResolveCoin resolves input against the coin catalog: an exact id lookup
// first, then a fuzzy search. A candidate whose short code matches the input
// exactly (case-insensitive) wins deterministically; otherwise up to five
// suggestions surface as *AmbiguousError in upstream relevance order.
// ErrNotFound carries an empty suggestion list.
func (r *Resolver) ResolveCoin(ctx context.Context, input string) (*Coin, error) {
	if r.index == nil {
		return nil, ErrNotFound
	}
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, ErrNotFound
	}

	if coin, err := r.index.Lookup(ctx, strings.ToLower(trimmed)); err == nil && coin != nil {
		return coin, nil
	}

	candidates, err := r.index.Search(ctx, trimmed)
	if err != nil || len(candidates) == 0 {
		return nil, ErrNotFound
	}

	upper := strings.ToUpper(trimmed)
	for _, cand := range candidates {
		if strings.ToUpper(cand.Symbol) == upper {
			return &Coin{ID: cand.ID, Symbol: strings.ToUpper(cand.Symbol), Name: cand.Name}, nil
		}
	}

	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	return nil, &AmbiguousError{Input: trimmed, Suggestions: candidates}
}

func normalizePairBase(input string) string {
	cleaned := strings.NewReplacer("/", "", "-", "").Replace(strings.TrimSpace(input))
	return strings.ToUpper(cleaned)
}
