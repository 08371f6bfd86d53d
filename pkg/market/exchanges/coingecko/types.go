package coingecko

// coinResponse mirrors the subset of /api/v3/coins/{id} we consume.
type coinResponse struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// searchResponse mirrors /api/v3/search. Candidates arrive in upstream
// relevance order and that order is preserved.
type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Symbol        string `json:"symbol"`
		Name          string `json:"name"`
		MarketCapRank int    `json:"market_cap_rank"`
	} `json:"coins"`
}

// marketsRow mirrors one row of /api/v3/coins/markets.
type marketsRow struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	CurrentPrice  float64 `json:"current_price"`
	Change24h     float64 `json:"price_change_percentage_24h"`
	MarketCapRank int     `json:"market_cap_rank"`
}

// marketChartResponse mirrors /api/v3/coins/{id}/market_chart: parallel
// [timestamp_ms, value] pairs for prices and volumes.
type marketChartResponse struct {
	Prices       [][]float64 `json:"prices"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}
