package binance

import (
	"math"
	"strconv"

	"kriptobot/pkg/market"
)

// exchangeInfoResponse mirrors the subset of /api/v3/exchangeInfo we consume.
type exchangeInfoResponse struct {
	Symbols []struct {
		Symbol string `json:"symbol"`
		Status string `json:"status"`
	} `json:"symbols"`
}

// parseKlineRow coerces one raw kline row into a normalized sample. Binance
// interleaves numbers and numeric strings; any field that fails coercion, or
// comes out negative or non-finite, drops the whole row.
func parseKlineRow(row []any) (market.Kline, bool) {
	if len(row) < 11 {
		return market.Kline{}, false
	}

	openTime, ok := asInt64(row[0])
	if !ok {
		return market.Kline{}, false
	}
	closeTime, ok := asInt64(row[6])
	if !ok {
		return market.Kline{}, false
	}
	tradeCount, ok := asInt64(row[8])
	if !ok || tradeCount < 0 {
		return market.Kline{}, false
	}

	values := make([]float64, 0, 8)
	for _, idx := range []int{1, 2, 3, 4, 5, 7, 9, 10} {
		v, ok := asFloat(row[idx])
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return market.Kline{}, false
		}
		values = append(values, v)
	}

	return market.Kline{
		OpenTime:      openTime,
		Open:          values[0],
		High:          values[1],
		Low:           values[2],
		Close:         values[3],
		Volume:        values[4],
		CloseTime:     closeTime,
		QuoteVolume:   values[5],
		TradeCount:    tradeCount,
		TakerBuyBase:  values[6],
		TakerBuyQuote: values[7],
	}, true
}

func asFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch value := v.(type) {
	case float64:
		return int64(value), true
	case string:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
