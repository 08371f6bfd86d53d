package market

import (
	"fmt"
	"math"
	"sort"

	"kriptobot/pkg/market/indicators"
)

const (
	// minSamples is the hard floor imposed by the 50-period trend EMA.
	minSamples = 50

	rsiPeriod      = 14
	emaShortPeriod = 20
	emaLongPeriod  = 50

	// longVolumeLookback compares the latest volume against the bucket 24
	// hours earlier.
	longVolumeLookback = 24

	neutralRSI = 50.0
)

// Snapshot is the bounded analytical summary handed to the prompt builder.
// Immutable, consumed once, never persisted.
type Snapshot struct {
	Price           float64
	RSI             float64
	EMAShort        float64 // 20-period EMA of close
	EMALong         float64 // 50-period EMA of close
	MACD            float64 // MACD line, 12/26/9
	VolumeChange1h  float64 // percent
	VolumeChange24h float64 // percent
}

// ComputeSnapshot turns a raw hourly OHLCV window into indicator values.
// Rows are re-ordered chronologically; duplicate-timestamp and malformed
// rows are dropped before the sufficiency gate. The contract is
// all-or-nothing: either a fully populated snapshot or a typed error.
func ComputeSnapshot(klines []Kline) (snap *Snapshot, err error) {
	series := sanitizeSeries(klines)
	if len(series) < minSamples {
		return nil, &InsufficientDataError{Count: len(series)}
	}

	defer func() {
		if r := recover(); r != nil {
			snap = nil
			err = &ComputationError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	closes := make([]float64, len(series))
	volumes := make([]float64, len(series))
	for i, k := range series {
		closes[i] = k.Close
		volumes[i] = k.Volume
	}
	price := closes[len(closes)-1]

	rsi := lastOr(indicators.RSI(closes, rsiPeriod), neutralRSI)
	emaShort := lastOr(indicators.EMA(closes, emaShortPeriod), price)
	emaLong := lastOr(indicators.EMA(closes, emaLongPeriod), price)
	macdLine, _, _ := indicators.MACD(closes)
	macd := lastOr(macdLine, 0)

	return &Snapshot{
		Price:           round2(price),
		RSI:             round2(rsi),
		EMAShort:        round2(emaShort),
		EMALong:         round2(emaLong),
		MACD:            round4(macd),
		VolumeChange1h:  round2(shortVolumeDelta(volumes)),
		VolumeChange24h: round2(longVolumeDelta(volumes)),
	}, nil
}

// sanitizeSeries orders samples chronologically and drops duplicate
// timestamps and rows carrying non-finite or negative values.
func sanitizeSeries(klines []Kline) []Kline {
	series := make([]Kline, 0, len(klines))
	for _, k := range klines {
		if !validSample(k) {
			continue
		}
		series = append(series, k)
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].OpenTime < series[j].OpenTime
	})

	deduped := series[:0]
	var lastOpen int64 = -1
	for _, k := range series {
		if k.OpenTime == lastOpen {
			continue
		}
		deduped = append(deduped, k)
		lastOpen = k.OpenTime
	}
	return deduped
}

func validSample(k Kline) bool {
	for _, v := range []float64{k.Open, k.High, k.Low, k.Close, k.Volume, k.QuoteVolume, k.TakerBuyBase, k.TakerBuyQuote} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return k.TradeCount >= 0
}

// shortVolumeDelta is the percent change between the last two volumes, zero
// when the prior bucket had none.
func shortVolumeDelta(volumes []float64) float64 {
	if len(volumes) < 2 {
		return 0
	}
	prev := volumes[len(volumes)-2]
	if prev == 0 {
		return 0
	}
	return (volumes[len(volumes)-1] - prev) / prev * 100
}

// longVolumeDelta is the percent change against the volume 24 buckets back,
// zero until 25 samples exist or when that bucket had none.
func longVolumeDelta(volumes []float64) float64 {
	if len(volumes) <= longVolumeLookback {
		return 0
	}
	ref := volumes[len(volumes)-1-longVolumeLookback]
	if ref == 0 {
		return 0
	}
	return (volumes[len(volumes)-1] - ref) / ref * 100
}

// lastOr returns the final value of a NaN-padded indicator series, or the
// fallback when the indicator has not warmed up yet.
func lastOr(series []float64, fallback float64) float64 {
	if len(series) == 0 {
		return fallback
	}
	last := series[len(series)-1]
	if math.IsNaN(last) {
		return fallback
	}
	return last
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
