package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kriptobot/pkg/fetch"
	"kriptobot/pkg/market/catalogstore"
)

func klineRow(openTime int64, close float64, volume float64) []any {
	return []any{
		openTime,
		fmt.Sprintf("%.8f", close-1),  // open
		fmt.Sprintf("%.8f", close+2),  // high
		fmt.Sprintf("%.8f", close-2),  // low
		fmt.Sprintf("%.8f", close),    // close
		fmt.Sprintf("%.8f", volume),   // volume
		openTime + 3_599_999,          // close time
		"1000.5",                      // quote volume
		mockTradeCount,                // trade count
		"500.25",                      // taker buy base
		"600.75",                      // taker buy quote
		"0",                           // ignored
	}
}

const mockTradeCount = 308

func newMockExchange(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var infoCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/exchangeInfo", func(w http.ResponseWriter, r *http.Request) {
		infoCalls.Add(1)
		writeJSON(t, w, map[string]any{
			"symbols": []map[string]any{
				{"symbol": "BTCUSDT", "status": "TRADING"},
				{"symbol": "ETHUSDT", "status": "TRADING"},
				{"symbol": "ETHBTC", "status": "TRADING"},
				{"symbol": "LUNAUSDT", "status": "BREAK"},
			},
		})
	})
	mux.HandleFunc("/api/v3/klines", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1h", r.URL.Query().Get("interval"))
		rows := make([][]any, 0, 60)
		for i := 0; i < 60; i++ {
			rows = append(rows, klineRow(int64(i)*3_600_000, 100+float64(i), 1000+float64(i)))
		}
		writeJSON(t, w, rows)
	})
	return httptest.NewServer(mux), &infoCalls
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func testFetcher() *fetch.Client {
	return fetch.NewClient(
		fetch.WithBackoffUnit(time.Millisecond),
		fetch.WithRetryWait(time.Millisecond),
	)
}

func TestTradingPairsSingleFetch(t *testing.T) {
	server, infoCalls := newMockExchange(t)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))
	ctx := context.Background()

	pairs := client.TradingPairs(ctx)
	require.Len(t, pairs, 3)
	require.True(t, pairs.Has("BTCUSDT"))
	require.False(t, pairs.Has("LUNAUSDT"), "non-TRADING symbols stay out of the catalog")

	// Repeated and concurrent calls never refetch.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.Len(t, client.TradingPairs(ctx), 3)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, infoCalls.Load())
}

func TestTradingPairsConcurrentFirstCallers(t *testing.T) {
	server, infoCalls := newMockExchange(t)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.True(t, client.TradingPairs(context.Background()).Has("ETHBTC"))
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, infoCalls.Load())
}

func TestTradingPairsDegradesToEmptySet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))
	pairs := client.TradingPairs(context.Background())
	require.Empty(t, pairs)

	// The failure is memoized as well: no second population attempt.
	require.Empty(t, client.TradingPairs(context.Background()))
}

func TestTradingPairsSnapshotFallback(t *testing.T) {
	cacheFile := filepath.Join(t.TempDir(), "catalog.msgpack")
	store := catalogstore.New(cacheFile)

	healthy, _ := newMockExchange(t)
	warm := NewClient(WithBaseURL(healthy.URL), WithFetcher(testFetcher()), WithCatalogStore(store))
	require.Len(t, warm.TradingPairs(context.Background()), 3)
	healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	cold := NewClient(WithBaseURL(broken.URL), WithFetcher(testFetcher()), WithCatalogStore(store))
	pairs := cold.TradingPairs(context.Background())
	require.Len(t, pairs, 3)
	require.True(t, pairs.Has("ETHUSDT"))
}

func TestTradingPairsStaleSnapshotRejected(t *testing.T) {
	cacheFile := filepath.Join(t.TempDir(), "catalog.msgpack")
	store := catalogstore.New(cacheFile)

	healthy, _ := newMockExchange(t)
	warm := NewClient(WithBaseURL(healthy.URL), WithFetcher(testFetcher()), WithCatalogStore(store))
	require.Len(t, warm.TradingPairs(context.Background()), 3)
	healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	// A snapshot older than the configured bound degrades to the empty set
	// instead of resurrecting a possibly delisted catalog.
	time.Sleep(5 * time.Millisecond)
	cold := NewClient(
		WithBaseURL(broken.URL),
		WithFetcher(testFetcher()),
		WithCatalogStore(store),
		WithSnapshotMaxAge(time.Nanosecond),
	)
	require.Empty(t, cold.TradingPairs(context.Background()))
}

func TestKlines(t *testing.T) {
	server, _ := newMockExchange(t)
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))
	klines := client.Klines(context.Background(), "BTCUSDT", 30)
	require.Len(t, klines, 60)
	require.InDelta(t, 100.0, klines[0].Close, 1e-9)
	require.InDelta(t, 159.0, klines[len(klines)-1].Close, 1e-9)
	require.EqualValues(t, mockTradeCount, klines[0].TradeCount)
	require.InDelta(t, 1000.5, klines[0].QuoteVolume, 1e-9)
}

func TestKlinesDropsMalformedRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows := [][]any{
			klineRow(0, 100, 1000),
			{1, "bad", "2", "3"}, // short row
			func() []any { // close fails coercion
				row := klineRow(3_600_000, 101, 1000)
				row[4] = "not-a-number"
				return row
			}(),
			func() []any { // negative volume
				row := klineRow(7_200_000, 102, 1000)
				row[5] = "-5"
				return row
			}(),
			klineRow(10_800_000, 103, 1000),
		}
		writeJSON(t, w, rows)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))
	klines := client.Klines(context.Background(), "BTCUSDT", 30)
	require.Len(t, klines, 2)
	require.InDelta(t, 100.0, klines[0].Close, 1e-9)
	require.InDelta(t, 103.0, klines[1].Close, 1e-9)
}

func TestKlinesUpstreamFailureYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))
	require.Empty(t, client.Klines(context.Background(), "BTCUSDT", 30))
}

func TestKlinesLimitClamped(t *testing.T) {
	var gotLimit atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit.Store(r.URL.Query().Get("limit"))
		writeJSON(t, w, [][]any{})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))
	client.Klines(context.Background(), "BTCUSDT", 90)
	require.Equal(t, "1000", gotLimit.Load())
}
