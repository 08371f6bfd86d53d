package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kriptobot/pkg/fetch"
	"kriptobot/pkg/market"
)

func testFetcher() *fetch.Client {
	return fetch.NewClient(
		fetch.WithBackoffUnit(time.Millisecond),
		fetch.WithRetryWait(time.Millisecond),
	)
}

func newMockGecko(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v3/coins/bitcoin", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"bitcoin","symbol":"btc","name":"Bitcoin"}`)
	})
	mux.HandleFunc("/api/v3/coins/bitcoin/market_chart", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("vs_currency") != "usd" {
			http.Error(w, "missing vs_currency", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{
			"prices":[[1700000000000,42000.5],[1700003600000,42100.25],[1700007200000,-1],[1700010800000]],
			"total_volumes":[[1700000000000,1000],[1700003600000,1100]]
		}`)
	})
	mux.HandleFunc("/api/v3/search", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("query") {
		case "doge":
			fmt.Fprint(w, `{"coins":[
				{"id":"dogecoin","symbol":"doge","name":"Dogecoin","market_cap_rank":9},
				{"id":"dogelon-mars","symbol":"elon","name":"Dogelon Mars","market_cap_rank":250}
			]}`)
		default:
			fmt.Fprint(w, `{"coins":[]}`)
		}
	})
	mux.HandleFunc("/api/v3/coins/markets", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") != "2" {
			http.Error(w, "unexpected per_page", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":42000.5,"price_change_percentage_24h":1.2,"market_cap_rank":1},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":2200.1,"price_change_percentage_24h":-0.4,"market_cap_rank":2}
		]`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return httptest.NewServer(mux)
}

func TestLookup(t *testing.T) {
	server := newMockGecko(t)
	defer server.Close()
	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))

	coin, err := client.Lookup(context.Background(), " Bitcoin ")
	require.NoError(t, err)
	require.Equal(t, "bitcoin", coin.ID)
	require.Equal(t, "BTC", coin.Symbol)
	require.Equal(t, "Bitcoin", coin.Name)
}

func TestLookupUnknownID(t *testing.T) {
	server := newMockGecko(t)
	defer server.Close()
	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))

	_, err := client.Lookup(context.Background(), "no-such-coin")
	require.ErrorIs(t, err, market.ErrNotFound)
}

func TestLookupEmptyID(t *testing.T) {
	client := NewClient(WithFetcher(testFetcher()))
	_, err := client.Lookup(context.Background(), "  ")
	require.ErrorIs(t, err, market.ErrNotFound)
}

func TestSearchPreservesUpstreamOrder(t *testing.T) {
	server := newMockGecko(t)
	defer server.Close()
	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))

	got, err := client.Search(context.Background(), "doge")
	require.NoError(t, err)
	require.Equal(t, []market.Suggestion{
		{ID: "dogecoin", Symbol: "DOGE", Name: "Dogecoin"},
		{ID: "dogelon-mars", Symbol: "ELON", Name: "Dogelon Mars"},
	}, got)
}

func TestSearchNoMatches(t *testing.T) {
	server := newMockGecko(t)
	defer server.Close()
	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))

	got, err := client.Search(context.Background(), "zzzz")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSearchUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()
	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))

	_, err := client.Search(context.Background(), "doge")
	require.Error(t, err)

	var status *fetch.StatusError
	require.True(t, errors.As(err, &status))
	require.Equal(t, http.StatusInternalServerError, status.Code)
}

func TestTopMarkets(t *testing.T) {
	server := newMockGecko(t)
	defer server.Close()
	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))

	entries, err := client.TopMarkets(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "BTC", entries[0].Symbol)
	require.Equal(t, 1, entries[0].Rank)
	require.Equal(t, "ethereum", entries[1].ID)
	require.InDelta(t, -0.4, entries[1].Change24h, 1e-9)
}

func TestTopMarketsZeroLimit(t *testing.T) {
	client := NewClient(WithFetcher(testFetcher()))
	entries, err := client.TopMarkets(context.Background(), 0)
	require.NoError(t, err)
	require.Nil(t, entries)
}

func TestProxyKlines(t *testing.T) {
	server := newMockGecko(t)
	defer server.Close()
	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))

	klines := client.Klines(context.Background(), "bitcoin", 30)
	// The negative price and the short pair are dropped whole.
	require.Len(t, klines, 2)

	first := klines[0]
	require.Equal(t, int64(1700000000000), first.OpenTime)
	require.Equal(t, 42000.5, first.Close)
	require.Equal(t, first.Close, first.Open)
	require.Equal(t, first.Close, first.High)
	require.Equal(t, first.Close, first.Low)
	require.Equal(t, 1000.0, first.Volume)
	require.Equal(t, 1100.0, klines[1].Volume)
}

func TestProxyKlinesUpstreamFailure(t *testing.T) {
	server := newMockGecko(t)
	defer server.Close()
	client := NewClient(WithBaseURL(server.URL), WithFetcher(testFetcher()))

	klines := client.Klines(context.Background(), "no-such-coin", 30)
	require.Empty(t, klines)
}

func TestProviderImplementsIndexAndSeries(t *testing.T) {
	var _ market.CoinIndex = (*Provider)(nil)
	var _ market.Provider = (*Provider)(nil)
}
