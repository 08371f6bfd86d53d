package binance

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"

	"kriptobot/pkg/fetch"
)

// This test uses go-vcr to record/replay real exchangeInfo and klines calls.
// It skips by default if cassette is absent and RECORD_CASSETTES != 1.
func TestClient_Recorded(t *testing.T) {
	cassette := filepath.Join("testdata", "cassettes", "binance_market.yaml")
	if _, err := os.Stat(cassette); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s", cassette)
		}
		// Ensure parent directory exists for recording
		err := os.MkdirAll(filepath.Dir(cassette), 0o755)
		assert.NoError(t, err, "mkdir cassettes dir should succeed")
	}

	r, err := recorder.New(cassette)
	assert.NoError(t, err, "recorder.New should not error")
	assert.NotNil(t, r, "recorder should not be nil")
	defer func() { _ = r.Stop() }()

	httpClient := &http.Client{Transport: r}
	client := NewClient(WithFetcher(fetch.NewClient(fetch.WithHTTPClient(httpClient))))
	ctx := context.Background()

	pairs := client.TradingPairs(ctx)
	assert.True(t, pairs.Has("BTCUSDT"), "catalog should contain BTCUSDT")

	klines := client.Klines(ctx, "BTCUSDT", 2)
	assert.NotEmpty(t, klines, "klines should not be empty")
	for _, k := range klines {
		assert.Greater(t, k.Close, 0.0, "close should be positive")
		assert.GreaterOrEqual(t, k.High, k.Low, "high should dominate low")
	}
}
