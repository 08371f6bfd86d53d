package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTelegramSendMessage(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotPayload))
		fmt.Fprint(w, `{"ok":true,"result":{}}`)
	}))
	defer server.Close()

	tg := NewTelegram("token-123", WithAPIBaseURL(server.URL))
	require.NoError(t, tg.SendMessage(context.Background(), 42, "halo"))

	require.Equal(t, "/bottoken-123/sendMessage", gotPath)
	require.Equal(t, float64(42), gotPayload["chat_id"])
	require.Equal(t, "halo", gotPayload["text"])
	require.Equal(t, "Markdown", gotPayload["parse_mode"])
}

func TestTelegramSendMessageRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"description":"chat not found"}`)
	}))
	defer server.Close()

	tg := NewTelegram("token", WithAPIBaseURL(server.URL))
	err := tg.SendMessage(context.Background(), 42, "halo")
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat not found")
}

func TestTelegramGetUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "7", r.URL.Query().Get("offset"))
		require.Equal(t, "30", r.URL.Query().Get("timeout"))
		fmt.Fprint(w, `{"ok":true,"result":[
			{"update_id":7,"message":{"chat":{"id":5},"text":"BTC"}},
			{"update_id":8,"message":null}
		]}`)
	}))
	defer server.Close()

	tg := NewTelegram("token", WithAPIBaseURL(server.URL))
	updates, err := tg.GetUpdates(context.Background(), 7, 30)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	require.Equal(t, int64(7), updates[0].UpdateID)
	require.Equal(t, int64(5), updates[0].Message.Chat.ID)
	require.Equal(t, "BTC", updates[0].Message.Text)
	require.Nil(t, updates[1].Message)
}

func TestTelegramGetUpdatesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	tg := NewTelegram("token", WithAPIBaseURL(server.URL))
	_, err := tg.GetUpdates(context.Background(), 0, 30)
	require.Error(t, err)
}
