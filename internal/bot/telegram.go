package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// Update is one long-poll result from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message carries the chat id and text of an incoming message.
type Message struct {
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Text string `json:"text"`
}

// Telegram is a minimal Bot API client: sendMessage plus getUpdates.
type Telegram struct {
	token      string
	apiBaseURL string
	httpClient *http.Client
}

// TelegramOption configures the client.
type TelegramOption func(*Telegram)

// WithAPIBaseURL overrides the Bot API endpoint.
func WithAPIBaseURL(base string) TelegramOption {
	return func(t *Telegram) {
		if base != "" {
			t.apiBaseURL = base
		}
	}
}

// WithProxy routes API calls through an HTTP proxy.
func WithProxy(proxyURL string) TelegramOption {
	return func(t *Telegram) {
		if proxyURL == "" {
			return
		}
		if u, err := url.Parse(proxyURL); err == nil {
			t.httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		}
	}
}

// WithTelegramHTTPClient replaces the HTTP client entirely.
func WithTelegramHTTPClient(client *http.Client) TelegramOption {
	return func(t *Telegram) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// NewTelegram constructs a Bot API client. The client timeout leaves room
// for a full long-poll window on top of transport latency.
func NewTelegram(token string, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		token:      token,
		apiBaseURL: defaultAPIBaseURL,
		httpClient: &http.Client{Timeout: 35 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// SendMessage posts a Markdown-formatted message to a chat.
func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bot: marshal sendMessage payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBaseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bot: build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bot: sendMessage: %w", err)
	}
	defer resp.Body.Close()

	var decoded apiResponse
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bot: sendMessage status %d: %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("bot: decode sendMessage response: %w", err)
	}
	if !decoded.OK {
		return fmt.Errorf("bot: sendMessage rejected: %s", decoded.Description)
	}
	return nil
}

// GetUpdates long-polls for updates past offset, waiting up to timeout
// seconds server-side.
func (t *Telegram) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := url.Values{
		"offset":  []string{strconv.FormatInt(offset, 10)},
		"timeout": []string{strconv.Itoa(timeout)},
	}
	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", t.apiBaseURL, t.token, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("bot: build getUpdates request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bot: getUpdates: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bot: read getUpdates response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bot: getUpdates status %d: %s", resp.StatusCode, string(raw))
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("bot: decode getUpdates response: %w", err)
	}
	if !decoded.OK {
		return nil, fmt.Errorf("bot: getUpdates rejected: %s", decoded.Description)
	}

	var updates []Update
	if err := json.Unmarshal(decoded.Result, &updates); err != nil {
		return nil, fmt.Errorf("bot: decode updates: %w", err)
	}
	return updates, nil
}
