// Package chat provides a read-only client for the chat platform's channel
// history API, used by the backfill reconciler.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/curiobot/curio/internal/curio"
)

// ClientConfig configures the history client.
type ClientConfig struct {
	BaseURL string
	// BotToken authenticates as the bot user.
	BotToken string
	Timeout  time.Duration
}

// Client implements curio.ChannelHistory.
type Client struct {
	baseURL    string
	botToken   string
	httpClient *http.Client
}

var _ curio.ChannelHistory = (*Client)(nil)

// NewClient builds a history client from configuration.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		botToken:   cfg.BotToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type messagePayload struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Author    struct {
		ID  string `json:"id"`
		Bot bool   `json:"bot"`
	} `json:"author"`
}

// Messages returns up to limit messages older than beforeID, newest first.
// An empty beforeID starts from the present.
func (c *Client) Messages(ctx context.Context, channelID string, beforeID string, limit int) ([]curio.ChannelMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if beforeID != "" {
		query.Set("before", beforeID)
	}
	endpoint := fmt.Sprintf("%s/channels/%s/messages?%s", c.baseURL, url.PathEscape(channelID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch messages: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var payload []messagePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	msgs := make([]curio.ChannelMessage, 0, len(payload))
	for _, m := range payload {
		at, err := time.Parse(time.RFC3339, m.Timestamp)
		if err != nil {
			at = time.Time{}
		}
		channel := m.ChannelID
		if channel == "" {
			channel = channelID
		}
		msgs = append(msgs, curio.ChannelMessage{
			ID:        m.ID,
			ChannelID: channel,
			AuthorID:  m.Author.ID,
			Content:   m.Content,
			Timestamp: at,
			Bot:       m.Author.Bot,
		})
	}
	return msgs, nil
}
