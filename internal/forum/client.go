// Package forum publishes recommendations as topics on a Discourse-style
// forum over its REST API.
package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/curiobot/curio/internal/curio"
)

// maxCategoryTitleRunes is the forum's container title length cap.
const maxCategoryTitleRunes = 50

// ClientConfig configures the forum REST client.
type ClientConfig struct {
	BaseURL  string
	APIKey   string
	Username string
	Timeout  time.Duration
}

// Client implements curio.Forum.
type Client struct {
	baseURL    string
	apiKey     string
	username   string
	httpClient *http.Client
}

var _ curio.Forum = (*Client)(nil)

// NewClient builds a forum client from configuration.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		username:   cfg.Username,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListTags returns the tags configured on the forum.
func (c *Client) ListTags(ctx context.Context) ([]curio.ForumTag, error) {
	var payload struct {
		Tags []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"tags"`
	}
	if err := c.do(ctx, http.MethodGet, "/tags.json", nil, &payload); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tags := make([]curio.ForumTag, 0, len(payload.Tags))
	for _, t := range payload.Tags {
		name := t.Name
		if name == "" {
			name = t.ID
		}
		tags = append(tags, curio.ForumTag{ID: t.ID, Name: name})
	}
	return tags, nil
}

// CreateTopic posts a new topic and returns its identifiers. The call is not
// idempotent: callers must not re-invoke it for an already-published row.
func (c *Client) CreateTopic(ctx context.Context, req curio.TopicRequest) (curio.PostRef, error) {
	if req.Title == "" {
		return curio.PostRef{}, fmt.Errorf("topic title is required")
	}
	body := map[string]any{
		"title":    req.Title,
		"raw":      req.Body,
		"category": CategoryTitle(req.CategoryName),
		"tags":     req.TagIDs,
	}
	var payload struct {
		ID      int64 `json:"id"`
		TopicID int64 `json:"topic_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/posts.json", body, &payload); err != nil {
		return curio.PostRef{}, fmt.Errorf("create topic: %w", err)
	}
	return curio.PostRef{TopicID: payload.TopicID, PostID: payload.ID}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Api-Username", c.username)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// CategoryTitle caps a container title at the forum's length limit.
func CategoryTitle(name string) string {
	runes := []rune(name)
	if len(runes) <= maxCategoryTitleRunes {
		return name
	}
	return string(runes[:maxCategoryTitleRunes])
}
