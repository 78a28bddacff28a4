package forum

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiobot/curio/internal/curio"
)

func TestListTags(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tags.json", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Api-Key"))
		assert.Equal(t, "curio", r.Header.Get("Api-Username"))
		_, _ = w.Write([]byte(`{"tags":[{"id":"fantasy","name":"fantasy"},{"id":"science","name":""}]}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "test-key", Username: "curio"})
	tags, err := client.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []curio.ForumTag{
		{ID: "fantasy", Name: "fantasy"},
		{ID: "science", Name: "science"},
	}, tags)
}

func TestCreateTopic(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/posts.json", r.URL.Path)

		var payload struct {
			Title    string   `json:"title"`
			Raw      string   `json:"raw"`
			Category string   `json:"category"`
			Tags     []string `json:"tags"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "How to Think", payload.Title)
		assert.Equal(t, []string{"psychology", "philosophy"}, payload.Tags)
		assert.Len(t, []rune(payload.Category), 50)

		_, _ = w.Write([]byte(`{"id":10,"topic_id":9}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k", Username: "curio"})
	ref, err := client.CreateTopic(context.Background(), curio.TopicRequest{
		Title:        "How to Think",
		Body:         "body",
		CategoryName: strings.Repeat("nonfiction recommendations ", 4),
		TagIDs:       []string{"psychology", "philosophy"},
	})
	require.NoError(t, err)
	assert.Equal(t, curio.PostRef{TopicID: 9, PostID: 10}, ref)
}

func TestCreateTopicErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid tags", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k", Username: "curio"})
	_, err := client.CreateTopic(context.Background(), curio.TopicRequest{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestRenderBody(t *testing.T) {
	t.Parallel()

	rec := curio.Recommendation{
		URL:         "https://example.com/essay",
		Category:    curio.CategoryArticle,
		Title:       "How to Think",
		Description: "An essay on attention.",
		Summary:     "The essay argues attention is the scarcest resource.",
		Topics:      []string{"attention", "focus"},
		Duration:    "12 min",
		Quality:     8,
		Sentiment:   curio.SentimentPositive,
		Thumbnail:   "https://example.com/cover.png",
		Submitter:   "alice",
	}

	body := RenderBody(rec, "https://chat.example/m/123")

	assert.Contains(t, body, "![thumbnail](https://example.com/cover.png)")
	assert.Contains(t, body, "An essay on attention.")
	assert.Contains(t, body, "| Link | https://example.com/essay |")
	assert.Contains(t, body, "| Quality | 8/10 |")
	assert.Contains(t, body, "| Topics | attention, focus |")
	assert.Contains(t, body, "Recommended by alice ([original message](https://chat.example/m/123))")
}

func TestTopicTitleFallsBackToURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com", TopicTitle(curio.Recommendation{URL: "https://example.com"}))

	long := strings.Repeat("title ", 40)
	got := TopicTitle(curio.Recommendation{Title: long})
	assert.LessOrEqual(t, len([]rune(got)), 120)
	assert.True(t, strings.HasSuffix(got, "…"))
}
