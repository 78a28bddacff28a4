package synthesis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/curiobot/curio/internal/curio"
)

type fakeCompleter struct {
	reply    string
	err      error
	lastUser string
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, user string) (string, error) {
	f.lastUser = user
	return f.reply, f.err
}

const goodReply = `Here is the classification you asked for:

{
  "title": "Thinking in Systems",
  "description": "A primer on systems thinking.",
  "content_type": "article",
  "topics": ["systems", "feedback loops"],
  "duration": "",
  "quality_score": 8,
  "sentiment": "positive",
  "summary": "The essay walks through stocks, flows and feedback loops.",
  "key_takeaways": ["look for feedback loops"],
  "main_ideas": ["systems produce their own behavior"],
  "tldr": "Behavior comes from structure.",
  "library": "nonfiction",
  "primary_tag": "science",
  "secondary_tags": ["economics", "science", "productivity", "philosophy", "history", "mathematics"]
}`

func TestSynthesizer_ParsesWrappedJSON(t *testing.T) {
	t.Parallel()

	s := New(&fakeCompleter{reply: goodReply}, zap.NewNop())
	c, err := s.AnalyzeURL(context.Background(), "https://example.com/essay", "worth a read")
	require.NoError(t, err)

	assert.Equal(t, "Thinking in Systems", c.Title)
	assert.Equal(t, curio.LibraryNonfiction, c.Library)
	assert.Equal(t, "science", c.PrimaryTag)
	assert.Equal(t, curio.SentimentPositive, c.Sentiment)
	// Duplicate of the primary and the cross-library tag are dropped, the
	// rest capped at the secondary ceiling.
	assert.Equal(t, []string{"economics", "philosophy", "history", "mathematics"}, c.SecondaryTags)
}

func TestSynthesizer_CanonicalizesFreeTextPrimaryTag(t *testing.T) {
	t.Parallel()

	reply := `{"title":"Dune","library":"fiction","primary_tag":"sci-fi","secondary_tags":["space opera"],"sentiment":"positive","quality_score":9}`
	s := New(&fakeCompleter{reply: reply}, zap.NewNop())

	c, err := s.AnalyzeURL(context.Background(), "https://example.com/dune", "")
	require.NoError(t, err)
	assert.Equal(t, "science-fiction", c.PrimaryTag)
	// "space opera" resolves to the same vocabulary tag as the primary.
	assert.Empty(t, c.SecondaryTags)
}

func TestSynthesizer_UnparsableReplyIsSynthesisError(t *testing.T) {
	t.Parallel()

	for name, reply := range map[string]string{
		"no json":         "I am sorry, I cannot classify this.",
		"malformed":       `{"title": "x",`,
		"missing title":   `{"library":"fiction","primary_tag":"fantasy"}`,
		"unknown library": `{"title":"x","library":"poetry","primary_tag":"fantasy"}`,
		"invented tag":    `{"title":"x","library":"fiction","primary_tag":"vampire-erotica"}`,
	} {
		s := New(&fakeCompleter{reply: reply}, zap.NewNop())
		_, err := s.AnalyzeURL(context.Background(), "https://example.com", "")
		require.Error(t, err, name)
		assert.True(t, curio.IsSynthesisError(err), name)
	}
}

func TestSynthesizer_NormalizesSentimentAndQuality(t *testing.T) {
	t.Parallel()

	reply := `{"title":"x","library":"practical","primary_tag":"productivity","sentiment":"glowing","quality_score":14}`
	s := New(&fakeCompleter{reply: reply}, zap.NewNop())

	c, err := s.AnalyzeURL(context.Background(), "https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, curio.SentimentNeutral, c.Sentiment)
	assert.Equal(t, 10, c.Quality)
}

func TestSynthesizer_ContentPromptCarriesEnvelope(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{reply: goodReply}
	s := New(completer, zap.NewNop())

	env := curio.ContentEnvelope{
		Category:    curio.CategoryVideo,
		URL:         "https://www.youtube.com/watch?v=abc",
		Title:       "A Talk",
		Body:        "transcript text",
		Transcribed: true,
		Meta:        map[string]string{"author": "Some Channel", "duration": "PT42M"},
	}
	c, err := s.AnalyzeContent(context.Background(), env, "must watch")
	require.NoError(t, err)

	assert.Contains(t, completer.lastUser, "https://www.youtube.com/watch?v=abc")
	assert.Contains(t, completer.lastUser, "Transcript:")
	assert.Contains(t, completer.lastUser, "must watch")
	// The extracted title wins over the model's.
	assert.Equal(t, "A Talk", c.Title)
	assert.Equal(t, "PT42M", c.Duration)
}

func TestChatClient_Complete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "gpt-4o-mini", payload.Model)
		require.Len(t, payload.Messages, 2)
		assert.Equal(t, "system", payload.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	client := NewChatClient(ClientConfig{Endpoint: srv.URL, Model: "gpt-4o-mini", APIKey: "test-key"})
	reply, err := client.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, reply)
}

func TestChatClient_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewChatClient(ClientConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"})
	_, err := client.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "429"))
}

func TestSystemPromptEmbedsVocabularies(t *testing.T) {
	t.Parallel()

	prompt := systemPrompt()
	for _, needle := range []string{"fiction", "nonfiction", "practical", "science-fiction", "biography-memoir", "software-engineering"} {
		assert.Contains(t, prompt, needle)
	}
}
