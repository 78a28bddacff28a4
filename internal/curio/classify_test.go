package curio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want Category
	}{
		{"https://www.youtube.com/watch?v=abc123", CategoryVideo},
		{"https://youtu.be/abc123", CategoryVideo},
		{"https://vimeo.com/12345", CategoryVideo},
		{"https://www.audible.com/pd/Some-Book/B0ABCDEF", CategoryAudiobook},
		{"https://libro.fm/audiobooks/9781250881205", CategoryAudiobook},
		{"https://open.spotify.com/episode/4rOoJ6Egrf8K2IrywzwOMk", CategoryPodcast},
		{"https://open.spotify.com/show/4rOoJ6Egrf8K2IrywzwOMk", CategoryPodcast},
		{"https://podcasts.apple.com/us/podcast/some-show/id123456", CategoryPodcast},
		{"https://overcast.fm/+abcdef", CategoryPodcast},
		{"https://blog.acolyer.org/2020/01/13/challenges-in-production-ml", CategoryArticle},
		{"https://example.com/essays/how-to-think", CategoryArticle},
		// Spotify track links are music, not episodes.
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", CategoryOther},
		{"https://twitter.com/someone/status/1", CategoryOther},
		{"https://x.com/someone/status/1", CategoryOther},
		{"https://example.com/", CategoryOther},
		{"https://example.com", CategoryOther},
		{"not a url at all", CategoryOther},
		{"", CategoryOther},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Classify(tc.url), "url %q", tc.url)
	}
}

func TestClassify_Stable(t *testing.T) {
	t.Parallel()

	urls := []string{
		"https://youtu.be/abc",
		"https://www.audible.com/pd/x",
		"https://example.com/post",
		"gopher://weird",
	}
	for _, u := range urls {
		first := Classify(u)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, Classify(u))
		}
	}
}

func TestClassify_DecisionOrder(t *testing.T) {
	t.Parallel()

	// A video host with an article-looking path is still video.
	assert.Equal(t, CategoryVideo, Classify("https://www.youtube.com/watch?v=abc"))
	// An audiobook host is checked before the article heuristic.
	assert.Equal(t, CategoryAudiobook, Classify("https://www.audible.com/pd/long/article/looking/path"))
}
