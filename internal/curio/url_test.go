package curio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://Example.COM/Path",
			want: "https://example.com/Path",
		},
		{
			name: "strips default port",
			in:   "https://example.com:443/a",
			want: "https://example.com/a",
		},
		{
			name: "removes fragment",
			in:   "https://example.com/a#section-2",
			want: "https://example.com/a",
		},
		{
			name: "drops tracking parameters",
			in:   "https://example.com/post?utm_source=x&utm_medium=chat&id=7&fbclid=abc",
			want: "https://example.com/post?id=7",
		},
		{
			name: "sorts surviving query parameters",
			in:   "https://example.com/p?b=2&a=1",
			want: "https://example.com/p?a=1&b=2",
		},
		{
			name: "trims trailing slash",
			in:   "https://example.com/essays/attention/",
			want: "https://example.com/essays/attention",
		},
		{
			name: "trims surrounding whitespace",
			in:   "  https://example.com/a \n",
			want: "https://example.com/a",
		},
		{
			name: "canonicalizes youtu.be short link",
			in:   "https://youtu.be/dQw4w9WgXcQ?si=share123",
			want: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name: "canonicalizes shorts",
			in:   "https://www.youtube.com/shorts/dQw4w9WgXcQ",
			want: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name: "strips extra watch parameters",
			in:   "https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&feature=share",
			want: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://Example.com/Post?utm_source=x&b=2&a=1#frag",
		"https://youtu.be/dQw4w9WgXcQ",
		"http://example.com:80/",
		"https://www.audible.com/pd/Project-Hail-Mary-Audiobook/B08G9PRS1K?ref=a_hp",
	}
	for _, in := range inputs {
		once, err := NormalizeURL(in)
		require.NoError(t, err)
		twice, err := NormalizeURL(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalizing twice must be stable for %q", in)
	}
}

func TestYouTubeVideoID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dQw4w9WgXcQ", YouTubeVideoID("https://youtu.be/dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", YouTubeVideoID("https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10"))
	assert.Equal(t, "dQw4w9WgXcQ", YouTubeVideoID("https://www.youtube.com/embed/dQw4w9WgXcQ"))
	assert.Empty(t, YouTubeVideoID("https://example.com/watch?v=nope"))
	assert.Empty(t, YouTubeVideoID("https://www.youtube.com/feed/subscriptions"))
}
