package curio

import (
	"net/url"
	"strings"
)

var videoHosts = map[string]bool{
	"youtube.com": true,
	"youtu.be":    true,
	"vimeo.com":   true,
}

var audiobookHosts = map[string]bool{
	"audible.com":    true,
	"audible.co.uk":  true,
	"audible.de":     true,
	"audible.ca":     true,
	"libro.fm":       true,
	"audiobooks.com": true,
}

var podcastHosts = map[string]bool{
	"podcasts.apple.com": true,
	"overcast.fm":        true,
	"pocketcasts.com":    true,
	"pca.st":             true,
	"castro.fm":          true,
	"anchor.fm":          true,
}

// Hosts that are shared-media or social surfaces, never long-form articles.
var nonArticleHosts = map[string]bool{
	"twitter.com":   true,
	"x.com":         true,
	"facebook.com":  true,
	"instagram.com": true,
	"tiktok.com":    true,
	"discord.com":   true,
	"discord.gg":    true,
	"imgur.com":     true,
	"giphy.com":     true,
	"tenor.com":     true,
	"twitch.tv":     true,
}

// Classify maps a URL to exactly one content category. It is pure and total:
// unparseable or unmatched URLs fall through to CategoryOther, which routes
// to the generic extractor. Decision order matters: video platforms win over
// audiobook sellers, which win over podcast platforms, before the general
// article heuristic applies.
func Classify(rawURL string) Category {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return CategoryOther
	}
	host := baseHost(u)

	switch {
	case videoHosts[host]:
		return CategoryVideo
	case audiobookHosts[host]:
		return CategoryAudiobook
	case podcastHosts[host]:
		return CategoryPodcast
	case host == "spotify.com" || host == "open.spotify.com":
		// Spotify hosts both music and podcasts; only episode/show links are episodes.
		if strings.HasPrefix(u.Path, "/episode/") || strings.HasPrefix(u.Path, "/show/") {
			return CategoryPodcast
		}
		return CategoryOther
	case nonArticleHosts[host]:
		return CategoryOther
	case looksLikeArticle(u):
		return CategoryArticle
	default:
		return CategoryOther
	}
}

func baseHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	return host
}

// looksLikeArticle accepts http(s) URLs that point at a concrete page rather
// than a bare site root.
func looksLikeArticle(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	path := strings.Trim(u.Path, "/")
	return path != "" || u.RawQuery != ""
}
