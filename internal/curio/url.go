package curio

import (
	"fmt"
	"net/url"
	"strings"
)

// Query parameters that only carry campaign/click tracking state.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"igshid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref":     true,
	"ref_src": true,
	"si":      true,
	"feature": true,
}

// NormalizeURL standardizes a URL so the same link always dedups to the same
// canonical form. It lowercases the scheme and host, removes default ports,
// drops fragments and tracking parameters, sorts the remaining query, and
// canonicalizes video-platform URLs to the single watch?v= form.
// Normalizing an already-normalized URL is a no-op.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	if canonical, ok := canonicalYouTube(u); ok {
		return canonical, nil
	}

	q := u.Query()
	for key := range q {
		if trackingParams[key] || strings.HasPrefix(key, "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// canonicalYouTube collapses the many YouTube URL shapes (youtu.be short
// links, /shorts/, /embed/, mobile hosts) onto https://www.youtube.com/watch?v=ID.
func canonicalYouTube(u *url.URL) (string, bool) {
	host := strings.TrimPrefix(u.Hostname(), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.Trim(strings.TrimPrefix(u.Path, "/shorts/"), "/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.Trim(strings.TrimPrefix(u.Path, "/embed/"), "/")
		case strings.HasPrefix(u.Path, "/live/"):
			id = strings.Trim(strings.TrimPrefix(u.Path, "/live/"), "/")
		}
	default:
		return "", false
	}

	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return "https://www.youtube.com/watch?v=" + id, true
}

// YouTubeVideoID extracts the canonical video id, or "" if the URL is not a
// recognizable YouTube link.
func YouTubeVideoID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	canonical, ok := canonicalYouTube(u)
	if !ok {
		return ""
	}
	parsed, err := url.Parse(canonical)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("v")
}
