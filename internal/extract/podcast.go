package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/curiobot/curio/internal/curio"
)

// PodcastExtractor handles audio-episode pages. Spotify links go through the
// public oEmbed endpoint first: it is faster and sidesteps anti-bot
// friction on the full web player. Everything else, and the Spotify
// fallback, is plain HTML parsing.
type PodcastExtractor struct {
	fetcher curio.Fetcher
}

// NewPodcast builds a PodcastExtractor.
func NewPodcast(fetcher curio.Fetcher) *PodcastExtractor {
	return &PodcastExtractor{fetcher: fetcher}
}

// Extract assembles an envelope for a podcast episode or show page.
func (e *PodcastExtractor) Extract(ctx context.Context, rawURL string) (curio.ContentEnvelope, error) {
	if isSpotify(rawURL) {
		if envelope, err := e.extractSpotifyEmbed(ctx, rawURL); err == nil {
			return envelope, nil
		}
	}
	return e.extractHTML(ctx, rawURL)
}

func isSpotify(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "open.")
	return host == "spotify.com"
}

type spotifyOEmbed struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	ProviderName string `json:"provider_name"`
}

func (e *PodcastExtractor) extractSpotifyEmbed(ctx context.Context, rawURL string) (curio.ContentEnvelope, error) {
	endpoint := "https://open.spotify.com/oembed?url=" + url.QueryEscape(rawURL)
	resp, err := e.fetcher.Fetch(ctx, curio.FetchRequest{URL: endpoint})
	if err != nil {
		return curio.ContentEnvelope{}, fmt.Errorf("spotify oembed fetch: %w", err)
	}
	if !okStatus(resp) {
		return curio.ContentEnvelope{}, fmt.Errorf("spotify oembed status %d", resp.StatusCode)
	}
	var payload spotifyOEmbed
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return curio.ContentEnvelope{}, fmt.Errorf("spotify oembed decode: %w", err)
	}
	if payload.Title == "" {
		return curio.ContentEnvelope{}, fmt.Errorf("spotify oembed payload missing title")
	}

	meta := map[string]string{}
	setIfEmpty(meta, metaThumbnail, absoluteThumbnail(rawURL, payload.ThumbnailURL))
	setIfEmpty(meta, metaPublisher, payload.ProviderName)

	return curio.ContentEnvelope{
		Category: curio.CategoryPodcast,
		URL:      rawURL,
		Title:    payload.Title,
		Body:     payload.Title,
		Meta:     meta,
	}, nil
}

func (e *PodcastExtractor) extractHTML(ctx context.Context, rawURL string) (curio.ContentEnvelope, error) {
	doc, resp, err := fetchDocument(ctx, e.fetcher, rawURL)
	if err != nil {
		return curio.ContentEnvelope{}, err
	}

	title := pageTitle(doc)
	description := pageDescription(doc)

	meta := map[string]string{}
	setIfEmpty(meta, metaAuthor, metaContent(doc, "og:audio:artist", "music:musician", "author"))
	setIfEmpty(meta, metaDuration, metaContent(doc, "music:duration", "og:audio:duration"))
	setIfEmpty(meta, metaThumbnail, absoluteThumbnail(resp.URL, metaContent(doc, "og:image", "twitter:image")))
	setIfEmpty(meta, metaPublisher, metaContent(doc, "og:site_name"))

	if ld := jsonLD(doc, "PodcastEpisode", "PodcastSeries", "AudioObject"); ld != nil {
		setIfEmpty(meta, metaDuration, ldString(ld, "duration"))
		setIfEmpty(meta, metaPublished, ldString(ld, "datePublished"))
		setIfEmpty(meta, metaAuthor, ldString(ld, "author"))
		if title == "" {
			title = ldString(ld, "name")
		}
		if description == "" {
			description = ldString(ld, "description")
		}
	}

	if title == "" || description == "" {
		return curio.ContentEnvelope{}, curio.NewExtractionError(rawURL, fmt.Errorf("episode page has no usable metadata"))
	}

	return curio.ContentEnvelope{
		Category: curio.CategoryPodcast,
		URL:      resp.URL,
		Title:    title,
		Body:     description,
		Meta:     meta,
	}, nil
}
