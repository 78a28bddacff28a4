package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/curiobot/curio/internal/curio"
)

// TranscriptClient retrieves the transcript for a video id. A missing or
// disabled transcript is an error here, but the extractor degrades to the
// description text instead of failing.
type TranscriptClient interface {
	Transcript(ctx context.Context, videoID string) (string, error)
}

// YouTubeExtractor handles video-platform URLs. It resolves the canonical
// video id, reads structured metadata from the platform's oEmbed endpoint,
// and attempts a transcript.
type YouTubeExtractor struct {
	fetcher     curio.Fetcher
	transcripts TranscriptClient
}

// NewYouTube builds a YouTubeExtractor.
func NewYouTube(fetcher curio.Fetcher, transcripts TranscriptClient) *YouTubeExtractor {
	return &YouTubeExtractor{fetcher: fetcher, transcripts: transcripts}
}

type oembedPayload struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Extract resolves the video id and assembles the envelope. Transcript
// retrieval failure is a soft degradation: the envelope falls back to the
// video description and is marked not transcribed.
func (e *YouTubeExtractor) Extract(ctx context.Context, rawURL string) (curio.ContentEnvelope, error) {
	videoID := curio.YouTubeVideoID(rawURL)
	if videoID == "" {
		return curio.ContentEnvelope{}, curio.NewExtractionError(rawURL, fmt.Errorf("no video id in url"))
	}
	watchURL := "https://www.youtube.com/watch?v=" + videoID

	oembed, err := e.fetchOEmbed(ctx, watchURL)
	if err != nil {
		return curio.ContentEnvelope{}, curio.NewExtractionError(rawURL, err)
	}

	meta := map[string]string{}
	setIfEmpty(meta, metaAuthor, oembed.AuthorName)
	setIfEmpty(meta, metaThumbnail, absoluteThumbnail(watchURL, oembed.ThumbnailURL))

	// The watch page carries description and duration that oEmbed omits.
	// Best effort: a scrape failure only costs us those fields.
	description := e.scrapeWatchPage(ctx, watchURL, meta)

	envelope := curio.ContentEnvelope{
		Category: curio.CategoryVideo,
		URL:      watchURL,
		Title:    oembed.Title,
		Meta:     meta,
	}

	transcript, err := e.transcript(ctx, videoID)
	if err == nil && transcript != "" {
		envelope.Body = transcript
		envelope.Transcribed = true
		return envelope, nil
	}

	if description == "" {
		description = oembed.Title
	}
	envelope.Body = description
	envelope.Transcribed = false
	return envelope, nil
}

func (e *YouTubeExtractor) fetchOEmbed(ctx context.Context, watchURL string) (oembedPayload, error) {
	endpoint := "https://www.youtube.com/oembed?format=json&url=" + url.QueryEscape(watchURL)
	resp, err := e.fetcher.Fetch(ctx, curio.FetchRequest{URL: endpoint})
	if err != nil {
		return oembedPayload{}, fmt.Errorf("oembed fetch: %w", err)
	}
	if !okStatus(resp) {
		return oembedPayload{}, fmt.Errorf("oembed status %d", resp.StatusCode)
	}
	var payload oembedPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return oembedPayload{}, fmt.Errorf("oembed decode: %w", err)
	}
	if payload.Title == "" {
		return oembedPayload{}, fmt.Errorf("oembed payload missing title")
	}
	return payload, nil
}

func (e *YouTubeExtractor) scrapeWatchPage(ctx context.Context, watchURL string, meta map[string]string) string {
	resp, err := e.fetcher.Fetch(ctx, curio.FetchRequest{URL: watchURL})
	if err != nil || !okStatus(resp) {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return ""
	}
	if duration, ok := doc.Find(`meta[itemprop="duration"]`).Attr("content"); ok {
		setIfEmpty(meta, metaDuration, strings.TrimSpace(duration))
	}
	if published, ok := doc.Find(`meta[itemprop="datePublished"]`).Attr("content"); ok {
		setIfEmpty(meta, metaPublished, strings.TrimSpace(published))
	}
	return pageDescription(doc)
}

func (e *YouTubeExtractor) transcript(ctx context.Context, videoID string) (string, error) {
	if e.transcripts == nil {
		return "", fmt.Errorf("no transcript client configured")
	}
	return e.transcripts.Transcript(ctx, videoID)
}

// TimedTextClient fetches captions from the public timedtext endpoint.
type TimedTextClient struct {
	fetcher curio.Fetcher
	lang    string
}

// NewTimedText builds a TimedTextClient. Language defaults to English.
func NewTimedText(fetcher curio.Fetcher, lang string) *TimedTextClient {
	if lang == "" {
		lang = "en"
	}
	return &TimedTextClient{fetcher: fetcher, lang: lang}
}

type timedTextDoc struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// Transcript downloads and flattens the caption track for a video.
func (c *TimedTextClient) Transcript(ctx context.Context, videoID string) (string, error) {
	endpoint := fmt.Sprintf("https://video.google.com/timedtext?lang=%s&v=%s", url.QueryEscape(c.lang), url.QueryEscape(videoID))
	resp, err := c.fetcher.Fetch(ctx, curio.FetchRequest{URL: endpoint})
	if err != nil {
		return "", fmt.Errorf("timedtext fetch: %w", err)
	}
	if !okStatus(resp) || len(resp.Body) == 0 {
		return "", fmt.Errorf("no caption track for video %s", videoID)
	}
	var doc timedTextDoc
	if err := xml.Unmarshal(resp.Body, &doc); err != nil {
		return "", fmt.Errorf("timedtext decode: %w", err)
	}
	var parts []string
	for _, t := range doc.Texts {
		if line := strings.TrimSpace(html.UnescapeString(t.Value)); line != "" {
			parts = append(parts, line)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("empty caption track for video %s", videoID)
	}
	return strings.Join(parts, " "), nil
}
