package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/curiobot/curio/internal/curio"
)

// AudibleExtractor handles audiobook listing pages. Audiobook storefronts
// are aggressive about bot walls, so a failed or suspicious probe fetch is
// retried through the headless fetcher when one is configured.
type AudibleExtractor struct {
	probe    curio.Fetcher
	headless curio.Fetcher
	detector curio.BotWallDetector
}

// NewAudible builds an AudibleExtractor. headless and detector may be nil,
// disabling promotion.
func NewAudible(probe, headless curio.Fetcher, detector curio.BotWallDetector) *AudibleExtractor {
	return &AudibleExtractor{probe: probe, headless: headless, detector: detector}
}

// Extract fetches the listing and projects title, author, narrator, runtime
// and rating into the envelope.
func (e *AudibleExtractor) Extract(ctx context.Context, rawURL string) (curio.ContentEnvelope, error) {
	resp, err := e.fetchListing(ctx, rawURL)
	if err != nil {
		return curio.ContentEnvelope{}, curio.NewExtractionError(rawURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return curio.ContentEnvelope{}, curio.NewExtractionError(rawURL, fmt.Errorf("parse html: %w", err))
	}

	title := pageTitle(doc)
	description := pageDescription(doc)

	meta := map[string]string{}
	setIfEmpty(meta, metaAuthor, labeledText(doc, ".authorLabel a"))
	setIfEmpty(meta, metaNarrator, labeledText(doc, ".narratorLabel a"))
	setIfEmpty(meta, metaDuration, labeledValue(doc, "li.runtimeLabel"))
	setIfEmpty(meta, metaThumbnail, absoluteThumbnail(resp.URL, metaContent(doc, "og:image")))

	if summary := strings.TrimSpace(doc.Find(".productPublisherSummary").First().Text()); summary != "" {
		description = summary
	}

	if ld := jsonLD(doc, "Audiobook", "Book"); ld != nil {
		setIfEmpty(meta, metaAuthor, ldString(ld, "author"))
		setIfEmpty(meta, metaNarrator, ldString(ld, "readBy"))
		setIfEmpty(meta, metaDuration, ldString(ld, "duration"))
		setIfEmpty(meta, metaPublisher, ldString(ld, "publisher"))
		if rating, ok := ld["aggregateRating"].(map[string]any); ok {
			setIfEmpty(meta, metaRating, ldString(rating, "ratingValue"))
		}
		if title == "" {
			title = ldString(ld, "name")
		}
		if description == "" {
			description = ldString(ld, "description")
		}
	}

	if title == "" || description == "" {
		return curio.ContentEnvelope{}, curio.NewExtractionError(rawURL, fmt.Errorf("listing has no usable title or description"))
	}

	return curio.ContentEnvelope{
		Category: curio.CategoryAudiobook,
		URL:      resp.URL,
		Title:    title,
		Body:     description,
		Meta:     meta,
	}, nil
}

func (e *AudibleExtractor) fetchListing(ctx context.Context, rawURL string) (curio.FetchResponse, error) {
	resp, err := e.probe.Fetch(ctx, curio.FetchRequest{URL: rawURL})
	if err == nil && okStatus(resp) && !e.shouldPromote(resp) {
		return resp, nil
	}

	if e.headless == nil {
		if err != nil {
			return curio.FetchResponse{}, fmt.Errorf("probe fetch: %w", err)
		}
		return curio.FetchResponse{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	headlessResp, headlessErr := e.headless.Fetch(ctx, curio.FetchRequest{URL: rawURL, UseHeadless: true})
	if headlessErr != nil {
		return curio.FetchResponse{}, fmt.Errorf("headless fetch: %w", headlessErr)
	}
	if !okStatus(headlessResp) {
		return curio.FetchResponse{}, fmt.Errorf("headless status %d", headlessResp.StatusCode)
	}
	return headlessResp, nil
}

func (e *AudibleExtractor) shouldPromote(resp curio.FetchResponse) bool {
	if e.detector == nil || e.headless == nil {
		return false
	}
	return e.detector.ShouldPromote(resp)
}

// labeledText joins the text of all nodes matching the selector.
func labeledText(doc *goquery.Document, selector string) string {
	var parts []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, ", ")
}

// labeledValue strips the "Label:" prefix storefront list items carry,
// e.g. "Length: 16 hrs and 10 mins".
func labeledValue(doc *goquery.Document, selector string) string {
	text := strings.TrimSpace(doc.Find(selector).First().Text())
	if text == "" {
		return ""
	}
	if idx := strings.Index(text, ":"); idx >= 0 {
		text = strings.TrimSpace(text[idx+1:])
	}
	return strings.Join(strings.Fields(text), " ")
}
