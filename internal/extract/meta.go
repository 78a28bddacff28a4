// Package extract turns URLs into content envelopes, one extractor per
// content category plus a generic fallback.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/curiobot/curio/internal/curio"
)

// Meta keys used in envelope metadata bags.
const (
	metaAuthor    = "author"
	metaNarrator  = "narrator"
	metaDuration  = "duration"
	metaThumbnail = "thumbnail"
	metaPublished = "published"
	metaPublisher = "publisher"
	metaRating    = "rating"
)

// fetchDocument GETs the URL and parses the response body. Non-2xx statuses
// and parse failures are recoverable extraction errors.
func fetchDocument(ctx context.Context, fetcher curio.Fetcher, rawURL string) (*goquery.Document, curio.FetchResponse, error) {
	resp, err := fetcher.Fetch(ctx, curio.FetchRequest{URL: rawURL})
	if err != nil {
		return nil, curio.FetchResponse{}, curio.NewExtractionError(rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, curio.NewExtractionError(rawURL, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, resp, curio.NewExtractionError(rawURL, fmt.Errorf("parse html: %w", err))
	}
	return doc, resp, nil
}

// metaContent returns the first non-empty content attribute among the given
// meta property/name values. Open Graph and Twitter card tags are queried
// with the same selectors.
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		selectors := []string{
			fmt.Sprintf("meta[property=%q]", key),
			fmt.Sprintf("meta[name=%q]", key),
		}
		for _, sel := range selectors {
			if content, ok := doc.Find(sel).First().Attr("content"); ok {
				if trimmed := strings.TrimSpace(content); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// pageTitle falls back from og:title to <title> to the first <h1>.
func pageTitle(doc *goquery.Document) string {
	if t := metaContent(doc, "og:title", "twitter:title"); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func pageDescription(doc *goquery.Document) string {
	return metaContent(doc, "og:description", "twitter:description", "description")
}

// minThumbnailLen filters out junk like "/x.png" that some pages put in
// og:image.
const minThumbnailLen = 12

// absoluteThumbnail resolves raw against base and discards malformed or
// implausibly short URLs rather than propagating them.
func absoluteThumbnail(base, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	thumbURL, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	resolved := baseURL.ResolveReference(thumbURL)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	abs := resolved.String()
	if len(abs) < minThumbnailLen {
		return ""
	}
	return abs
}

// jsonLD decodes the first application/ld+json block that matches one of the
// wanted @type values. It is the last resort for fields the meta tags and
// DOM selectors did not yield.
func jsonLD(doc *goquery.Document, wantTypes ...string) map[string]any {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		var payload any
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			return true
		}
		for _, candidate := range flattenLD(payload) {
			if matchesLDType(candidate, wantTypes) {
				found = candidate
				return false
			}
		}
		return true
	})
	return found
}

func flattenLD(payload any) []map[string]any {
	switch v := payload.(type) {
	case map[string]any:
		out := []map[string]any{v}
		if graph, ok := v["@graph"].([]any); ok {
			for _, entry := range graph {
				if m, ok := entry.(map[string]any); ok {
					out = append(out, m)
				}
			}
		}
		return out
	case []any:
		var out []map[string]any
		for _, entry := range v {
			if m, ok := entry.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func matchesLDType(entry map[string]any, wantTypes []string) bool {
	if len(wantTypes) == 0 {
		return true
	}
	switch typ := entry["@type"].(type) {
	case string:
		for _, want := range wantTypes {
			if strings.EqualFold(typ, want) {
				return true
			}
		}
	case []any:
		for _, item := range typ {
			if s, ok := item.(string); ok {
				for _, want := range wantTypes {
					if strings.EqualFold(s, want) {
						return true
					}
				}
			}
		}
	}
	return false
}

// ldString pulls a string-valued field out of a JSON-LD entry, descending
// into {"name": ...} objects for person/organization values.
func ldString(entry map[string]any, key string) string {
	if entry == nil {
		return ""
	}
	switch v := entry[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			return strings.TrimSpace(name)
		}
	case []any:
		var names []string
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				names = append(names, strings.TrimSpace(entry))
			case map[string]any:
				if name, ok := entry["name"].(string); ok {
					names = append(names, strings.TrimSpace(name))
				}
			}
		}
		return strings.Join(names, ", ")
	}
	return ""
}

func setIfEmpty(meta map[string]string, key, value string) {
	if value == "" {
		return
	}
	if _, ok := meta[key]; !ok {
		meta[key] = value
	}
}

// okStatus reports whether the response code is in the 2xx range.
func okStatus(resp curio.FetchResponse) bool {
	return resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
}
