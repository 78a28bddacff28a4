package extract

import (
	"context"
	"fmt"

	"github.com/curiobot/curio/internal/curio"
)

// GenericExtractor handles uncategorized URLs and serves as the fallback
// when a dedicated extractor fails. It only reads page metadata, so it works
// on nearly anything that returns HTML.
type GenericExtractor struct {
	fetcher curio.Fetcher
}

// NewGeneric builds a GenericExtractor.
func NewGeneric(fetcher curio.Fetcher) *GenericExtractor {
	return &GenericExtractor{fetcher: fetcher}
}

// Extract fetches the page and projects its meta tags into an envelope.
func (e *GenericExtractor) Extract(ctx context.Context, rawURL string) (curio.ContentEnvelope, error) {
	doc, resp, err := fetchDocument(ctx, e.fetcher, rawURL)
	if err != nil {
		return curio.ContentEnvelope{}, err
	}

	title := pageTitle(doc)
	description := pageDescription(doc)
	if title == "" && description == "" {
		return curio.ContentEnvelope{}, curio.NewExtractionError(rawURL, fmt.Errorf("page has no title or description metadata"))
	}

	meta := map[string]string{}
	setIfEmpty(meta, metaAuthor, metaContent(doc, "author", "article:author"))
	setIfEmpty(meta, metaThumbnail, absoluteThumbnail(resp.URL, metaContent(doc, "og:image", "twitter:image")))
	setIfEmpty(meta, metaPublished, metaContent(doc, "article:published_time", "og:updated_time"))

	return curio.ContentEnvelope{
		Category: curio.CategoryOther,
		URL:      resp.URL,
		Title:    title,
		Body:     description,
		Meta:     meta,
	}, nil
}
