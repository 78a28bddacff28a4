package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/curiobot/curio/internal/curio"
)

// ArticleExtractor handles long-form article pages. The body comes from a
// readability pass over the document; meta tags and JSON-LD supply the rest.
type ArticleExtractor struct {
	fetcher curio.Fetcher
}

// NewArticle builds an ArticleExtractor.
func NewArticle(fetcher curio.Fetcher) *ArticleExtractor {
	return &ArticleExtractor{fetcher: fetcher}
}

// Extract fetches the article and returns its readable text.
func (e *ArticleExtractor) Extract(ctx context.Context, rawURL string) (curio.ContentEnvelope, error) {
	doc, resp, err := fetchDocument(ctx, e.fetcher, rawURL)
	if err != nil {
		return curio.ContentEnvelope{}, err
	}

	title := pageTitle(doc)
	body := readableText(resp.URL, resp.Body)
	if body == "" {
		// A page with meta description but no readable body is still usable.
		body = pageDescription(doc)
	}
	if title == "" || body == "" {
		return curio.ContentEnvelope{}, curio.NewExtractionError(rawURL, fmt.Errorf("no readable article content"))
	}

	meta := map[string]string{}
	setIfEmpty(meta, metaAuthor, metaContent(doc, "author", "article:author", "twitter:creator"))
	setIfEmpty(meta, metaPublished, metaContent(doc, "article:published_time"))
	setIfEmpty(meta, metaPublisher, metaContent(doc, "og:site_name"))
	setIfEmpty(meta, metaThumbnail, absoluteThumbnail(resp.URL, metaContent(doc, "og:image", "twitter:image")))

	if ld := jsonLD(doc, "Article", "NewsArticle", "BlogPosting"); ld != nil {
		setIfEmpty(meta, metaAuthor, ldString(ld, "author"))
		setIfEmpty(meta, metaPublished, ldString(ld, "datePublished"))
		setIfEmpty(meta, metaPublisher, ldString(ld, "publisher"))
	}

	return curio.ContentEnvelope{
		Category: curio.CategoryArticle,
		URL:      resp.URL,
		Title:    title,
		Body:     body,
		Meta:     meta,
	}, nil
}

func readableText(pageURL string, html []byte) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}
	article, err := readability.FromReader(bytes.NewReader(html), parsed)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}
