package synthesis

import (
	"encoding/json"
	"strings"

	"github.com/curiobot/curio/internal/curio"
	"github.com/curiobot/curio/internal/library"
)

// parseClassification pulls the JSON object out of a completion reply, which
// may be fenced or wrapped in prose, and normalizes it against the closed
// vocabularies. An unusable reply is a SynthesisError.
func parseClassification(reply string) (curio.Classification, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end == -1 || end <= start {
		return curio.Classification{}, &curio.SynthesisError{Reason: "no JSON object in completion"}
	}

	var c curio.Classification
	if err := json.Unmarshal([]byte(reply[start:end+1]), &c); err != nil {
		return curio.Classification{}, &curio.SynthesisError{Reason: "malformed JSON in completion", Cause: err}
	}
	if strings.TrimSpace(c.Title) == "" {
		return curio.Classification{}, &curio.SynthesisError{Reason: "completion missing title"}
	}
	if !library.Valid(c.Library) {
		return curio.Classification{}, &curio.SynthesisError{Reason: "completion named unknown library " + string(c.Library)}
	}

	name, ok := library.Canonical(c.Library, c.PrimaryTag)
	if !ok {
		return curio.Classification{}, &curio.SynthesisError{Reason: "primary tag " + c.PrimaryTag + " outside the " + string(c.Library) + " vocabulary"}
	}
	c.PrimaryTag = name

	normalize(&c)
	return c, nil
}

// normalize clamps open-ended fields and snaps tags onto the library's
// vocabulary. Secondary tags that do not resolve are dropped silently.
func normalize(c *curio.Classification) {
	if c.Quality < 1 {
		c.Quality = 1
	}
	if c.Quality > 10 {
		c.Quality = 10
	}

	switch c.Sentiment {
	case curio.SentimentPositive, curio.SentimentNeutral, curio.SentimentCritical, curio.SentimentMixed:
	default:
		c.Sentiment = curio.SentimentNeutral
	}

	seen := map[string]bool{c.PrimaryTag: true}
	kept := make([]string, 0, len(c.SecondaryTags))
	for _, tag := range c.SecondaryTags {
		name, ok := library.Canonical(c.Library, tag)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		kept = append(kept, name)
		if len(kept) == curio.MaxSecondaryTags {
			break
		}
	}
	c.SecondaryTags = kept
}
