package synthesis

import (
	"fmt"
	"strings"

	"github.com/curiobot/curio/internal/curio"
	"github.com/curiobot/curio/internal/library"
)

// maxBodyRunes bounds how much extracted body text goes into the prompt.
const maxBodyRunes = 12000

// systemPrompt instructs the model to answer with a single JSON object whose
// fields mirror curio.Classification. The tag vocabularies are embedded so
// the model can only pick from the closed sets.
func systemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are a librarian for a reading-and-listening recommendation community.
Given a piece of shared content, classify it and respond with a single JSON object and nothing else.

The JSON object must have exactly these fields:
{
  "title": "clean human-readable title",
  "description": "one or two sentence description",
  "content_type": "video|audiobook|podcast|article|other",
  "topics": ["free-form topical keywords"],
  "duration": "length if known (e.g. 42 min, 16h 10m), else empty string",
  "quality_score": 1-10 integer,
  "sentiment": "positive|neutral|critical|mixed",
  "summary": "a paragraph summarizing the content",
  "key_takeaways": ["up to five concrete takeaways"],
  "main_ideas": ["the central ideas"],
  "tldr": "one sentence",
  "library": "fiction|nonfiction|practical",
  "primary_tag": "exactly one tag from the chosen library's list below",
  "secondary_tags": ["up to four more tags from the SAME library's list"]
}

Choosing the library:
- fiction: novels, stories and narrative fiction in any medium, including audiobook and film adaptations of fiction.
- nonfiction: informational or educational content about the real world: history, science, biography, current affairs, ideas.
- practical: actionable material the reader applies: how-to guides, skills, tools, productivity, health practice, career advice.
A dramatized documentary is nonfiction; a how-to video is practical even though it is a video.

`)
	for _, lib := range library.Libraries() {
		fmt.Fprintf(&b, "Tags for %s:\n  %s\n", lib, strings.Join(library.TagNames(lib), ", "))
	}
	b.WriteString(`
Never invent a tag. primary_tag and every secondary_tag must be copied verbatim from the chosen library's list.`)
	return b.String()
}

// contentPrompt renders a content-rich envelope as the user message.
func contentPrompt(env curio.ContentEnvelope, rawText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\nDetected category: %s\nTitle: %s\n", env.URL, env.Category, env.Title)
	for _, key := range []string{"author", "narrator", "duration", "publisher", "published", "rating"} {
		if v := env.Meta[key]; v != "" {
			fmt.Fprintf(&b, "%s: %s\n", key, v)
		}
	}
	if rawText != "" {
		fmt.Fprintf(&b, "Shared in chat with the message: %q\n", rawText)
	}
	body := env.Body
	if runes := []rune(body); len(runes) > maxBodyRunes {
		body = string(runes[:maxBodyRunes])
	}
	if env.Transcribed {
		fmt.Fprintf(&b, "\nTranscript:\n%s\n", body)
	} else {
		fmt.Fprintf(&b, "\nContent:\n%s\n", body)
	}
	return b.String()
}

// urlPrompt is the degraded variant used when extraction failed outright:
// the model works from the URL and the chat message alone.
func urlPrompt(url, rawText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The content behind this URL could not be retrieved. Classify it from the URL and the chat message alone, inferring what you reasonably can.\n\nURL: %s\n", url)
	if rawText != "" {
		fmt.Fprintf(&b, "Shared in chat with the message: %q\n", rawText)
	}
	return b.String()
}
