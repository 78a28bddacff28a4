package forum

import (
	"fmt"
	"strings"

	"github.com/curiobot/curio/internal/curio"
)

// maxTopicTitleRunes keeps generated topic titles inside common forum limits.
const maxTopicTitleRunes = 120

// TopicTitle derives the topic title from a classified recommendation.
func TopicTitle(rec curio.Recommendation) string {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = rec.URL
	}
	runes := []rune(title)
	if len(runes) > maxTopicTitleRunes {
		title = string(runes[:maxTopicTitleRunes-1]) + "…"
	}
	return title
}

// RenderBody builds the markdown post body for a recommendation. sourceLink,
// when set, points back at the originating chat message.
func RenderBody(rec curio.Recommendation, sourceLink string) string {
	var b strings.Builder

	if rec.Thumbnail != "" {
		fmt.Fprintf(&b, "![thumbnail](%s)\n\n", rec.Thumbnail)
	}
	if rec.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", rec.Description)
	}
	if rec.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", rec.Summary)
	}

	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Link | %s |\n", rec.URL)
	fmt.Fprintf(&b, "| Category | %s |\n", rec.Category)
	if rec.Duration != "" {
		fmt.Fprintf(&b, "| Duration | %s |\n", rec.Duration)
	}
	if rec.Quality > 0 {
		fmt.Fprintf(&b, "| Quality | %d/10 |\n", rec.Quality)
	}
	if rec.Sentiment != "" {
		fmt.Fprintf(&b, "| Sentiment | %s |\n", rec.Sentiment)
	}
	if len(rec.Topics) > 0 {
		fmt.Fprintf(&b, "| Topics | %s |\n", strings.Join(rec.Topics, ", "))
	}
	b.WriteString("\n")

	if rec.Submitter != "" {
		fmt.Fprintf(&b, "Recommended by %s", rec.Submitter)
		if sourceLink != "" {
			fmt.Fprintf(&b, " ([original message](%s))", sourceLink)
		}
		b.WriteString("\n")
	} else if sourceLink != "" {
		fmt.Fprintf(&b, "[Original message](%s)\n", sourceLink)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
