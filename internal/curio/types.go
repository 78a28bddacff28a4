// Package curio defines core types shared across subsystems.
package curio

import (
	"net/http"
	"time"
)

// Category is the content category a URL resolves to.
type Category string

// Content categories recognized by the URL classifier.
const (
	CategoryVideo     Category = "video"
	CategoryAudiobook Category = "audiobook"
	CategoryPodcast   Category = "podcast"
	CategoryArticle   Category = "article"
	CategoryOther     Category = "other"
)

// Library is one of the fixed top-level collections a recommendation is filed under.
type Library string

// Libraries with their own closed tag vocabularies.
const (
	LibraryFiction    Library = "fiction"
	LibraryNonfiction Library = "nonfiction"
	LibraryPractical  Library = "practical"
)

// Sentiment is the closed sentiment classification returned by synthesis.
type Sentiment string

// Sentiment values.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentCritical Sentiment = "critical"
	SentimentMixed    Sentiment = "mixed"
)

// Tag limits imposed by the destination forum.
const (
	// MaxTopicTags is the forum's tag-per-topic ceiling (primary plus secondary).
	MaxTopicTags = 5
	// MaxSecondaryTags bounds the secondary tag list on a recommendation.
	MaxSecondaryTags = MaxTopicTags - 1
)

// Submission is the tuple the chat gateway delivers for each shared URL.
type Submission struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
	RawText   string `json:"raw_text"`
	Submitter string `json:"submitter"`
	URL       string `json:"url"`
}

// QueueItem wraps a submission ready to process.
type QueueItem struct {
	Submission Submission
	Attempt    int
	Enqueued   int64
}

// ContentEnvelope is the normalized output of an extractor, consumed
// immediately by synthesis and never persisted verbatim.
type ContentEnvelope struct {
	Category    Category
	URL         string
	Title       string
	Body        string
	Transcribed bool
	// Meta is an open bag for secondary fields. Well-known keys:
	// author, duration, thumbnail, published, publisher, rating, narrator.
	Meta map[string]string
}

// Classification is the structured result parsed from a completion response.
type Classification struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ContentType   string    `json:"content_type"`
	Topics        []string  `json:"topics"`
	Duration      string    `json:"duration"`
	Quality       int       `json:"quality_score"`
	Sentiment     Sentiment `json:"sentiment"`
	Summary       string    `json:"summary"`
	Takeaways     []string  `json:"key_takeaways,omitempty"`
	MainIdeas     []string  `json:"main_ideas,omitempty"`
	TLDR          string    `json:"tldr,omitempty"`
	Library       Library   `json:"library"`
	PrimaryTag    string    `json:"primary_tag"`
	SecondaryTags []string  `json:"secondary_tags"`
}

// PostRef identifies the forum topic and first post created for a recommendation.
type PostRef struct {
	TopicID int64 `json:"topic_id"`
	PostID  int64 `json:"post_id"`
}

// Recommendation is the central persisted entity, one row per processed URL.
type Recommendation struct {
	ID            string     `json:"id"`
	Identity      string     `json:"identity"`
	URL           string     `json:"url"`
	RawText       string     `json:"raw_text"`
	Submitter     string     `json:"submitter"`
	ChannelID     string     `json:"channel_id"`
	Category      Category   `json:"category"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Topics        []string   `json:"topics"`
	Duration      string     `json:"duration"`
	Quality       int        `json:"quality_score"`
	Sentiment     Sentiment  `json:"sentiment"`
	Summary       string     `json:"summary"`
	Thumbnail     string     `json:"thumbnail,omitempty"`
	ArchiveURI    string     `json:"archive_uri,omitempty"`
	Library       Library    `json:"library"`
	PrimaryTag    string     `json:"primary_tag"`
	SecondaryTags []string   `json:"secondary_tags"`
	TopicID       int64      `json:"topic_id,omitempty"`
	PostID        int64      `json:"post_id,omitempty"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	Attempts      int        `json:"attempts"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL         string
	Headers     http.Header
	UseHeadless bool
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}

// ChannelMessage is a historical chat message surfaced by ChannelHistory.
type ChannelMessage struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
	Timestamp time.Time
	Bot       bool
}

// ForumTag is a tag actually configured on the destination forum.
type ForumTag struct {
	ID   string
	Name string
}

// TopicRequest is the payload for creating a forum topic.
type TopicRequest struct {
	Title        string
	Body         string
	CategoryName string
	TagIDs       []string
}

// SearchFilter narrows recommendation queries.
type SearchFilter struct {
	Library  Library
	Tag      string
	Category Category
	Limit    int
}
