package curio

import (
	"context"
	"time"
)

// Fetcher retrieves a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Extractor turns a URL into a content envelope for one category.
// Recoverable failures surface as *ExtractionError.
type Extractor interface {
	Extract(ctx context.Context, url string) (ContentEnvelope, error)
}

// Synthesizer classifies content via a hosted completion service.
// AnalyzeURL is the degraded path used when extraction failed outright.
type Synthesizer interface {
	AnalyzeContent(ctx context.Context, env ContentEnvelope, rawText string) (Classification, error)
	AnalyzeURL(ctx context.Context, url string, rawText string) (Classification, error)
}

// Store persists recommendations and enforces the dedup invariants.
type Store interface {
	// Create inserts a new unpublished row. Returns ErrDuplicate when the
	// identity or normalized URL already exists.
	Create(ctx context.Context, rec Recommendation) (string, error)
	FindByIdentity(ctx context.Context, identity string) (Recommendation, error)
	// UpdateClassification writes the classification fields of rec onto the
	// row with the matching identity. Fails with ErrPublished on published rows.
	UpdateClassification(ctx context.Context, identity string, rec Recommendation) error
	// RecordError increments the attempt counter and stores the last error.
	RecordError(ctx context.Context, identity string, errText string) error
	// MarkPublished is terminal: it sets post identifiers and the published
	// flag, and no later mutation may touch the row.
	MarkPublished(ctx context.Context, identity string, post PostRef, at time.Time) error
	ExistingIdentities(ctx context.Context, identities []string) (map[string]bool, error)
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	LastPublishedAt(ctx context.Context) (time.Time, error)
	Search(ctx context.Context, filter SearchFilter) ([]Recommendation, error)
}

// Forum is the destination-post boundary.
type Forum interface {
	ListTags(ctx context.Context) ([]ForumTag, error)
	CreateTopic(ctx context.Context, req TopicRequest) (PostRef, error)
}

// Queue provides enqueue/dequeue semantics for submissions.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Dequeue(ctx context.Context) (QueueItem, error)
}

// BlobStore archives raw fetched content and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// ChannelHistory pages backward through a chat channel's messages.
type ChannelHistory interface {
	Messages(ctx context.Context, channelID string, beforeID string, limit int) ([]ChannelMessage, error)
}

// BotWallDetector decides whether a probe response warrants a headless retry.
type BotWallDetector interface {
	ShouldPromote(probe FetchResponse) bool
}

// Hasher computes digests for synthetic identities and archive keys.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces row IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
