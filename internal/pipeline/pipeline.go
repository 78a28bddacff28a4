// Package pipeline runs a submission through extraction, synthesis, tag
// resolution, persistence and forum publication.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/curiobot/curio/internal/curio"
	"github.com/curiobot/curio/internal/forum"
	"github.com/curiobot/curio/internal/library"
	"github.com/curiobot/curio/internal/metrics"
)

// Source labels for metrics and logs.
const (
	SourceLive     = "live"
	SourceBackfill = "backfill"
	SourceImport   = "import"
)

// DefaultMaxAttempts is the retry ceiling per recommendation.
const DefaultMaxAttempts = 3

// Config tunes the processor.
type Config struct {
	MaxAttempts int
	// SourceLinkBase prefixes links back to the originating chat message,
	// joined as base/channelID/messageID.
	SourceLinkBase string
	// CategoryNames maps each library to the forum container title.
	CategoryNames map[curio.Library]string
}

// Processor drives the ingestion pipeline. Processing is sequential: at most
// one item's pipeline is active per Process call, and the store's identity
// uniqueness is the only cross-run concurrency guard.
type Processor struct {
	extractor   curio.Extractor
	synthesizer curio.Synthesizer
	store       curio.Store
	forum       curio.Forum
	archive     curio.BlobStore
	hasher      curio.Hasher
	clock       curio.Clock
	ids         curio.IDGenerator
	logger      *zap.Logger
	cfg         Config
}

// New wires a Processor.
func New(
	extractor curio.Extractor,
	synthesizer curio.Synthesizer,
	store curio.Store,
	forumClient curio.Forum,
	archive curio.BlobStore,
	hasher curio.Hasher,
	clock curio.Clock,
	ids curio.IDGenerator,
	logger *zap.Logger,
	cfg Config,
) *Processor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.CategoryNames == nil {
		cfg.CategoryNames = map[curio.Library]string{
			curio.LibraryFiction:    "Fiction Library",
			curio.LibraryNonfiction: "Nonfiction Library",
			curio.LibraryPractical:  "Practical Library",
		}
	}
	return &Processor{
		extractor:   extractor,
		synthesizer: synthesizer,
		store:       store,
		forum:       forumClient,
		archive:     archive,
		hasher:      hasher,
		clock:       clock,
		ids:         ids,
		logger:      logger,
		cfg:         cfg,
	}
}

// Process runs one submission end to end. Duplicate submissions are skipped
// silently; every other failure is recorded on the row and returned.
func (p *Processor) Process(ctx context.Context, sub curio.Submission, source string) error {
	normalized, err := curio.NormalizeURL(sub.URL)
	if err != nil {
		return fmt.Errorf("normalize url %q: %w", sub.URL, err)
	}
	sub.URL = normalized

	identity, err := p.identityFor(sub)
	if err != nil {
		return fmt.Errorf("derive identity: %w", err)
	}

	log := p.logger.With(
		zap.String("identity", identity),
		zap.String("url", normalized),
		zap.String("source", source),
	)

	rec, err := p.ensureRow(ctx, identity, sub)
	if err != nil {
		if errors.Is(err, curio.ErrDuplicate) {
			log.Debug("skipping duplicate submission")
			metrics.ObserveSubmission(source, metrics.OutcomeDuplicate)
			return nil
		}
		return err
	}
	if rec.Published {
		log.Debug("already published, skipping")
		metrics.ObserveSubmission(source, metrics.OutcomeDuplicate)
		return nil
	}
	if rec.Attempts >= p.cfg.MaxAttempts {
		log.Warn("attempt ceiling reached, leaving for manual intervention",
			zap.Int("attempts", rec.Attempts))
		return nil
	}

	classification, envelope, err := p.classify(ctx, sub, log)
	if err != nil {
		p.recordFailure(ctx, identity, err, log)
		metrics.ObserveSubmission(source, metrics.OutcomeFailed)
		return err
	}

	rec = p.project(rec, classification, envelope)
	if body := envelopeBody(envelope); body != "" {
		rec.ArchiveURI = p.archiveBody(ctx, normalized, body, log)
	}

	if err := p.store.UpdateClassification(ctx, identity, rec); err != nil {
		return fmt.Errorf("update classification: %w", err)
	}

	if err := p.publish(ctx, identity, rec, sub, log); err != nil {
		p.recordFailure(ctx, identity, err, log)
		metrics.ObserveSubmission(source, metrics.OutcomeFailed)
		return err
	}

	log.Info("recommendation published",
		zap.String("library", string(rec.Library)),
		zap.String("primary_tag", rec.PrimaryTag),
	)
	metrics.ObserveSubmission(source, metrics.OutcomePublished)
	return nil
}

// identityFor uses the source message ID when present and a synthetic hash of
// the normalized URL for non-interactive imports.
func (p *Processor) identityFor(sub curio.Submission) (string, error) {
	if sub.MessageID != "" {
		return sub.MessageID, nil
	}
	digest, err := p.hasher.Hash([]byte(sub.URL))
	if err != nil {
		return "", err
	}
	return "url:" + digest, nil
}

// ensureRow loads the existing row for identity or creates a fresh one.
// A create race resolves to ErrDuplicate for the loser.
func (p *Processor) ensureRow(ctx context.Context, identity string, sub curio.Submission) (curio.Recommendation, error) {
	rec, err := p.store.FindByIdentity(ctx, identity)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, curio.ErrNotFound) {
		return curio.Recommendation{}, fmt.Errorf("find recommendation: %w", err)
	}

	id, err := p.ids.NewID()
	if err != nil {
		return curio.Recommendation{}, fmt.Errorf("new id: %w", err)
	}
	rec = curio.Recommendation{
		ID:        id,
		Identity:  identity,
		URL:       sub.URL,
		RawText:   sub.RawText,
		Submitter: sub.Submitter,
		ChannelID: sub.ChannelID,
		Category:  curio.Classify(sub.URL),
		CreatedAt: p.clock.Now(),
	}
	if _, err := p.store.Create(ctx, rec); err != nil {
		return curio.Recommendation{}, err
	}
	return rec, nil
}

// classify extracts the URL and synthesizes a classification, degrading to
// URL-only synthesis when every extraction attempt failed.
func (p *Processor) classify(ctx context.Context, sub curio.Submission, log *zap.Logger) (curio.Classification, curio.ContentEnvelope, error) {
	envelope, err := p.extractor.Extract(ctx, sub.URL)
	if err != nil {
		if !curio.IsExtractionError(err) {
			return curio.Classification{}, curio.ContentEnvelope{}, fmt.Errorf("extract: %w", err)
		}
		log.Warn("extraction failed, synthesizing from url only", zap.Error(err))
		metrics.ObserveExtraction(string(curio.Classify(sub.URL)), "failed")

		classification, synthErr := p.synthesizer.AnalyzeURL(ctx, sub.URL, sub.RawText)
		if synthErr != nil {
			return curio.Classification{}, curio.ContentEnvelope{}, synthErr
		}
		return classification, curio.ContentEnvelope{URL: sub.URL, Category: curio.Classify(sub.URL)}, nil
	}

	metrics.ObserveExtraction(string(envelope.Category), "ok")
	classification, err := p.synthesizer.AnalyzeContent(ctx, envelope, sub.RawText)
	if err != nil {
		return curio.Classification{}, curio.ContentEnvelope{}, err
	}
	return classification, envelope, nil
}

// project merges the classification and envelope onto the stored row.
func (p *Processor) project(rec curio.Recommendation, c curio.Classification, env curio.ContentEnvelope) curio.Recommendation {
	if env.Category != "" {
		rec.Category = env.Category
	}
	rec.Title = c.Title
	rec.Description = c.Description
	rec.Topics = c.Topics
	rec.Duration = c.Duration
	rec.Quality = c.Quality
	rec.Sentiment = c.Sentiment
	rec.Summary = c.Summary
	rec.Library = c.Library
	rec.PrimaryTag = c.PrimaryTag
	rec.SecondaryTags = c.SecondaryTags
	rec.Thumbnail = env.Meta["thumbnail"]
	return rec
}

// archiveBody stores the extracted body keyed by its digest. Archive failures
// are logged and ignored: the archive is best effort.
func (p *Processor) archiveBody(ctx context.Context, url, body string, log *zap.Logger) string {
	if p.archive == nil {
		return ""
	}
	digest, err := p.hasher.Hash([]byte(body))
	if err != nil {
		log.Warn("hash body for archive", zap.Error(err))
		return ""
	}
	uri, err := p.archive.PutObject(ctx, "content/"+digest+".txt", "text/plain; charset=utf-8", []byte(body))
	if err != nil {
		log.Warn("archive body", zap.String("url", url), zap.Error(err))
		return ""
	}
	return uri
}

// publish resolves the forum tags, creates the topic and marks the row
// published. Topic creation is non-idempotent, so MarkPublished runs only
// after it succeeds.
func (p *Processor) publish(ctx context.Context, identity string, rec curio.Recommendation, sub curio.Submission, log *zap.Logger) error {
	configured, err := p.forum.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("list forum tags: %w", err)
	}
	resolved := library.ResolveAll(rec.PrimaryTag, rec.SecondaryTags, rec.Library, configured)
	tagIDs := make([]string, 0, len(resolved))
	for _, tag := range resolved {
		tagIDs = append(tagIDs, tag.ID)
	}

	start := p.clock.Now()
	ref, err := p.forum.CreateTopic(ctx, curio.TopicRequest{
		Title:        forum.TopicTitle(rec),
		Body:         forum.RenderBody(rec, p.sourceLink(sub)),
		CategoryName: p.cfg.CategoryNames[rec.Library],
		TagIDs:       tagIDs,
	})
	if err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	metrics.ObservePublish(p.clock.Now().Sub(start))

	if err := p.store.MarkPublished(ctx, identity, ref, p.clock.Now()); err != nil {
		// The topic exists but the row still says unpublished. Surface it
		// loudly: a later retry would create a second topic.
		log.Error("topic created but row not marked published",
			zap.Int64("topic_id", ref.TopicID), zap.Error(err))
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

func (p *Processor) sourceLink(sub curio.Submission) string {
	if p.cfg.SourceLinkBase == "" || sub.ChannelID == "" || sub.MessageID == "" {
		return ""
	}
	return p.cfg.SourceLinkBase + "/" + sub.ChannelID + "/" + sub.MessageID
}

func (p *Processor) recordFailure(ctx context.Context, identity string, cause error, log *zap.Logger) {
	if curio.IsSynthesisError(cause) {
		metrics.ObserveSynthesisFailure()
	}
	if err := p.store.RecordError(ctx, identity, cause.Error()); err != nil {
		log.Error("record error", zap.Error(err))
	}
}

func envelopeBody(env curio.ContentEnvelope) string {
	return env.Body
}
