// Package backfill replays missed channel history through the pipeline.
package backfill

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/curiobot/curio/internal/curio"
	"github.com/curiobot/curio/internal/metrics"
	"github.com/curiobot/curio/internal/pipeline"
)

// Runner is satisfied by pipeline.Processor.
type Runner interface {
	Process(ctx context.Context, sub curio.Submission, source string) error
}

// Config tunes a reconciliation run.
type Config struct {
	ChannelID string
	// BotUserID filters out the bot's own messages.
	BotUserID string
	// BatchSize is the page size for history pagination.
	BatchSize int
	// MaxMessages caps how far back a run scans.
	MaxMessages int
	// RatePerSecond paces history page fetches.
	RatePerSecond float64
}

// Reconciler pages a channel's history backward from now until the last
// published timestamp (or a safety cap) and replays every unseen URL-bearing
// message through the pipeline.
type Reconciler struct {
	history curio.ChannelHistory
	store   curio.Store
	runner  Runner
	limiter *rate.Limiter
	clock   curio.Clock
	logger  *zap.Logger
	cfg     Config
}

// New constructs a Reconciler.
func New(history curio.ChannelHistory, store curio.Store, runner Runner, clock curio.Clock, logger *zap.Logger, cfg Config) *Reconciler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 1000
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	return &Reconciler{
		history: history,
		store:   store,
		runner:  runner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		clock:   clock,
		logger:  logger,
		cfg:     cfg,
	}
}

// Run executes one reconciliation pass. Individual item failures are recorded
// by the pipeline and do not halt the batch.
func (r *Reconciler) Run(ctx context.Context) error {
	boundary, err := r.store.LastPublishedAt(ctx)
	if err != nil {
		return fmt.Errorf("last published at: %w", err)
	}
	log := r.logger.With(zap.String("channel_id", r.cfg.ChannelID))
	log.Info("starting backfill", zap.Time("boundary", boundary))

	var (
		beforeID string
		fetched  int
		replayed int
	)
	for fetched < r.cfg.MaxMessages {
		waitStart := r.clock.Now()
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("pacing wait: %w", err)
		}
		metrics.ObserveRateLimitDelay(r.clock.Now().Sub(waitStart))

		batch := r.cfg.BatchSize
		if remaining := r.cfg.MaxMessages - fetched; remaining < batch {
			batch = remaining
		}
		msgs, err := r.history.Messages(ctx, r.cfg.ChannelID, beforeID, batch)
		if err != nil {
			return fmt.Errorf("fetch history before %q: %w", beforeID, err)
		}
		if len(msgs) == 0 {
			break
		}
		fetched += len(msgs)
		beforeID = msgs[len(msgs)-1].ID

		// Messages arrive newest first: crossing the boundary ends the run.
		candidates, crossed := r.filter(msgs, boundary)
		n, err := r.replay(ctx, candidates, log)
		if err != nil {
			return err
		}
		replayed += n
		if crossed {
			break
		}
	}

	log.Info("backfill finished", zap.Int("scanned", fetched), zap.Int("replayed", replayed))
	return nil
}

// filter keeps URL-bearing messages not authored by the bot and newer than
// the boundary. The second result reports whether the boundary was crossed.
func (r *Reconciler) filter(msgs []curio.ChannelMessage, boundary time.Time) ([]curio.ChannelMessage, bool) {
	var kept []curio.ChannelMessage
	for _, msg := range msgs {
		if !boundary.IsZero() && !msg.Timestamp.After(boundary) {
			return kept, true
		}
		if msg.Bot || msg.AuthorID == r.cfg.BotUserID {
			continue
		}
		if FirstURL(msg.Content) == "" {
			continue
		}
		kept = append(kept, msg)
	}
	return kept, false
}

// replay bulk-checks identities and runs every unseen message through the
// pipeline sequentially.
func (r *Reconciler) replay(ctx context.Context, msgs []curio.ChannelMessage, log *zap.Logger) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	identities := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		identities = append(identities, msg.ID)
	}
	existing, err := r.store.ExistingIdentities(ctx, identities)
	if err != nil {
		return 0, fmt.Errorf("check existing identities: %w", err)
	}

	replayed := 0
	for _, msg := range msgs {
		if existing[msg.ID] {
			continue
		}
		sub := curio.Submission{
			MessageID: msg.ID,
			ChannelID: msg.ChannelID,
			RawText:   msg.Content,
			Submitter: msg.AuthorID,
			URL:       FirstURL(msg.Content),
		}
		if err := r.runner.Process(ctx, sub, pipeline.SourceBackfill); err != nil {
			log.Warn("backfill item failed",
				zap.String("message_id", msg.ID),
				zap.String("url", sub.URL),
				zap.Error(err),
			)
			continue
		}
		replayed++
	}
	return replayed, nil
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// FirstURL returns the first URL in a message, stripped of trailing
// punctuation and the closing half of an embed-suppressing <link>.
func FirstURL(content string) string {
	match := urlPattern.FindString(content)
	if match == "" {
		return ""
	}
	return strings.TrimRight(match, ".,;:!?)>]}'\"")
}
