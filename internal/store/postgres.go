// Package store provides the Postgres-backed recommendation store.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curiobot/curio/internal/curio"
)

// Schema is the recommendations table DDL, applied at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS recommendations (
	id UUID PRIMARY KEY,
	identity TEXT NOT NULL UNIQUE,
	url TEXT NOT NULL UNIQUE,
	raw_text TEXT NOT NULL DEFAULT '',
	submitter TEXT NOT NULL DEFAULT '',
	channel_id TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT 'other',
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	topics TEXT[] NOT NULL DEFAULT '{}',
	duration TEXT NOT NULL DEFAULT '',
	quality_score INT NOT NULL DEFAULT 0,
	sentiment TEXT NOT NULL DEFAULT 'neutral',
	summary TEXT NOT NULL DEFAULT '',
	thumbnail TEXT NOT NULL DEFAULT '',
	archive_uri TEXT NOT NULL DEFAULT '',
	library TEXT NOT NULL DEFAULT '',
	primary_tag TEXT NOT NULL DEFAULT '',
	secondary_tags TEXT[] NOT NULL DEFAULT '{}',
	topic_id BIGINT NOT NULL DEFAULT 0,
	post_id BIGINT NOT NULL DEFAULT 0,
	published BOOLEAN NOT NULL DEFAULT FALSE,
	published_at TIMESTAMPTZ,
	last_error TEXT NOT NULL DEFAULT '',
	attempts INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS recommendations_library_tag_idx ON recommendations (library, primary_tag);
CREATE INDEX IF NOT EXISTS recommendations_published_at_idx ON recommendations (published, published_at);
`

const columns = `id, identity, url, raw_text, submitter, channel_id, category, title,
	description, topics, duration, quality_score, sentiment, summary, thumbnail,
	archive_uri, library, primary_tag, secondary_tags, topic_id, post_id,
	published, published_at, last_error, attempts, created_at`

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres implements curio.Store on a pgx connection pool.
type Postgres struct {
	pool pool
}

var _ curio.Store = (*Postgres)(nil)

// New connects a pool and returns the store.
func New(ctx context.Context, cfg Config) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{pool: p}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool) *Postgres {
	return &Postgres{pool: p}
}

// EnsureSchema applies the table DDL.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Postgres) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Create inserts a new unpublished row. A unique violation on the identity or
// normalized URL maps to curio.ErrDuplicate.
func (s *Postgres) Create(ctx context.Context, rec curio.Recommendation) (string, error) {
	if rec.ID == "" {
		return "", fmt.Errorf("recommendation id is required")
	}
	if rec.Identity == "" {
		return "", fmt.Errorf("recommendation identity is required")
	}
	query := `
INSERT INTO recommendations (
	id, identity, url, raw_text, submitter, channel_id, category, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.Identity,
		rec.URL,
		rec.RawText,
		rec.Submitter,
		rec.ChannelID,
		string(rec.Category),
		rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", curio.ErrDuplicate
		}
		return "", fmt.Errorf("insert recommendation: %w", err)
	}
	return rec.ID, nil
}

// FindByIdentity loads one row.
func (s *Postgres) FindByIdentity(ctx context.Context, identity string) (curio.Recommendation, error) {
	query := `SELECT ` + columns + ` FROM recommendations WHERE identity = $1`
	rec, err := scanRecommendation(s.pool.QueryRow(ctx, query, identity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return curio.Recommendation{}, curio.ErrNotFound
		}
		return curio.Recommendation{}, fmt.Errorf("find recommendation: %w", err)
	}
	return rec, nil
}

// UpdateClassification writes the synthesis result onto an unpublished row.
func (s *Postgres) UpdateClassification(ctx context.Context, identity string, rec curio.Recommendation) error {
	query := `
UPDATE recommendations SET
	category = $1,
	title = $2,
	description = $3,
	topics = $4,
	duration = $5,
	quality_score = $6,
	sentiment = $7,
	summary = $8,
	thumbnail = $9,
	archive_uri = $10,
	library = $11,
	primary_tag = $12,
	secondary_tags = $13,
	last_error = ''
WHERE identity = $14 AND NOT published`

	tag, err := s.pool.Exec(ctx, query,
		string(rec.Category),
		rec.Title,
		rec.Description,
		textArray(rec.Topics),
		rec.Duration,
		rec.Quality,
		string(rec.Sentiment),
		rec.Summary,
		rec.Thumbnail,
		rec.ArchiveURI,
		string(rec.Library),
		rec.PrimaryTag,
		textArray(rec.SecondaryTags),
		identity,
	)
	if err != nil {
		return fmt.Errorf("update classification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.mutationRefused(ctx, identity)
	}
	return nil
}

// RecordError increments the attempt counter and stores the failure text.
func (s *Postgres) RecordError(ctx context.Context, identity string, errText string) error {
	query := `
UPDATE recommendations SET last_error = $1, attempts = attempts + 1
WHERE identity = $2 AND NOT published`

	tag, err := s.pool.Exec(ctx, query, errText, identity)
	if err != nil {
		return fmt.Errorf("record error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.mutationRefused(ctx, identity)
	}
	return nil
}

// MarkPublished is terminal: it sets the post identifiers and the published
// flag. Rows already published are never touched again.
func (s *Postgres) MarkPublished(ctx context.Context, identity string, post curio.PostRef, at time.Time) error {
	query := `
UPDATE recommendations SET
	topic_id = $1, post_id = $2, published = TRUE, published_at = $3, last_error = ''
WHERE identity = $4 AND NOT published`

	tag, err := s.pool.Exec(ctx, query, post.TopicID, post.PostID, at, identity)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.mutationRefused(ctx, identity)
	}
	return nil
}

// ExistingIdentities reports which of the given identities already have rows.
func (s *Postgres) ExistingIdentities(ctx context.Context, identities []string) (map[string]bool, error) {
	return s.existing(ctx, "identity", identities)
}

// ExistingURLs reports which of the given normalized URLs already have rows.
func (s *Postgres) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	return s.existing(ctx, "url", urls)
}

func (s *Postgres) existing(ctx context.Context, column string, values []string) (map[string]bool, error) {
	out := make(map[string]bool, len(values))
	if len(values) == 0 {
		return out, nil
	}
	query := `SELECT ` + column + ` FROM recommendations WHERE ` + column + ` = ANY($1)`
	rows, err := s.pool.Query(ctx, query, values)
	if err != nil {
		return nil, fmt.Errorf("query existing %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan existing %s: %w", column, err)
		}
		out[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate existing %s: %w", column, err)
	}
	return out, nil
}

// LastPublishedAt returns the most recent publication time, or the zero time
// when nothing has been published yet.
func (s *Postgres) LastPublishedAt(ctx context.Context) (time.Time, error) {
	query := `SELECT published_at FROM recommendations WHERE published ORDER BY published_at DESC LIMIT 1`
	var at time.Time
	if err := s.pool.QueryRow(ctx, query).Scan(&at); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("last published at: %w", err)
	}
	return at, nil
}

// Search lists recommendations matching the filter, newest first. A tag
// filter matches the primary tag or any secondary tag.
func (s *Postgres) Search(ctx context.Context, filter curio.SearchFilter) ([]curio.Recommendation, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	query := `
SELECT ` + columns + ` FROM recommendations
WHERE ($1::text = '' OR library = $1)
  AND ($2::text = '' OR primary_tag = $2 OR $2 = ANY(secondary_tags))
  AND ($3::text = '' OR category = $3)
ORDER BY created_at DESC
LIMIT $4`

	rows, err := s.pool.Query(ctx, query, string(filter.Library), filter.Tag, string(filter.Category), limit)
	if err != nil {
		return nil, fmt.Errorf("search recommendations: %w", err)
	}
	defer rows.Close()

	var recs []curio.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return recs, nil
}

// mutationRefused explains a zero-row update: missing row or published row.
func (s *Postgres) mutationRefused(ctx context.Context, identity string) error {
	var published bool
	err := s.pool.QueryRow(ctx, `SELECT published FROM recommendations WHERE identity = $1`, identity).Scan(&published)
	if errors.Is(err, pgx.ErrNoRows) {
		return curio.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check row state: %w", err)
	}
	if published {
		return curio.ErrPublished
	}
	return curio.ErrNotFound
}

func scanRecommendation(row pgx.Row) (curio.Recommendation, error) {
	var (
		rec      curio.Recommendation
		category  string
		sentiment string
		lib       string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Identity,
		&rec.URL,
		&rec.RawText,
		&rec.Submitter,
		&rec.ChannelID,
		&category,
		&rec.Title,
		&rec.Description,
		&rec.Topics,
		&rec.Duration,
		&rec.Quality,
		&sentiment,
		&rec.Summary,
		&rec.Thumbnail,
		&rec.ArchiveURI,
		&lib,
		&rec.PrimaryTag,
		&rec.SecondaryTags,
		&rec.TopicID,
		&rec.PostID,
		&rec.Published,
		&rec.PublishedAt,
		&rec.LastError,
		&rec.Attempts,
		&rec.CreatedAt,
	)
	if err != nil {
		return curio.Recommendation{}, err
	}
	rec.Category = curio.Category(category)
	rec.Sentiment = curio.Sentiment(sentiment)
	rec.Library = curio.Library(lib)
	return rec, nil
}

// textArray keeps nil slices out of text[] columns.
func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
