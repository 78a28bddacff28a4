package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiobot/curio/internal/curio"
)

var recColumns = []string{
	"id", "identity", "url", "raw_text", "submitter", "channel_id", "category", "title",
	"description", "topics", "duration", "quality_score", "sentiment", "summary", "thumbnail",
	"archive_uri", "library", "primary_tag", "secondary_tags", "topic_id", "post_id",
	"published", "published_at", "last_error", "attempts", "created_at",
}

func TestCreateInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock)
	now := time.Unix(1700000000, 0).UTC()

	rec := curio.Recommendation{
		ID:        "11111111-1111-1111-1111-111111111111",
		Identity:  "123:456",
		URL:       "https://example.com/essay",
		RawText:   "worth a read",
		Submitter: "alice",
		ChannelID: "456",
		Category:  curio.CategoryArticle,
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO recommendations").
		WithArgs(rec.ID, rec.Identity, rec.URL, rec.RawText, rec.Submitter, rec.ChannelID, "article", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.Create(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMapsUniqueViolationToDuplicate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock)

	mock.ExpectExec("INSERT INTO recommendations").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "recommendations_identity_key"})

	_, err = s.Create(context.Background(), curio.Recommendation{
		ID:       "11111111-1111-1111-1111-111111111111",
		Identity: "123:456",
		URL:      "https://example.com/essay",
	})
	assert.ErrorIs(t, err, curio.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIdentityNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock)

	mock.ExpectQuery("SELECT (.+) FROM recommendations WHERE identity").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = s.FindByIdentity(context.Background(), "missing")
	assert.ErrorIs(t, err, curio.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClassificationWritesFields(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock)

	rec := curio.Recommendation{
		Category:      curio.CategoryVideo,
		Title:         "A Talk",
		Description:   "About systems.",
		Topics:        []string{"systems"},
		Duration:      "42 min",
		Quality:       8,
		Sentiment:     curio.SentimentPositive,
		Summary:       "A summary.",
		Library:       curio.LibraryNonfiction,
		PrimaryTag:    "science",
		SecondaryTags: []string{"technology"},
	}

	mock.ExpectExec("UPDATE recommendations SET").
		WithArgs("video", rec.Title, rec.Description, rec.Topics, rec.Duration, rec.Quality,
			"positive", rec.Summary, rec.Thumbnail, rec.ArchiveURI, "nonfiction",
			rec.PrimaryTag, rec.SecondaryTags, "123:456").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.UpdateClassification(context.Background(), "123:456", rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMutationsRefusePublishedRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock)

	mock.ExpectExec("UPDATE recommendations SET").
		WithArgs(int64(9), int64(10), pgxmock.AnyArg(), "123:456").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT published FROM recommendations").
		WithArgs("123:456").
		WillReturnRows(pgxmock.NewRows([]string{"published"}).AddRow(true))

	err = s.MarkPublished(context.Background(), "123:456", curio.PostRef{TopicID: 9, PostID: 10}, time.Now())
	assert.ErrorIs(t, err, curio.ErrPublished)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordErrorOnMissingRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock)

	mock.ExpectExec("UPDATE recommendations SET last_error").
		WithArgs("boom", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT published FROM recommendations").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	err = s.RecordError(context.Background(), "missing", "boom")
	assert.ErrorIs(t, err, curio.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistingIdentities(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock)

	asked := []string{"a:1", "a:2", "a:3"}
	mock.ExpectQuery("SELECT identity FROM recommendations").
		WithArgs(asked).
		WillReturnRows(pgxmock.NewRows([]string{"identity"}).AddRow("a:1").AddRow("a:3"))

	got, err := s.ExistingIdentities(context.Background(), asked)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a:1": true, "a:3": true}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistingIdentitiesEmptyInputSkipsQuery(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock)

	got, err := s.ExistingIdentities(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLastPublishedAtEmptyTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock)

	mock.ExpectQuery("SELECT published_at FROM recommendations").
		WillReturnError(pgx.ErrNoRows)

	at, err := s.LastPublishedAt(context.Background())
	require.NoError(t, err)
	assert.True(t, at.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchScansRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewWithPool(mock)

	now := time.Unix(1700000000, 0).UTC()
	published := now.Add(time.Hour)

	rows := pgxmock.NewRows(recColumns).AddRow(
		"11111111-1111-1111-1111-111111111111", "123:456", "https://example.com/essay",
		"worth a read", "alice", "456", "article", "How to Think",
		"An essay.", []string{"attention"}, "", 8, "positive", "A summary.", "",
		"", "nonfiction", "psychology", []string{"philosophy"}, int64(9), int64(10),
		true, &published, "", 1, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM recommendations").
		WithArgs("nonfiction", "psychology", "", 50).
		WillReturnRows(rows)

	recs, err := s.Search(context.Background(), curio.SearchFilter{
		Library: curio.LibraryNonfiction,
		Tag:     "psychology",
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, curio.LibraryNonfiction, rec.Library)
	assert.Equal(t, "psychology", rec.PrimaryTag)
	assert.Equal(t, []string{"philosophy"}, rec.SecondaryTags)
	assert.True(t, rec.Published)
	require.NotNil(t, rec.PublishedAt)
	assert.Equal(t, published, *rec.PublishedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
