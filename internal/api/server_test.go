package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/curiobot/curio/internal/curio"
	"github.com/curiobot/curio/internal/metrics"
	"github.com/curiobot/curio/internal/pipeline"
)

func init() {
	metrics.Init()
}

type fakeQueue struct {
	items []curio.QueueItem
	err   error
}

func (q *fakeQueue) Enqueue(_ context.Context, item curio.QueueItem) error {
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, item)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (curio.QueueItem, error) {
	<-ctx.Done()
	return curio.QueueItem{}, ctx.Err()
}

type fakeStore struct {
	curio.Store

	recs       map[string]curio.Recommendation
	searchRes  []curio.Recommendation
	lastFilter curio.SearchFilter
	readyErr   error
}

func (s *fakeStore) FindByIdentity(_ context.Context, identity string) (curio.Recommendation, error) {
	rec, ok := s.recs[identity]
	if !ok {
		return curio.Recommendation{}, curio.ErrNotFound
	}
	return rec, nil
}

func (s *fakeStore) Search(_ context.Context, filter curio.SearchFilter) ([]curio.Recommendation, error) {
	s.lastFilter = filter
	return s.searchRes, nil
}

func (s *fakeStore) LastPublishedAt(_ context.Context) (time.Time, error) {
	return time.Time{}, s.readyErr
}

type fakeImporter struct {
	urls   []string
	report pipeline.ImportReport
}

func (i *fakeImporter) ImportURLs(_ context.Context, urls []string, _ time.Duration) (pipeline.ImportReport, error) {
	i.urls = urls
	return i.report, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T, queue *fakeQueue, store *fakeStore, importer *fakeImporter, cfg Config) *Server {
	t.Helper()
	if queue == nil {
		queue = &fakeQueue{}
	}
	if store == nil {
		store = &fakeStore{recs: map[string]curio.Recommendation{}}
	}
	if importer == nil {
		importer = &fakeImporter{}
	}
	clock := fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewServer(queue, store, importer, clock, zap.NewNop(), cfg)
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSubmitEnqueues(t *testing.T) {
	queue := &fakeQueue{}
	srv := newTestServer(t, queue, nil, nil, Config{})

	rec := postJSON(t, srv.Handler(), "/v1/submissions", map[string]string{
		"message_id": "m-1",
		"channel_id": "c-1",
		"raw_text":   "must read https://example.com/essay",
		"submitter":  "user#1",
		"url":        "https://example.com/essay",
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.items, 1)
	item := queue.items[0]
	assert.Equal(t, "m-1", item.Submission.MessageID)
	assert.Equal(t, "https://example.com/essay", item.Submission.URL)
	assert.Equal(t, 1, item.Attempt)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Unix(), item.Enqueued)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]string
	}{
		{"missing url", map[string]string{"message_id": "m-1"}},
		{"missing message id", map[string]string{"url": "https://example.com"}},
		{"bad url", map[string]string{"message_id": "m-1", "url": "http://bad host/"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			queue := &fakeQueue{}
			srv := newTestServer(t, queue, nil, nil, Config{})
			rec := postJSON(t, srv.Handler(), "/v1/submissions", tc.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, queue.items)
		})
	}
}

func TestImportReturnsReport(t *testing.T) {
	importer := &fakeImporter{report: pipeline.ImportReport{Total: 3, Published: 2, Skipped: 1}}
	srv := newTestServer(t, nil, nil, importer, Config{})

	rec := postJSON(t, srv.Handler(), "/v1/import", map[string][]string{
		"urls": {"https://a.example/1", "https://a.example/2", "https://a.example/3"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, importer.urls, 3)

	var report pipeline.ImportReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Published)
}

func TestImportRejectsEmpty(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil, Config{})
	rec := postJSON(t, srv.Handler(), "/v1/import", map[string][]string{"urls": {}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchFilters(t *testing.T) {
	store := &fakeStore{
		recs: map[string]curio.Recommendation{},
		searchRes: []curio.Recommendation{
			{Identity: "m-1", Title: "Project Hail Mary", Library: curio.LibraryFiction},
		},
	}
	srv := newTestServer(t, nil, store, nil, Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations?library=fiction&tag=science-fiction&limit=10", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, curio.LibraryFiction, store.lastFilter.Library)
	assert.Equal(t, "science-fiction", store.lastFilter.Tag)
	assert.Equal(t, 10, store.lastFilter.Limit)

	var payload struct {
		Recommendations []curio.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Recommendations, 1)
	assert.Equal(t, "Project Hail Mary", payload.Recommendations[0].Title)
}

func TestSearchRejectsUnknownLibrary(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil, Config{})
	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations?library=romance", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRecommendation(t *testing.T) {
	store := &fakeStore{recs: map[string]curio.Recommendation{
		"m-1": {Identity: "m-1", Title: "Thinking, Fast and Slow"},
	}}
	srv := newTestServer(t, nil, store, nil, Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations/m-1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/recommendations/m-404", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIKeyGuardsV1Only(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil, Config{AuthEnabled: true, APIKey: "sekrit"})

	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReportsStoreFailure(t *testing.T) {
	store := &fakeStore{recs: map[string]curio.Recommendation{}, readyErr: context.DeadlineExceeded}
	srv := newTestServer(t, nil, store, nil, Config{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
