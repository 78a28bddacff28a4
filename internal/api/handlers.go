package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/curiobot/curio/internal/curio"
)

type submissionRequest struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
	RawText   string `json:"raw_text"`
	Submitter string `json:"submitter"`
	URL       string `json:"url"`
}

type importRequest struct {
	URLs []string `json:"urls"`
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if req.MessageID == "" {
		s.writeError(w, http.StatusBadRequest, "message_id is required")
		return
	}
	if _, err := curio.NormalizeURL(req.URL); err != nil {
		s.writeError(w, http.StatusBadRequest, "unparseable url")
		return
	}

	item := curio.QueueItem{
		Submission: curio.Submission{
			MessageID: req.MessageID,
			ChannelID: req.ChannelID,
			RawText:   req.RawText,
			Submitter: req.Submitter,
			URL:       req.URL,
		},
		Attempt:  1,
		Enqueued: s.clock.Now().Unix(),
	}
	ctx, cancel := context.WithTimeout(r.Context(), enqueueTimeout)
	defer cancel()
	if err := s.queue.Enqueue(ctx, item); err != nil {
		s.logger.Error("enqueue submission failed", zap.Error(err))
		s.writeError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":     "queued",
		"message_id": req.MessageID,
	})
}

func (s *Server) importURLs(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.URLs) == 0 {
		s.writeError(w, http.StatusBadRequest, "urls required")
		return
	}
	report, err := s.importer.ImportURLs(r.Context(), req.URLs, s.cfg.ImportDelay)
	if err != nil {
		s.logger.Error("import failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := s.store.Search(r.Context(), filter)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

func (s *Server) getRecommendation(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	rec, err := s.store.FindByIdentity(r.Context(), identity)
	if err != nil {
		if errors.Is(err, curio.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "recommendation not found")
			return
		}
		s.logger.Error("load recommendation failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load recommendation")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"recommendation": rec})
}

func parseSearchFilter(r *http.Request) (curio.SearchFilter, error) {
	q := r.URL.Query()
	filter := curio.SearchFilter{
		Tag:   strings.TrimSpace(q.Get("tag")),
		Limit: defaultSearchLimit,
	}

	if lib := strings.TrimSpace(q.Get("library")); lib != "" {
		switch curio.Library(lib) {
		case curio.LibraryFiction, curio.LibraryNonfiction, curio.LibraryPractical:
			filter.Library = curio.Library(lib)
		default:
			return curio.SearchFilter{}, errors.New("invalid library")
		}
	}
	if cat := strings.TrimSpace(q.Get("category")); cat != "" {
		switch curio.Category(cat) {
		case curio.CategoryVideo, curio.CategoryAudiobook, curio.CategoryPodcast,
			curio.CategoryArticle, curio.CategoryOther:
			filter.Category = curio.Category(cat)
		default:
			return curio.SearchFilter{}, errors.New("invalid category")
		}
	}
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return curio.SearchFilter{}, errors.New("invalid limit")
		}
		if val > maxSearchLimit {
			val = maxSearchLimit
		}
		filter.Limit = val
	}
	return filter, nil
}

func decodeJSON(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(dst)
}
