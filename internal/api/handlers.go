package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/internal/pipeline"
	"github.com/Anmol-TheDev/AI-pendant/internal/retrieval"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// userID extracts the caller identity; the wearable firmware sends a fixed
// default when accounts are not configured.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return types.DefaultUserID
}

func dayParam(r *http.Request) (int, error) {
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil || day < 1 {
		return 0, apperrors.NewValidation("day", "must be a positive integer")
	}
	return day, nil
}

func intQuery(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

type ingestRequest struct {
	Text        string `json:"text"`
	Timestamp   string `json:"timestamp,omitempty"`
	ChunkNumber *int   `json:"chunk_number,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var body ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.NewValidation("body", "invalid JSON"))
		return
	}

	req := pipeline.IngestRequest{
		UserID:      userID(r),
		Text:        body.Text,
		ChunkNumber: body.ChunkNumber,
	}
	if body.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, body.Timestamp)
		if err != nil {
			writeError(w, apperrors.NewValidation("timestamp", "must be RFC 3339"))
			return
		}
		req.Timestamp = ts
	}

	result, err := s.ingestor.Ingest(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleDailyContext(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := s.engine.GetDailyContext(r.Context(), userID(r), day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHourlyContext(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	hour, err := strconv.Atoi(chi.URLParam(r, "hour"))
	if err != nil {
		writeError(w, apperrors.NewValidation("hour", "must be an integer"))
		return
	}
	view, err := s.engine.GetHourlyContext(r.Context(), userID(r), day, hour)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results, err := s.engine.SemanticSearch(r.Context(), userID(r), query, retrieval.SearchOptions{
		Date:  r.URL.Query().Get("date"),
		Limit: intQuery(r, "limit"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	chunkID := chi.URLParam(r, "chunkId")
	results, err := s.engine.FindSimilarEvents(r.Context(), userID(r), chunkID, intQuery(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.engine.ListUserBuckets(r.Context(), userID(r), intQuery(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	if buckets == nil {
		buckets = []types.DayBucket{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"buckets": buckets})
}

func (s *Server) handleCurrentBucket(w http.ResponseWriter, r *http.Request) {
	bucket, err := s.engine.CurrentBucket(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bucket)
}

func (s *Server) handleChunksByRange(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, apperrors.NewValidation("start", "must be RFC 3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, apperrors.NewValidation("end", "must be RFC 3339"))
		return
	}
	chunks, err := s.engine.ChunksByTimeRange(r.Context(), userID(r), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	if chunks == nil {
		chunks = []types.Chunk{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"chunks": chunks})
}

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.summarizer.Daily(r.Context(), userID(r), day)
	if err != nil {
		writeError(w, err)
		return
	}
	if result == nil {
		writeNoData(w, "no chunks recorded for this day")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	startDay := intQuery(r, "start")
	endDay := intQuery(r, "end")
	result, err := s.summarizer.Weekly(r.Context(), userID(r), startDay, endDay)
	if err != nil {
		writeError(w, err)
		return
	}
	if result == nil {
		writeNoData(w, "no recorded days in this range")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	page, err := s.chat.Messages(r.Context(), userID(r), day, r.URL.Query().Get("cursor"), intQuery(r, "limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	day, err := dayParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var body sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.NewValidation("body", "invalid JSON"))
		return
	}

	userMsg, reply, err := s.chat.Send(r.Context(), userID(r), day, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": userMsg,
		"reply":   reply,
	})
}

func (s *Server) handleVectorStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.vectors.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"total_entries": count})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	checks := map[string]string{"store": "ok", "vector_index": "ok"}

	if err := s.meta.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		checks["store"] = err.Error()
	}
	if err := s.vectors.HealthCheck(r.Context()); err != nil {
		status = "degraded"
		checks["vector_index"] = err.Error()
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{"status": status, "checks": checks})
}
