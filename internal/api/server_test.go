package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anmol-TheDev/AI-pendant/internal/analysis"
	"github.com/Anmol-TheDev/AI-pendant/internal/buckets"
	"github.com/Anmol-TheDev/AI-pendant/internal/chat"
	"github.com/Anmol-TheDev/AI-pendant/internal/config"
	"github.com/Anmol-TheDev/AI-pendant/internal/embeddings"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/internal/pipeline"
	"github.com/Anmol-TheDev/AI-pendant/internal/retrieval"
	"github.com/Anmol-TheDev/AI-pendant/internal/storage"
	"github.com/Anmol-TheDev/AI-pendant/internal/summary"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	meta := storage.NewMemoryMetaStore()
	vectors := storage.NewMemoryVectorStore()
	embedder := embeddings.NewResilientService(nil)
	logger := logging.NewNoOpLogger()

	ingestor := pipeline.NewIngestor(
		buckets.NewResolver(meta, logger),
		analysis.NewAnalyzer(nil),
		embedder,
		meta,
		vectors,
		logger,
	)
	engine := retrieval.NewEngine(meta, vectors, embedder, cfg.Search, logger)
	summarizer := summary.NewSummarizer(meta, nil, cfg.Summary, logger)
	chatManager := chat.NewManager(meta, engine, nil, logger)

	return NewServer(cfg, ingestor, engine, summarizer, chatManager, meta, vectors, logger)
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func ingestChunk(t *testing.T, server *Server, text string, ts time.Time) map[string]interface{} {
	t.Helper()
	rec := doJSON(t, server, http.MethodPost, "/api/transcripts", map[string]interface{}{
		"text":      text,
		"timestamp": ts.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)
}

func TestIngestEndpoint(t *testing.T) {
	server := newTestServer(t)
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("created", func(t *testing.T) {
		body := ingestChunk(t, server, "first recorded chunk", ts)
		assert.NotEmpty(t, body["chunk_id"])
		assert.Equal(t, body["chunk_id"], body["embedding_id"])
	})

	t.Run("empty text", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/transcripts", map[string]interface{}{"text": " "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errBody := decode(t, rec)["error"].(map[string]interface{})
		assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
	})

	t.Run("bad timestamp", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/transcripts", map[string]interface{}{
			"text":      "hello",
			"timestamp": "yesterday",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/transcripts", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestContextEndpoints(t *testing.T) {
	server := newTestServer(t)
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ingestChunk(t, server, "coffee with an old friend", ts)
	ingestChunk(t, server, "bike ride along the river", ts.Add(2*time.Hour))

	t.Run("daily", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/context/daily/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Day 1", body["bucket_name"])
		assert.Equal(t, float64(2), body["total_chunks"])
	})

	t.Run("daily missing day", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/context/daily/9", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("daily bad day param", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/context/daily/zero", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("hourly", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/context/hourly/1/9", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, float64(9), body["hour"])
	})

	t.Run("search", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/context/search?q=coffee+with+an+old+friend", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		results := body["results"].([]interface{})
		require.NotEmpty(t, results)
	})

	t.Run("search without query", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/context/search", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("buckets", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/context/buckets", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Len(t, body["buckets"], 1)
	})

	t.Run("range", func(t *testing.T) {
		path := fmt.Sprintf("/api/transcripts/range?start=%s&end=%s",
			ts.Add(-time.Minute).Format(time.RFC3339), ts.Add(time.Minute).Format(time.RFC3339))
		rec := doJSON(t, server, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Len(t, body["chunks"], 1)
	})

	t.Run("range without bounds", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/transcripts/range", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserIsolation(t *testing.T) {
	server := newTestServer(t)
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ingestChunk(t, server, "default user chunk", ts)

	req := httptest.NewRequest(http.MethodGet, "/api/context/daily/1", nil)
	req.Header.Set("X-User-ID", "someone-else")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummaryEndpoints(t *testing.T) {
	server := newTestServer(t)
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ingestChunk(t, server, "notes about the garden project", ts)

	t.Run("daily uses fallback template", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/summaries/daily/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Contains(t, body["summary"], "transcript segments")
	})

	t.Run("weekly no data", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/summaries/weekly?start=20&end=27", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["no_data"])
	})

	t.Run("weekly", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/summaries/weekly?start=1&end=7", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Contains(t, body["summary"], "Week covered")
	})
}

func TestChatEndpoints(t *testing.T) {
	server := newTestServer(t)
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ingestChunk(t, server, "talked about the move", ts)

	t.Run("send and list", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodPost, "/api/chat/1/messages", map[string]interface{}{
			"content": "what did I talk about?",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		body := decode(t, rec)
		require.NotNil(t, body["message"])
		require.NotNil(t, body["reply"])

		rec = doJSON(t, server, http.MethodGet, "/api/chat/1/messages", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode(t, rec)
		assert.Len(t, page["messages"], 2)
		assert.Equal(t, float64(2), page["total_count"])
	})

	t.Run("missing chatroom", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/chat/5/messages", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthAndStats(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = doJSON(t, server, http.MethodGet, "/api/vectors/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decode(t, rec)["total_entries"])
}
