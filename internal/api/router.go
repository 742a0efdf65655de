// Package api is the HTTP surface of the transcript memory server: chunk
// ingestion, structured and semantic retrieval, summaries, and the per-day
// chatrooms with their streaming socket.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Anmol-TheDev/AI-pendant/internal/chat"
	"github.com/Anmol-TheDev/AI-pendant/internal/config"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/internal/pipeline"
	"github.com/Anmol-TheDev/AI-pendant/internal/retrieval"
	"github.com/Anmol-TheDev/AI-pendant/internal/storage"
	"github.com/Anmol-TheDev/AI-pendant/internal/summary"
)

const maxRequestBody = 1 * 1024 * 1024

// Server bundles the HTTP handlers and their collaborators.
type Server struct {
	cfg        *config.Config
	mux        *chi.Mux
	ingestor   *pipeline.Ingestor
	engine     *retrieval.Engine
	summarizer *summary.Summarizer
	chat       *chat.Manager
	meta       storage.MetaStore
	vectors    storage.VectorStore
	logger     logging.Logger
}

// NewServer wires the routes and middleware.
func NewServer(
	cfg *config.Config,
	ingestor *pipeline.Ingestor,
	engine *retrieval.Engine,
	summarizer *summary.Summarizer,
	chatManager *chat.Manager,
	meta storage.MetaStore,
	vectors storage.VectorStore,
	logger logging.Logger,
) *Server {
	s := &Server{
		cfg:        cfg,
		mux:        chi.NewRouter(),
		ingestor:   ingestor,
		engine:     engine,
		summarizer: summarizer,
		chat:       chatManager,
		meta:       meta,
		vectors:    vectors,
		logger:     logger.WithComponent("api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) setupMiddleware() {
	s.mux.Use(chimiddleware.Recoverer)
	s.mux.Use(requestLogger(s.logger))
	s.mux.Use(chimiddleware.RequestSize(maxRequestBody))
	s.mux.Use(s.timeoutMiddleware())
}

// timeoutMiddleware applies the request timeout everywhere except the
// streaming socket.
func (s *Server) timeoutMiddleware() func(http.Handler) http.Handler {
	timeout := time.Duration(s.cfg.Server.WriteTimeout) * time.Second
	return func(next http.Handler) http.Handler {
		wrapped := chimiddleware.Timeout(timeout)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/ws") {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

func (s *Server) setupRoutes() {
	s.mux.Get("/healthz", s.handleHealth)

	s.mux.Route("/api", func(r chi.Router) {
		r.Post("/transcripts", s.handleIngest)
		r.Get("/transcripts/range", s.handleChunksByRange)

		r.Route("/context", func(r chi.Router) {
			r.Get("/daily/{day}", s.handleDailyContext)
			r.Get("/hourly/{day}/{hour}", s.handleHourlyContext)
			r.Get("/search", s.handleSearch)
			r.Get("/similar/{chunkId}", s.handleSimilar)
			r.Get("/buckets", s.handleListBuckets)
			r.Get("/current", s.handleCurrentBucket)
		})

		r.Route("/summaries", func(r chi.Router) {
			r.Get("/daily/{day}", s.handleDailySummary)
			r.Get("/weekly", s.handleWeeklySummary)
		})

		r.Route("/chat/{day}/messages", func(r chi.Router) {
			r.Get("/", s.handleListMessages)
			r.Post("/", s.handleSendMessage)
		})

		r.Get("/vectors/stats", s.handleVectorStats)
	})

	s.mux.Get("/ws/chat/{day}", s.handleChatSocket)
}
