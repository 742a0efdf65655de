// Package retrieval exposes the structured and semantic read paths over
// ingested transcript data.
package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/Anmol-TheDev/AI-pendant/internal/config"
	"github.com/Anmol-TheDev/AI-pendant/internal/embeddings"
	apperrors "github.com/Anmol-TheDev/AI-pendant/internal/errors"
	"github.com/Anmol-TheDev/AI-pendant/internal/logging"
	"github.com/Anmol-TheDev/AI-pendant/internal/storage"
	"github.com/Anmol-TheDev/AI-pendant/pkg/types"
)

// SearchOptions narrows a semantic search. Date is a UTC YYYY-MM-DD key;
// Limit <= 0 uses the configured default.
type SearchOptions struct {
	Date  string
	Limit int
}

// Engine serves daily/hourly context views, semantic search, and similarity
// lookups.
type Engine struct {
	meta     storage.MetaStore
	vectors  storage.VectorStore
	embedder embeddings.EmbeddingService
	search   config.SearchConfig
	logger   logging.Logger
}

// NewEngine creates a retrieval engine.
func NewEngine(
	meta storage.MetaStore,
	vectors storage.VectorStore,
	embedder embeddings.EmbeddingService,
	search config.SearchConfig,
	logger logging.Logger,
) *Engine {
	return &Engine{
		meta:     meta,
		vectors:  vectors,
		embedder: embedder,
		search:   search,
		logger:   logger.WithComponent("retrieval"),
	}
}

// GetDailyContext loads a full day view: segments ordered by hour, chunks
// ordered by timestamp, and totals summed from segment-level aggregates.
// A day number that never had a bucket yields a not-found error, distinct
// from an existing bucket with no chunks.
func (e *Engine) GetDailyContext(ctx context.Context, userID string, dayNumber int) (*types.DailyContext, error) {
	bucket, err := e.meta.GetDayBucketByNumber(ctx, userID, dayNumber)
	if err != nil {
		return nil, err
	}

	segments, err := e.meta.ListSegments(ctx, bucket.ID)
	if err != nil {
		return nil, err
	}

	view := &types.DailyContext{
		BucketName: bucket.Name,
		DayNumber:  bucket.DayNumber,
		StartTime:  bucket.StartTime,
		EndTime:    bucket.EndTime,
		Segments:   make([]types.SegmentView, 0, len(segments)),
	}
	for i := range segments {
		seg := &segments[i]
		chunks, err := e.meta.ListChunksBySegment(ctx, seg.ID)
		if err != nil {
			return nil, err
		}
		view.Segments = append(view.Segments, types.SegmentView{
			Hour:   seg.Hour,
			Chunks: chunkViews(chunks),
			Stats:  seg.Stats,
		})
		view.TotalChunks += len(chunks)
		view.TotalWords += seg.Stats.WordCount
	}
	return view, nil
}

// GetHourlyContext loads a single hour's view. A day or hour with no data
// yields a not-found error.
func (e *Engine) GetHourlyContext(ctx context.Context, userID string, dayNumber, hour int) (*types.HourlyContext, error) {
	if hour < 0 || hour > 23 {
		return nil, apperrors.NewValidation("hour", "must be between 0 and 23")
	}

	bucket, err := e.meta.GetDayBucketByNumber(ctx, userID, dayNumber)
	if err != nil {
		return nil, err
	}
	segment, err := e.meta.GetSegment(ctx, bucket.ID, hour)
	if err != nil {
		return nil, err
	}
	chunks, err := e.meta.ListChunksBySegment(ctx, segment.ID)
	if err != nil {
		return nil, err
	}

	return &types.HourlyContext{
		BucketName: bucket.Name,
		DayNumber:  bucket.DayNumber,
		Hour:       hour,
		Chunks:     chunkViews(chunks),
		Stats:      segment.Stats,
	}, nil
}

// SemanticSearch embeds the query and returns the nearest chunks by cosine
// similarity, restricted to the user and optionally to one date.
func (e *Engine) SemanticSearch(ctx context.Context, userID, query string, opts SearchOptions) (*types.SearchResults, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidation("query", "must not be empty")
	}
	limit := e.clampLimit(opts.Limit)

	vector, err := e.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorCodeDependencyDegraded, "query embedding failed", err)
	}

	results, err := e.vectors.Search(ctx, vector, storage.VectorFilter{UserID: userID, Date: opts.Date}, limit)
	if err != nil {
		return nil, err
	}

	e.logger.DebugContext(ctx, "Semantic search completed",
		"user_id", userID,
		"results", len(results),
		"limit", limit,
	)
	return &types.SearchResults{Query: query, Results: results}, nil
}

// FindSimilarEvents returns the chunks nearest to an existing chunk's own
// embedding, excluding the chunk itself. The source chunk must have a
// vector entry; a chunk that was persisted without one yields not-found.
func (e *Engine) FindSimilarEvents(ctx context.Context, userID, chunkID string, limit int) (*types.SearchResults, error) {
	limit = e.clampLimit(limit)

	entry, err := e.vectors.GetByID(ctx, chunkID)
	if err != nil {
		return nil, err
	}

	// Over-fetch by one so dropping the source still fills the limit.
	results, err := e.vectors.Search(ctx, entry.Vector, storage.VectorFilter{UserID: userID}, limit+1)
	if err != nil {
		return nil, err
	}

	filtered := make([]types.SearchResult, 0, limit)
	for _, r := range results {
		if r.ID == chunkID {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) == limit {
			break
		}
	}
	return &types.SearchResults{Query: entry.Text, Results: filtered}, nil
}

// ListUserBuckets lists a user's day buckets newest first.
func (e *Engine) ListUserBuckets(ctx context.Context, userID string, limit int) ([]types.DayBucket, error) {
	if limit <= 0 {
		limit = e.search.DefaultLimit
	}
	return e.meta.ListDayBuckets(ctx, userID, limit)
}

// CurrentBucket returns the bucket whose window contains now, or the most
// recent bucket when recording has lapsed past the latest window.
func (e *Engine) CurrentBucket(ctx context.Context, userID string) (*types.DayBucket, error) {
	bucket, err := e.meta.GetDayBucketByTime(ctx, userID, time.Now().UTC())
	if err == nil {
		return bucket, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}
	return e.meta.GetLatestDayBucket(ctx, userID)
}

// ChunksByTimeRange lists a user's chunks with timestamps in [start, end].
func (e *Engine) ChunksByTimeRange(ctx context.Context, userID string, start, end time.Time) ([]types.Chunk, error) {
	if end.Before(start) {
		return nil, apperrors.NewValidation("end", "must not precede start")
	}
	return e.meta.ListChunksByTimeRange(ctx, userID, start, end)
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.search.DefaultLimit
	}
	if limit > e.search.MaxLimit {
		return e.search.MaxLimit
	}
	return limit
}

func chunkViews(chunks []types.Chunk) []types.ChunkView {
	views := make([]types.ChunkView, len(chunks))
	for i, c := range chunks {
		views[i] = types.ChunkView{
			ID:        c.ID,
			Text:      c.Text,
			Timestamp: c.Timestamp,
			Sentiment: c.Sentiment,
			Topics:    c.Topics,
		}
	}
	return views
}
